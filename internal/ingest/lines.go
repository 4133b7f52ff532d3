package ingest

import (
	"bytes"
	"regexp"
	"strings"
)

type lineKind int

const (
	kindBlank lineKind = iota
	kindText
	kindHeading
	kindBullet
	kindOrdered
	kindQuote
	kindTable
	kindRule
	kindFence
)

var (
	headingRe   = regexp.MustCompile(`^#{1,6}(\s|$)`)
	bulletRe    = regexp.MustCompile(`^[-*+](\s|$)`)
	orderedRe   = regexp.MustCompile(`^\d{1,9}[.)](\s|$)`)
	ruleRe      = regexp.MustCompile(`^(?:(?:-\s*){3,}|(?:\*\s*){3,}|(?:_\s*){3,}|(?:=\s*){3,})$`)
	separatorRe = regexp.MustCompile(`^\|?\s*:?-+:?\s*(\|\s*:?-+:?\s*)*\|?$`)
)

// isSlideBoundary reports whether a complete line starts a new slide.
func isSlideBoundary(line []byte) bool {
	line = bytes.TrimRight(line, "\r\n")
	if len(line) == 0 || line[0] != '#' {
		return false
	}
	return len(line) == 1 || line[1] == ' ' || line[1] == '\t'
}

func slideTitle(line []byte) string {
	return strings.TrimSpace(string(bytes.TrimLeft(bytes.TrimRight(line, "\r\n"), "#")))
}

// fence describes an open fenced code region.
type fence struct {
	char   byte
	length int
	indent int
}

// openFence reports whether line opens a fenced region: up to three spaces
// of indentation followed by at least three backticks or tildes.
func openFence(line []byte) (fence, bool) {
	line = bytes.TrimRight(line, "\r\n")
	indent := 0
	for indent < len(line) && indent < 4 && line[indent] == ' ' {
		indent++
	}
	if indent > 3 {
		return fence{}, false
	}
	rest := line[indent:]
	if len(rest) < 3 || (rest[0] != '`' && rest[0] != '~') {
		return fence{}, false
	}
	ch := rest[0]
	n := 0
	for n < len(rest) && rest[n] == ch {
		n++
	}
	if n < 3 {
		return fence{}, false
	}
	// A backtick fence may not have backticks in its info string.
	if ch == '`' && bytes.IndexByte(rest[n:], '`') >= 0 {
		return fence{}, false
	}
	return fence{char: ch, length: n, indent: indent}, true
}

// closes reports whether line terminates the fenced region f.
func (f fence) closes(line []byte) bool {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) < f.length {
		return false
	}
	leading := len(line) - len(bytes.TrimLeft(line, " "))
	if leading > 3 {
		return false
	}
	for _, c := range trimmed {
		if c != f.char {
			return false
		}
	}
	return true
}

// dedent removes up to f.indent leading spaces from a line of the region.
func (f fence) dedent(line string) string {
	for i := 0; i < f.indent && strings.HasPrefix(line, " "); i++ {
		line = line[1:]
	}
	return line
}

func classify(line string, prev lineKind) lineKind {
	if strings.TrimSpace(line) == "" {
		return kindBlank
	}

	indented := line[0] == ' ' || line[0] == '\t'
	if indented && (prev == kindBullet || prev == kindOrdered) {
		return prev
	}

	trimmed := strings.TrimSpace(line)
	switch {
	case prev == kindTable && separatorRe.MatchString(trimmed):
		return kindTable
	case strings.HasPrefix(trimmed, "|"):
		return kindTable
	case ruleRe.MatchString(trimmed):
		return kindRule
	case headingRe.MatchString(trimmed):
		return kindHeading
	case bulletRe.MatchString(trimmed):
		return kindBullet
	case orderedRe.MatchString(trimmed):
		return kindOrdered
	case strings.HasPrefix(trimmed, ">"):
		return kindQuote
	}
	return kindText
}

// separatedKinds reports whether two consecutive non-blank lines belong
// to different blocks.
func separatedKinds(prev, cur lineKind) bool {
	if prev == kindHeading || prev == kindRule || prev == kindFence {
		return true
	}
	return prev != cur
}

// normalize rewrites a slide body so that the generic markdown parser sees
// the line-oriented grammar of generated slides: every change of line kind
// becomes a block boundary, indentation outside lists is dropped, fenced
// regions are kept verbatim, and tables get a separator row when the
// generator omitted it.
func normalize(body string) string {
	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")

	var (
		out      []string
		prev     = kindBlank
		inFence  bool
		open     fence
		tableRow int
	)

	emitBoundary := func() {
		if len(out) > 0 && out[len(out)-1] != "" {
			out = append(out, "")
		}
	}

	// A table made of a header row only still needs a separator.
	closeTable := func() {
		if prev == kindTable && tableRow == 1 {
			out = append(out, separatorFor(out[len(out)-1]))
		}
		tableRow = 0
	}

	for _, line := range lines {
		if inFence {
			if open.closes([]byte(line)) {
				out = append(out, strings.TrimLeft(line, " "))
				inFence = false
				prev = kindFence
				continue
			}
			out = append(out, open.dedent(line))
			continue
		}

		if f, ok := openFence([]byte(line)); ok {
			closeTable()
			emitBoundary()
			out = append(out, strings.TrimLeft(line, " "))
			inFence = true
			open = f
			prev = kindFence
			continue
		}

		kind := classify(line, prev)
		if kind == kindBlank {
			closeTable()
			out = append(out, "")
			// A blank line ends a table but not a list, so that loose list
			// items continue the same list.
			if prev != kindBullet && prev != kindOrdered {
				prev = kindBlank
			}
			continue
		}

		if prev != kindBlank && separatedKinds(prev, kind) {
			closeTable()
			emitBoundary()
		}

		switch kind {
		case kindRule:
			// Rules carry no content.
			prev = kind
			continue
		case kindBullet, kindOrdered:
			if prev != kind && !(line[0] == ' ' || line[0] == '\t') {
				line = strings.TrimLeft(line, " \t")
			}
		case kindTable:
			line = strings.TrimSpace(line)
			tableRow++
			if tableRow == 2 && !separatorRe.MatchString(line) {
				header := out[len(out)-1]
				out = append(out, separatorFor(header))
				tableRow++
			}
		default:
			line = strings.TrimLeft(line, " \t")
		}

		out = append(out, line)
		prev = kind
	}

	closeTable()

	return strings.Join(out, "\n") + "\n"
}

// splitRow splits a pipe-delimited row into trimmed cells, honouring
// escaped pipes.
func splitRow(row string) []string {
	row = strings.TrimSpace(row)
	row = strings.TrimPrefix(row, "|")
	if strings.HasSuffix(row, "|") && !strings.HasSuffix(row, `\|`) {
		row = row[:len(row)-1]
	}

	var (
		cells []string
		cur   strings.Builder
	)
	for i := 0; i < len(row); i++ {
		switch {
		case row[i] == '\\' && i+1 < len(row) && row[i+1] == '|':
			cur.WriteString(`\|`)
			i++
		case row[i] == '|':
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(row[i])
		}
	}
	return append(cells, strings.TrimSpace(cur.String()))
}

func separatorFor(header string) string {
	n := len(splitRow(header))
	return "|" + strings.Repeat(" --- |", n)
}
