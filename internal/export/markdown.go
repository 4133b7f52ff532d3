package export

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/stateful/slidedeck/internal/document"
	"github.com/stateful/slidedeck/internal/theme"
)

// MarkdownExporter writes slides in the markdown dialect accepted by the
// ingestion parser, so that parsing its output yields slides with the same
// titles and content. Image and chart blocks have no such dialect and are
// written as a paragraph and a table respectively. The theme is not part of
// the output.
type MarkdownExporter struct{}

func (MarkdownExporter) Export(ctx context.Context, w io.Writer, slides document.Slides, _ theme.Theme) error {
	bw := bufio.NewWriter(w)

	for i, s := range slides {
		if err := ctx.Err(); err != nil {
			return errors.WithStack(err)
		}
		if i > 0 {
			_, _ = bw.WriteString("\n")
		}
		writeSlide(bw, s)
	}

	return errors.Wrap(bw.Flush(), "failed to write markdown")
}

func writeSlide(w *bufio.Writer, s document.Slide) {
	title := strings.TrimSpace(strings.ReplaceAll(s.Title, "\n", " "))
	if title == "" {
		_, _ = w.WriteString("#\n")
	} else {
		_, _ = fmt.Fprintf(w, "# %s\n", title)
	}

	for _, b := range s.Content {
		if md := blockMarkdown(b); md != "" {
			_, _ = w.WriteString("\n")
			_, _ = w.WriteString(md)
			_, _ = w.WriteString("\n")
		}
	}
}

// blockMarkdown renders a single block, or nothing for an empty payload.
func blockMarkdown(b document.Block) string {
	switch b.Type {
	case document.BlockHeading:
		return "## " + strings.ReplaceAll(b.Text, "\n", " ")
	case document.BlockParagraph:
		return b.Text
	case document.BlockQuote:
		return prefixLines(b.Text, "> ")
	case document.BlockList:
		items := make([]string, 0, len(b.Items))
		for _, item := range b.Items {
			items = append(items, "- "+strings.ReplaceAll(item, "\n", " "))
		}
		return strings.Join(items, "\n")
	case document.BlockCode:
		fence := codeFence(b.Text)
		return fence + b.Language + "\n" + b.Text + "\n" + fence
	case document.BlockTable:
		if b.Table == nil {
			return ""
		}
		return tableMarkdown(b.Table.Headers, b.Table.Rows)
	case document.BlockChart:
		if b.Chart == nil {
			return ""
		}
		rows := make([][]string, 0, len(b.Chart.Labels))
		for i, label := range b.Chart.Labels {
			value := ""
			if i < len(b.Chart.Values) {
				value = strconv.FormatFloat(b.Chart.Values[i], 'f', -1, 64)
			}
			rows = append(rows, []string{label, value})
		}
		return tableMarkdown([]string{"Label", "Value"}, rows)
	case document.BlockImage:
		return fmt.Sprintf("![image](%s)", b.URL)
	}
	return b.Text
}

func prefixLines(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(prefix+line, " ")
	}
	return strings.Join(lines, "\n")
}

// codeFence returns a backtick fence longer than any backtick run in text.
func codeFence(text string) string {
	longest, run := 0, 0
	for _, r := range text {
		if r == '`' {
			run++
			longest = max(longest, run)
			continue
		}
		run = 0
	}
	return strings.Repeat("`", max(3, longest+1))
}

func tableMarkdown(headers []string, rows [][]string) string {
	n := len(headers)
	for _, row := range rows {
		n = max(n, len(row))
	}
	if n == 0 {
		return ""
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for i := 0; i < n; i++ {
			cell := ""
			if i < len(cells) {
				cell = escapeCell(cells[i])
			}
			b.WriteString(" " + cell + " |")
		}
	}

	writeRow(headers)
	b.WriteString("\n|" + strings.Repeat(" --- |", n))
	for _, row := range rows {
		b.WriteString("\n")
		writeRow(row)
	}
	return b.String()
}

func escapeCell(cell string) string {
	cell = strings.ReplaceAll(cell, "\n", " ")
	return strings.ReplaceAll(cell, "|", `\|`)
}
