package ingest

import (
	"bytes"
	"strings"

	"go.uber.org/zap"

	"github.com/stateful/slidedeck/internal/document"
	"github.com/stateful/slidedeck/internal/ulid"
)

// Parser converts a markdown stream into slides as soon as they are
// complete. A slide starts at a line beginning with "#" followed by
// whitespace or the end of the line, unless the line is inside a fenced
// code region. Text before the first such line forms an untitled slide.
//
// The sequence of slides produced for a stream does not depend on how the
// stream is split into chunks: only complete lines are inspected and a
// slide is emitted only once the next boundary has been seen.
type Parser struct {
	buf     []byte
	scanned int
	inFence bool
	open    fence

	builder blockBuilder
	logger  *zap.Logger
}

type ParserOption func(*Parser)

func WithParserLogger(logger *zap.Logger) ParserOption {
	return func(p *Parser) {
		p.logger = logger
	}
}

// WithIDGenerator replaces the generator of slide and block ids.
func WithIDGenerator(fn func() string) ParserOption {
	return func(p *Parser) {
		p.builder.newID = fn
	}
}

func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		builder: blockBuilder{
			parser: newMarkdownParser(),
			newID:  ulid.GenerateID,
		},
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = zap.NewNop()
	}

	return p
}

// Feed consumes a chunk and returns the slides completed by it.
func (p *Parser) Feed(chunk []byte) []document.Slide {
	p.buf = append(p.buf, chunk...)

	var slides []document.Slide
	for {
		nl := bytes.IndexByte(p.buf[p.scanned:], '\n')
		if nl < 0 {
			break
		}
		start, end := p.scanned, p.scanned+nl+1
		if slide, ok := p.scanLine(start, end); ok {
			slides = append(slides, slide)
		}
	}
	return slides
}

// Flush ends the stream, returning the final slide if there is one, and
// resets the parser.
func (p *Parser) Flush() []document.Slide {
	var slides []document.Slide

	if p.scanned < len(p.buf) {
		if slide, ok := p.scanLine(p.scanned, len(p.buf)); ok {
			slides = append(slides, slide)
		}
	}
	if slide, ok := p.cut(len(p.buf)); ok {
		slides = append(slides, slide)
	}

	if p.inFence {
		p.logger.Debug("stream ended inside a fenced region")
	}

	p.buf = nil
	p.scanned = 0
	p.inFence = false

	return slides
}

// Parse is a convenience for parsing a complete document at once.
func (p *Parser) Parse(data []byte) []document.Slide {
	return append(p.Feed(data), p.Flush()...)
}

// scanLine inspects the complete line buf[start:end]. If it starts a new
// slide, the text before it is cut off and returned as a slide.
func (p *Parser) scanLine(start, end int) (slide document.Slide, ok bool) {
	line := p.buf[start:end]
	p.scanned = end

	if p.inFence {
		if p.open.closes(bytes.TrimRight(line, "\r\n")) {
			p.inFence = false
		}
		return slide, false
	}

	if f, isFence := openFence(line); isFence {
		p.inFence = true
		p.open = f
		return slide, false
	}

	if !isSlideBoundary(line) || start == 0 {
		return slide, false
	}

	return p.cut(start)
}

// cut removes buf[:n] and converts it into a slide unless it is blank.
func (p *Parser) cut(n int) (slide document.Slide, ok bool) {
	raw := p.buf[:n]
	rest := make([]byte, len(p.buf)-n)
	copy(rest, p.buf[n:])
	p.buf = rest
	p.scanned -= n

	if len(bytes.TrimSpace(raw)) == 0 {
		return slide, false
	}
	return p.slide(raw), true
}

func (p *Parser) slide(raw []byte) document.Slide {
	first, rest := raw, []byte(nil)
	if nl := bytes.IndexByte(raw, '\n'); nl >= 0 {
		first, rest = raw[:nl], raw[nl+1:]
	}

	title, body := "", raw
	if isSlideBoundary(first) {
		title, body = slideTitle(first), rest
	}

	slide := document.Slide{
		ID:           p.builder.newID(),
		Title:        title,
		Layout:       document.LayoutTextOnly,
		Content:      p.builder.build(string(body)),
		MarkdownText: strings.TrimRight(string(raw), "\r\n"),
	}

	p.logger.Debug(
		"parsed slide",
		zap.String("id", slide.ID),
		zap.String("title", slide.Title),
		zap.Int("blocks", len(slide.Content)),
	)

	return slide
}

// ParseMarkdown parses a complete markdown document into slides.
func ParseMarkdown(data []byte, opts ...ParserOption) []document.Slide {
	return NewParser(opts...).Parse(data)
}
