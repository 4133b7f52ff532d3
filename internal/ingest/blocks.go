package ingest

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/stateful/slidedeck/internal/document"
)

const (
	flowX      = 5.0
	flowWidth  = 90.0
	flowTop    = 10.0
	flowHeight = 85.0
)

// newMarkdownParser builds a CommonMark parser with tables and without
// link reference definitions, so that "[label]: url" lines stay visible.
func newMarkdownParser() parser.Parser {
	p := parser.NewParser(
		parser.WithBlockParsers(parser.DefaultBlockParsers()...),
		parser.WithInlineParsers(parser.DefaultInlineParsers()...),
	)
	return goldmark.New(
		goldmark.WithParser(p),
		goldmark.WithExtensions(extension.Table),
	).Parser()
}

type blockBuilder struct {
	parser parser.Parser
	newID  func() string
}

// build turns a slide body into content blocks laid out top to bottom.
func (b *blockBuilder) build(body string) []document.Block {
	src := []byte(normalize(body))
	root := b.parser.Parse(text.NewReader(src))

	var blocks []document.Block
	for c := root.FirstChild(); c != nil; c = c.NextSibling() {
		if block, ok := b.convert(c, src); ok {
			block.ID = b.newID()
			blocks = append(blocks, block)
		}
	}

	layoutFlow(blocks)

	return blocks
}

func (b *blockBuilder) convert(n ast.Node, src []byte) (document.Block, bool) {
	switch n := n.(type) {
	case *ast.ThematicBreak:
		return document.Block{}, false

	case *ast.Heading:
		// Sub-headings render as plain text below the slide title.
		return textBlock(document.BlockParagraph, strings.Join(trimmedLines(n, src), " "))

	case *ast.FencedCodeBlock:
		block := document.Block{
			Type: document.BlockCode,
			Text: strings.TrimSuffix(strings.Join(rawLines(n, src), ""), "\n"),
		}
		if n.Info != nil {
			block.Language = string(n.Language(src))
		}
		return block, true

	case *ast.List:
		return document.Block{
			Type:  document.BlockList,
			Items: listItems(n, src),
		}, true

	case *ast.Blockquote:
		return textBlock(document.BlockQuote, strings.Join(quoteLines(n, src), "\n"))

	case *east.Table:
		return document.Block{
			Type:  document.BlockTable,
			Table: tableContent(n, src),
		}, true
	}

	lines := leafLines(n, src)
	if len(lines) == 0 {
		return document.Block{}, false
	}
	return textBlock(document.BlockParagraph, strings.Join(lines, "\n"))
}

func textBlock(t document.BlockType, text string) (document.Block, bool) {
	if text == "" {
		return document.Block{}, false
	}
	return document.Block{Type: t, Text: text}, true
}

func rawLines(n ast.Node, src []byte) []string {
	lines := n.Lines()
	result := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		result = append(result, string(line.Value(src)))
	}
	return result
}

func trimmedLines(n ast.Node, src []byte) []string {
	var result []string
	for _, line := range rawLines(n, src) {
		if line = strings.TrimSpace(line); line != "" {
			result = append(result, line)
		}
	}
	return result
}

// leafLines collects the trimmed source lines of every leaf block below n.
func leafLines(n ast.Node, src []byte) []string {
	if n.Type() != ast.TypeBlock {
		return nil
	}
	if !n.HasChildren() || n.FirstChild().Type() != ast.TypeBlock {
		return trimmedLines(n, src)
	}

	var result []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		result = append(result, leafLines(c, src)...)
	}
	return result
}

// quoteLines returns the source lines of a block quote with one level of
// quote markers removed. Nested markup such as list markers is kept.
func quoteLines(n ast.Node, src []byte) []string {
	start := -1
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || c.Type() != ast.TypeBlock {
			return ast.WalkContinue, nil
		}
		if lines := c.Lines(); lines.Len() > 0 {
			start = lines.At(0).Start
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if start < 0 {
		return nil
	}
	for start > 0 && src[start-1] != '\n' {
		start--
	}

	var result []string
	for _, line := range strings.Split(string(src[start:]), "\n") {
		trimmed := strings.TrimLeft(line, " ")
		if !strings.HasPrefix(trimmed, ">") {
			break
		}
		trimmed = strings.TrimPrefix(trimmed[1:], " ")
		result = append(result, strings.TrimRight(trimmed, " \t"))
	}
	for len(result) > 0 && result[0] == "" {
		result = result[1:]
	}
	for len(result) > 0 && result[len(result)-1] == "" {
		result = result[:len(result)-1]
	}
	return result
}

// listItems flattens a possibly nested list into item texts.
func listItems(list *ast.List, src []byte) []string {
	var items []string
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		var (
			parts  []string
			nested []string
		)
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			if sub, ok := c.(*ast.List); ok {
				nested = append(nested, listItems(sub, src)...)
				continue
			}
			parts = append(parts, leafLines(c, src)...)
		}
		items = append(items, strings.Join(parts, " "))
		items = append(items, nested...)
	}
	return items
}

func tableContent(table *east.Table, src []byte) *document.Table {
	result := &document.Table{}
	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			// The parser keeps escaped pipes raw in cell text.
			cells = append(cells, strings.ReplaceAll(inlineText(cell, src), `\|`, "|"))
		}
		if _, ok := row.(*east.TableHeader); ok {
			result.Headers = cells
			continue
		}
		result.Rows = append(result.Rows, cells)
	}
	return result
}

func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c := c.(type) {
		case *ast.Text:
			b.Write(c.Segment.Value(src))
			if c.SoftLineBreak() || c.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(c.Value)
		case *ast.AutoLink:
			b.Write(c.URL(src))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// layoutFlow stacks blocks vertically in the content area of a slide.
func layoutFlow(blocks []document.Block) {
	if len(blocks) == 0 {
		return
	}
	height := flowHeight / float64(len(blocks))
	for i := range blocks {
		blocks[i].Geometry = document.Geometry{
			XPercent:      flowX,
			YPercent:      flowTop + float64(i)*height,
			WidthPercent:  flowWidth,
			HeightPercent: height,
		}
	}
}
