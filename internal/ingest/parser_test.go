package ingest

import (
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateful/slidedeck/internal/document"
)

var ignoreIDs = cmp.Options{
	cmpopts.IgnoreFields(document.Slide{}, "ID"),
	cmpopts.IgnoreFields(document.Block{}, "ID"),
}

func flow(i, n int) document.Geometry {
	h := 85.0 / float64(n)
	return document.Geometry{XPercent: 5, YPercent: 10 + float64(i)*h, WidthPercent: 90, HeightPercent: h}
}

func TestParser_TwoChunks(t *testing.T) {
	p := NewParser()

	slides := p.Feed([]byte("# Slide One\nHello\n"))
	assert.Empty(t, slides, "a slide is not complete before the next boundary")

	slides = p.Feed([]byte("# Slide Two\n- a\n- b\n"))
	require.Len(t, slides, 1)
	expected := document.Slide{
		Title:        "Slide One",
		Layout:       document.LayoutTextOnly,
		MarkdownText: "# Slide One\nHello",
		Content: []document.Block{
			{Type: document.BlockParagraph, Text: "Hello", Geometry: flow(0, 1)},
		},
	}
	assert.Empty(t, cmp.Diff(expected, slides[0], ignoreIDs))

	slides = p.Flush()
	require.Len(t, slides, 1)
	expected = document.Slide{
		Title:        "Slide Two",
		Layout:       document.LayoutTextOnly,
		MarkdownText: "# Slide Two\n- a\n- b",
		Content: []document.Block{
			{Type: document.BlockList, Items: []string{"a", "b"}, Geometry: flow(0, 1)},
		},
	}
	assert.Empty(t, cmp.Diff(expected, slides[0], ignoreIDs))

	assert.Empty(t, p.Flush(), "flush resets the parser")
}

const deck = `Intro before any heading
# Mixed
Para line
continues here
- item one
- item two
> quoted
## Sub heading
` + "```go" + `
# not a slide
x := 1
` + "```" + `
after code
# Table
| Name | Value |
| a | 1 |
| b | 2 |
1. first
2. second
#
#hashtag stays in the slide
# Last`

func TestParser_ChunkInsensitive(t *testing.T) {
	data := []byte(deck)
	whole := ParseMarkdown(data)
	require.Len(t, whole, 5)

	for split := 0; split <= len(data); split++ {
		p := NewParser()
		got := append(p.Feed(data[:split]), p.Feed(data[split:])...)
		got = append(got, p.Flush()...)
		if diff := cmp.Diff(whole, got, ignoreIDs); diff != "" {
			t.Fatalf("split at %d (-whole +chunked):\n%s", split, diff)
		}
	}

	p := NewParser()
	var got []document.Slide
	for i := range data {
		got = append(got, p.Feed(data[i:i+1])...)
	}
	got = append(got, p.Flush()...)
	assert.Empty(t, cmp.Diff(whole, got, ignoreIDs), "byte by byte")
}

func TestParser_Deck(t *testing.T) {
	slides := ParseMarkdown([]byte(deck))
	require.Len(t, slides, 5)

	titles := make([]string, 0, len(slides))
	for _, s := range slides {
		titles = append(titles, s.Title)
	}
	assert.Equal(t, []string{"", "Mixed", "Table", "", "Last"}, titles)

	assert.Equal(t, "Intro before any heading", slides[0].Content[0].Text)

	mixed := slides[1].Content
	require.Len(t, mixed, 6)
	assert.Equal(t, document.Block{Type: document.BlockParagraph, Text: "Para line\ncontinues here"}, stripBlock(mixed[0]))
	assert.Equal(t, document.Block{Type: document.BlockList, Items: []string{"item one", "item two"}}, stripBlock(mixed[1]))
	assert.Equal(t, document.Block{Type: document.BlockQuote, Text: "quoted"}, stripBlock(mixed[2]))
	assert.Equal(t, document.Block{Type: document.BlockParagraph, Text: "Sub heading"}, stripBlock(mixed[3]))
	assert.Equal(t, document.Block{Type: document.BlockCode, Language: "go", Text: "# not a slide\nx := 1"}, stripBlock(mixed[4]))
	assert.Equal(t, document.Block{Type: document.BlockParagraph, Text: "after code"}, stripBlock(mixed[5]))

	for i, b := range mixed {
		assert.Equal(t, flow(i, len(mixed)), b.Geometry, "block %d", i)
	}

	table := slides[2].Content
	require.Len(t, table, 2)
	assert.Equal(t, &document.Table{
		Headers: []string{"Name", "Value"},
		Rows:    [][]string{{"a", "1"}, {"b", "2"}},
	}, table[0].Table)
	assert.Equal(t, []string{"first", "second"}, table[1].Items)

	require.Len(t, slides[3].Content, 1)
	assert.Equal(t, "#hashtag stays in the slide", slides[3].Content[0].Text)

	assert.Empty(t, slides[4].Content)
	assert.Equal(t, "# Last", slides[4].MarkdownText)
}

func stripBlock(b document.Block) document.Block {
	b.ID = ""
	b.Geometry = document.Geometry{}
	return b
}

func TestParser_Tables(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected *document.Table
	}{
		{
			name:  "with separator",
			input: "# T\n| a | b |\n|---|:-:|\n| 1 | 2 |\n",
			expected: &document.Table{
				Headers: []string{"a", "b"},
				Rows:    [][]string{{"1", "2"}},
			},
		},
		{
			name:  "without separator",
			input: "# T\n| a | b |\n| 1 | 2 |\n| 3 | 4 |\n",
			expected: &document.Table{
				Headers: []string{"a", "b"},
				Rows:    [][]string{{"1", "2"}, {"3", "4"}},
			},
		},
		{
			name:     "header only",
			input:    "# T\n| a | b |\n",
			expected: &document.Table{Headers: []string{"a", "b"}},
		},
		{
			name:  "escaped pipe",
			input: "# T\n| a \\| b | c |\n|---|---|\n| 1 | x\\|y |\n",
			expected: &document.Table{
				Headers: []string{"a | b", "c"},
				Rows:    [][]string{{"1", "x|y"}},
			},
		},
		{
			name:  "indented rows",
			input: "# T\n  | a |\n  | 1 |\n",
			expected: &document.Table{
				Headers: []string{"a"},
				Rows:    [][]string{{"1"}},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			slides := ParseMarkdown([]byte(tc.input))
			require.Len(t, slides, 1)
			require.Len(t, slides[0].Content, 1)
			block := slides[0].Content[0]
			assert.Equal(t, document.BlockTable, block.Type)
			assert.Empty(t, cmp.Diff(tc.expected, block.Table))
		})
	}
}

func TestParser_Preamble(t *testing.T) {
	slides := ParseMarkdown([]byte("\n\n  \n# First\nbody\n"))
	require.Len(t, slides, 1)
	assert.Equal(t, "First", slides[0].Title)

	slides = ParseMarkdown([]byte("just text\n"))
	require.Len(t, slides, 1)
	assert.Empty(t, slides[0].Title)
	assert.Equal(t, "just text", slides[0].Content[0].Text)

	assert.Empty(t, ParseMarkdown(nil))
	assert.Empty(t, ParseMarkdown([]byte("\n \n")))
}

func TestParser_NotBoundaries(t *testing.T) {
	slides := ParseMarkdown([]byte("# A\n #indented\n#no-space\n## second level\n"))
	require.Len(t, slides, 1)
	require.Len(t, slides[0].Content, 2)
	assert.Equal(t, "#indented\n#no-space", slides[0].Content[0].Text)
	assert.Equal(t, "second level", slides[0].Content[1].Text)
}

func TestParser_Malformed(t *testing.T) {
	inputs := []string{
		"# Bad\n|unclosed\n```\nno close\n# hidden",
		"# \n\n\n",
		"#",
		"> > nested\n>\n- \n-",
		"```\n```\n```",
		"| | |\n|--|\n\r\n# x\r\n",
		"# Refs\n[ref]: http://example.com\n",
		"# Quote\n> - a\n> - b\n",
	}

	for i, input := range inputs {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			assert.NotPanics(t, func() {
				_ = ParseMarkdown([]byte(input))
			})
		})
	}

	slides := ParseMarkdown([]byte(inputs[0]))
	require.Len(t, slides, 1, "a boundary inside an unclosed fence does not split")
	assert.Equal(t, "Bad", slides[0].Title)
	last := slides[0].Content[len(slides[0].Content)-1]
	assert.Equal(t, document.BlockCode, last.Type)
	assert.Equal(t, "no close\n# hidden", last.Text)

	slides = ParseMarkdown([]byte(inputs[6]))
	require.Len(t, slides, 1)
	require.Len(t, slides[0].Content, 1, "a link reference line is kept as text")
	assert.Equal(t, document.BlockParagraph, slides[0].Content[0].Type)
	assert.Equal(t, "[ref]: http://example.com", slides[0].Content[0].Text)

	slides = ParseMarkdown([]byte(inputs[7]))
	require.Len(t, slides, 1)
	require.Len(t, slides[0].Content, 1)
	assert.Equal(t, document.BlockQuote, slides[0].Content[0].Type)
	assert.Equal(t, "- a\n- b", slides[0].Content[0].Text)
}

func TestParser_IDGenerator(t *testing.T) {
	n := 0
	gen := func() string {
		n++
		return "id-" + strconv.Itoa(n)
	}

	slides := ParseMarkdown([]byte("# A\none\n\ntwo\n"), WithIDGenerator(gen))
	require.Len(t, slides, 1)
	assert.Equal(t, "id-1", slides[0].ID)
	require.Len(t, slides[0].Content, 2)
	assert.Equal(t, "id-2", slides[0].Content[0].ID)
	assert.Equal(t, "id-3", slides[0].Content[1].ID)
}

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "kind change",
			input:    "text\n- item\n> quote",
			expected: "text\n\n- item\n\n> quote\n",
		},
		{
			name:     "separator inserted",
			input:    "| a | b |\n| 1 | 2 |",
			expected: "| a | b |\n| --- | --- |\n| 1 | 2 |\n",
		},
		{
			name:     "nested list kept",
			input:    "- a\n  - b",
			expected: "- a\n  - b\n",
		},
		{
			name:     "fence dedented",
			input:    "  ```\n  x\n  ```",
			expected: "```\nx\n```\n",
		},
		{
			name:     "rules dropped",
			input:    "a\n---\nb",
			expected: "a\n\nb\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, normalize(tc.input))
		})
	}
}
