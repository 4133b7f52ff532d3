package document

import (
	"github.com/stateful/slidedeck/internal/ulid"
)

type BlockType string

const (
	BlockHeading   BlockType = "heading"
	BlockParagraph BlockType = "paragraph"
	BlockList      BlockType = "list"
	BlockQuote     BlockType = "quote"
	BlockCode      BlockType = "code"
	BlockTable     BlockType = "table"
	BlockChart     BlockType = "chart"
	BlockImage     BlockType = "image"
)

var BlockTypes = []BlockType{
	BlockHeading,
	BlockParagraph,
	BlockList,
	BlockQuote,
	BlockCode,
	BlockTable,
	BlockChart,
	BlockImage,
}

func (t BlockType) Valid() bool {
	for _, v := range BlockTypes {
		if v == t {
			return true
		}
	}
	return false
}

// TextBased reports whether Text is the authoritative payload of the type.
func (t BlockType) TextBased() bool {
	switch t {
	case BlockHeading, BlockParagraph, BlockQuote, BlockCode:
		return true
	}
	return false
}

type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

func (t *Table) clone() *Table {
	if t == nil {
		return nil
	}
	c := &Table{Headers: append([]string(nil), t.Headers...)}
	if t.Rows != nil {
		c.Rows = make([][]string, len(t.Rows))
		for i, row := range t.Rows {
			c.Rows[i] = append([]string(nil), row...)
		}
	}
	return c
}

type Chart struct {
	Type   string    `json:"type"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
	Colors []string  `json:"colors"`
	Title  string    `json:"title,omitempty"`
}

func (c *Chart) clone() *Chart {
	if c == nil {
		return nil
	}
	return &Chart{
		Type:   c.Type,
		Labels: append([]string(nil), c.Labels...),
		Values: append([]float64(nil), c.Values...),
		Colors: append([]string(nil), c.Colors...),
		Title:  c.Title,
	}
}

type Style struct {
	FontFamily string  `json:"fontFamily,omitempty"`
	FontSize   float64 `json:"fontSize,omitempty"`
	FontWeight int     `json:"fontWeight,omitempty"`
	Color      string  `json:"color,omitempty"`
}

// Geometry is a block box expressed in percentages of its slide box.
type Geometry struct {
	XPercent      float64 `json:"xPercent"`
	YPercent      float64 `json:"yPercent"`
	WidthPercent  float64 `json:"widthPercent"`
	HeightPercent float64 `json:"heightPercent"`
}

// Clamp limits every coordinate to [0, 100].
func (g Geometry) Clamp() Geometry {
	return Geometry{
		XPercent:      clampPercent(g.XPercent),
		YPercent:      clampPercent(g.YPercent),
		WidthPercent:  clampPercent(g.WidthPercent),
		HeightPercent: clampPercent(g.HeightPercent),
	}
}

// Near reports whether all coordinates differ by at most epsilon.
func (g Geometry) Near(other Geometry, epsilon float64) bool {
	return near(g.XPercent, other.XPercent, epsilon) &&
		near(g.YPercent, other.YPercent, epsilon) &&
		near(g.WidthPercent, other.WidthPercent, epsilon) &&
		near(g.HeightPercent, other.HeightPercent, epsilon)
}

func near(a, b, epsilon float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= epsilon
}

func clampPercent(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Block is one atomic content unit of a slide. Exactly one of Text, Items,
// Table, Chart or URL is authoritative, depending on Type.
type Block struct {
	ID       string    `json:"id"`
	Type     BlockType `json:"type"`
	Text     string    `json:"text,omitempty"`
	Language string    `json:"language,omitempty"`
	Items    []string  `json:"items,omitempty"`
	Table    *Table    `json:"table,omitempty"`
	Chart    *Chart    `json:"chart,omitempty"`
	URL      string    `json:"url,omitempty"`
	Style    *Style    `json:"style,omitempty"`

	Geometry

	JustifyContent string `json:"justifyContent,omitempty"`
}

// Clone returns a deep copy of the block.
func (b Block) Clone() Block {
	c := b
	if b.Items != nil {
		c.Items = append([]string(nil), b.Items...)
	}
	c.Table = b.Table.clone()
	c.Chart = b.Chart.clone()
	if b.Style != nil {
		style := *b.Style
		c.Style = &style
	}
	return c
}

// WithGeometry returns a copy of the block placed at g.
func (b Block) WithGeometry(g Geometry) Block {
	b.Geometry = g
	return b
}

const PlaceholderImageURL = "https://via.placeholder.com/400x300?text=Image"

// NewBlock creates a block of the given type with a fresh id and the default
// payload a user sees after adding it from the toolbar.
func NewBlock(t BlockType, style *Style) Block {
	b := Block{
		ID:    ulid.GenerateID(),
		Type:  t,
		Style: style,
	}
	switch t {
	case BlockHeading:
		b.Text = "Heading"
	case BlockParagraph:
		b.Text = "Text"
	case BlockCode:
		b.Text = "// Your code"
	case BlockQuote:
		b.Text = "Quote"
	case BlockList:
		b.Items = []string{"Item 1", "Item 2"}
	case BlockTable:
		b.Table = &Table{
			Headers: []string{"Header 1", "Header 2"},
			Rows:    [][]string{{"", ""}, {"", ""}},
		}
	case BlockChart:
		b.Chart = &Chart{
			Type:   "bar",
			Labels: []string{"Label 1"},
			Values: []float64{0},
			Colors: []string{"#4bc0c0"},
		}
	case BlockImage:
		b.URL = PlaceholderImageURL
	}
	return b
}
