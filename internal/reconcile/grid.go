package reconcile

import (
	"math"

	"github.com/stateful/slidedeck/internal/document"
)

// Canvas size used when a GridMeasurer is created without one.
const (
	DefaultCanvasWidth  = 1280
	DefaultCanvasHeight = 720
)

// GridMeasurer renders slides on a fixed pixel canvas. Every block box is
// rounded to whole pixels, so reconciling against it snaps the document
// geometry to the pixel grid. Blocks of zero width or height are treated as
// not rendered.
type GridMeasurer struct {
	width    float64
	height   float64
	document func() document.Document
}

func NewGridMeasurer(doc func() document.Document, width, height float64) *GridMeasurer {
	if width <= 0 || height <= 0 {
		width, height = DefaultCanvasWidth, DefaultCanvasHeight
	}
	return &GridMeasurer{width: width, height: height, document: doc}
}

func (m *GridMeasurer) SlideRect(slideID string) (Rect, bool) {
	if m.document().Slides.Index(slideID) < 0 {
		return Rect{}, false
	}
	return Rect{Width: m.width, Height: m.height}, true
}

func (m *GridMeasurer) BlockRect(slideID, blockID string) (Rect, bool) {
	doc := m.document()
	idx := doc.Slides.Index(slideID)
	if idx < 0 {
		return Rect{}, false
	}
	slide := doc.Slides[idx]
	bidx := slide.BlockIndex(blockID)
	if bidx < 0 {
		return Rect{}, false
	}

	g := slide.Content[bidx].Geometry
	r := Rect{
		Left:   math.Round(g.XPercent * m.width / 100),
		Top:    math.Round(g.YPercent * m.height / 100),
		Width:  math.Round(g.WidthPercent * m.width / 100),
		Height: math.Round(g.HeightPercent * m.height / 100),
	}
	if r.Width == 0 || r.Height == 0 {
		return Rect{}, false
	}
	return r, true
}
