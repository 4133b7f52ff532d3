package document

import (
	"github.com/stateful/slidedeck/internal/ulid"
)

const NewSlideTitle = "New slide"

var imageGeometry = map[Layout]Geometry{
	LayoutLeftImage:   {XPercent: 0, YPercent: 0, WidthPercent: 50, HeightPercent: 100},
	LayoutRightImage:  {XPercent: 50, YPercent: 0, WidthPercent: 50, HeightPercent: 100},
	LayoutTopImage:    {XPercent: 0, YPercent: 0, WidthPercent: 100, HeightPercent: 25},
	LayoutBottomImage: {XPercent: 0, YPercent: 75, WidthPercent: 100, HeightPercent: 25},
}

func headingStyle() *Style {
	return &Style{FontSize: 28, FontWeight: 700}
}

// NewSlide creates an empty slide prefilled according to its layout:
// image layouts get a placeholder image and a heading below it, text-only
// slides get a heading at the top. Unknown layouts are treated as text-only.
func NewSlide(layout Layout) Slide {
	if !layout.Valid() {
		layout = LayoutTextOnly
	}

	slide := Slide{
		ID:     ulid.GenerateID(),
		Title:  NewSlideTitle,
		Layout: layout,
	}

	heading := NewBlock(BlockHeading, headingStyle())

	g, ok := imageGeometry[layout]
	if !ok {
		heading.Geometry = Geometry{WidthPercent: 100, HeightPercent: 20}
		slide.Content = []Block{heading}
		return slide
	}

	image := NewBlock(BlockImage, nil).WithGeometry(g)
	heading.Geometry = Geometry{
		YPercent:      g.YPercent + g.HeightPercent,
		WidthPercent:  100,
		HeightPercent: 20,
	}
	slide.Content = []Block{image, heading}
	return slide
}
