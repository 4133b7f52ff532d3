package document

// Layout describes where a slide reserves room for its image.
type Layout string

const (
	LayoutLeftImage   Layout = "left-image"
	LayoutRightImage  Layout = "right-image"
	LayoutTopImage    Layout = "top-image"
	LayoutBottomImage Layout = "bottom-image"
	LayoutTextOnly    Layout = "text-only"
)

// Layouts lists all supported layouts in the order they are offered to users.
var Layouts = []Layout{
	LayoutLeftImage,
	LayoutRightImage,
	LayoutTopImage,
	LayoutBottomImage,
	LayoutTextOnly,
}

func (l Layout) Valid() bool {
	for _, v := range Layouts {
		if v == l {
			return true
		}
	}
	return false
}

// Alignment values shared by a slide's alignItems and a block's justifyContent.
const (
	AlignStart  = "flex-start"
	AlignCenter = "center"
	AlignEnd    = "flex-end"
)

// Slide is one page of a presentation. The order of Content is the
// stacking and selection order, not necessarily the geometric order.
type Slide struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Layout       Layout  `json:"layout"`
	Content      []Block `json:"content"`
	AlignItems   string  `json:"alignItems,omitempty"`
	MarkdownText string  `json:"markdownText,omitempty"`
}

// Clone returns a deep copy of the slide.
func (s Slide) Clone() Slide {
	c := s
	if s.Content != nil {
		c.Content = make([]Block, len(s.Content))
		for i, b := range s.Content {
			c.Content[i] = b.Clone()
		}
	}
	return c
}

// BlockIndex returns the position of the block with the given id or -1.
func (s Slide) BlockIndex(id string) int {
	for i, b := range s.Content {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// Slides is an ordered list of slides in presentation order.
type Slides []Slide

// Clone returns a deep copy of all slides.
func (s Slides) Clone() Slides {
	if s == nil {
		return nil
	}
	result := make(Slides, len(s))
	for i, slide := range s {
		result[i] = slide.Clone()
	}
	return result
}

// Index returns the position of the slide with the given id or -1.
func (s Slides) Index(id string) int {
	for i, slide := range s {
		if slide.ID == id {
			return i
		}
	}
	return -1
}

// IDs returns the slide ids in order.
func (s Slides) IDs() []string {
	ids := make([]string, 0, len(s))
	for _, slide := range s {
		ids = append(ids, slide.ID)
	}
	return ids
}

// Document is the complete editable state of a session.
//
// A Document is treated as a value: mutations produce a new Document and
// share the untouched slides with the previous one. Callers must not modify
// slices reachable from a Document they did not create.
type Document struct {
	Slides        Slides          `json:"slides"`
	CurrentIndex  int             `json:"currentIndex"`
	GlobalThemeID string          `json:"globalThemeId"`
	VisitedSlides map[string]bool `json:"visitedSlides"`
	Selection     string          `json:"selection,omitempty"`
	Revision      uint64          `json:"revision"`
}

// New returns an empty document using the given theme.
func New(themeID string) Document {
	return Document{
		GlobalThemeID: themeID,
		VisitedSlides: map[string]bool{},
	}
}

// CurrentSlide returns the slide at CurrentIndex.
func (d Document) CurrentSlide() (Slide, bool) {
	if d.CurrentIndex < 0 || d.CurrentIndex >= len(d.Slides) {
		return Slide{}, false
	}
	return d.Slides[d.CurrentIndex], true
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	c := d
	c.Slides = d.Slides.Clone()
	c.VisitedSlides = make(map[string]bool, len(d.VisitedSlides))
	for k, v := range d.VisitedSlides {
		c.VisitedSlides[k] = v
	}
	return c
}

// FindBlock scans all slides for a block with the given id.
func (d Document) FindBlock(id string) (slideIdx, blockIdx int, ok bool) {
	for i, slide := range d.Slides {
		if j := slide.BlockIndex(id); j >= 0 {
			return i, j, true
		}
	}
	return -1, -1, false
}
