package store

import (
	"github.com/stateful/slidedeck/internal/document"
)

// Mutation is a pure transformation of a document. Mutations never fail:
// stale ids are ignored and indices are clamped, because callers such as
// the UI and the ingestion parser may race with deletions.
//
// Mutations must not modify the input document. They copy the containers
// they change and share everything else.
type Mutation func(document.Document) document.Document

// Apply runs mutations in order and commits the result by bumping the
// revision once per mutation. A mutation that changes nothing is still
// a committed, observable mutation boundary.
func Apply(doc document.Document, mutations ...Mutation) document.Document {
	for _, m := range mutations {
		doc = m(doc)
		doc.Revision++
	}
	return doc
}

func clampIndex(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func copySlides(s document.Slides) document.Slides {
	return append(document.Slides(nil), s...)
}

func copyBlocks(b []document.Block) []document.Block {
	return append([]document.Block(nil), b...)
}

func copyVisited(v map[string]bool) map[string]bool {
	result := make(map[string]bool, len(v))
	for k, val := range v {
		result[k] = val
	}
	return result
}

// SetSlides replaces the whole slide list. CurrentIndex is clamped only if
// it falls out of range.
func SetSlides(slides document.Slides) Mutation {
	slides = copySlides(slides)
	return func(d document.Document) document.Document {
		d.Slides = slides
		if d.CurrentIndex >= len(slides) || d.CurrentIndex < 0 {
			d.CurrentIndex = clampIndex(d.CurrentIndex, len(slides))
		}
		if _, _, ok := d.FindBlock(d.Selection); !ok {
			d.Selection = ""
		}
		return d
	}
}

// AppendSlides adds slides after the existing ones in the given order.
func AppendSlides(slides ...document.Slide) Mutation {
	slides = copySlides(slides)
	return func(d document.Document) document.Document {
		next := make(document.Slides, 0, len(d.Slides)+len(slides))
		next = append(next, d.Slides...)
		d.Slides = append(next, slides...)
		return d
	}
}

// AddSlide appends a slide and makes it current.
func AddSlide(slide document.Slide) Mutation {
	return func(d document.Document) document.Document {
		d = AppendSlides(slide)(d)
		d.CurrentIndex = len(d.Slides) - 1
		return d
	}
}

// DeleteSlide removes a slide and forgets that it was visited. If the
// current slide is removed the previous one becomes current.
func DeleteSlide(slideID string) Mutation {
	return func(d document.Document) document.Document {
		idx := d.Slides.Index(slideID)
		if idx < 0 {
			return d
		}
		next := make(document.Slides, 0, len(d.Slides)-1)
		next = append(next, d.Slides[:idx]...)
		d.Slides = append(next, d.Slides[idx+1:]...)

		if d.VisitedSlides[slideID] {
			d.VisitedSlides = copyVisited(d.VisitedSlides)
			delete(d.VisitedSlides, slideID)
		}

		switch {
		case idx == d.CurrentIndex:
			d.CurrentIndex = clampIndex(idx-1, len(d.Slides))
		case idx < d.CurrentIndex:
			d.CurrentIndex--
		}
		d.CurrentIndex = clampIndex(d.CurrentIndex, len(d.Slides))
		return d
	}
}

func updateSlide(d document.Document, slideID string, fn func(*document.Slide)) document.Document {
	idx := d.Slides.Index(slideID)
	if idx < 0 {
		return d
	}
	slides := copySlides(d.Slides)
	slide := slides[idx]
	fn(&slide)
	slides[idx] = slide
	d.Slides = slides
	return d
}

// UpdateSlideContent replaces the block list of a slide wholesale.
// The optional alignItems sets the slide's vertical alignment.
func UpdateSlideContent(slideID string, content []document.Block, alignItems ...string) Mutation {
	content = copyBlocks(content)
	return func(d document.Document) document.Document {
		return updateSlide(d, slideID, func(s *document.Slide) {
			s.Content = content
			if len(alignItems) > 0 {
				s.AlignItems = alignItems[0]
			}
		})
	}
}

// SetSlideTitle changes the title of a slide.
func SetSlideTitle(slideID, title string) Mutation {
	return func(d document.Document) document.Document {
		return updateSlide(d, slideID, func(s *document.Slide) {
			s.Title = title
		})
	}
}

// UpdateBlock replaces the block with the given id in whichever slide owns it.
func UpdateBlock(blockID string, block document.Block) Mutation {
	block.ID = blockID
	return func(d document.Document) document.Document {
		slideIdx, blockIdx, ok := d.FindBlock(blockID)
		if !ok {
			return d
		}
		slides := copySlides(d.Slides)
		content := copyBlocks(slides[slideIdx].Content)
		content[blockIdx] = block
		slides[slideIdx].Content = content
		d.Slides = slides
		return d
	}
}

// AddBlock appends a block to a slide.
func AddBlock(slideID string, block document.Block) Mutation {
	return func(d document.Document) document.Document {
		return updateSlide(d, slideID, func(s *document.Slide) {
			content := make([]document.Block, 0, len(s.Content)+1)
			content = append(content, s.Content...)
			s.Content = append(content, block)
		})
	}
}

// DeleteBlock removes a block from the named slide.
func DeleteBlock(slideID, blockID string) Mutation {
	return func(d document.Document) document.Document {
		d = updateSlide(d, slideID, func(s *document.Slide) {
			idx := s.BlockIndex(blockID)
			if idx < 0 {
				return
			}
			content := make([]document.Block, 0, len(s.Content)-1)
			content = append(content, s.Content[:idx]...)
			s.Content = append(content, s.Content[idx+1:]...)
		})
		if d.Selection == blockID {
			d.Selection = ""
		}
		return d
	}
}

// SetJustifyContent sets the horizontal alignment of every block of a slide.
func SetJustifyContent(slideID, justify string) Mutation {
	return func(d document.Document) document.Document {
		return updateSlide(d, slideID, func(s *document.Slide) {
			content := copyBlocks(s.Content)
			for i := range content {
				content[i].JustifyContent = justify
			}
			s.Content = content
		})
	}
}

// ReorderSlides moves the slide at oldIndex to newIndex. Both indices are
// clamped to the valid range.
func ReorderSlides(oldIndex, newIndex int) Mutation {
	return func(d document.Document) document.Document {
		n := len(d.Slides)
		if n == 0 {
			return d
		}
		oldIndex, newIndex := clampIndex(oldIndex, n), clampIndex(newIndex, n)
		if oldIndex == newIndex {
			return d
		}

		var current string
		if d.CurrentIndex < n {
			current = d.Slides[d.CurrentIndex].ID
		}

		slides := copySlides(d.Slides)
		moved := slides[oldIndex]
		slides = append(slides[:oldIndex], slides[oldIndex+1:]...)
		slides = append(slides[:newIndex], append(document.Slides{moved}, slides[newIndex:]...)...)
		d.Slides = slides

		if idx := slides.Index(current); idx >= 0 {
			d.CurrentIndex = idx
		}
		return d
	}
}

// SetGlobalTheme switches the theme of the presentation.
func SetGlobalTheme(themeID string) Mutation {
	return func(d document.Document) document.Document {
		d.GlobalThemeID = themeID
		return d
	}
}

// SetCurrentIndex moves to the slide at i, clamped to the valid range.
func SetCurrentIndex(i int) Mutation {
	return func(d document.Document) document.Document {
		d.CurrentIndex = clampIndex(i, len(d.Slides))
		return d
	}
}

// MarkSlideVisited records the slide at index i as visited.
func MarkSlideVisited(i int) Mutation {
	return func(d document.Document) document.Document {
		if i < 0 || i >= len(d.Slides) {
			return d
		}
		id := d.Slides[i].ID
		if d.VisitedSlides[id] {
			return d
		}
		d.VisitedSlides = copyVisited(d.VisitedSlides)
		d.VisitedSlides[id] = true
		return d
	}
}

func ResetVisitedSlides() Mutation {
	return func(d document.Document) document.Document {
		d.VisitedSlides = map[string]bool{}
		return d
	}
}

// SetSelection marks the block with an open editor. An unknown id clears
// the selection.
func SetSelection(blockID string) Mutation {
	return func(d document.Document) document.Document {
		if _, _, ok := d.FindBlock(blockID); !ok {
			blockID = ""
		}
		d.Selection = blockID
		return d
	}
}
