package ingest

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/stateful/slidedeck/internal/document"
	"github.com/stateful/slidedeck/internal/store"
)

var ErrEmptyRewrite = errors.New("rewrite produced no content")

// ContentUpdater commits mutations as one step.
type ContentUpdater interface {
	Update(op string, mutations ...store.Mutation) document.Document
}

// Rewrite parses the markdown of a rewritten slide. Only the first slide of
// the markdown is used; its title is empty when the markdown has no
// heading.
func Rewrite(markdown string, opts ...ParserOption) (document.Slide, error) {
	slides := ParseMarkdown([]byte(markdown), opts...)
	if len(slides) == 0 {
		return document.Slide{}, errors.WithStack(ErrEmptyRewrite)
	}
	return slides[0], nil
}

// ApplyRewrite replaces the content of slideID with the rewritten markdown
// and, if the markdown carries a heading, the slide title. The layout and
// id of the slide are kept.
func ApplyRewrite(u ContentUpdater, slideID, markdown string, opts ...ParserOption) (document.Document, error) {
	slide, err := Rewrite(markdown, opts...)
	if err != nil {
		return document.Document{}, errors.WithMessagef(err, "rewrite slide %s", slideID)
	}

	mutations := []store.Mutation{store.UpdateSlideContent(slideID, slide.Content, document.AlignStart)}
	if strings.TrimSpace(slide.Title) != "" {
		mutations = append(mutations, store.SetSlideTitle(slideID, slide.Title))
	}
	return u.Update("rewriteSlide", mutations...), nil
}
