package export

import (
	"github.com/pkg/errors"

	"github.com/stateful/slidedeck/internal/config"
	"github.com/stateful/slidedeck/internal/document"
)

// applyFilters returns the slides and blocks accepted by every filter of
// the matching type. The input slides are not modified.
func applyFilters(slides document.Slides, filters []*config.Filter) (document.Slides, error) {
	if len(filters) == 0 {
		return slides, nil
	}

	result := make(document.Slides, 0, len(slides))
	for i, slide := range slides {
		ok, err := accept(filters, config.FilterTypeSlide, config.FilterSlideEnv{
			Index:  i,
			Title:  slide.Title,
			Layout: string(slide.Layout),
			Blocks: len(slide.Content),
		})
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		content := make([]document.Block, 0, len(slide.Content))
		for _, b := range slide.Content {
			ok, err := accept(filters, config.FilterTypeBlock, config.FilterBlockEnv{
				Type:     string(b.Type),
				Text:     b.Text,
				Language: b.Language,
				Slide:    slide.Title,
			})
			if err != nil {
				return nil, err
			}
			if ok {
				content = append(content, b)
			}
		}

		slide.Content = content
		result = append(result, slide)
	}

	return result, nil
}

func accept(filters []*config.Filter, typ string, env interface{}) (bool, error) {
	for _, f := range filters {
		if f.Type != typ {
			continue
		}
		ok, err := f.Evaluate(env)
		if err != nil {
			return false, errors.WithMessagef(err, "filter %q", f.Condition)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
