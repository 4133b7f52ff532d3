package export

import (
	"context"
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/stateful/slidedeck/internal/document"
	"github.com/stateful/slidedeck/internal/theme"
	"github.com/stateful/slidedeck/internal/version"
)

// Exporter writes slides rendered with a theme to w. Implementations must
// not modify the slides.
type Exporter interface {
	Export(ctx context.Context, w io.Writer, slides document.Slides, t theme.Theme) error
}

// ExporterFunc adapts a function to the Exporter interface.
type ExporterFunc func(ctx context.Context, w io.Writer, slides document.Slides, t theme.Theme) error

func (f ExporterFunc) Export(ctx context.Context, w io.Writer, slides document.Slides, t theme.Theme) error {
	return f(ctx, w, slides, t)
}

type exportedSlide struct {
	document.Slide
	Background string `json:"background"`
}

type exportedDeck struct {
	Generator string          `json:"generator"`
	Theme     theme.Theme     `json:"theme"`
	Slides    []exportedSlide `json:"slides"`
}

// JSONExporter writes the theme and the slides, each annotated with its
// resolved background, as a single JSON object.
type JSONExporter struct {
	Indent string
}

func (e JSONExporter) Export(ctx context.Context, w io.Writer, slides document.Slides, t theme.Theme) error {
	deck := exportedDeck{
		Generator: version.Generator(),
		Theme:     t,
		Slides:    make([]exportedSlide, 0, len(slides)),
	}
	for i, s := range slides {
		if err := ctx.Err(); err != nil {
			return errors.WithStack(err)
		}
		deck.Slides = append(deck.Slides, exportedSlide{Slide: s, Background: theme.Background(t, i)})
	}

	encoder := json.NewEncoder(w)
	if e.Indent != "" {
		encoder.SetIndent("", e.Indent)
	}
	return errors.Wrap(encoder.Encode(deck), "failed to encode slides")
}
