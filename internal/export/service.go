package export

import (
	"context"
	"io"
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stateful/slidedeck/internal/config"
	"github.com/stateful/slidedeck/internal/reconcile"
	"github.com/stateful/slidedeck/internal/store"
)

const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

var ErrUnknownFormat = errors.New("unknown export format")

// Service exports the document of a store. It only reads the document;
// the optional reconciler runs before the snapshot is taken so that the
// exported geometry matches the rendered one.
type Service struct {
	store      *store.Store
	reconciler *reconcile.Reconciler
	exporters  map[string]Exporter
	filters    []*config.Filter
	logger     *zap.Logger
}

type ServiceOption func(*Service)

func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithReconciler(r *reconcile.Reconciler) ServiceOption {
	return func(s *Service) {
		s.reconciler = r
	}
}

// WithFilters limits the exported slides and blocks to the ones
// accepted by filters.
func WithFilters(filters ...*config.Filter) ServiceOption {
	return func(s *Service) {
		s.filters = append(s.filters, filters...)
	}
}

// WithExporter registers e under format, replacing a built-in exporter of
// the same name.
func WithExporter(format string, e Exporter) ServiceOption {
	return func(s *Service) {
		s.exporters[format] = e
	}
}

func NewService(s *store.Store, opts ...ServiceOption) *Service {
	svc := &Service{
		store: s,
		exporters: map[string]Exporter{
			FormatJSON:     JSONExporter{Indent: "  "},
			FormatMarkdown: MarkdownExporter{},
		},
	}

	for _, opt := range opts {
		opt(svc)
	}

	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}

	return svc
}

// Formats returns the registered format names in lexical order.
func (s *Service) Formats() []string {
	formats := make([]string, 0, len(s.exporters))
	for name := range s.exporters {
		formats = append(formats, name)
	}
	sort.Strings(formats)
	return formats
}

// Export writes the current document in format. An empty themeID uses the
// global theme of the document; unknown ids fall back to the default theme.
func (s *Service) Export(ctx context.Context, w io.Writer, format, themeID string) error {
	e, ok := s.exporters[format]
	if !ok {
		return errors.Wrapf(ErrUnknownFormat, "format %q", format)
	}

	if s.reconciler != nil {
		s.reconciler.Reconcile()
	}

	doc := s.store.Snapshot()
	if themeID == "" {
		themeID = doc.GlobalThemeID
	}
	t := s.store.Registry().Resolve(themeID)

	s.logger.Debug(
		"exporting document",
		zap.String("format", format),
		zap.String("theme", t.ID),
		zap.Uint64("revision", doc.Revision),
		zap.Int("slides", len(doc.Slides)),
		zap.Int("filters", len(s.filters)),
	)

	slides, err := applyFilters(doc.Slides, s.filters)
	if err != nil {
		return err
	}

	return errors.WithMessagef(e.Export(ctx, w, slides, t), "export %s", format)
}
