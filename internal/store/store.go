package store

import (
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/stateful/slidedeck/internal/document"
	"github.com/stateful/slidedeck/internal/theme"
)

// Listener receives every committed document in revision order.
type Listener func(document.Document)

// Store owns the canonical document of a session. All mutations are
// serialized; listeners are notified after a mutation is fully committed,
// and a listener that mutates the store from its callback only enqueues a
// notification that is delivered after the current round completes.
type Store struct {
	mu  sync.Mutex
	doc document.Document

	registry *theme.Registry
	logger   *zap.Logger

	subsMu    sync.Mutex
	subs      map[int]Listener
	nextSubID int
	pending   []document.Document
	notifying bool
}

type Option func(*Store)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithDocument starts the store from an existing document instead of an
// empty one.
func WithDocument(doc document.Document) Option {
	return func(s *Store) {
		s.doc = doc.Clone()
	}
}

func New(registry *theme.Registry, opts ...Option) *Store {
	if registry == nil {
		registry = theme.NewRegistry()
	}

	s := &Store{
		doc:      document.New(registry.DefaultID()),
		registry: registry,
		subs:     map[int]Listener{},
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	if !registry.Has(s.doc.GlobalThemeID) {
		s.doc.GlobalThemeID = registry.DefaultID()
	}
	if s.doc.VisitedSlides == nil {
		s.doc.VisitedSlides = map[string]bool{}
	}

	return s
}

// Document returns the current document. The value shares memory with
// the store and must be treated as read-only; use Snapshot for a copy that
// can be modified.
func (s *Store) Document() document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Snapshot returns a deep copy of the current document.
func (s *Store) Snapshot() document.Document {
	return s.Document().Clone()
}

func (s *Store) Slides() document.Slides {
	return s.Document().Slides
}

func (s *Store) Revision() uint64 {
	return s.Document().Revision
}

func (s *Store) Registry() *theme.Registry {
	return s.registry
}

// Theme returns the resolved global theme, falling back to the default one.
func (s *Store) Theme() theme.Theme {
	return s.registry.Resolve(s.Document().GlobalThemeID)
}

// Subscribe registers a listener and returns a function removing it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.subsMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

// Update commits mutations as a single step of the update loop.
func (s *Store) Update(op string, mutations ...Mutation) document.Document {
	s.mu.Lock()
	s.doc = Apply(s.doc, mutations...)
	doc := s.doc
	// Enqueue while still holding mu so that notifications keep revision order.
	s.subsMu.Lock()
	s.pending = append(s.pending, doc)
	s.subsMu.Unlock()
	s.mu.Unlock()

	s.logger.Debug(
		"committed mutation",
		zap.String("op", op),
		zap.Uint64("revision", doc.Revision),
		zap.Int("slides", len(doc.Slides)),
	)

	s.drain()

	return doc
}

func (s *Store) drain() {
	s.subsMu.Lock()
	if s.notifying {
		s.subsMu.Unlock()
		return
	}
	s.notifying = true

	for len(s.pending) > 0 {
		next := s.pending[0]
		s.pending = s.pending[1:]

		ids := make([]int, 0, len(s.subs))
		for id := range s.subs {
			ids = append(ids, id)
		}
		slices.Sort(ids)

		for _, id := range ids {
			fn, ok := s.subs[id]
			if !ok {
				continue
			}
			s.subsMu.Unlock()
			fn(next)
			s.subsMu.Lock()
		}
	}

	s.notifying = false
	s.subsMu.Unlock()
}

func (s *Store) SetSlides(slides document.Slides) document.Document {
	return s.Update("setSlides", SetSlides(slides))
}

func (s *Store) AppendSlides(slides ...document.Slide) document.Document {
	return s.Update("appendSlides", AppendSlides(slides...))
}

// AddSlide creates a slide prefilled for layout and makes it current.
func (s *Store) AddSlide(layout document.Layout) document.Slide {
	slide := document.NewSlide(layout)
	t := s.Theme()
	for i := range slide.Content {
		if slide.Content[i].Style != nil {
			slide.Content[i].Style.Color = t.Colors.Heading
		}
	}
	s.Update("addSlide", AddSlide(slide))
	return slide
}

func (s *Store) DeleteSlide(slideID string) document.Document {
	return s.Update("deleteSlide", DeleteSlide(slideID))
}

func (s *Store) UpdateSlideContent(slideID string, content []document.Block, alignItems ...string) document.Document {
	return s.Update("updateSlideContent", UpdateSlideContent(slideID, content, alignItems...))
}

func (s *Store) SetSlideTitle(slideID, title string) document.Document {
	return s.Update("setSlideTitle", SetSlideTitle(slideID, title))
}

func (s *Store) UpdateBlock(blockID string, block document.Block) document.Document {
	return s.Update("updateBlock", UpdateBlock(blockID, block))
}

// AddBlock appends a block of type t with default content styled after the
// current theme. The new block is returned even when the slide is unknown,
// in which case nothing is added.
func (s *Store) AddBlock(slideID string, t document.BlockType) document.Block {
	th := s.Theme()
	style := &document.Style{FontWeight: 400, FontSize: 16, Color: th.Colors.Paragraph}
	if t == document.BlockHeading {
		style = &document.Style{FontWeight: 700, FontSize: 28, Color: th.Colors.Heading}
	}
	block := document.NewBlock(t, style)
	s.Update("addBlock", AddBlock(slideID, block))
	return block
}

func (s *Store) DeleteBlock(slideID, blockID string) document.Document {
	return s.Update("deleteBlock", DeleteBlock(slideID, blockID))
}

func (s *Store) SetJustifyContent(slideID, justify string) document.Document {
	return s.Update("setJustifyContent", SetJustifyContent(slideID, justify))
}

func (s *Store) ReorderSlides(oldIndex, newIndex int) document.Document {
	return s.Update("reorderSlides", ReorderSlides(oldIndex, newIndex))
}

// SetGlobalTheme switches the theme. Ids unknown to the registry keep the
// current theme so that the global theme always resolves.
func (s *Store) SetGlobalTheme(themeID string) document.Document {
	if !s.registry.Has(themeID) {
		s.logger.Debug("ignoring unknown theme", zap.String("id", themeID))
		return s.Update("setGlobalTheme", func(d document.Document) document.Document { return d })
	}
	return s.Update("setGlobalTheme", SetGlobalTheme(themeID))
}

func (s *Store) SetCurrentIndex(i int) document.Document {
	return s.Update("setCurrentIndex", SetCurrentIndex(i))
}

func (s *Store) MarkSlideVisited(i int) document.Document {
	return s.Update("markSlideVisited", MarkSlideVisited(i))
}

func (s *Store) ResetVisitedSlides() document.Document {
	return s.Update("resetVisitedSlides", ResetVisitedSlides())
}

func (s *Store) SetSelection(blockID string) document.Document {
	return s.Update("setSelection", SetSelection(blockID))
}

func (s *Store) ClearSelection() document.Document {
	return s.Update("clearSelection", SetSelection(""))
}
