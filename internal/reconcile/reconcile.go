package reconcile

import (
	"sync"

	"go.uber.org/zap"

	"github.com/stateful/slidedeck/internal/document"
	"github.com/stateful/slidedeck/internal/store"
)

// DefaultEpsilon is the smallest difference in percent points that is
// written back to the document.
const DefaultEpsilon = 0.01

// Rect is a rendered box in renderer units.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Measurer reports the rendered boxes of slides and blocks. A false return
// means the element is not rendered.
type Measurer interface {
	SlideRect(slideID string) (Rect, bool)
	BlockRect(slideID, blockID string) (Rect, bool)
}

// Relative converts a block box into percentages of its slide box. The
// result is clamped to [0, 100]. It returns false for a slide of zero size.
func Relative(slide, block Rect) (document.Geometry, bool) {
	if slide.Width <= 0 || slide.Height <= 0 {
		return document.Geometry{}, false
	}
	g := document.Geometry{
		XPercent:      (block.Left - slide.Left) / slide.Width * 100,
		YPercent:      (block.Top - slide.Top) / slide.Height * 100,
		WidthPercent:  block.Width / slide.Width * 100,
		HeightPercent: block.Height / slide.Height * 100,
	}
	return g.Clamp(), true
}

// Reconciler writes rendered block positions back into the document so
// that it stays the source of truth for layout.
type Reconciler struct {
	store    *store.Store
	measurer Measurer
	epsilon  float64
	logger   *zap.Logger

	mu      sync.Mutex
	last    uint64
	running bool
}

type Option func(*Reconciler)

func WithLogger(logger *zap.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

func WithEpsilon(eps float64) Option {
	return func(r *Reconciler) {
		r.epsilon = eps
	}
}

func New(s *store.Store, m Measurer, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:    s,
		measurer: m,
		epsilon:  DefaultEpsilon,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.epsilon < 0 {
		r.epsilon = DefaultEpsilon
	}

	return r
}

// Reconcile measures every block of every slide and updates the blocks
// whose measured geometry differs from the stored one by more than epsilon.
// It returns the number of updated blocks. Calls made while another
// reconciliation is running return 0.
func (r *Reconciler) Reconcile() int {
	if !r.begin() {
		return 0
	}

	doc := r.store.Document()
	var mutations []store.Mutation

	for _, slide := range doc.Slides {
		slideRect, ok := r.measurer.SlideRect(slide.ID)
		if !ok {
			continue
		}
		for _, block := range slide.Content {
			blockRect, ok := r.measurer.BlockRect(slide.ID, block.ID)
			if !ok {
				continue
			}
			g, ok := Relative(slideRect, blockRect)
			if !ok {
				break
			}
			if g.Near(block.Geometry, r.epsilon) {
				continue
			}
			mutations = append(mutations, store.UpdateBlock(block.ID, block.WithGeometry(g)))
		}
	}

	revision := doc.Revision
	if len(mutations) > 0 {
		revision = r.store.Update("reconcile", mutations...).Revision
		r.logger.Debug("reconciled block geometry", zap.Int("updates", len(mutations)), zap.Uint64("revision", revision))
	}

	r.end(revision)

	return len(mutations)
}

// CommitGeometry stores the geometry reported by the renderer at the end of
// a drag or resize. It returns false if the block is unknown or the change
// is below epsilon.
func (r *Reconciler) CommitGeometry(blockID string, g document.Geometry) bool {
	if !r.begin() {
		return false
	}

	doc := r.store.Document()
	revision := doc.Revision
	defer func() { r.end(revision) }()

	slideIdx, blockIdx, ok := doc.FindBlock(blockID)
	if !ok {
		return false
	}

	block := doc.Slides[slideIdx].Content[blockIdx]
	g = g.Clamp()
	if g.Near(block.Geometry, r.epsilon) {
		return false
	}

	revision = r.store.Update("commitGeometry", store.UpdateBlock(blockID, block.WithGeometry(g))).Revision
	return true
}

// Attach reconciles after every committed revision newer than the last one
// the reconciler has seen. Revisions produced by its own writes are skipped.
func (r *Reconciler) Attach() (detach func()) {
	return r.store.Subscribe(func(doc document.Document) {
		r.mu.Lock()
		stale := r.running || doc.Revision <= r.last
		r.mu.Unlock()
		if stale {
			return
		}
		r.Reconcile()
	})
}

func (r *Reconciler) begin() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return false
	}
	r.running = true
	return true
}

func (r *Reconciler) end(revision uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
	if revision > r.last {
		r.last = revision
	}
}
