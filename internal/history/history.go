package history

import (
	"sync"

	"go.uber.org/zap"

	"github.com/stateful/slidedeck/internal/document"
	"github.com/stateful/slidedeck/internal/store"
)

// DefaultLimit is the number of snapshots kept when no limit is configured.
const DefaultLimit = 40

// Snapshot is an immutable copy of the slide list. Navigation and view state
// (current index, theme, visited slides) are not part of it.
type Snapshot struct {
	slides document.Slides
}

// Slides returns a copy of the captured slides.
func (s Snapshot) Slides() document.Slides {
	return s.slides.Clone()
}

// Manager implements linear undo/redo on top of a store. Snapshots are
// captured only when Push is called, which callers do after a logically
// complete edit, never on every keystroke.
type Manager struct {
	mu        sync.Mutex
	store     *store.Store
	snapshots []Snapshot
	index     int
	limit     int
	logger    *zap.Logger
}

type Option func(*Manager)

func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithLimit bounds the number of snapshots. Values below 2 disable the bound.
func WithLimit(limit int) Option {
	return func(m *Manager) {
		m.limit = limit
	}
}

func New(s *store.Store, opts ...Option) *Manager {
	m := &Manager{
		store: s,
		index: -1,
		limit: DefaultLimit,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.logger == nil {
		m.logger = zap.NewNop()
	}

	return m
}

// Index returns the position of the current snapshot or -1 if there is none.
func (m *Manager) Index() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index
}

// Len returns the number of stored snapshots.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.snapshots)
}

func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index > 0
}

func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index >= 0 && m.index < len(m.snapshots)-1
}

// Push captures the current slides. Snapshots after the current position
// are discarded, so a new edit invalidates the redo future.
func (m *Manager) Push() {
	slides := m.store.Slides().Clone()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.push(slides)
}

func (m *Manager) push(slides document.Slides) {
	m.snapshots = append(m.snapshots[:m.index+1], Snapshot{slides: slides})
	m.index = len(m.snapshots) - 1

	if m.limit > 1 && len(m.snapshots) > m.limit {
		drop := len(m.snapshots) - m.limit
		m.snapshots = append([]Snapshot(nil), m.snapshots[drop:]...)
		m.index -= drop
	}

	m.logger.Debug("pushed history", zap.Int("index", m.index), zap.Int("len", len(m.snapshots)))
}

// Bootstrap pushes the first snapshot once content is available, so that
// undoing back to the initial content is well defined.
func (m *Manager) Bootstrap() bool {
	slides := m.store.Slides()

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(slides) == 0 || m.index != -1 {
		return false
	}
	m.push(slides.Clone())
	return true
}

// Undo restores the previous snapshot. It is a no-op at the beginning of
// the history.
func (m *Manager) Undo() bool {
	return m.move(-1, "undo")
}

// Redo restores the next snapshot. It is a no-op at the end of the history.
func (m *Manager) Redo() bool {
	return m.move(1, "redo")
}

func (m *Manager) move(delta int, op string) bool {
	m.mu.Lock()
	next := m.index + delta
	if m.index < 0 || next < 0 || next >= len(m.snapshots) {
		m.mu.Unlock()
		return false
	}
	m.index = next
	slides := m.snapshots[next].Slides()
	m.mu.Unlock()

	m.logger.Debug(op, zap.Int("index", next))
	m.store.Update(op, store.SetSlides(slides))
	return true
}

// Batch runs fn, which is expected to issue several store mutations, and
// records the result as a single history step.
func (m *Manager) Batch(fn func(s *store.Store)) {
	fn(m.store)
	m.Push()
}

// Reset drops all snapshots.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = nil
	m.index = -1
}
