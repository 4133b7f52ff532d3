package theme

import (
	"io/fs"
	"path"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var ErrUnknownDefault = errors.New("default theme is not in the registry")

// Registry is a catalog of themes. It starts with the built-in themes and
// can be extended with themes loaded from YAML. Themes are immutable once
// registered; registering an existing id replaces the entry.
type Registry struct {
	mu        sync.RWMutex
	themes    []Theme
	index     map[string]int
	defaultID string
	logger    *zap.Logger
}

type RegistryOption func(*Registry)

func WithLogger(logger *zap.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithoutBuiltin starts the registry empty. At least one theme must be
// registered before Resolve is useful.
func WithoutBuiltin() RegistryOption {
	return func(r *Registry) {
		r.themes = nil
		r.index = map[string]int{}
		r.defaultID = ""
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		index:     map[string]int{},
		defaultID: DefaultID,
	}
	for i, t := range Builtin() {
		r.themes = append(r.themes, t)
		r.index[t.ID] = i
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = zap.NewNop()
	}

	return r
}

// List returns all themes in registration order.
func (r *Registry) List() []Theme {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Theme, len(r.themes))
	for i, t := range r.themes {
		result[i] = t.clone()
	}
	return result
}

// Get returns the theme with the given id.
func (r *Registry) Get(id string) (Theme, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.index[id]
	if !ok {
		return Theme{}, false
	}
	return r.themes[idx].clone(), true
}

// Has reports whether id resolves to a registered theme.
func (r *Registry) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// Default returns the fallback theme.
func (r *Registry) Default() Theme {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if idx, ok := r.index[r.defaultID]; ok {
		return r.themes[idx].clone()
	}
	if len(r.themes) > 0 {
		return r.themes[0].clone()
	}
	return Theme{}
}

// DefaultID returns the id of the fallback theme.
func (r *Registry) DefaultID() string {
	return r.Default().ID
}

// Resolve returns the theme with the given id or the default theme.
// It never fails, so rendering and export are never blocked by a missing theme.
func (r *Registry) Resolve(id string) Theme {
	if t, ok := r.Get(id); ok {
		return t
	}
	r.logger.Debug("theme not found, using default", zap.String("id", id))
	return r.Default()
}

// SetDefault changes the fallback theme.
func (r *Registry) SetDefault(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[id]; !ok {
		return errors.Wrapf(ErrUnknownDefault, "theme %q", id)
	}
	r.defaultID = id
	return nil
}

// Register validates and adds themes. Invalid themes are skipped and their
// errors are combined into the returned error.
func (r *Registry) Register(themes ...Theme) error {
	var result error

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range themes {
		if err := validateTheme(t); err != nil {
			result = multierr.Append(result, errors.WithMessagef(err, "invalid theme %q", t.ID))
			continue
		}
		t = t.clone()
		if idx, ok := r.index[t.ID]; ok {
			r.themes[idx] = t
		} else {
			r.index[t.ID] = len(r.themes)
			r.themes = append(r.themes, t)
		}
		if r.defaultID == "" {
			r.defaultID = t.ID
		}
		r.logger.Debug("registered theme", zap.String("id", t.ID))
	}

	return result
}

type catalog struct {
	Themes []Theme `yaml:"themes" toml:"themes"`
}

// LoadYAML registers the themes listed under the "themes" key.
func (r *Registry) LoadYAML(data []byte) error {
	var c catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return errors.Wrap(err, "failed to unmarshal theme catalog")
	}
	return r.Register(c.Themes...)
}

// LoadTOML registers the themes listed in the "themes" array of tables.
func (r *Registry) LoadTOML(data []byte) error {
	var c catalog
	if err := toml.Unmarshal(data, &c); err != nil {
		return errors.Wrap(err, "failed to unmarshal theme catalog")
	}
	return r.Register(c.Themes...)
}

// LoadFile reads a catalog from fsys. Files with the .toml extension are
// parsed as TOML, all others as YAML.
func (r *Registry) LoadFile(fsys fs.FS, name string) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return errors.WithStack(err)
	}

	load := r.LoadYAML
	if path.Ext(name) == ".toml" {
		load = r.LoadTOML
	}

	// Wrap each part separately so callers can still split the result.
	var result error
	for _, err := range multierr.Errors(load(data)) {
		result = multierr.Append(result, errors.WithMessagef(err, "catalog %s", name))
	}
	return result
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateTheme(t Theme) error {
	return errors.WithStack(validate.Struct(t))
}
