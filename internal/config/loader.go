package config

import (
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	DefaultConfigName = "deck"
	DefaultConfigType = "yaml"
)

var ErrRootConfigNotFound = errors.New("root configuration file not found")

// Loader finds deck configuration files in a file system. Besides the root
// configuration file, every directory between the root and a deck file may
// carry its own configuration which overrides the ones above it.
type Loader struct {
	fsys       fs.FS
	configName string
	configType string
	logger     *zap.Logger
}

type LoaderOption func(*Loader)

func WithLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

func NewLoader(configName, configType string, fsys fs.FS, opts ...LoaderOption) *Loader {
	if configName == "" {
		panic("config name is not set")
	}

	l := &Loader{
		fsys:       fsys,
		configName: configName,
		configType: configType,
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.logger == nil {
		l.logger = zap.NewNop()
	}

	return l
}

func (l *Loader) fileName() string {
	if l.configType == "" {
		return l.configName
	}
	return l.configName + "." + l.configType
}

// RootConfig returns the content of the root configuration file.
func (l *Loader) RootConfig() ([]byte, error) {
	data, err := fs.ReadFile(l.fsys, l.fileName())
	if err != nil {
		return nil, ErrRootConfigNotFound
	}
	return data, nil
}

// FindConfigChain returns the contents of all configuration files applying
// to name, ordered from the root to the innermost directory. name may be
// a directory or a file.
func (l *Loader) FindConfigChain(name string) ([][]byte, error) {
	paths, err := l.findConfigFiles(name)
	if err != nil {
		return nil, err
	}

	var result [][]byte
	for _, p := range paths {
		data, err := fs.ReadFile(l.fsys, p)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %q", p)
		}
		result = append(result, data)
	}
	return result, nil
}

// Load applies the configuration chain of name on top of base.
func (l *Loader) Load(base *Config, name string) (*Config, error) {
	chain, err := l.FindConfigChain(name)
	if err != nil {
		return nil, err
	}
	cfg, err := base.Overlay(chain...)
	return cfg, errors.WithMessagef(err, "failed to load config chain for %q", name)
}

func (l *Loader) findConfigFiles(name string) (result []string, _ error) {
	dir, err := l.dirOf(name)
	if err != nil {
		return nil, err
	}

	fileName := l.fileName()
	candidates := []string{fileName}

	// Use [path.Join] instead of [filepath.Join] as [fs.FS] always uses slashes.
	cur := ""
	for _, fragment := range strings.Split(filepath.ToSlash(dir), "/") {
		if fragment == "" || fragment == "." {
			continue
		}
		cur = path.Join(cur, fragment)
		candidates = append(candidates, path.Join(cur, fileName))
	}

	for _, candidate := range candidates {
		_, err := fs.Stat(l.fsys, candidate)
		switch {
		case err == nil:
			result = append(result, candidate)
		case errors.Is(err, fs.ErrNotExist):
		default:
			l.logger.Debug("failed to stat configuration file", zap.String("path", candidate), zap.Error(err))
			return nil, errors.WithStack(err)
		}
	}

	l.logger.Debug("found config files", zap.String("name", name), zap.Strings("files", result))

	return result, nil
}

func (l *Loader) dirOf(name string) (string, error) {
	if name == "" {
		name = "."
	}

	info, err := fs.Stat(l.fsys, filepath.ToSlash(name))
	if err != nil {
		return "", errors.Wrapf(err, "failed to get the path info for %q", name)
	}

	if info.IsDir() {
		return filepath.Clean(name), nil
	}
	return filepath.Dir(name), nil
}
