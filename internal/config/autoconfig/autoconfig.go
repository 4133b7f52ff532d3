// autoconfig provides a way to create various instances from the [config.Config] like
// [store.Store], [history.Manager], [zap.Logger].
//
// For example, to ingest a stream into a fresh store, you can write:
//
//	autoconfig.NewBuilder().Invoke(func(in *ingest.Ingester, s *store.Store) error {
//	    ...
//	})
//
// Treat it as a dependency injection mechanism.
//
// autoconfig relies on [viper.Viper] for system and user configuration and on
// [config.Loader] for the project configuration in the current directory.
package autoconfig

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/stateful/slidedeck/internal/config"
	"github.com/stateful/slidedeck/internal/export"
	"github.com/stateful/slidedeck/internal/history"
	"github.com/stateful/slidedeck/internal/ingest"
	"github.com/stateful/slidedeck/internal/reconcile"
	"github.com/stateful/slidedeck/internal/store"
	"github.com/stateful/slidedeck/internal/theme"
)

type Builder struct {
	*dig.Container
}

// NewBuilder returns a container with every provider registered. Each
// builder has its own instances, including its own [viper.Viper].
func NewBuilder() *Builder {
	c := dig.New()

	// Providers can be replaced with Decorate, for example:
	//   builder.Decorate(func() (*config.Loader, error) { ... })
	mustProvide(c.Provide(getViper))
	mustProvide(c.Provide(getLoader))
	mustProvide(c.Provide(getConfig))
	mustProvide(c.Provide(getLogger))
	mustProvide(c.Provide(getRegistry))
	mustProvide(c.Provide(getStore))
	mustProvide(c.Provide(getHistory))
	mustProvide(c.Provide(getMeasurer))
	mustProvide(c.Provide(getReconciler))
	mustProvide(c.Provide(getIngester))
	mustProvide(c.Provide(getExportService))

	return &Builder{Container: c}
}

// Invoke is used to invoke the function with the given dependencies.
// The package will automatically figure out how to instantiate them
// using the available configuration.
func (b *Builder) Invoke(function interface{}, opts ...dig.InvokeOption) error {
	err := b.Container.Invoke(function, opts...)
	return dig.RootCause(err)
}

func mustProvide(err error) {
	if err != nil {
		panic("failed to provide: " + err.Error())
	}
}

func getViper() *viper.Viper {
	v := viper.New()

	v.SetConfigName(config.DefaultConfigName)
	v.SetConfigType(config.DefaultConfigType)

	v.AddConfigPath("/etc/deck/")
	v.AddConfigPath("$HOME/.deck/")

	// Defaults make every key known to viper, so that environment
	// variables like DECK_THEME_DEFAULT override them.
	d := config.Default()
	v.SetDefault("version", d.Version)
	v.SetDefault("log.enabled", d.Log.Enabled)
	v.SetDefault("log.path", d.Log.Path)
	v.SetDefault("log.verbose", d.Log.Verbose)
	v.SetDefault("theme.default", d.Theme.Default)
	v.SetDefault("theme.catalog", d.Theme.Catalog)
	v.SetDefault("history.limit", d.History.Limit)
	v.SetDefault("reconcile.epsilon", d.Reconcile.Epsilon)
	v.SetDefault("ingest.chunk_size", d.Ingest.ChunkSize)
	v.SetTypeByDefaultValue(true)

	v.SetEnvPrefix("DECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func getLoader() (*config.Loader, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return config.NewLoader(config.DefaultConfigName, config.DefaultConfigType, os.DirFS(cwd)), nil
}

func getConfig(v *viper.Viper, loader *config.Loader) (*config.Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.WithStack(err)
		}
	}

	// As viper does not offer writing config to a writer,
	// the workaround is to create a in-memory file system,
	// set it in viper, and write the config to it.
	// Finally, a deferred cleanup function is called
	// which brings back the OS file system.
	// Source: https://github.com/spf13/viper/issues/856
	memFS := afero.NewMemMapFs()

	v.SetFs(memFS)
	defer v.SetFs(afero.NewOsFs())

	if err := v.WriteConfigAs("/config.yaml"); err != nil {
		return nil, errors.WithStack(err)
	}

	content, err := afero.ReadFile(memFS, "/config.yaml")
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cfg, err := config.ParseYAML(content)
	if err != nil {
		return nil, err
	}

	root, err := loader.RootConfig()
	if errors.Is(err, config.ErrRootConfigNotFound) {
		return cfg, nil
	}
	return cfg.Overlay(root)
}

func getLogger(c *config.Config) (*zap.Logger, error) {
	if c == nil || !c.Log.Enabled {
		return zap.NewNop(), nil
	}

	zapConfig := zap.Config{
		Level:       zap.NewAtomicLevelAt(zap.InfoLevel),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	if c.Log.Verbose {
		zapConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		zapConfig.Development = true
		zapConfig.Encoding = "console"
		zapConfig.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	if c.Log.Path != "" {
		zapConfig.OutputPaths = []string{c.Log.Path}
		zapConfig.ErrorOutputPaths = []string{c.Log.Path}
	}

	l, err := zapConfig.Build()
	return l, errors.WithStack(err)
}

func getRegistry(c *config.Config, logger *zap.Logger) (*theme.Registry, error) {
	r := theme.NewRegistry(theme.WithLogger(logger))

	if c.Theme.Catalog != "" {
		path, err := filepath.Abs(c.Theme.Catalog)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if err := r.LoadFile(os.DirFS(filepath.Dir(path)), filepath.Base(path)); err != nil {
			return nil, err
		}
	}

	if err := r.SetDefault(c.Theme.Default); err != nil {
		return nil, err
	}

	return r, nil
}

func getStore(r *theme.Registry, logger *zap.Logger) *store.Store {
	return store.New(r, store.WithLogger(logger))
}

func getHistory(c *config.Config, s *store.Store, logger *zap.Logger) *history.Manager {
	opts := []history.Option{history.WithLogger(logger)}
	if c.History.Limit > 0 {
		opts = append(opts, history.WithLimit(c.History.Limit))
	}
	return history.New(s, opts...)
}

func getMeasurer(s *store.Store) reconcile.Measurer {
	return reconcile.NewGridMeasurer(s.Document, reconcile.DefaultCanvasWidth, reconcile.DefaultCanvasHeight)
}

func getReconciler(c *config.Config, s *store.Store, m reconcile.Measurer, logger *zap.Logger) *reconcile.Reconciler {
	return reconcile.New(s, m, reconcile.WithEpsilon(c.Reconcile.Epsilon), reconcile.WithLogger(logger))
}

func getIngester(c *config.Config, s *store.Store, h *history.Manager, logger *zap.Logger) *ingest.Ingester {
	return ingest.New(
		s,
		ingest.WithRecorder(h),
		ingest.WithChunkSize(c.Ingest.ChunkSize),
		ingest.WithLogger(logger),
	)
}

func getExportService(c *config.Config, s *store.Store, logger *zap.Logger) *export.Service {
	return export.NewService(s, export.WithFilters(c.Export.Filters...), export.WithLogger(logger))
}
