package config

import (
	"bytes"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const VersionV1alpha1 = "v1alpha1"

// Config is a uniform configuration structure for deck.
type Config struct {
	Version   string          `yaml:"version" validate:"required,oneof=v1alpha1"`
	Log       ConfigLog       `yaml:"log"`
	Theme     ConfigTheme     `yaml:"theme"`
	History   ConfigHistory   `yaml:"history"`
	Reconcile ConfigReconcile `yaml:"reconcile"`
	Ingest    ConfigIngest    `yaml:"ingest"`
	Export    ConfigExport    `yaml:"export"`
}

type ConfigLog struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Verbose bool   `yaml:"verbose"`
}

type ConfigTheme struct {
	// Default is the id of the theme used for new documents and as
	// a fallback for unknown ids.
	Default string `yaml:"default" validate:"required"`
	// Catalog is an optional YAML file with additional themes.
	Catalog string `yaml:"catalog"`
}

type ConfigHistory struct {
	Limit int `yaml:"limit" validate:"gte=0"`
}

type ConfigReconcile struct {
	Epsilon float64 `yaml:"epsilon" validate:"gte=0,lte=100"`
}

type ConfigIngest struct {
	ChunkSize int `yaml:"chunk_size" validate:"gte=0"`
}

type ConfigExport struct {
	// Filters select the exported slides and blocks. An item is exported
	// when every filter of its type accepts it.
	Filters []*Filter `yaml:"filters" validate:"dive"`
}

// ParseYAML parses a single configuration document. Fields missing from
// data keep their default values.
func ParseYAML(data []byte) (*Config, error) {
	return Default().Overlay(data)
}

// Overlay returns a copy of c with every document applied in order, so that
// later documents override earlier ones field by field.
func (c *Config) Overlay(docs ...[]byte) (*Config, error) {
	result := *c

	for _, data := range docs {
		if len(bytes.TrimSpace(data)) == 0 {
			continue
		}

		version, err := parseVersionFromYAML(data)
		if err != nil {
			return nil, err
		}

		switch version {
		case VersionV1alpha1:
			if err := yaml.Unmarshal(data, &result); err != nil {
				return nil, errors.Wrap(err, "failed to parse v1alpha1 config")
			}
		default:
			return nil, errors.Errorf("unknown version: %s", version)
		}
	}

	if err := validateConfig(&result); err != nil {
		return nil, errors.Wrap(err, "failed to validate config")
	}

	return &result, nil
}

type versionOnly struct {
	Version string `yaml:"version"`
}

func parseVersionFromYAML(data []byte) (string, error) {
	var result versionOnly

	if err := yaml.Unmarshal(data, &result); err != nil {
		return "", errors.Wrap(err, "failed to unmarshal version")
	}

	return result.Version, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateConfig(cfg *Config) error {
	return errors.WithStack(validate.Struct(cfg))
}
