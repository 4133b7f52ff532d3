package config

var defaults Config

// Default returns a copy of the default configuration.
func Default() *Config {
	cfg := defaults
	return &cfg
}

func init() {
	yaml := []byte(`version: v1alpha1

log:
  enabled: false
  path: ""
  verbose: false

theme:
  # Id of the theme used for new documents. Unknown ids resolve to it.
  default: classic
  # Optional YAML file with additional themes under a top-level "themes" key.
  # catalog: "themes.yaml"

history:
  # Number of undo snapshots kept. 0 keeps the built-in limit.
  limit: 40

reconcile:
  # Differences in percent points below this value are not written back.
  epsilon: 0.01

ingest:
  # Size of a single read from the generation stream.
  chunk_size: 4096
`)

	cfg, err := (&Config{}).Overlay(yaml)
	if err != nil {
		panic(err)
	}

	defaults = *cfg
}
