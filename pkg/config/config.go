package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultOptimizePercent mirrors the legacy TCDB_OPTIMIZE_PERCENT default.
const DefaultOptimizePercent = 1

// Config is the agent's own settings, distinct from any promise or policy
// document: where it keeps its working state, how loudly it logs, and
// which KV backend it opens databases against.
type Config struct {
	WorkDir string    `yaml:"workdir"`
	Log     LogConfig `yaml:"log"`
	KVStore KVConfig  `yaml:"kvstore"`
}

// LogConfig selects the logger's verbosity and output format.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	JSON  bool   `yaml:"json"`
}

// KVConfig selects the KV-store backend and its tuning knobs.
type KVConfig struct {
	Backend         string `yaml:"backend"` // currently only "bbolt"
	OptimizePercent int    `yaml:"optimize_percent"`
}

// Default returns the settings used when no config file is present.
func Default() Config {
	return Config{
		WorkDir: "/var/cfengine",
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
		KVStore: KVConfig{
			Backend:         "bbolt",
			OptimizePercent: DefaultOptimizePercent,
		},
	}
}

// Load reads cfg from path. A missing file is not an error — the caller
// gets Default() — but a present-and-unparsable file is.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.KVStore.OptimizePercent <= 0 {
		cfg.KVStore.OptimizePercent = DefaultOptimizePercent
	}

	return cfg, cfg.Validate()
}

// Validate rejects settings the rest of the engine cannot act on.
func (c Config) Validate() error {
	if c.WorkDir == "" {
		return fmt.Errorf("config: workdir must not be empty")
	}
	switch c.KVStore.Backend {
	case "bbolt":
	default:
		return fmt.Errorf("config: unknown kvstore backend %q", c.KVStore.Backend)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Log.Level)
	}
	return nil
}
