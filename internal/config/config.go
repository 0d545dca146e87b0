// Package config provides YAML-based application configuration for the
// taskline CLI and services built on the engine.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/taskline/taskline/recurrence"
)

// Duration is a time.Duration that unmarshals from YAML strings like "15m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// CacheConfig tunes the recurrence expansion cache.
type CacheConfig struct {
	Enabled         bool     `yaml:"enabled"`
	TTL             Duration `yaml:"ttl"`
	MaxEntries      int      `yaml:"max_entries"`
	CleanupInterval Duration `yaml:"cleanup_interval"`
}

// SweepConfig controls the orphan-series reconciliation job.
type SweepConfig struct {
	Enabled bool `yaml:"enabled"`
	// Schedule is a cron expression, e.g. "@hourly".
	Schedule string   `yaml:"schedule"`
	Grace    Duration `yaml:"grace"`
}

// Config is the top-level application configuration.
type Config struct {
	// DatabasePath is the SQLite file backing the store.
	DatabasePath string `yaml:"database_path"`

	// Timezone is the IANA zone used when a request carries none.
	Timezone string `yaml:"timezone"`

	// MaxOccurrences caps recurrence expansion. The engine's hard ceiling
	// still applies on top.
	MaxOccurrences int `yaml:"max_occurrences"`

	Cache CacheConfig `yaml:"cache"`
	Sweep SweepConfig `yaml:"sweep"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		DatabasePath:   "taskline.db",
		Timezone:       "UTC",
		MaxOccurrences: recurrence.MaxOccurrences,
		Cache: CacheConfig{
			Enabled:         true,
			TTL:             Duration(15 * time.Minute),
			MaxEntries:      1000,
			CleanupInterval: Duration(5 * time.Minute),
		},
		Sweep: SweepConfig{
			Enabled:  false,
			Schedule: "@hourly",
			Grace:    Duration(time.Hour),
		},
	}
}

// Load reads the YAML file at path, layering it over the defaults. A missing
// file yields the plain defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
		}
	}
	if c.MaxOccurrences < 0 {
		return fmt.Errorf("max_occurrences must not be negative")
	}
	if c.Sweep.Enabled && c.Sweep.Schedule == "" {
		return fmt.Errorf("sweep.schedule is required when sweep is enabled")
	}
	return nil
}

// EngineConfig maps the cache section onto the recurrence engine's
// configuration.
func (c Config) EngineConfig() recurrence.EngineConfig {
	return recurrence.EngineConfig{
		CacheEnabled: c.Cache.Enabled,
		CacheConfig: recurrence.CacheConfig{
			TTL:             time.Duration(c.Cache.TTL),
			MaxEntries:      c.Cache.MaxEntries,
			CleanupInterval: time.Duration(c.Cache.CleanupInterval),
		},
		MaxOccurrences: c.MaxOccurrences,
	}
}
