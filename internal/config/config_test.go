package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EmptyPathYieldsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesLayerOverDefaults(t *testing.T) {
	path := writeConfig(t, `
database_path: /var/lib/taskline/tasks.db
timezone: Europe/Berlin
sweep:
  enabled: true
  schedule: "@every 30m"
  grace: 10m
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/taskline/tasks.db", cfg.DatabasePath)
	assert.Equal(t, "Europe/Berlin", cfg.Timezone)
	assert.True(t, cfg.Sweep.Enabled)
	assert.Equal(t, "@every 30m", cfg.Sweep.Schedule)
	assert.Equal(t, Duration(10*time.Minute), cfg.Sweep.Grace)

	// Untouched sections keep their defaults.
	assert.Equal(t, Default().MaxOccurrences, cfg.MaxOccurrences)
	assert.Equal(t, Default().Cache, cfg.Cache)
}

func TestLoad_RejectsInvalidTimezone(t *testing.T) {
	path := writeConfig(t, "timezone: Mars/Olympus\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "invalid timezone")
}

func TestLoad_RejectsNegativeMaxOccurrences(t *testing.T) {
	path := writeConfig(t, "max_occurrences: -1\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "max_occurrences")
}

func TestLoad_RejectsSweepWithoutSchedule(t *testing.T) {
	path := writeConfig(t, `
sweep:
  enabled: true
  schedule: ""
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "sweep.schedule")
}

func TestLoad_RejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "timezone: [unclosed\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "parse config")
}

func TestEngineConfig(t *testing.T) {
	cfg := Default()
	cfg.Cache.Enabled = false
	cfg.MaxOccurrences = 50

	ec := cfg.EngineConfig()
	assert.False(t, ec.CacheEnabled)
	assert.Equal(t, 50, ec.MaxOccurrences)
	assert.Equal(t, time.Duration(cfg.Cache.TTL), ec.CacheConfig.TTL)
	assert.Equal(t, cfg.Cache.MaxEntries, ec.CacheConfig.MaxEntries)
}

func TestDuration_RejectsUnparsableValues(t *testing.T) {
	path := writeConfig(t, `
cache:
  ttl: twenty
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "invalid duration")
}
