package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.Engine.MaxWorkers)
	assert.Equal(t, 1024, cfg.Engine.CacheSize)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.True(t, cfg.Output.Overwrite)
}

func TestLoadConfig_NoSources(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
engine:
  max_workers: 2
  cache_size: 64
  cache_ttl: 30s
output:
  dir: /tmp/canonical
logging:
  level: debug
  format: json
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Engine.MaxWorkers)
	assert.Equal(t, 64, cfg.Engine.CacheSize)
	assert.Equal(t, 30*time.Second, cfg.Engine.CacheTTL)
	assert.Equal(t, "/tmp/canonical", cfg.Output.Dir)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  max_workers: 2\n"), 0644))

	t.Setenv("PROTO_REGULATE_MAX_WORKERS", "7")
	t.Setenv("PROTO_REGULATE_LOG_LEVEL", "warn")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Engine.MaxWorkers)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: ["), 0644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero workers", func(c *Config) { c.Engine.MaxWorkers = 0 }, true},
		{"zero cache size", func(c *Config) { c.Engine.CacheSize = 0 }, true},
		{"negative ttl", func(c *Config) { c.Engine.CacheTTL = -time.Second }, true},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"warning alias", func(c *Config) { c.Logging.Level = "warning" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegulateConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.MaxWorkers = 3
	cfg.Engine.CacheSize = 16
	cfg.Engine.CacheTTL = time.Minute

	rc := cfg.RegulateConfig()
	assert.Equal(t, 3, rc.MaxWorkers)
	assert.Equal(t, 16, rc.CacheSize)
	assert.Equal(t, time.Minute, rc.CacheTTL)
}
