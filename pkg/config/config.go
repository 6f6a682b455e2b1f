package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/actor-rtc/proto-regulate/pkg/regulate"
)

// Config holds all application configuration
type Config struct {
	// Engine configuration
	Engine EngineConfig `yaml:"engine"`

	// Output configuration
	Output OutputConfig `yaml:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging"`
}

// EngineConfig holds normalization engine settings
type EngineConfig struct {
	MaxWorkers int           `yaml:"max_workers"`
	CacheSize  int           `yaml:"cache_size"`
	CacheTTL   time.Duration `yaml:"cache_ttl"`
}

// UnmarshalYAML accepts cache_ttl as a duration string like "30s". Absent
// keys keep whatever value the config already carries.
func (e *EngineConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		MaxWorkers int    `yaml:"max_workers"`
		CacheSize  int    `yaml:"cache_size"`
		CacheTTL   string `yaml:"cache_ttl"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.MaxWorkers != 0 {
		e.MaxWorkers = raw.MaxWorkers
	}
	if raw.CacheSize != 0 {
		e.CacheSize = raw.CacheSize
	}
	if raw.CacheTTL != "" {
		ttl, err := time.ParseDuration(raw.CacheTTL)
		if err != nil {
			return fmt.Errorf("invalid cache_ttl: %w", err)
		}
		e.CacheTTL = ttl
	}
	return nil
}

// OutputConfig holds output settings for directory runs
type OutputConfig struct {
	// Dir is where merged package files are written
	Dir string `yaml:"dir"`
	// Overwrite permits replacing existing files in Dir
	Overwrite bool `yaml:"overwrite"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// DefaultConfig returns the defaults used when nothing is set
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			MaxWorkers: runtime.GOMAXPROCS(0),
			CacheSize:  1024,
			CacheTTL:   15 * time.Minute,
		},
		Output: OutputConfig{
			Overwrite: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from defaults, then an optional YAML file,
// then environment variables. Later sources win.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// applyEnv overlays PROTO_REGULATE_* environment variables
func (c *Config) applyEnv() {
	c.Engine.MaxWorkers = getEnvInt("PROTO_REGULATE_MAX_WORKERS", c.Engine.MaxWorkers)
	c.Engine.CacheSize = getEnvInt("PROTO_REGULATE_CACHE_SIZE", c.Engine.CacheSize)
	c.Engine.CacheTTL = getEnvDuration("PROTO_REGULATE_CACHE_TTL", c.Engine.CacheTTL)

	c.Output.Dir = getEnv("PROTO_REGULATE_OUTPUT_DIR", c.Output.Dir)
	c.Output.Overwrite = getEnvBool("PROTO_REGULATE_OVERWRITE", c.Output.Overwrite)

	c.Logging.Level = getEnv("PROTO_REGULATE_LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("PROTO_REGULATE_LOG_FORMAT", c.Logging.Format)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Engine.MaxWorkers < 1 {
		return fmt.Errorf("max workers must be at least 1")
	}
	if c.Engine.CacheSize < 1 {
		return fmt.Errorf("cache size must be at least 1")
	}
	if c.Engine.CacheTTL < 0 {
		return fmt.Errorf("cache TTL cannot be negative")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	return nil
}

// RegulateConfig converts to the engine's own config type
func (c *Config) RegulateConfig() *regulate.Config {
	return &regulate.Config{
		MaxWorkers: c.Engine.MaxWorkers,
		CacheSize:  c.Engine.CacheSize,
		CacheTTL:   c.Engine.CacheTTL,
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
