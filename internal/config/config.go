// Package config handles demo server configuration from environment variables
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// ErrInvalidConfig is returned when a configuration value is out of range.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all demo server configuration
type Config struct {
	Port      string `env:"PORT" envDefault:"8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`

	// RedisURL is either a redis:// URL or a host:port address.
	// Empty keeps the visit counter in memory.
	RedisURL  string `env:"REDIS_URL"`
	VisitsKey string `env:"VISITS_KEY" envDefault:"etag-demo:visits"`

	// ChunkDelay is the pause between the two writes of /chunked
	ChunkDelay      time.Duration `env:"CHUNK_DELAY" envDefault:"2s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads configuration from the process environment
func Load() (*Config, error) {
	return load(env.Options{})
}

// LoadFrom reads configuration from the given variables instead of the
// process environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	return load(env.Options{Environment: environ})
}

func load(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: PORT must be between 1-65535, got %q", ErrInvalidConfig, c.Port)
	}

	switch strings.ToLower(c.LogLevel) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown LOG_LEVEL %q", ErrInvalidConfig, c.LogLevel)
	}

	if c.ChunkDelay < 0 {
		return fmt.Errorf("%w: CHUNK_DELAY must not be negative", ErrInvalidConfig)
	}

	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: SHUTDOWN_TIMEOUT must be positive", ErrInvalidConfig)
	}

	if c.RedisURL != "" && c.VisitsKey == "" {
		return fmt.Errorf("%w: VISITS_KEY is required with REDIS_URL", ErrInvalidConfig)
	}

	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return ":" + c.Port
}

// HasRedis returns true if a Redis backend is configured
func (c *Config) HasRedis() bool {
	return c.RedisURL != ""
}
