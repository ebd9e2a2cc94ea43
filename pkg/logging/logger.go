// Package logging configures the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
	// LevelDisabled turns logging off, mostly for tests and benchmarks.
	LevelDisabled LogLevel = "disabled"
)

// Config holds logger configuration.
type Config struct {
	Level LogLevel `env:"LOG_LEVEL" envDefault:"info"`

	// Pretty enables human-readable console output instead of JSON.
	Pretty bool `env:"LOG_PRETTY" envDefault:"false"`

	// Service is attached to every event when set.
	Service string `env:"LOG_SERVICE"`

	// Output defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// ConfigFromEnv reads LOG_LEVEL, LOG_PRETTY and LOG_SERVICE.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	ctx := zerolog.New(output).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	logger := ctx.Logger()

	log.Logger = logger
	return logger
}

// ParseLevel converts level to a zerolog level. Unknown values mean info.
func ParseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(string(level))) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a child of the global logger tagged with component.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: cache decisions
//   - miss, fresh hit, revalidation and its outcome
//   - undecodable cache records (treated as a miss)
//   - listing progress
//
// Info: lifecycle
//   - proxy startup/shutdown, selected cache backend
//   - player registrations
//
// Warn: degraded but working
//   - cache read or write failures (the fetch still succeeds)
//   - non-2xx responses from the API
//
// Error: failed operations
//   - transport failures
//   - registration store errors
//
// Context Fields:
//   - component: emitting package (pokeapi-client, disk-cache, redis-cache, ...)
//   - url / key: request URL and cache key
//   - status, error_class: HTTP status and ErrorClass of a failure
//   - ttl: remaining freshness of a served record
