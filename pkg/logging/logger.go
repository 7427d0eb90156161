// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
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

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	var output io.Writer = cfg.Output
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: cfg.Output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// NewBreakerLogger creates a logger scoped to one named circuit breaker.
func NewBreakerLogger(component, breaker string) zerolog.Logger {
	return log.With().
		Str("component", component).
		Str("breaker", breaker).
		Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Calls rejected while the breaker is open
//   - Outcome classification of individual calls
//
// Info: Normal operation events
//   - Breaker state transitions (closed -> open -> half_open -> closed)
//   - Collector construction and breaker registration
//
// Warn: Warning conditions that don't prevent operation
//   - Probe calls failing in half-open state
//   - Upstream errors while the breaker is still closed
//
// Error: Error conditions requiring attention
//   - Metric registration failures at construction time
//   - Misconfiguration detected during setup
//
// Context Fields:
//   - breaker: circuit breaker name (matches the "name" metric label)
//   - from / to: states involved in a transition
//   - outcome: call classification (successful, failed, ignored, not_permitted)
//   - duration: call duration
