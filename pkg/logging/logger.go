// Package logging configures structured zerolog output for the converter.
package logging

import (
	"context"
	"fmt"
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

	// Pretty switches from JSON lines to human-readable console output.
	Pretty bool

	// Output is the destination writer (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns JSON logging at info level on stderr.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	level, err := ParseLevel(string(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	logger := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = logger

	if err != nil {
		logger.Warn().Str("level", string(cfg.Level)).Msg("Unknown log level, using info")
	}

	return logger
}

// ParseLevel converts a level name to a zerolog.Level. Matching is case
// insensitive; "warning" is accepted as an alias of "warn".
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info", "":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// NewLogger creates a child of the global logger tagged with component.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

type runIDKey struct{}

// WithRunID returns a copy of ctx that carries the id of the current run.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunID returns the run id stored in ctx, if any.
func RunID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runIDKey{}).(string)
	return id, ok && id != ""
}

// FromContext returns base tagged with the run id carried by ctx, or base
// unchanged when ctx has none.
func FromContext(ctx context.Context, base zerolog.Logger) zerolog.Logger {
	if id, ok := RunID(ctx); ok {
		return base.With().Str("run_id", id).Logger()
	}
	return base
}

// Log Level Guidelines:
//
// Debug: per-record and per-request detail
//   - Field parse misses (field, raw value)
//   - Cache hit/miss, conditional requests, ETags, 304 Not Modified
//   - Page fetched (page number, record count, has_next)
//
// Info: run milestones
//   - Run started, reading data (start URL)
//   - Fetch complete (page and row totals)
//   - Rows saved (row count, output path)
//
// Warn: degraded but continuing
//   - Cache read/write failures (request goes to the source)
//   - Pushgateway push failures
//
// Error: run aborted
//   - Failed or unauthorized page requests
//   - Malformed page bodies, pagination loops
//   - Output write failures
//
// Context Fields:
//   - component: converter, pagination, logistics-client, cache, cli
//   - run_id: id of the conversion run (see WithRunID)
//   - url: page URL
//   - page: 1-based page number
//   - status_code: HTTP status code
//   - error_class: client, server, network, unexpected
//   - rows / pages: run totals
//   - output: destination file
