package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns the process logger.
// APP_ENV=dev (or development) writes debug-level console output to stderr;
// anything else writes info-level JSON to stdout.
func NewLogger(env string) zerolog.Logger { return NewLoggerTo(env, nil) }

// NewLoggerTo is NewLogger with both formats sent to w. A nil w keeps the
// default streams.
func NewLoggerTo(env string, w io.Writer) zerolog.Logger {
	if env == "dev" || env == "development" {
		if w == nil {
			w = os.Stderr
		}
		return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
			Level(zerolog.DebugLevel).
			With().Timestamp().Str("svc", "review-insights").Logger()
	}
	if w == nil {
		w = os.Stdout
	}
	return zerolog.New(w).
		Level(zerolog.InfoLevel).
		With().Timestamp().Str("svc", "review-insights").Logger()
}
