// Package logging builds the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New returns a logger writing to w at the given level. format "json" emits
// one JSON object per line; anything else uses the human-readable console
// writer. Unknown levels fall back to info.
func New(w io.Writer, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	out := w
	if format != "json" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// Setup builds a stderr logger and installs it as the global zerolog logger.
func Setup(level, format string) zerolog.Logger {
	logger := New(os.Stderr, level, format)
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger
	return logger
}
