package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Supported output formats.
const (
	FormatJSON    = "json"
	FormatText    = "text"
	FormatConsole = "console"
)

// New builds a Logger writing to w. "json" and "text" use slog handlers,
// "console" uses zerolog's human-friendly console writer. Unknown formats
// fall back to JSON.
func New(w io.Writer, format, level string) Logger {
	switch strings.ToLower(format) {
	case FormatConsole:
		zl := zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
			Level(zerologLevel(level)).
			With().Timestamp().Logger()
		return NewZerologLogger(zl)
	case FormatText:
		return newSlog(w, true, level)
	default:
		return newSlog(w, false, level)
	}
}

func zerologLevel(level string) zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}
