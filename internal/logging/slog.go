package logging

import (
	"context"
	"io"
	"log/slog"
)

// SlogLogger backs the "json" and "text" formats.
type SlogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps an existing slog logger.
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{l: l}
}

func newSlog(w io.Writer, text bool, level string) *SlogLogger {
	opts := &slog.HandlerOptions{Level: slogLevel(level), ReplaceAttr: utcTime}
	var h slog.Handler = slog.NewJSONHandler(w, opts)
	if text {
		h = slog.NewTextHandler(w, opts)
	}
	return NewSlogLogger(slog.New(h))
}

// utcTime keeps record timestamps in UTC whatever the host zone is.
func utcTime(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
		a.Value = slog.TimeValue(a.Value.Time().UTC())
	}
	return a
}

// slogLevel parses debug, info, warn or error. Anything else is info.
func slogLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func (s *SlogLogger) Debug(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelDebug, msg, args)
}

func (s *SlogLogger) Info(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelInfo, msg, args)
}

func (s *SlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelWarn, msg, args)
}

func (s *SlogLogger) Error(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelError, msg, args)
}

func (s *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{l: s.l.With(args...)}
}

func (s *SlogLogger) log(ctx context.Context, level slog.Level, msg string, args []any) {
	s.l.Log(ctx, level, msg, args...)
}

var _ Logger = (*SlogLogger)(nil)
