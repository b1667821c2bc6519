package logging

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// ZerologLogger adapts zerolog to the Logger interface. Key–value args are
// attached as fields; a dangling key is logged under "!BADKEY" like slog does.
type ZerologLogger struct {
	l zerolog.Logger
}

func NewZerologLogger(l zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{l: l}
}

func (z *ZerologLogger) Debug(ctx context.Context, msg string, args ...any) {
	z.emit(z.l.Debug().Ctx(ctx), msg, args)
}

func (z *ZerologLogger) Info(ctx context.Context, msg string, args ...any) {
	z.emit(z.l.Info().Ctx(ctx), msg, args)
}

func (z *ZerologLogger) Warn(ctx context.Context, msg string, args ...any) {
	z.emit(z.l.Warn().Ctx(ctx), msg, args)
}

func (z *ZerologLogger) Error(ctx context.Context, msg string, args ...any) {
	z.emit(z.l.Error().Ctx(ctx), msg, args)
}

func (z *ZerologLogger) With(args ...any) Logger {
	return &ZerologLogger{l: z.l.With().Fields(fields(args)).Logger()}
}

func (z *ZerologLogger) emit(e *zerolog.Event, msg string, args []any) {
	e.Fields(fields(args)).Msg(msg)
}

func fields(args []any) map[string]any {
	m := make(map[string]any, len(args)/2+1)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		if i+1 >= len(args) {
			m["!BADKEY"] = key
			break
		}
		if err, isErr := args[i+1].(error); isErr {
			m[key] = err.Error()
			continue
		}
		m[key] = args[i+1]
	}
	return m
}
