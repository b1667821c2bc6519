// Package logging is the structured logger shared by the server, the gRPC
// health endpoint and yamdbctl. Call sites depend on Logger only; New picks
// the slog or zerolog backend from the configured format.
package logging

import "context"

// Logger takes a message and alternating key/value pairs:
//
//	logger.Info(ctx, "user signed up", "user_id", u.ID, "mail_backend", name)
//
// Debug is for per-request detail such as authorization decisions and is
// dropped unless the level is "debug".
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a logger that adds args to every record, typically
	// "module" and a request id.
	With(args ...any) Logger
}
