package mail

import (
	"context"

	"github.com/dmitrijs2005/yamdb/internal/logging"
)

// LogSender writes messages to the logger instead of sending them. Meant
// for development.
type LogSender struct {
	logger logging.Logger
}

func NewLogSender(l logging.Logger) *LogSender {
	return &LogSender{logger: l.With("module", "mail")}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.Info(ctx, "mail message", "from", msg.From, "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}

func (s *LogSender) Name() string { return BackendLog }
