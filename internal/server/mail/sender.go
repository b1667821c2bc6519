// Package mail delivers outbound messages. Backends: log (writes the
// message to the logger), smtp and s3 (stores .eml files in a bucket). Every
// backend built by New sits behind a circuit breaker.
package mail

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/yamdb/internal/logging"
	"github.com/dmitrijs2005/yamdb/internal/server/config"
)

// Message is a plain-text email.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Sender delivers a message. Implementations do not retry.
type Sender interface {
	Send(ctx context.Context, msg Message) error
	Name() string
}

// Backend names accepted in configuration.
const (
	BackendLog  = "log"
	BackendSMTP = "smtp"
	BackendS3   = "s3"
)

// New builds the configured backend wrapped in a breaker.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger) (Sender, error) {
	var (
		s   Sender
		err error
	)

	switch cfg.MailBackend {
	case BackendLog, "":
		s = NewLogSender(logger)
	case BackendSMTP:
		s = NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	case BackendS3:
		s, err = NewS3Sender(ctx, cfg)
	default:
		err = fmt.Errorf("unknown mail backend %q", cfg.MailBackend)
	}
	if err != nil {
		return nil, err
	}

	return NewBreakerSender(s, cfg.MailBreakerFailures, cfg.MailBreakerTimeout, logger), nil
}
