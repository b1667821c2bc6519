package mail

import (
	"bytes"
	"context"
	"time"

	gomail "github.com/go-mail/mail/v2"
)

// dialer is the subset of *gomail.Dialer used here.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender delivers through an SMTP relay.
type SMTPSender struct {
	dialer dialer
}

func NewSMTPSender(host string, port int, user, password string) *SMTPSender {
	d := gomail.NewDialer(host, port, user, password)
	d.Timeout = 10 * time.Second
	return &SMTPSender{dialer: d}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.dialer.DialAndSend(buildMessage(msg))
}

func (s *SMTPSender) Name() string { return BackendSMTP }

func buildMessage(msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	return m
}

// render serializes msg as an RFC 822 message.
func render(msg Message) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buildMessage(msg).WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
