package mail

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/yamdb/internal/logging"
	"github.com/dmitrijs2005/yamdb/internal/server/metrics"
	"github.com/sony/gobreaker/v2"
)

// ErrBreakerOpen is returned while the breaker rejects deliveries.
var ErrBreakerOpen = errors.New("mail backend unavailable")

// BreakerSender stops calling a failing backend for a while instead of
// making every signup wait for its timeout.
type BreakerSender struct {
	next Sender
	cb   *gobreaker.CircuitBreaker[struct{}]
}

// NewBreakerSender opens after failures consecutive errors and probes the
// backend again after timeout.
func NewBreakerSender(next Sender, failures uint32, timeout time.Duration, logger logging.Logger) *BreakerSender {
	if failures == 0 {
		failures = 5
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	name := next.Name()
	logger = logger.With("module", "mail_breaker", "backend", name)
	metrics.MailBreakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// a caller that gave up says nothing about the backend
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			metrics.MailBreakerState.WithLabelValues(name).Set(float64(to))
			logger.Warn(context.Background(), "mail breaker state changed", "from", from.String(), "to", to.String())
		},
	}

	return &BreakerSender{next: next, cb: gobreaker.NewCircuitBreaker[struct{}](settings)}
}

func (b *BreakerSender) Send(ctx context.Context, msg Message) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.Send(ctx, msg)
	})

	result := "sent"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		result = "rejected"
		err = ErrBreakerOpen
	case errors.Is(err, context.Canceled):
		result = "canceled"
	case err != nil:
		result = "failed"
	}
	metrics.MailDeliveries.WithLabelValues(b.next.Name(), result).Inc()

	return err
}

func (b *BreakerSender) Name() string { return b.next.Name() }

// State exposes the breaker state for health reporting.
func (b *BreakerSender) State() gobreaker.State { return b.cb.State() }
