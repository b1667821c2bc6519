// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Identity flow
	Signups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_signups_total",
			Help: "Signup attempts by outcome",
		},
		[]string{"result"}, // "created", "reused", "invalid", "conflict", "error"
	)

	TokenExchanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_token_exchanges_total",
			Help: "Confirmation code exchanges by outcome",
		},
		[]string{"result"}, // "issued", "invalid_code", "not_found", "error"
	)

	// Authorization
	AuthzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_authz_decisions_total",
			Help: "Authorization decisions by resource kind, action and outcome",
		},
		[]string{"kind", "action", "decision"},
	)

	// Mail
	MailDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_mail_deliveries_total",
			Help: "Outbound mail attempts by backend and outcome",
		},
		[]string{"backend", "result"},
	)

	MailBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "yamdb_mail_breaker_state",
			Help: "Mail circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"backend"},
	)

	// HTTP
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "yamdb_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
