// Package metrics holds the Prometheus collectors for mail delivery and HTTP traffic.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Delivery attempts by outcome (Success, Failure)
	SendAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailer_send_attempts_total",
			Help: "Total number of per-recipient send attempts",
		},
		[]string{"status"},
	)

	SendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mailer_send_duration_seconds",
			Help:    "SMTP send duration per recipient in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
	)

	CyclesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mailer_send_cycles_total",
			Help: "Total number of completed delivery cycles",
		},
	)

	RunningSends = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mailer_running_sends",
			Help: "Number of mailings currently being sent",
		},
	)

	// Mailing status transitions by target status
	MailingTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailer_mailing_transitions_total",
			Help: "Total number of mailing status transitions",
		},
		[]string{"status"},
	)

	// Database transactions by outcome (commit, rollback, error)
	TransactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailer_db_transactions_total",
			Help: "Total number of database transactions",
		},
		[]string{"outcome"},
	)

	TransactionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mailer_db_transaction_duration_seconds",
			Help:    "Database transaction duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~16s
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mailer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "route", "status"},
	)
)

// RecordSendAttempt counts one delivery attempt and observes its duration.
func RecordSendAttempt(status string, duration time.Duration) {
	SendAttemptsTotal.WithLabelValues(status).Inc()
	SendDuration.Observe(duration.Seconds())
}

// IncrementCycles counts one completed delivery cycle.
func IncrementCycles() {
	CyclesTotal.Inc()
}

// RecordTransition counts a mailing entering status.
func RecordTransition(status string) {
	MailingTransitionsTotal.WithLabelValues(status).Inc()
}

// Transaction outcomes
const (
	TxCommit   = "commit"
	TxRollback = "rollback"
	TxError    = "error"
)

// RecordTransaction counts one finished transaction and observes its duration.
func RecordTransaction(outcome string, duration time.Duration) {
	TransactionsTotal.WithLabelValues(outcome).Inc()
	TransactionDuration.Observe(duration.Seconds())
}

// RecordHTTPRequestDuration observes one served request.
func RecordHTTPRequestDuration(method, route, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// Middleware times every request, labelled by its matched route pattern.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		RecordHTTPRequestDuration(c.Method(), c.Route().Path, strconv.Itoa(status), time.Since(start))
		return err
	}
}

// Handler exposes the default registry in the Prometheus text format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
