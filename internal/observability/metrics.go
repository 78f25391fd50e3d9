package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the Prometheus collectors for one service process.
// All methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight  prometheus.Gauge
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	httpErrors    *prometheus.CounterVec
	rateLimited   *prometheus.CounterVec
	tickets       prometheus.Counter
	transitions   *prometheus.CounterVec
	notifications *prometheus.CounterVec
	ledgerDrift   *prometheus.CounterVec
	mints         *prometheus.CounterVec
}

// NewMetrics registers collectors under the given namespace on a fresh registry.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "path"}),
		httpErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "Error responses by domain error code.",
		}, []string{"method", "path", "code"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}, []string{"path"}),
		tickets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tickets",
			Name:      "created_total",
			Help:      "Tickets created.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tickets",
			Name:      "status_transitions_total",
			Help:      "Applied ticket status changes.",
		}, []string{"from", "to"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "deliveries_total",
			Help:      "Notification attempts by channel and outcome.",
		}, []string{"channel", "outcome"}),
		ledgerDrift: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tickets",
			Name:      "ledger_repairs_total",
			Help:      "Status ledger rows rewritten by reconciliation.",
		}, []string{"status"}),
		mints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "passport",
			Name:      "mints_total",
			Help:      "Passport mint attempts by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.httpErrors,
		m.rateLimited,
		m.tickets,
		m.transitions,
		m.notifications,
		m.ledgerDrift,
		m.mints,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// InFlight adjusts the in-flight gauge by delta.
func (m *Metrics) InFlight(delta float64) {
	if m == nil {
		return
	}
	m.httpInFlight.Add(delta)
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.httpErrors.WithLabelValues(method, path, code).Inc()
}

// RecordRateLimited counts a rejected request.
func (m *Metrics) RecordRateLimited(path string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(path).Inc()
}

// RecordTicketCreated counts a committed ticket.
func (m *Metrics) RecordTicketCreated() {
	if m == nil {
		return
	}
	m.tickets.Inc()
}

// RecordStatusTransition counts an applied status change.
func (m *Metrics) RecordStatusTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

// RecordNotification counts a delivery attempt.
func (m *Metrics) RecordNotification(channel string, err error) {
	if m == nil {
		return
	}
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	m.notifications.WithLabelValues(channel, outcome).Inc()
}

// RecordLedgerRepair counts a reconciled ledger row.
func (m *Metrics) RecordLedgerRepair(status string) {
	if m == nil {
		return
	}
	m.ledgerDrift.WithLabelValues(status).Inc()
}

// RecordMint counts a mint attempt.
func (m *Metrics) RecordMint(err error) {
	if m == nil {
		return
	}
	outcome := "submitted"
	if err != nil {
		outcome = "failed"
	}
	m.mints.WithLabelValues(outcome).Inc()
}
