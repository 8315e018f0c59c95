package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the service's prometheus collectors.
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	ticketOperations *prometheus.CounterVec
	sweepRuns        *prometheus.CounterVec
	sweepTransitions *prometheus.CounterVec
}

// NewMetrics registers collectors on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		requestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		ticketOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticket_operations_total",
				Help: "Total number of ticket mutation operations",
			},
			[]string{"operation", "outcome"},
		),
		sweepRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sweeper_runs_total",
				Help: "Total number of expiration sweeps",
			},
			[]string{"outcome"},
		),
		sweepTransitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sweeper_transitions_total",
				Help: "Total number of tickets force-transitioned by the sweeper",
			},
			[]string{"transition"},
		),
	}
}

// RecordRequest increments the HTTP request counter.
func (m *Metrics) RecordRequest(method, path string, status int) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

// RecordTicketOperation increments the mutation counter.
func (m *Metrics) RecordTicketOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.ticketOperations.WithLabelValues(operation, outcome).Inc()
}

// RecordSweep increments the sweep run counter.
func (m *Metrics) RecordSweep(outcome string) {
	if m == nil {
		return
	}
	m.sweepRuns.WithLabelValues(outcome).Inc()
}

// RecordSweepTransitions counts force-applied decay transitions.
func (m *Metrics) RecordSweepTransitions(expired, blocked int64) {
	if m == nil {
		return
	}
	m.sweepTransitions.WithLabelValues("expired").Add(float64(expired))
	m.sweepTransitions.WithLabelValues("blocked").Add(float64(blocked))
}
