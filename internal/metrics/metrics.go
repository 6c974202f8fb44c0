// Package metrics exposes dispatch and HTTP counters to Prometheus.
package metrics

import (
	"strconv"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/task"

	"github.com/prometheus/client_golang/prometheus"
)

var _ commands.DispatchObserver = (*Metrics)(nil)

// Metrics holds all Prometheus metrics of the service.
type Metrics struct {
	// Dispatch
	assignments       *prometheus.CounterVec
	escalations       *prometheus.CounterVec
	responseTimeouts  prometheus.Counter
	courierResponses  *prometheus.CounterVec
	geofenceRejects   *prometheus.CounterVec
	statusTransitions *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the metrics and registers them with reg. A nil reg
// selects prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		assignments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatch_assignments_total",
				Help: "Dispatch attempts by outcome",
			},
			[]string{"outcome"},
		),
		escalations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatch_escalations_total",
				Help: "Escalations after a rejection or an unanswered offer, by outcome",
			},
			[]string{"outcome"},
		),
		responseTimeouts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dispatch_response_timeouts_total",
				Help: "Directed offers that expired without an answer",
			},
		),
		courierResponses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatch_courier_responses_total",
				Help: "Courier answers to directed offers",
			},
			[]string{"answer"},
		),
		geofenceRejects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatch_geofence_rejections_total",
				Help: "Pickup and delivery confirmations rejected by the geofence",
			},
			[]string{"target"},
		),
		statusTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatch_status_transitions_total",
				Help: "Task status transitions by new status",
			},
			[]string{"status"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
	}

	reg.MustRegister(
		m.assignments,
		m.escalations,
		m.responseTimeouts,
		m.courierResponses,
		m.geofenceRejects,
		m.statusTransitions,
		m.httpRequests,
		m.httpRequestDuration,
	)

	return m
}

func (m *Metrics) AssignmentFinished(outcome commands.Outcome) {
	m.assignments.WithLabelValues(string(outcome)).Inc()
}

func (m *Metrics) Escalated(outcome commands.Outcome) {
	m.escalations.WithLabelValues(string(outcome)).Inc()
}

func (m *Metrics) ResponseTimedOut() {
	m.responseTimeouts.Inc()
}

func (m *Metrics) CourierResponded(accepted bool) {
	answer := "rejected"
	if accepted {
		answer = "accepted"
	}
	m.courierResponses.WithLabelValues(answer).Inc()
}

func (m *Metrics) GeofenceRejected(target task.Status) {
	m.geofenceRejects.WithLabelValues(target.String()).Inc()
}

func (m *Metrics) StatusChanged(status task.Status) {
	m.statusTransitions.WithLabelValues(status.String()).Inc()
}

// ObserveRequest records one served HTTP request. path must be the route
// pattern, not the raw URL, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, path string, status int, took time.Duration) {
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, path, code).Inc()
	m.httpRequestDuration.WithLabelValues(method, path, code).Observe(took.Seconds())
}
