package projection

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes of a processed event. The *_failed outcomes end the worker.
const (
	OutcomeAcked      = "acked"
	OutcomeRetried    = "retried"
	OutcomeParked     = "parked"
	OutcomeAckFailed  = "ack_failed"
	OutcomeNackFailed = "nack_failed"
)

// Metrics records per-event projection counters and timings.
type Metrics struct {
	started   *prometheus.CounterVec
	completed *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewMetrics registers projection metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		started: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "porti_projection_started_total",
				Help: "Event projections started",
			},
			[]string{"event_type"},
		),
		completed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "porti_projection_completed_total",
				Help: "Event projections completed by outcome",
			},
			[]string{"event_type", "outcome"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "porti_projection_duration_seconds",
				Help:    "End-to-end duration of an event projection including ack/nack",
				Buckets: []float64{0.001, 0.004, 0.016, 0.064, 0.256, 1.024, 4.096, 16.384, 65.536},
			},
			[]string{"event_type", "outcome"},
		),
	}
}

// Started counts an event entering the pipeline.
func (m *Metrics) Started(eventType string) {
	if m == nil {
		return
	}
	m.started.WithLabelValues(eventType).Inc()
}

// Completed counts and times an event leaving the pipeline with outcome.
func (m *Metrics) Completed(eventType, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.completed.WithLabelValues(eventType, outcome).Inc()
	m.duration.WithLabelValues(eventType, outcome).Observe(d.Seconds())
}
