package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/leapstack-labs/cptcheck/internal/engine"
)

const namespace = "cptcheck"

// Outcome label values for validated documents.
const (
	outcomePassed   = "passed"
	outcomeFindings = "findings"
	outcomeRejected = "rejected"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	documents   *prometheus.CounterVec
	diagnostics *prometheus.CounterVec
	duration    prometheus.Histogram
	inFlight    prometheus.Gauge
}

// NewMetrics registers the service collectors with registry. A nil registry
// gets a fresh one, so several servers can live in one process.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,
		documents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_validated_total",
				Help:      "Documents validated, by outcome.",
			},
			[]string{"outcome"},
		),
		diagnostics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "diagnostics_total",
				Help:      "Diagnostics reported, by rule and whether the rule failed to run.",
			},
			[]string{"rule_id", "failed"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "validation_duration_seconds",
				Help:      "Time spent parsing and validating one document.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "validations_in_flight",
				Help:      "Validation requests currently being processed.",
			},
		),
	}

	registry.MustRegister(m.documents, m.diagnostics, m.duration, m.inFlight)
	return m
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe records one validated document.
func (m *Metrics) Observe(r *engine.Result, elapsed time.Duration) {
	m.duration.Observe(elapsed.Seconds())

	switch {
	case r.Err != nil:
		m.documents.WithLabelValues(outcomeRejected).Inc()
		return
	case r.Passed():
		m.documents.WithLabelValues(outcomePassed).Inc()
	default:
		m.documents.WithLabelValues(outcomeFindings).Inc()
	}

	for _, d := range r.Diagnostics {
		failed := "false"
		if d.Failed {
			failed = "true"
		}
		m.diagnostics.WithLabelValues(d.RuleID, failed).Inc()
	}
}
