// Package metric holds the Prometheus collectors exported on /metrics.
package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "voice_conversion"

// Result label values.
const (
	ResultLoaded    = "loaded"
	ResultUnchanged = "unchanged"
	ResultSucceeded = "succeeded"
	ResultFailed    = "failed"
)

// Metrics -.
type Metrics struct {
	ModelLoads         *prometheus.CounterVec
	Conversions        *prometheus.CounterVec
	ConversionDuration prometheus.Histogram
	ActiveSessions     prometheus.Gauge
	EnginesCreated     prometheus.Counter
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ModelLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_loads_total",
			Help:      "Model upload handling by result.",
		}, []string{"result"}),
		Conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "Conversion attempts by result and pitch extraction method.",
		}, []string{"result", "method"}),
		ConversionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversion_duration_seconds",
			Help:      "Wall time of successful engine conversions.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently held by the registry.",
		}),
		EnginesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engines_created_total",
			Help:      "Engine handles constructed.",
		}),
	}

	reg.MustRegister(m.ModelLoads, m.Conversions, m.ConversionDuration, m.ActiveSessions, m.EnginesCreated)

	return m
}

// ObserveConversion records one conversion attempt.
func (m *Metrics) ObserveConversion(result, method string, took time.Duration) {
	m.Conversions.WithLabelValues(result, method).Inc()
	if result == ResultSucceeded {
		m.ConversionDuration.Observe(took.Seconds())
	}
}
