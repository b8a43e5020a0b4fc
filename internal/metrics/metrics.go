// Package metrics records pipeline observability signals.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ResQ-NG/resq-ai/pkg/pipeline"
)

// Metrics holds the pipeline's Prometheus collectors. A nil *Metrics is a
// no-op, so components can run unmetered in tests.
type Metrics struct {
	stageDuration      *prometheus.HistogramVec
	failures           *prometheus.CounterVec
	inFlight           prometheus.Gauge
	capacityRejections prometheus.Counter
}

// New registers the pipeline collectors with reg. A nil registerer uses the
// default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "resq",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job", "stage"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resq",
			Subsystem: "pipeline",
			Name:      "failures_total",
			Help:      "Pipeline failures by error kind.",
		}, []string{"job", "kind"}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "resq",
			Subsystem: "pipeline",
			Name:      "inference_in_flight",
			Help:      "Engine calls currently admitted.",
		}),
		capacityRejections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "resq",
			Subsystem: "pipeline",
			Name:      "capacity_rejections_total",
			Help:      "Requests rejected by the inference admission limit.",
		}),
	}
}

// ObserveStage records the duration of one stage attempt.
func (m *Metrics) ObserveStage(job string, stage pipeline.Stage, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(job, string(stage)).Observe(d.Seconds())
}

// RecordFailure counts a classified failure.
func (m *Metrics) RecordFailure(job string, kind pipeline.Kind) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(job, string(kind)).Inc()
}

// EngineCallStarted marks an admitted engine call.
func (m *Metrics) EngineCallStarted() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

// EngineCallFinished marks a completed engine call.
func (m *Metrics) EngineCallFinished() {
	if m == nil {
		return
	}
	m.inFlight.Dec()
}

// RecordCapacityRejection counts an admission rejection.
func (m *Metrics) RecordCapacityRejection() {
	if m == nil {
		return
	}
	m.capacityRejections.Inc()
}
