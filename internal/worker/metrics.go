package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Failure stages
const (
	StageFetch       = "fetch"
	StageRender      = "render"
	StageAcknowledge = "acknowledge"
)

// Metrics holds the processor's Prometheus collectors
type Metrics struct {
	JobsProcessed  prometheus.Counter
	JobFailures    *prometheus.CounterVec
	RenderDuration prometheus.Histogram
	State          prometheus.Gauge
}

// NewMetrics registers the collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		JobsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "render_worker_jobs_processed_total",
			Help: "Jobs rendered and acknowledged.",
		}),
		JobFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "render_worker_job_failures_total",
			Help: "Cycles aborted, by the stage that failed.",
		}, []string{"stage"}),
		RenderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "render_worker_render_duration_seconds",
			Help:    "Time spent rendering one job.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		State: factory.NewGauge(prometheus.GaugeOpts{
			Name: "render_worker_state",
			Help: "Current processor state: 0 idle, 1 fetching, 2 rendering, 3 acknowledging, 4 aborted.",
		}),
	}
}
