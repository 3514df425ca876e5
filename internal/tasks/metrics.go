package tasks

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects favorite task metrics. A nil *Metrics records nothing.
type Metrics struct {
	tasks         *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	inFlight      prometheus.Gauge
	syncFailures  prometheus.Counter
	draftFailures prometheus.Counter
}

// NewMetrics creates the task collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		tasks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "favorite_tasks_total",
				Help:      "Total number of favorite tasks by backend and outcome",
			},
			[]string{"backend", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "favorite_task_duration_seconds",
				Help:      "Favorite task duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"backend"},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "favorite_tasks_in_flight",
				Help:      "Number of favorite tasks currently running",
			},
		),
		syncFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "favorite_cache_sync_failures_total",
				Help:      "Total number of local cache updates that failed after a successful favorite",
			},
		),
		draftFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "favorite_draft_failures_total",
				Help:      "Total number of favorite tasks that could not persist or retire their draft",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(m.tasks, m.duration, m.inFlight, m.syncFailures, m.draftFailures)
	}

	return m
}

func (m *Metrics) started() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

func (m *Metrics) finished(backend, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	m.tasks.WithLabelValues(backend, outcome).Inc()
	m.duration.WithLabelValues(backend).Observe(elapsed.Seconds())
}

func (m *Metrics) syncFailed() {
	if m == nil {
		return
	}
	m.syncFailures.Inc()
}

func (m *Metrics) draftFailed() {
	if m == nil {
		return
	}
	m.draftFailures.Inc()
}
