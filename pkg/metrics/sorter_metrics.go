// Package metrics exposes run and classification counters for Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sorter"

// Recorder holds the collectors written by the pipeline.
type Recorder struct {
	registry *prometheus.Registry

	ContactsExtracted  prometheus.Counter
	HandlesSkipped     *prometheus.CounterVec
	Assignments        *prometheus.CounterVec
	HistoryFailures    prometheus.Counter
	WriteFailures      prometheus.Counter
	PublishFailures    prometheus.Counter
	RunDuration        *prometheus.HistogramVec
	LastRunCompletedAt prometheus.Gauge
}

// NewRecorder registers every collector on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		ContactsExtracted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extract",
			Name:      "contacts_total",
			Help:      "Contacts that survived extraction filters.",
		}),
		HandlesSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extract",
			Name:      "handles_skipped_total",
			Help:      "Handles excluded by a data-quality filter.",
		}, []string{"reason"}),
		Assignments: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classify",
			Name:      "assignments_total",
			Help:      "Category assignments produced, by policy and category.",
		}, []string{"source", "category"}),
		HistoryFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classify",
			Name:      "history_failures_total",
			Help:      "Contacts skipped because their message history could not be read.",
		}),
		WriteFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "write_failures_total",
			Help:      "Assignment writes that failed after retries.",
		}),
		PublishFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "publish_failures_total",
			Help:      "Assignment events that could not be published.",
		}),
		RunDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Wall time of a pipeline step.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"step", "status"}),
		LastRunCompletedAt: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "last_completed_timestamp_seconds",
			Help:      "Unix time of the last completed run.",
		}),
	}
}

// Registry returns the registry for exposition.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Register adds extra collectors, such as connection pool gauges.
func (r *Recorder) Register(cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := r.registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveAssignment counts one assignment. An empty category is recorded as "none".
func (r *Recorder) ObserveAssignment(source, category string) {
	if r == nil {
		return
	}
	if category == "" {
		category = "none"
	}
	r.Assignments.WithLabelValues(source, category).Inc()
}
