package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTPRequestDuration tracks HTTP request latency. Shared across the API surface.
var HTTPRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "clearvoice",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "path", "status"},
)

// AIJobsProcessedTotal counts AI pipeline jobs by terminal outcome.
var AIJobsProcessedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "clearvoice",
		Subsystem: "ai",
		Name:      "jobs_processed_total",
		Help:      "Total number of AI pipeline jobs processed, by outcome.",
	},
	[]string{"outcome"}, // completed|partial|failed
)

// AIJobsDeadLetteredTotal counts jobs that exhausted retries.
var AIJobsDeadLetteredTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "clearvoice",
		Subsystem: "ai",
		Name:      "jobs_dead_lettered_total",
		Help:      "Total number of AI pipeline jobs moved to the dead letter queue.",
	},
)

// AIStageDuration tracks per-stage pipeline latency.
var AIStageDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "clearvoice",
		Subsystem: "ai",
		Name:      "stage_duration_seconds",
		Help:      "AI pipeline stage duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	},
	[]string{"stage", "outcome"}, // outcome: success|skipped|error
)

// DuplicateSuggestionsTotal counts duplicate suggestions created by the pipeline.
var DuplicateSuggestionsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "clearvoice",
		Subsystem: "ai",
		Name:      "duplicate_suggestions_total",
		Help:      "Total number of duplicate suggestions created.",
	},
)

// FeedbackSubmittedTotal counts feedback creation by source.
var FeedbackSubmittedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "clearvoice",
		Subsystem: "feedback",
		Name:      "submitted_total",
		Help:      "Total number of feedback items submitted, by source.",
	},
	[]string{"source"},
)

// All returns all ClearVoice-specific metrics for registration.
func All() []prometheus.Collector {
	return []prometheus.Collector{
		AIJobsProcessedTotal,
		AIJobsDeadLetteredTotal,
		AIStageDuration,
		DuplicateSuggestionsTotal,
		FeedbackSubmittedTotal,
	}
}

// NewMetricsRegistry creates a Prometheus registry with Go/process collectors,
// the shared HTTPRequestDuration metric, and any additional service-specific
// collectors passed as arguments.
func NewMetricsRegistry(extra ...prometheus.Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		HTTPRequestDuration,
	)
	for _, c := range extra {
		reg.MustRegister(c)
	}
	return reg
}
