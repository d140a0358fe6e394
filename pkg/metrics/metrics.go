// Package metrics holds the process-wide Prometheus instruments. The registry
// is built once at startup and handed down by the container; components never
// register instruments on a hidden default.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every instrument the pipeline and read paths report to.
type Metrics struct {
	JobsProcessed   *prometheus.CounterVec
	JobDuration     prometheus.Histogram
	QueueDepth      *prometheus.GaugeVec
	EmbedRequests   *prometheus.CounterVec
	BreakerState    *prometheus.GaugeVec
	CorruptedPoints prometheus.Counter
	SearchRequests  *prometheus.CounterVec
	RAGRequests     *prometheus.CounterVec
	RAGDuration     *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New builds the registry plus all instruments.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		JobsProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hirelens",
			Subsystem: "ingest",
			Name:      "jobs_total",
			Help:      "Ingestion jobs reaching a terminal state, by status.",
		}, []string{"status"}),
		JobDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hirelens",
			Subsystem: "ingest",
			Name:      "job_duration_seconds",
			Help:      "Wall time from dequeue to terminal job state.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}),
		QueueDepth: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "hirelens",
			Subsystem: "queue",
			Name:      "depth",
			Help:      "Entries per queue structure (main, retries, in_flight).",
		}, []string{"queue"}),
		EmbedRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hirelens",
			Subsystem: "embedding",
			Name:      "requests_total",
			Help:      "Embedding batch requests by outcome.",
		}, []string{"status"}),
		BreakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "hirelens",
			Subsystem: "embedding",
			Name:      "breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open).",
		}, []string{"name"}),
		CorruptedPoints: f.NewCounter(prometheus.CounterOpts{
			Namespace: "hirelens",
			Subsystem: "vector",
			Name:      "corrupted_points_total",
			Help:      "Embedding points dropped for dimension mismatch.",
		}),
		SearchRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hirelens",
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Search requests by mode and outcome.",
		}, []string{"mode", "status"}),
		RAGRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hirelens",
			Subsystem: "rag",
			Name:      "requests_total",
			Help:      "RAG feature invocations by outcome.",
		}, []string{"feature", "status"}),
		RAGDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hirelens",
			Subsystem: "rag",
			Name:      "request_duration_seconds",
			Help:      "RAG feature latency.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}, []string{"feature"}),

		registry: reg,
	}
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveJob records a terminal job outcome.
func (m *Metrics) ObserveJob(status string, took time.Duration) {
	if m == nil {
		return
	}
	m.JobsProcessed.WithLabelValues(status).Inc()
	m.JobDuration.Observe(took.Seconds())
}

// ObserveRAG wraps a RAG feature call with the timer + outcome counter.
func (m *Metrics) ObserveRAG(feature string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.RAGRequests.WithLabelValues(feature, status).Inc()
	m.RAGDuration.WithLabelValues(feature).Observe(time.Since(start).Seconds())
}

// ObserveSearch records a search call outcome.
func (m *Metrics) ObserveSearch(mode string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.SearchRequests.WithLabelValues(mode, status).Inc()
}

// ObserveEmbedding records one embedding batch outcome.
func (m *Metrics) ObserveEmbedding(err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.EmbedRequests.WithLabelValues(status).Inc()
}

// SetBreakerState mirrors a breaker state change into the gauge.
func (m *Metrics) SetBreakerState(name string, state float64) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(name).Set(state)
}

// DropCorruptedPoint counts a vector point skipped for bad dimension.
func (m *Metrics) DropCorruptedPoint() {
	if m == nil {
		return
	}
	m.CorruptedPoints.Inc()
}

// SetQueueDepth publishes current queue sizes.
func (m *Metrics) SetQueueDepth(queue string, n float64) {
	if m == nil {
		return
	}
	m.QueueDepth.WithLabelValues(queue).Set(n)
}
