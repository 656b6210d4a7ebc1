package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the query pipeline: stage
// errors, intent counts, retrieval yield, LLM token/cost accounting,
// and HTTP request metrics for the thin API layer. StageLatency is
// registered but no pipeline stage observes it.
type Metrics struct {
	registry *prometheus.Registry

	StageLatency   *prometheus.HistogramVec
	StageErrors    *prometheus.CounterVec
	RetrievalHits  *prometheus.HistogramVec
	LLMTokens      *prometheus.CounterVec
	LLMCost        prometheus.Counter
	IntentTotal    *prometheus.CounterVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

const namespace = "nobellm"

// NewMetrics builds and registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		StageLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_latency_seconds",
			Help:      "Latency of each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14),
		}, []string{"stage"}),
		StageErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_errors_total",
			Help:      "Errors raised by each pipeline stage, by kind.",
		}, []string{"stage", "kind"}),
		RetrievalHits: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "chunks_returned",
			Help:      "Number of chunks returned per retrieval call.",
			Buckets:   prometheus.LinearBuckets(0, 2, 15),
		}, []string{"intent"}),
		LLMTokens: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Prompt and completion tokens consumed.",
		}, []string{"model", "kind"}),
		LLMCost: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "cost_estimate_usd_total",
			Help:      "Cumulative estimated LLM cost in USD.",
		}),
		IntentTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "intent_total",
			Help:      "Queries classified by intent.",
		}, []string{"intent"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	return m
}

// Handler exposes the registry in the Prometheus text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
