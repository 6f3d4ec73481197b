package metrics

import "github.com/prometheus/client_golang/prometheus"

// Provider-call Prometheus metrics: embeddings and completions.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prodscout",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "prodscout",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prodscout",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"model", "type"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prodscout",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	CompletionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prodscout",
			Name:      "completion_requests_total",
			Help:      "Total number of completion requests",
		},
		[]string{"model", "status"},
	)

	CompletionRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "prodscout",
			Name:      "completion_request_duration_seconds",
			Help:      "Completion request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"model"},
	)

	CompletionTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prodscout",
			Name:      "completion_tokens_total",
			Help:      "Total completion tokens consumed",
		},
		[]string{"model", "type"},
	)
)

// Research pipeline metrics.
var (
	ResearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prodscout",
			Name:      "research_requests_total",
			Help:      "Total number of deep-research requests",
		},
		[]string{"status"}, // "ok" / "error"
	)

	ResearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "prodscout",
			Name:      "research_duration_seconds",
			Help:      "End-to-end deep-research duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	ResearchSubQuestions = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "prodscout",
			Name:      "research_sub_questions",
			Help:      "Fan-out width per deep-research request",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 7, 8},
		},
	)

	ResearchFindingsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "prodscout",
			Name:      "research_findings_failed_total",
			Help:      "Total sub-question findings that degraded to failure",
		},
	)

	ResultCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prodscout",
			Name:      "result_cache_total",
			Help:      "Retrieval result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var providerMetricsRegistered bool

// RegisterProviderMetrics registers Prometheus metrics. Must be called once from main.
func RegisterProviderMetrics() {
	if providerMetricsRegistered {
		return
	}
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(EmbeddingTokensTotal)
	prometheus.MustRegister(EmbeddingCacheTotal)
	prometheus.MustRegister(CompletionRequestsTotal)
	prometheus.MustRegister(CompletionRequestDuration)
	prometheus.MustRegister(CompletionTokensTotal)
	prometheus.MustRegister(ResearchRequestsTotal)
	prometheus.MustRegister(ResearchDuration)
	prometheus.MustRegister(ResearchSubQuestions)
	prometheus.MustRegister(ResearchFindingsFailed)
	prometheus.MustRegister(ResultCacheTotal)
	providerMetricsRegistered = true
}
