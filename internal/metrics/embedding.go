package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for embedding calls.
const (
	OutcomeOK          = "ok"
	OutcomeError       = "error"
	OutcomeTimeout     = "timeout"
	OutcomeDimMismatch = "dim_mismatch"
)

var (
	EmbeddingCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "outing",
			Subsystem: "embedding",
			Name:      "calls_total",
			Help:      "Query embedding calls by provider, model and outcome.",
		},
		[]string{"provider", "model", "outcome"},
	)

	EmbeddingLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "outing",
			Subsystem: "embedding",
			Name:      "latency_seconds",
			Help:      "Query embedding latency, successful calls only.",
			// Synthetic vectors land in the first bucket; 3584-dim remote calls sit around 100-400ms.
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"provider"},
	)

	EmbeddingTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "outing",
			Subsystem: "embedding",
			Name:      "tokens_total",
			Help:      "Tokens billed by the embedding provider.",
		},
		[]string{"provider", "model"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "outing",
			Subsystem: "embedding",
			Name:      "cache_total",
			Help:      "Query vector cache lookups.",
		},
		[]string{"result"}, // hit, miss
	)
)

var embeddingOnce sync.Once

// RegisterEmbeddingMetrics registers the embedding collectors on the default registry.
func RegisterEmbeddingMetrics() {
	embeddingOnce.Do(func() {
		prometheus.MustRegister(EmbeddingCalls, EmbeddingLatency, EmbeddingTokens, EmbeddingCacheTotal)
	})
}

// ObserveEmbedding records one embedder call. Latency and tokens are only
// counted for OutcomeOK.
func ObserveEmbedding(provider, model, outcome string, took time.Duration, tokens int) {
	EmbeddingCalls.WithLabelValues(provider, model, outcome).Inc()
	if outcome != OutcomeOK {
		return
	}
	EmbeddingLatency.WithLabelValues(provider).Observe(took.Seconds())
	if tokens > 0 {
		EmbeddingTokens.WithLabelValues(provider, model).Add(float64(tokens))
	}
}
