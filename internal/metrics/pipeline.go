package metrics

import "github.com/prometheus/client_golang/prometheus"

// Chat pipeline Prometheus metrics.
var (
	ChatTurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "outing",
			Name:      "chat_turns_total",
			Help:      "Chat turns by classified intent and outcome",
		},
		[]string{"intent", "outcome"}, // outcome: "ok" / "apology"
	)

	ChatTurnDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "outing",
			Name:      "chat_turn_duration_seconds",
			Help:      "End-to-end chat turn duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"intent"},
	)

	SearchStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "outing",
			Name:      "search_stage_duration_seconds",
			Help:      "Search engine stage duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"stage"}, // expand / retrieve / rerank / diversify
	)

	SearchDegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "outing",
			Name:      "search_degraded_total",
			Help:      "Search stages that fell back instead of failing",
		},
		[]string{"stage", "reason"},
	)

	SearchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "outing",
			Name:      "search_results",
			Help:      "Number of documents returned per search",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20},
		},
	)

	WeatherLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "outing",
			Name:      "weather_lookups_total",
			Help:      "Weather lookups by source",
		},
		[]string{"source"}, // "live" / "fallback"
	)

	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "outing",
			Name:      "generation_requests_total",
			Help:      "Chat completion requests",
		},
		[]string{"purpose", "model", "status"}, // purpose: "answer" / "expand"
	)

	GenerationTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "outing",
			Name:      "generation_tokens_total",
			Help:      "Chat completion tokens consumed",
		},
		[]string{"purpose", "model"},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers chat pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(
		ChatTurnsTotal,
		ChatTurnDuration,
		SearchStageDuration,
		SearchDegradedTotal,
		SearchResults,
		WeatherLookupsTotal,
		GenerationRequestsTotal,
		GenerationTokensTotal,
	)
	pipelineMetricsRegistered = true
}
