package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval pipeline Prometheus metrics.
var (
	IndexBuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docqa",
			Name:      "index_builds_total",
			Help:      "Total number of vector index builds",
		},
		[]string{"kind"}, // "flat" / "ivf"
	)

	IndexBuildDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docqa",
			Name:      "index_build_duration_seconds",
			Help:      "Vector index build duration in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"kind"},
	)

	IndexedChunks = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "docqa",
			Name:      "indexed_chunks",
			Help:      "Number of chunks per ingested document",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	SearchOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docqa",
			Name:      "search_outcomes_total",
			Help:      "Retrieval outcomes by status",
		},
		[]string{"status"}, // "found" / "empty" / "failed"
	)

	QueryIntentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docqa",
			Name:      "query_intents_total",
			Help:      "Classified query intents",
		},
		[]string{"intent"},
	)

	GeneratorRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docqa",
			Name:      "generator_requests_total",
			Help:      "Answer generator requests by mode and status",
		},
		[]string{"mode", "status"},
	)

	GeneratorRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docqa",
			Name:      "generator_request_duration_seconds",
			Help:      "Answer generator request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"mode"},
	)
)

var retrievalMetricsRegistered bool

// RegisterRetrievalMetrics registers index, search and generator metrics. Must be called once from main.
func RegisterRetrievalMetrics() {
	if retrievalMetricsRegistered {
		return
	}
	prometheus.MustRegister(IndexBuildsTotal)
	prometheus.MustRegister(IndexBuildDuration)
	prometheus.MustRegister(IndexedChunks)
	prometheus.MustRegister(SearchOutcomesTotal)
	prometheus.MustRegister(QueryIntentsTotal)
	prometheus.MustRegister(GeneratorRequestsTotal)
	prometheus.MustRegister(GeneratorRequestDuration)
	retrievalMetricsRegistered = true
}
