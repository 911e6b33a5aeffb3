package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion and question answering Prometheus metrics.
var (
	IngestDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_documents_total",
			Help:      "Documents processed by final status",
		},
		[]string{"status"},
	)

	IngestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_duration_seconds",
			Help:      "Duration of a single document processing attempt",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	IngestChunksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_chunks_total",
			Help:      "Chunks written by the ingestion pipeline",
		},
	)

	IngestRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_retries_total",
			Help:      "Ingestion attempts retried after a failure",
		},
	)

	IngestQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ingest_queue_depth",
			Help:      "Jobs waiting in the ingestion queue",
		},
	)

	AskOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ask_outcomes_total",
			Help:      "Ask requests by outcome",
		},
		[]string{"outcome"},
	)

	AskRankedChunks = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ask_ranked_chunks",
			Help:      "Chunks surviving the relevance threshold per ask request",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 12, 20},
		},
	)
)

var ragMetricsRegistered bool

// RegisterRAGMetrics registers ingestion and ask metrics. Must be called once from main.
func RegisterRAGMetrics() {
	if ragMetricsRegistered {
		return
	}
	prometheus.MustRegister(IngestDocumentsTotal)
	prometheus.MustRegister(IngestDuration)
	prometheus.MustRegister(IngestChunksTotal)
	prometheus.MustRegister(IngestRetriesTotal)
	prometheus.MustRegister(IngestQueueDepth)
	prometheus.MustRegister(AskOutcomesTotal)
	prometheus.MustRegister(AskRankedChunks)
	ragMetricsRegistered = true
}
