package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Ingestion metrics.
var (
	IngestDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_documents_total",
			Help:      "Documents seen by the ingestor by result",
		},
		[]string{"result"}, // processed | skipped | failed
	)

	IngestChunksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_chunks_total",
			Help:      "Chunks written to the vector store",
		},
	)
)

var ingestOnce sync.Once

// RegisterIngestMetrics registers ingestion collectors. Safe to call more than once.
func RegisterIngestMetrics() {
	ingestOnce.Do(func() {
		prometheus.MustRegister(IngestDocumentsTotal, IngestChunksTotal)
	})
}
