package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Chat pipeline metrics.
var (
	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of LLM completion requests",
		},
		[]string{"provider", "model", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "LLM completion latency in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"provider", "model"},
	)

	SpeechRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "speech_requests_total",
			Help:      "Speech synthesis attempts by outcome",
		},
		[]string{"status"}, // success | error | skipped
	)

	AudioPurgedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_purged_files_total",
			Help:      "Audio artifacts removed by purges",
		},
	)

	RetrievalCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_cache_total",
			Help:      "Context cache hits and misses",
		},
		[]string{"result"},
	)

	RetrievalOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_outcomes_total",
			Help:      "Context retrieval outcomes",
		},
		[]string{"outcome"}, // context | no_documents | no_relevant | error | empty_query
	)
)

var chatOnce sync.Once

// RegisterChatMetrics registers chat pipeline collectors. Safe to call more than once.
func RegisterChatMetrics() {
	chatOnce.Do(func() {
		prometheus.MustRegister(
			LLMRequestsTotal,
			LLMRequestDuration,
			SpeechRequestsTotal,
			AudioPurgedTotal,
			RetrievalCacheTotal,
			RetrievalOutcomesTotal,
		)
	})
}
