// Package retrieval turns a user query into the context block handed to the LLM.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	domret "github.com/kailas-cloud/ragchat/internal/domain/retrieval"
	"github.com/kailas-cloud/ragchat/internal/logger"
	"github.com/kailas-cloud/ragchat/internal/metrics"
)

// Sentinel context strings. They are shown to the LLM in place of documents.
const (
	NoQuery     = "No query provided."
	NoDocuments = "No relevant documents found."
	NoRelevant  = "No highly relevant documents found."
	FetchError  = "Error fetching context from database."
)

// Defaults.
const (
	DefaultTopK        = 5
	DefaultMaxDistance = 0.8
	DefaultCacheSize   = 100
)

// Config tunes retrieval. Zero values fall back to the defaults.
type Config struct {
	TopK        int
	MaxDistance float64
	CacheSize   int
}

// Service produces context strings. It never returns errors: failures become sentinels.
type Service struct {
	search      Searcher
	cache       Cache
	topK        int
	maxDistance float64
	logger      *zap.Logger
}

// NewLRU returns the default Cache implementation.
func NewLRU(size int) (Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return c, nil
}

// New creates a retrieval service. A nil cache disables caching.
func New(search Searcher, cache Cache, cfg Config, l *zap.Logger) *Service {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.MaxDistance <= 0 {
		cfg.MaxDistance = DefaultMaxDistance
	}
	return &Service{
		search:      search,
		cache:       cache,
		topK:        cfg.TopK,
		maxDistance: cfg.MaxDistance,
		logger:      l,
	}
}

// Context returns the formatted passages relevant to query, or one of the sentinel strings.
func (s *Service) Context(ctx context.Context, query string) string {
	log := logger.FromContextOr(ctx, s.logger)

	if strings.TrimSpace(query) == "" {
		log.Warn("Empty query received")
		metrics.RetrievalOutcomesTotal.WithLabelValues("empty_query").Inc()
		return NoQuery
	}

	if s.cache != nil {
		if cached, ok := s.cache.Get(query); ok {
			metrics.RetrievalCacheTotal.WithLabelValues("hit").Inc()
			return cached
		}
		metrics.RetrievalCacheTotal.WithLabelValues("miss").Inc()
	}

	passages, err := s.search.Query(ctx, query, s.topK)
	if err != nil {
		log.Error("Context query failed", zap.Error(err))
		metrics.RetrievalOutcomesTotal.WithLabelValues("error").Inc()
		return FetchError
	}

	result, outcome := s.format(passages)
	metrics.RetrievalOutcomesTotal.WithLabelValues(outcome).Inc()
	log.Debug("Context retrieved", zap.Int("passages", len(passages)), zap.String("outcome", outcome))

	if s.cache != nil {
		s.cache.Add(query, result)
	}
	return result
}

// format numbers passages 1-based in store order and keeps those closer than maxDistance.
func (s *Service) format(passages []domret.Passage) (string, string) {
	if len(passages) == 0 {
		return NoDocuments, "no_documents"
	}

	blocks := make([]string, 0, len(passages))
	for i, p := range passages {
		if p.Distance() >= s.maxDistance {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("Document %d (Relevance: %.2f):\n%s", i+1, p.Relevance(), p.Text()))
	}
	if len(blocks) == 0 {
		return NoRelevant, "no_relevant"
	}
	return strings.Join(blocks, "\n\n"), "context"
}
