// Package search answers "the n chunks most similar to this text" queries.
package search

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/ragchat/internal/domain/retrieval"
)

// Service embeds query text and runs KNN over the chunk index.
type Service struct {
	repo  Repository
	embed Embedder
}

// New creates a search service.
func New(repo Repository, embed Embedder) *Service {
	return &Service{repo: repo, embed: embed}
}

// Query returns up to n passages ordered by increasing cosine distance.
func (s *Service) Query(ctx context.Context, text string, n int) ([]retrieval.Passage, error) {
	if n <= 0 {
		return nil, nil
	}

	emb, err := s.embed.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	passages, err := s.repo.SearchKNN(ctx, emb.Embedding, n)
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}
	return passages, nil
}
