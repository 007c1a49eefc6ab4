package search

import (
	"context"

	"github.com/kailas-cloud/ragchat/internal/domain"
	"github.com/kailas-cloud/ragchat/internal/domain/retrieval"
)

// Repository runs vector similarity queries over stored chunks.
type Repository interface {
	SearchKNN(ctx context.Context, vector []float32, k int) ([]retrieval.Passage, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
