package ingest

import (
	"context"

	domchunk "github.com/kailas-cloud/ragchat/internal/domain/chunk"
)

// Store persists chunks in the vector index.
type Store interface {
	EnsureIndex(ctx context.Context) error
	UpsertBatch(ctx context.Context, chunks []domchunk.Chunk) error
	Reset(ctx context.Context) (int, error)
}

// Extractor reads the text of a document.
type Extractor interface {
	Supports(path string) bool
	Text(path string) (string, error)
}
