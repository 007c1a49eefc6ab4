package retrieval

import (
	"context"

	domret "github.com/kailas-cloud/ragchat/internal/domain/retrieval"
)

// Searcher returns the n passages nearest to text.
type Searcher interface {
	Query(ctx context.Context, text string, n int) ([]domret.Passage, error)
}

// Cache memoizes formatted context by exact query string.
// *lru.Cache[string, string] from hashicorp/golang-lru/v2 satisfies it.
type Cache interface {
	Get(key string) (string, bool)
	Add(key, value string) bool
}
