package ragchat

import "github.com/kailas-cloud/ragchat/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNoText                 = domain.ErrNoText
	ErrUnsupportedFormat      = domain.ErrUnsupportedFormat
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
)
