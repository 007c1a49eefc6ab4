package generation

import (
	"context"

	"github.com/kailas-cloud/ragchat/internal/domain/prompt"
)

// Backend is one LLM provider.
type Backend interface {
	Complete(ctx context.Context, req prompt.Request) (string, error)
}

// Synthesizer renders an answer to an audio file and returns its name ("" for none).
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) string
}
