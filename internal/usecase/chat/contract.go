package chat

import (
	"context"

	"github.com/kailas-cloud/ragchat/internal/domain/conversation"
	"github.com/kailas-cloud/ragchat/internal/domain/model"
	"github.com/kailas-cloud/ragchat/internal/usecase/generation"
)

// Retriever builds the context block for a query.
type Retriever interface {
	Context(ctx context.Context, query string) string
}

// Generator answers with the chosen model.
type Generator interface {
	Generate(ctx context.Context, choice model.Choice, docs, query string, history []conversation.Turn) generation.Answer
}

// Sessions loads and saves conversation history by session id.
type Sessions interface {
	Load(ctx context.Context, id string) (*conversation.History, error)
	Save(ctx context.Context, id string, h *conversation.History) error
}

// AudioPurger removes stale audio artifacts.
type AudioPurger interface {
	Purge(ctx context.Context) (int, error)
}
