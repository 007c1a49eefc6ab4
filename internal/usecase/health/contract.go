package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks an external provider (embeddings, LLM).
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}

// ChunkCounter reports how many chunks the vector index holds.
type ChunkCounter interface {
	Count(ctx context.Context) (int, error)
}
