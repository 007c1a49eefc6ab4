package chi

import (
	"context"

	"github.com/kailas-cloud/ragchat/internal/repository/audio"
	chatuc "github.com/kailas-cloud/ragchat/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/ragchat/internal/usecase/health"
)

// ChatService runs one chat turn.
type ChatService interface {
	Chat(ctx context.Context, req chatuc.Request) (chatuc.Reply, error)
}

// AudioService serves and purges synthesized answers.
type AudioService interface {
	Open(name string) (*audio.Artifact, error)
	Purge(ctx context.Context) (int, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
