// Package chat runs one conversational turn: retrieve, generate, remember.
package chat

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragchat/internal/domain/conversation"
	"github.com/kailas-cloud/ragchat/internal/domain/model"
	"github.com/kailas-cloud/ragchat/internal/logger"
)

// InvalidQuery is the answer to a blank query.
const InvalidQuery = "Please provide a valid query."

// Request is one user submission.
type Request struct {
	SessionID string
	Query     string
	Model     model.Choice
}

// Reply is the outcome of a turn. Elapsed is generation time in seconds, two decimals.
type Reply struct {
	Query     string
	Model     model.Choice
	Answer    string
	AudioFile string
	Elapsed   float64
}

// Service is the request pipeline.
type Service struct {
	retriever Retriever
	generator Generator
	sessions  Sessions
	audio     AudioPurger
	logger    *zap.Logger
}

// New creates the chat pipeline.
func New(r Retriever, g Generator, s Sessions, a AudioPurger, l *zap.Logger) *Service {
	return &Service{retriever: r, generator: g, sessions: s, audio: a, logger: l}
}

// Chat processes one query. Only session store failures are returned as errors;
// retrieval, generation and speech problems degrade into the reply.
func (s *Service) Chat(ctx context.Context, req Request) (Reply, error) {
	log := logger.FromContextOr(ctx, s.logger)

	// best effort, failures are logged by the purger
	_, _ = s.audio.Purge(ctx)

	query := strings.TrimSpace(req.Query)
	reply := Reply{Query: query, Model: req.Model}
	if query == "" {
		log.Warn("Empty query submitted")
		reply.Answer = InvalidQuery
		return reply, nil
	}
	log.Info("Received query", zap.String("query", query), zap.String("model", req.Model.String()))

	docs := s.retriever.Context(ctx, query)
	start := time.Now()

	history, err := s.sessions.Load(ctx, req.SessionID)
	if err != nil {
		return Reply{}, fmt.Errorf("load history: %w", err)
	}
	history.Append(conversation.UserTurn(query))

	// window already holds the current query as its last turn
	ans := s.generator.Generate(ctx, req.Model, docs, query, history.Turns())

	history.Append(conversation.AssistantTurn(ans.Text))
	if err := s.sessions.Save(ctx, req.SessionID, history); err != nil {
		return Reply{}, fmt.Errorf("save history: %w", err)
	}

	reply.Answer = ans.Text
	reply.AudioFile = ans.AudioFile
	reply.Elapsed = round2(time.Since(start).Seconds())
	log.Info("Response generated", zap.Float64("response_time", reply.Elapsed), zap.Bool("degraded", ans.Degraded))
	return reply, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
