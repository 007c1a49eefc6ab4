// Package generation answers a query with the chosen LLM provider.
package generation

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragchat/internal/domain"
	"github.com/kailas-cloud/ragchat/internal/domain/conversation"
	"github.com/kailas-cloud/ragchat/internal/domain/model"
	"github.com/kailas-cloud/ragchat/internal/domain/prompt"
	"github.com/kailas-cloud/ragchat/internal/logger"
)

// Answer is the generated text and its audio file ("" when there is none).
type Answer struct {
	Text      string
	AudioFile string
	Degraded  bool // Text is a provider failure message
}

// Service dispatches to backends by model choice.
type Service struct {
	backends map[model.Choice]Backend
	speech   Synthesizer // nil disables audio
	logger   *zap.Logger
}

// New creates a generation service.
func New(backends map[model.Choice]Backend, speech Synthesizer, l *zap.Logger) *Service {
	return &Service{backends: backends, speech: speech, logger: l}
}

// Generate never fails: a provider error becomes "Error: <Provider> API failed - <detail>"
// with no audio. history ends with the user turn for query.
func (s *Service) Generate(
	ctx context.Context, choice model.Choice, docs, query string, history []conversation.Turn,
) Answer {
	log := logger.FromContextOr(ctx, s.logger).With(zap.String("model", choice.String()))

	backend, ok := s.backends[choice]
	if !ok {
		pe := &domain.ProviderError{Provider: choice.Provider(), Detail: "backend not configured"}
		log.Error("No backend for model", zap.Error(pe))
		return degraded(pe)
	}

	start := time.Now()
	text, err := backend.Complete(ctx, prompt.Request{Context: docs, Query: query, History: history})
	if err != nil {
		var pe *domain.ProviderError
		if !errors.As(err, &pe) {
			pe = &domain.ProviderError{Provider: choice.Provider(), Detail: err.Error()}
		}
		log.Error(choice.Provider()+" API error", zap.Error(err))
		return degraded(pe)
	}
	log.Info(choice.Provider()+" response generated", zap.Duration("duration", time.Since(start)))

	ans := Answer{Text: text}
	if s.speech != nil {
		ans.AudioFile = s.speech.Synthesize(ctx, text)
	}
	return ans
}

func degraded(pe *domain.ProviderError) Answer {
	return Answer{Text: "Error: " + pe.Error(), Degraded: true}
}
