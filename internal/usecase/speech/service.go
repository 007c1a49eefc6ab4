// Package speech renders answers to audio files and manages their lifetime.
package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragchat/internal/logger"
	"github.com/kailas-cloud/ragchat/internal/metrics"
	"github.com/kailas-cloud/ragchat/internal/repository/audio"
)

var errEmptyAudio = errors.New("engine returned no audio")

// Service synthesizes speech into the audio store.
type Service struct {
	engine Engine // nil disables synthesis
	store  Store
	logger *zap.Logger
}

// New creates a speech service. A nil engine makes Synthesize a no-op.
func New(engine Engine, store Store, l *zap.Logger) *Service {
	return &Service{engine: engine, store: store, logger: l}
}

// Synthesize writes text as "<uuid>.mp3" and returns the file name.
// It returns "" for blank text, when synthesis is disabled, or on any failure.
func (s *Service) Synthesize(ctx context.Context, text string) string {
	log := logger.FromContextOr(ctx, s.logger)

	if strings.TrimSpace(text) == "" {
		log.Warn("Empty text for TTS")
		metrics.SpeechRequestsTotal.WithLabelValues("skipped").Inc()
		return ""
	}
	if s.engine == nil {
		metrics.SpeechRequestsTotal.WithLabelValues("skipped").Inc()
		return ""
	}

	name := uuid.New().String() + audio.Ext
	if err := s.write(ctx, name, text); err != nil {
		log.Error("TTS failed", zap.String("file", name), zap.Error(err))
		metrics.SpeechRequestsTotal.WithLabelValues("error").Inc()
		return ""
	}

	metrics.SpeechRequestsTotal.WithLabelValues("success").Inc()
	log.Info("TTS audio generated", zap.String("file", name))
	return name
}

func (s *Service) write(ctx context.Context, name, text string) (err error) {
	stream, err := s.engine.Synthesize(ctx, text)
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}
	defer stream.Close()

	w, err := s.store.Create(name)
	if err != nil {
		return fmt.Errorf("create artifact: %w", err)
	}
	defer func() {
		if err != nil {
			if rmErr := s.store.Remove(name); rmErr != nil {
				s.logger.Warn("Remove partial audio failed", zap.String("file", name), zap.Error(rmErr))
			}
		}
	}()

	n, err := io.Copy(w, stream)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	if n == 0 {
		return errEmptyAudio
	}
	return nil
}

// Purge removes every audio artifact. Best effort: the count is valid even with an error.
// Files being written by concurrent requests may be removed as well.
func (s *Service) Purge(ctx context.Context) (int, error) {
	n, err := s.store.Purge()
	metrics.AudioPurgedTotal.Add(float64(n))

	log := logger.FromContextOr(ctx, s.logger)
	if err != nil {
		log.Error("Audio cleanup error", zap.Int("removed", n), zap.Error(err))
		return n, fmt.Errorf("purge audio: %w", err)
	}
	log.Debug("Old audio files cleaned up", zap.Int("removed", n))
	return n, nil
}

// Open returns the artifact for serving. Errors are domain.ErrAudioNotFound or
// domain.ErrInvalidFilename for client mistakes.
func (s *Service) Open(name string) (*audio.Artifact, error) {
	a, err := s.store.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	return a, nil
}
