package openai

import (
	"context"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// SpeechConfig configures SpeechEngine.
type SpeechConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Voice   string
	Speed   float64
}

// SpeechEngine synthesizes mp3 audio through /audio/speech.
type SpeechEngine struct {
	client *openai.Client
	model  openai.SpeechModel
	voice  openai.SpeechVoice
	speed  float64
}

// NewSpeechEngine creates the TTS client.
func NewSpeechEngine(cfg *SpeechConfig) *SpeechEngine {
	return &SpeechEngine{
		client: newClient(cfg.APIKey, cfg.BaseURL),
		model:  openai.SpeechModel(cfg.Model),
		voice:  openai.SpeechVoice(cfg.Voice),
		speed:  cfg.Speed,
	}
}

// Synthesize returns the mp3 stream for text. The caller closes it.
func (s *SpeechEngine) Synthesize(ctx context.Context, text string) (io.ReadCloser, error) {
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          s.model,
		Input:          text,
		Voice:          s.voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
		Speed:          s.speed,
	})
	if err != nil {
		return nil, providerError(err)
	}
	return resp, nil
}
