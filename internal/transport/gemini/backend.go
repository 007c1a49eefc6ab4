// Package gemini answers prompts with Google Gemini through google.golang.org/genai.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/ragchat/internal/domain"
	"github.com/kailas-cloud/ragchat/internal/domain/prompt"
	"github.com/kailas-cloud/ragchat/internal/metrics"
)

const providerName = "Gemini"

const instruction = "You are Effy Assistant, a helpful and concise AI for sales queries.\n" +
	"Respond in 3–4 well-structured, conversational sentences.\n" +
	"Use the following context and conversation history to maintain coherence:"

// Config configures Backend.
type Config struct {
	APIKey      string
	BaseURL     string // empty: Google default endpoint
	Model       string
	Temperature float32
	MaxTokens   int
	Logger      *zap.Logger
}

// Backend implements the completion backend over generateContent.
type Backend struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
	logger      *zap.Logger
}

// New creates the Gemini client. It performs no network calls.
func New(ctx context.Context, cfg *Config) (*Backend, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Backend{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   int32(cfg.MaxTokens), //nolint:gosec // config-bounded
		logger:      cfg.Logger,
	}, nil
}

// Complete returns the trimmed model answer. Failures are *domain.ProviderError.
func (b *Backend) Complete(ctx context.Context, req prompt.Request) (string, error) {
	start := time.Now()
	resp, err := b.client.Models.GenerateContent(ctx, b.model, genai.Text(BuildPrompt(req)), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(b.temperature),
		MaxOutputTokens: b.maxTokens,
	})
	metrics.LLMRequestDuration.WithLabelValues(providerName, b.model).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(providerName, b.model, "error").Inc()
		return "", providerError(err)
	}

	answer := strings.TrimSpace(resp.Text())
	if answer == "" {
		metrics.LLMRequestsTotal.WithLabelValues(providerName, b.model, "error").Inc()
		return "", &domain.ProviderError{Provider: providerName, Detail: "empty response"}
	}
	metrics.LLMRequestsTotal.WithLabelValues(providerName, b.model, "success").Inc()

	if resp.UsageMetadata != nil {
		b.logger.Debug("Gemini completion",
			zap.Int32("prompt_tokens", resp.UsageMetadata.PromptTokenCount),
			zap.Int32("candidates_tokens", resp.UsageMetadata.CandidatesTokenCount),
		)
	}
	return answer, nil
}

// HealthCheck fetches the configured model's metadata.
func (b *Backend) HealthCheck(ctx context.Context) error {
	if _, err := b.client.Models.Get(ctx, b.model, nil); err != nil {
		return providerError(err)
	}
	return nil
}

// BuildPrompt renders the single-text prompt: instruction, context, history lines and question.
func BuildPrompt(req prompt.Request) string {
	var sb strings.Builder
	sb.WriteString(instruction)
	sb.WriteString("\n\nContext:\n")
	sb.WriteString(req.Context)
	sb.WriteString("\n\nConversation History:\n")
	for i, t := range req.History {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(string(t.Role))
		sb.WriteString(": ")
		sb.WriteString(t.Content)
	}
	sb.WriteString("\n\nQuestion:\n")
	sb.WriteString(req.Query)
	return sb.String()
}

func providerError(err error) *domain.ProviderError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		detail := apiErr.Message
		if detail == "" {
			detail = apiErr.Status
		}
		return &domain.ProviderError{Provider: providerName, Status: apiErr.Code, Detail: detail}
	}
	return &domain.ProviderError{Provider: providerName, Detail: err.Error()}
}
