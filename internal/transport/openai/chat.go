package openai

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragchat/internal/domain/prompt"
	"github.com/kailas-cloud/ragchat/internal/metrics"
)

// SystemPrompt is the assistant persona sent as the first chat message.
const SystemPrompt = "You are Effy Assistant, a helpful and concise AI for sales queries. " +
	"Provide accurate, conversational responses in 3–4 sentences. " +
	"Use the provided context and conversation history to maintain coherence."

// ChatConfig configures ChatBackend.
type ChatConfig struct {
	APIKey        string
	BaseURL       string
	Model         string
	Temperature   float32
	MaxTokens     int
	RepairContext bool
	Logger        *zap.Logger
}

// ChatBackend answers prompts through /chat/completions.
type ChatBackend struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	repair      bool
	logger      *zap.Logger
}

// NewChatBackend creates the OpenAI completion backend.
func NewChatBackend(cfg *ChatConfig) *ChatBackend {
	return &ChatBackend{
		client:      newClient(cfg.APIKey, cfg.BaseURL),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		repair:      cfg.RepairContext,
		logger:      cfg.Logger,
	}
}

// Complete returns the trimmed assistant reply. Failures are *domain.ProviderError.
func (b *ChatBackend) Complete(ctx context.Context, req prompt.Request) (string, error) {
	start := time.Now()
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       b.model,
		Messages:    b.messages(req),
		Temperature: b.temperature,
		MaxTokens:   b.maxTokens,
	})
	metrics.LLMRequestDuration.WithLabelValues(providerName, b.model).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(providerName, b.model, "error").Inc()
		return "", providerError(err)
	}
	if len(resp.Choices) == 0 {
		metrics.LLMRequestsTotal.WithLabelValues(providerName, b.model, "error").Inc()
		return "", providerError(errors.New("empty choices in response"))
	}
	metrics.LLMRequestsTotal.WithLabelValues(providerName, b.model, "success").Inc()

	b.logger.Debug("Chat completion",
		zap.String("model", resp.Model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (b *ChatBackend) messages(req prompt.Request) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt})
	for _, t := range req.History {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: string(t.Role), Content: t.Content})
	}

	docs := req.Context
	if b.repair {
		docs = RepairWords(docs)
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: "### Context:\n" + docs + "\n\n### Query:\n" + req.Query,
	})
	return msgs
}

var wordPair = regexp.MustCompile(`(\b\w+)\s+(\w+\b)`)

// RepairWords glues every adjacent pair of words, undoing PDF extraction that split words
// apart. It is lossy: legitimate word boundaries inside each pair disappear as well.
func RepairWords(text string) string {
	return wordPair.ReplaceAllString(text, "${1}${2}")
}

// HealthCheck calls the free ListModels endpoint.
func (b *ChatBackend) HealthCheck(ctx context.Context) error {
	if _, err := b.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", providerError(err))
	}
	return nil
}
