// Package openai adapts the OpenAI-compatible API (go-openai) to ragchat: embeddings,
// chat completions and text-to-speech.
package openai

import (
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/ragchat/internal/domain"
)

const providerName = "OpenAI"

func newClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// providerError turns a go-openai failure into a *domain.ProviderError with a readable detail.
func providerError(err error) *domain.ProviderError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &domain.ProviderError{Provider: providerName, Status: apiErr.HTTPStatusCode, Detail: apiErr.Message}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = fmt.Sprintf("status %d: %s", reqErr.HTTPStatusCode, string(reqErr.Body))
		}
		return &domain.ProviderError{Provider: providerName, Status: reqErr.HTTPStatusCode, Detail: detail}
	}

	return &domain.ProviderError{Provider: providerName, Detail: err.Error()}
}

// extractDetail reads {"detail": "..."} bodies some compatible gateways return.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		return parsed.Detail
	}
	return ""
}
