// Package model enumerates the LLM providers a chat request can pick.
package model

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/ragchat/internal/domain"
)

// Choice selects the LLM provider for one request.
type Choice string

const (
	OpenAI Choice = "openai"
	Gemini Choice = "gemini"
)

// Default is used when a request does not name a provider.
const Default = OpenAI

// Parse maps a request token to a Choice. Empty means Default.
func Parse(token string) (Choice, error) {
	switch Choice(strings.ToLower(strings.TrimSpace(token))) {
	case "":
		return Default, nil
	case OpenAI:
		return OpenAI, nil
	case Gemini:
		return Gemini, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownModel, token)
	}
}

// String returns the request token.
func (c Choice) String() string { return string(c) }

// Provider returns the display name used in degraded answers.
func (c Choice) Provider() string {
	switch c {
	case Gemini:
		return "Gemini"
	default:
		return "OpenAI"
	}
}
