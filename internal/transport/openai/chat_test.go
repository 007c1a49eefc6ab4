package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragchat/internal/domain"
	"github.com/kailas-cloud/ragchat/internal/domain/conversation"
	"github.com/kailas-cloud/ragchat/internal/domain/prompt"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

func chatServer(t *testing.T, reply string, got *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4-turbo",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": reply},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 50, "completion_tokens": 10, "total_tokens": 60},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestChat(baseURL string, repair bool) *ChatBackend {
	return NewChatBackend(&ChatConfig{
		APIKey:        "test-key",
		BaseURL:       baseURL,
		Model:         "gpt-4-turbo",
		Temperature:   0.7,
		MaxTokens:     200,
		RepairContext: repair,
		Logger:        zap.NewNop(),
	})
}

func TestChatBackend_Complete(t *testing.T) {
	var got chatRequest
	srv := chatServer(t, "  Refunds take 30 days.\n", &got)

	req := prompt.Request{
		Context: "Document 1 (Relevance: 0.90):\nrefunds within 30 days",
		Query:   "What is the refund policy?",
		History: []conversation.Turn{
			conversation.UserTurn("hi"),
			conversation.AssistantTurn("hello"),
		},
	}
	answer, err := newTestChat(srv.URL, false).Complete(context.Background(), req)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if answer != "Refunds take 30 days." {
		t.Errorf("answer = %q, expected trimmed reply", answer)
	}

	if got.Model != "gpt-4-turbo" || got.MaxTokens != 200 {
		t.Errorf("model/max_tokens = %s/%d", got.Model, got.MaxTokens)
	}
	if got.Temperature != 0.7 {
		t.Errorf("temperature = %v, expected 0.7", got.Temperature)
	}
	if len(got.Messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(got.Messages))
	}
	if got.Messages[0].Role != "system" || got.Messages[0].Content != SystemPrompt {
		t.Errorf("first message = %+v", got.Messages[0])
	}
	if got.Messages[1].Role != "user" || got.Messages[1].Content != "hi" {
		t.Errorf("history[0] = %+v", got.Messages[1])
	}
	if got.Messages[2].Role != "assistant" || got.Messages[2].Content != "hello" {
		t.Errorf("history[1] = %+v", got.Messages[2])
	}
	want := "### Context:\n" + req.Context + "\n\n### Query:\n" + req.Query
	if got.Messages[3].Role != "user" || got.Messages[3].Content != want {
		t.Errorf("last message = %q, expected %q", got.Messages[3].Content, want)
	}
}

func TestChatBackend_RepairContext(t *testing.T) {
	var got chatRequest
	srv := chatServer(t, "ok", &got)

	_, err := newTestChat(srv.URL, true).Complete(context.Background(), prompt.Request{
		Context: "re fund policy",
		Query:   "q",
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	want := "### Context:\nrefund policy\n\n### Query:\nq"
	if got.Messages[len(got.Messages)-1].Content != want {
		t.Errorf("last message = %q, expected %q", got.Messages[len(got.Messages)-1].Content, want)
	}
}

func TestChatBackend_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "invalid api key", "type": "invalid_request_error"},
		})
	}))
	defer srv.Close()

	_, err := newTestChat(srv.URL, false).Complete(context.Background(), prompt.Request{Query: "q"})
	if !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("expected ErrProviderFailure, got %v", err)
	}
	if err.Error() != "OpenAI API failed - invalid api key" {
		t.Errorf("error text = %q", err.Error())
	}
}

func TestRepairWords(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"single", "single"},
		{"two words", "twowords"},
		{"one two three", "onetwo three"},
		{"a b c d", "ab cd"},
	}
	for _, tt := range tests {
		if got := RepairWords(tt.in); got != tt.want {
			t.Errorf("RepairWords(%q) = %q, expected %q", tt.in, got, tt.want)
		}
	}
}
