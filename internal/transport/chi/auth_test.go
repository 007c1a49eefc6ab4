package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, method, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, http.NoBody)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestAuthMiddleware_EmptyKeys_PassThrough(t *testing.T) {
	handler := BearerAuthMiddleware(nil)(okHandler())

	if rr := serve(handler, http.MethodPost, "/chat", ""); rr.Code != http.StatusOK {
		t.Errorf("empty keys: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestAuthMiddleware_EmptyStringKeys_PassThrough(t *testing.T) {
	handler := BearerAuthMiddleware([]string{"", ""})(okHandler())

	if rr := serve(handler, http.MethodPost, "/chat", ""); rr.Code != http.StatusOK {
		t.Errorf("empty string keys: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestAuthMiddleware_MissingHeader_401(t *testing.T) {
	handler := BearerAuthMiddleware([]string{"secret"})(okHandler())

	rr := serve(handler, http.MethodPost, "/chat", "")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("missing header: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != ErrorCodeUnauthorized {
		t.Errorf("error code: got %s, want %s", errResp.Code, ErrorCodeUnauthorized)
	}
}

func TestAuthMiddleware_BasicScheme_401(t *testing.T) {
	handler := BearerAuthMiddleware([]string{"secret"})(okHandler())

	if rr := serve(handler, http.MethodPost, "/chat", "Basic dXNlcjpwYXNz"); rr.Code != http.StatusUnauthorized {
		t.Errorf("basic scheme: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_InvalidToken_401(t *testing.T) {
	handler := BearerAuthMiddleware([]string{"secret"})(okHandler())

	if rr := serve(handler, http.MethodPost, "/chat", "Bearer wrong-key"); rr.Code != http.StatusUnauthorized {
		t.Errorf("invalid token: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_ValidToken_200(t *testing.T) {
	handler := BearerAuthMiddleware([]string{"secret"})(okHandler())

	if rr := serve(handler, http.MethodPost, "/chat", "Bearer secret"); rr.Code != http.StatusOK {
		t.Errorf("valid token: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestAuthMiddleware_MultipleKeys(t *testing.T) {
	handler := BearerAuthMiddleware([]string{"key1", "key2"})(okHandler())

	for _, key := range []string{"key1", "key2"} {
		if rr := serve(handler, http.MethodPost, "/chat", "Bearer "+key); rr.Code != http.StatusOK {
			t.Errorf("key %s: got %d, want %d", key, rr.Code, http.StatusOK)
		}
	}
}

func TestAuthMiddleware_ExemptPaths(t *testing.T) {
	handler := BearerAuthMiddleware([]string{"secret"})(okHandler())

	for _, path := range []string{"/health", "/metrics", "/audio/abc.mp3"} {
		if rr := serve(handler, http.MethodGet, path, ""); rr.Code != http.StatusOK {
			t.Errorf("exempt path %s: got %d, want %d", path, rr.Code, http.StatusOK)
		}
	}
}

func TestAuthMiddleware_AudioCleanupNotExempt(t *testing.T) {
	handler := BearerAuthMiddleware([]string{"secret"})(okHandler())

	if rr := serve(handler, http.MethodPost, "/audio/cleanup", ""); rr.Code != http.StatusUnauthorized {
		t.Errorf("cleanup without token: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
	if rr := serve(handler, http.MethodGet, "/cleanup_audio", ""); rr.Code != http.StatusUnauthorized {
		t.Errorf("legacy cleanup without token: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}
