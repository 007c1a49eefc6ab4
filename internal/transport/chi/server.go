package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragchat/internal/domain"
	"github.com/kailas-cloud/ragchat/internal/domain/model"
	"github.com/kailas-cloud/ragchat/internal/logger"
	chatuc "github.com/kailas-cloud/ragchat/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/ragchat/internal/usecase/health"
)

const (
	maxBodyBytes   = 64 << 10
	audioRoute     = "/audio/"
	audioMediaType = "audio/mpeg"
	cleanupMessage = "Audio files cleaned up."
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// Server serves the chat API.
type Server struct {
	chat          ChatService
	audio         AudioService
	health        HealthChecker
	cookie        CookieConfig
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	chat ChatService,
	audio AudioService,
	health HealthChecker,
	cookie CookieConfig,
	logger *zap.Logger,
) *Server {
	if cookie.Name == "" {
		cookie.Name = "ragchat_session"
	}
	s := &Server{
		chat:   chat,
		audio:  audio,
		health: health,
		cookie: cookie,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrUnknownModel, http.StatusBadRequest, ErrorCodeUnknownModel),
		sentinelHandler(domain.ErrInvalidFilename, http.StatusBadRequest, ErrorCodeInvalidFilename),
		sentinelHandler(domain.ErrAudioNotFound, http.StatusNotFound, ErrorCodeAudioNotFound),
		sentinelHandler(domain.ErrSessionStore, http.StatusInternalServerError, ErrorCodeSessionStore),
	}
	return s
}

// Chat handles POST /chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	in, err := decodeChatRequest(w, r)
	if err != nil {
		logger.FromContextOr(r.Context(), s.logger).Debug("bad chat request", zap.Error(err))
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid request body")
		return
	}

	choice, err := model.Parse(in.Model)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	reply, err := s.chat.Chat(r.Context(), chatuc.Request{
		SessionID: s.sessionID(w, r),
		Query:     in.Query,
		Model:     choice,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse(reply))
}

// GetAudio handles GET /audio/{filename}.
func (s *Server) GetAudio(w http.ResponseWriter, r *http.Request) {
	a, err := s.audio.Open(chi.URLParam(r, "filename"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	defer a.Close()

	w.Header().Set("Content-Type", audioMediaType)
	http.ServeContent(w, r, a.Name, a.ModTime, a)
}

// CleanupAudio handles POST /audio/cleanup and GET /cleanup_audio.
func (s *Server) CleanupAudio(w http.ResponseWriter, r *http.Request) {
	n, err := s.audio.Purge(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrorCodeCleanupFailed,
			fmt.Sprintf("Error cleaning up audio: %d files removed before failure", n))
		return
	}
	writeJSON(w, http.StatusOK, CleanupResponse{Removed: n, Message: cleanupMessage})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	resp := HealthResponse{Status: string(report.Status), Checks: checks}
	if report.Chunks >= 0 {
		n := report.Chunks
		resp.Chunks = &n
	}

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// sessionID returns the caller's session id, issuing a fresh cookie when it is missing or malformed.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(s.cookie.Name); err == nil {
		if id, perr := uuid.Parse(c.Value); perr == nil {
			return id.String()
		}
	}

	id := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie.Name,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.cookie.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// decodeChatRequest accepts JSON and the HTML form encodings.
func decodeChatRequest(w http.ResponseWriter, r *http.Request) (ChatRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return ChatRequest{}, fmt.Errorf("parse form: %w", err)
		}
		return ChatRequest{Query: r.PostFormValue("query"), Model: r.PostFormValue("model")}, nil
	default:
		var in ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			return ChatRequest{}, fmt.Errorf("decode json: %w", err)
		}
		return in, nil
	}
}

func chatResponse(reply chatuc.Reply) ChatResponse {
	resp := ChatResponse{
		Answer:       reply.Answer,
		Query:        reply.Query,
		Model:        reply.Model.String(),
		ResponseTime: reply.Elapsed,
		AudioFile:    reply.AudioFile,
	}
	if reply.AudioFile != "" {
		resp.AudioURL = audioRoute + reply.AudioFile
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrUnknownModel,
		domain.ErrInvalidFilename,
		domain.ErrAudioNotFound,
		domain.ErrSessionStore,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContextOr(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternal, "internal error")
}
