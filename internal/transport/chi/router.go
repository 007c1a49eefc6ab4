package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragchat/internal/metrics"
)

// NewRouter mounts the API routes behind recovery, request id, access log, auth and metrics middleware.
func NewRouter(s *Server, apiKeys []string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chimw.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeMethodNotAllow, "method not allowed")
	})

	r.Post("/chat", s.Chat)
	r.Post("/audio/cleanup", s.CleanupAudio)
	r.Get("/audio/{filename}", s.GetAudio)
	r.Get("/cleanup_audio", s.CleanupAudio) // legacy
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	return r
}
