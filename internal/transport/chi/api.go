package chi

// ErrorCode is the machine-readable error kind in ErrorResponse.
type ErrorCode string

const (
	ErrorCodeBadRequest      ErrorCode = "bad_request"
	ErrorCodeUnauthorized    ErrorCode = "unauthorized"
	ErrorCodeNotFound        ErrorCode = "not_found"
	ErrorCodeMethodNotAllow  ErrorCode = "method_not_allowed"
	ErrorCodeUnknownModel    ErrorCode = "unknown_model"
	ErrorCodeInvalidFilename ErrorCode = "invalid_filename"
	ErrorCodeAudioNotFound   ErrorCode = "audio_not_found"
	ErrorCodeSessionStore    ErrorCode = "session_store_error"
	ErrorCodeCleanupFailed   ErrorCode = "cleanup_failed"
	ErrorCodeInternal        ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// ChatRequest is the body of POST /chat. Form posts use the same field names.
type ChatRequest struct {
	Query string `json:"query"`
	Model string `json:"model"`
}

// ChatResponse is returned by POST /chat.
type ChatResponse struct {
	Answer       string  `json:"answer"`
	Query        string  `json:"query"`
	Model        string  `json:"model"`
	ResponseTime float64 `json:"response_time"`
	AudioFile    string  `json:"audio_file"`
	AudioURL     string  `json:"audio_url"`
}

// CleanupResponse is returned by the audio cleanup routes.
type CleanupResponse struct {
	Removed int    `json:"removed"`
	Message string `json:"message"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Chunks *int              `json:"chunks,omitempty"`
}
