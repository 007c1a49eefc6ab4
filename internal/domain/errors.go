package domain

import "errors"

var (
	// ErrEmptyQuery signals a blank chat query.
	ErrEmptyQuery = errors.New("empty query")
	// ErrUnknownModel signals an unsupported model choice token.
	ErrUnknownModel = errors.New("unknown model")
	// ErrProviderFailure signals an LLM or speech provider failure.
	ErrProviderFailure = errors.New("provider failure")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrNoText signals a document that yielded no extractable text.
	ErrNoText = errors.New("no extractable text")
	// ErrUnsupportedFormat signals a document without a registered extractor.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrAudioNotFound signals a missing audio artifact.
	ErrAudioNotFound = errors.New("audio not found")
	// ErrInvalidFilename signals an artifact name that escapes the audio directory.
	ErrInvalidFilename = errors.New("invalid filename")
	// ErrSessionStore signals a conversation history load/save failure.
	ErrSessionStore = errors.New("session store error")
)

// ProviderError describes a failed call to an external AI provider.
// errors.Is(err, ErrProviderFailure) holds for every ProviderError.
type ProviderError struct {
	Provider string // OpenAI, Gemini
	Status   int    // HTTP status, 0 when the request never got a response
	Detail   string
}

func (e *ProviderError) Error() string {
	return e.Provider + " API failed - " + e.Detail
}

// Is makes ProviderError match ErrProviderFailure.
func (e *ProviderError) Is(target error) bool {
	return target == ErrProviderFailure
}
