// Package chunk defines the unit of retrievable text and the word-window splitter that produces it.
package chunk

import (
	"errors"
	"strings"
)

// DefaultSize is the window width in words when the caller passes size <= 0.
const DefaultSize = 500

var (
	// ErrEmptyID is returned when a chunk has no identifier.
	ErrEmptyID = errors.New("chunk id is required")
	// ErrEmptyText is returned for a chunk without content.
	ErrEmptyText = errors.New("chunk text is required")
	// ErrNegativeIndex is returned for a chunk index below zero.
	ErrNegativeIndex = errors.New("chunk index must be >= 0")
)

// Chunk is one window of a source document. Immutable.
type Chunk struct {
	id       string
	filename string
	index    int
	text     string
	vector   []float32
}

// New validates and creates a chunk without a vector.
func New(id, filename string, index int, text string) (Chunk, error) {
	if id == "" {
		return Chunk{}, ErrEmptyID
	}
	if strings.TrimSpace(text) == "" {
		return Chunk{}, ErrEmptyText
	}
	if index < 0 {
		return Chunk{}, ErrNegativeIndex
	}
	return Chunk{id: id, filename: filename, index: index, text: text}, nil
}

// Reconstruct hydrates a chunk read back from the store (no validation).
func Reconstruct(id, filename string, index int, text string, vector []float32) Chunk {
	return Chunk{id: id, filename: filename, index: index, text: text, vector: vector}
}

// WithVector returns a copy carrying the given embedding.
func (c Chunk) WithVector(v []float32) Chunk {
	c.vector = v
	return c
}

// ID returns the chunk identifier.
func (c Chunk) ID() string { return c.id }

// Filename returns the source document name.
func (c Chunk) Filename() string { return c.filename }

// Index returns the 0-based position within the source document.
func (c Chunk) Index() int { return c.index }

// Text returns the chunk content.
func (c Chunk) Text() string { return c.text }

// Vector returns the embedding, nil until ingestion sets it.
func (c Chunk) Vector() []float32 { return c.vector }

// Split cuts text into consecutive non-overlapping windows of size words.
// Words are whitespace-delimited and rejoined with single spaces, so
// joining all windows with " " reproduces strings.Fields(text).
func Split(text string, size int) []string {
	if size <= 0 {
		size = DefaultSize
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	out := make([]string, 0, (len(words)+size-1)/size)
	for start := 0; start < len(words); start += size {
		end := min(start+size, len(words))
		out = append(out, strings.Join(words[start:end], " "))
	}
	return out
}
