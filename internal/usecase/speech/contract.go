package speech

import (
	"context"
	"io"

	"github.com/kailas-cloud/ragchat/internal/repository/audio"
)

// Engine turns text into an mp3 stream.
type Engine interface {
	Synthesize(ctx context.Context, text string) (io.ReadCloser, error)
}

// Store keeps audio artifacts by file name.
type Store interface {
	Create(name string) (io.WriteCloser, error)
	Remove(name string) error
	Purge() (int, error)
	Open(name string) (*audio.Artifact, error)
}
