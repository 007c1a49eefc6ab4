// Package audio stores synthesized speech files in a flat directory.
package audio

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kailas-cloud/ragchat/internal/domain"
)

// Ext is the extension of every artifact.
const Ext = ".mp3"

// Repo owns the audio directory.
type Repo struct {
	dir string
}

// New creates the directory if needed.
func New(dir string) (*Repo, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir %s: %w", dir, err)
	}
	return &Repo{dir: dir}, nil
}

// Dir returns the managed directory.
func (r *Repo) Dir() string { return r.dir }

// Create opens a new artifact for writing. The name must not exist yet.
func (r *Repo) Create(name string) (io.WriteCloser, error) {
	path, err := r.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}
	return f, nil
}

// Remove deletes one artifact; a missing file is not an error.
func (r *Repo) Remove(name string) error {
	path, err := r.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

// Purge deletes every artifact. It keeps going after a failed removal and returns
// the number removed together with the first error.
func (r *Repo) Purge() (int, error) {
	names, err := doublestar.Glob(os.DirFS(r.dir), "*"+Ext)
	if err != nil {
		return 0, fmt.Errorf("list audio: %w", err)
	}

	var removed int
	var firstErr error
	for _, name := range names {
		if err := os.Remove(filepath.Join(r.dir, name)); err != nil {
			if !errors.Is(err, fs.ErrNotExist) && firstErr == nil {
				firstErr = fmt.Errorf("remove %s: %w", name, err)
			}
			continue
		}
		removed++
	}
	return removed, firstErr
}

// Artifact is an open audio file ready to be served.
type Artifact struct {
	io.ReadSeekCloser
	Name    string
	ModTime time.Time
	Size    int64
}

// Open returns the named artifact, domain.ErrAudioNotFound when it is absent.
func (r *Repo) Open(name string) (*Artifact, error) {
	path, err := r.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrAudioNotFound
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}
	return &Artifact{ReadSeekCloser: f, Name: name, ModTime: st.ModTime(), Size: st.Size()}, nil
}

// path rejects anything but a bare "<name>.mp3" inside the directory.
func (r *Repo) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") ||
		strings.ContainsAny(name, `/\`) || filepath.Ext(name) != Ext {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidFilename, name)
	}
	return filepath.Join(r.dir, name), nil
}
