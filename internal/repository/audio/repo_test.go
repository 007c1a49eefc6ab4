package audio

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/kailas-cloud/ragchat/internal/domain"
)

func newRepo(t *testing.T) *Repo {
	t.Helper()
	r, err := New(filepath.Join(t.TempDir(), "static", "audio"))
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	return r
}

func write(t *testing.T, r *Repo, name, body string) {
	t.Helper()
	w, err := r.Create(name)
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	if _, err := io.WriteString(w, body); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestCreateOpen(t *testing.T) {
	r := newRepo(t)
	write(t, r, "a.mp3", "ID3")

	a, err := r.Open("a.mp3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Close()
	body, _ := io.ReadAll(a)
	if string(body) != "ID3" || a.Size != 3 {
		t.Errorf("unexpected artifact %q size=%d", body, a.Size)
	}
}

func TestCreate_RefusesOverwrite(t *testing.T) {
	r := newRepo(t)
	write(t, r, "a.mp3", "x")
	if _, err := r.Create("a.mp3"); err == nil {
		t.Fatal("expected error for existing file")
	}
}

func TestOpen_Missing(t *testing.T) {
	r := newRepo(t)
	if _, err := r.Open("nope.mp3"); !errors.Is(err, domain.ErrAudioNotFound) {
		t.Fatalf("expected ErrAudioNotFound, got %v", err)
	}
}

func TestOpen_RejectsTraversal(t *testing.T) {
	r := newRepo(t)
	for _, name := range []string{"../secret.mp3", "sub/a.mp3", "a.txt", "", ".mp3", `..\a.mp3`} {
		if _, err := r.Open(name); !errors.Is(err, domain.ErrInvalidFilename) {
			t.Errorf("Open(%q): expected ErrInvalidFilename, got %v", name, err)
		}
	}
}

func TestPurge(t *testing.T) {
	r := newRepo(t)
	write(t, r, "a.mp3", "1")
	write(t, r, "b.mp3", "2")
	keep := filepath.Join(r.Dir(), "notes.txt")
	if err := os.WriteFile(keep, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	n, err := r.Purge()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 removed, got %d", n)
	}
	if _, err := os.Stat(keep); err != nil {
		t.Errorf("non-audio file must survive: %v", err)
	}
	if n, _ := r.Purge(); n != 0 {
		t.Errorf("expected empty directory, removed %d", n)
	}
}

func TestRemove_MissingIsFine(t *testing.T) {
	if err := newRepo(t).Remove("gone.mp3"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
