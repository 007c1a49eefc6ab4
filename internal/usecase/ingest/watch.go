package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultSettle is how long a new file must stay unchanged before it is ingested.
const DefaultSettle = time.Second

// Watch ingests documents created under SourceDir until ctx is done. A file is picked up
// once no write has touched it for settle. Files that already existed are ignored;
// call Run first to process them.
func (s *Service) Watch(ctx context.Context, settle time.Duration) error {
	if settle <= 0 {
		settle = DefaultSettle
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := s.addDirs(w); err != nil {
		return err
	}
	if err := s.store.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("ensure index: %w", err)
	}
	s.logger.Info("Watching for new documents", zap.String("dir", s.cfg.SourceDir), zap.String("pattern", s.cfg.Pattern))
	if s.onWatching != nil {
		s.onWatching()
	}

	pending := make(map[string]time.Time) // rel path -> last event
	tick := time.NewTicker(settle / 4)
	defer tick.Stop()

	var c counters
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			s.handleEvent(w, ev, pending)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("Watcher error", zap.Error(err))

		case now := <-tick.C:
			for rel, last := range pending {
				if now.Sub(last) < settle {
					continue
				}
				delete(pending, rel)
				s.ingestOne(ctx, rel, &c)
			}
		}
	}
}

func (s *Service) handleEvent(w *fsnotify.Watcher, ev fsnotify.Event, pending map[string]time.Time) {
	rel, err := filepath.Rel(s.cfg.SourceDir, ev.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	switch {
	case ev.Has(fsnotify.Create):
		if s.recursive() && isDir(ev.Name) {
			if err := w.Add(ev.Name); err != nil {
				s.logger.Warn("Watch subdirectory failed", zap.String("dir", ev.Name), zap.Error(err))
			}
			return
		}
		if s.matches(rel) {
			pending[rel] = time.Now()
		}
	case ev.Has(fsnotify.Write):
		// writes only extend the settle window of files created while watching
		if _, ok := pending[rel]; ok {
			pending[rel] = time.Now()
		}
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		delete(pending, rel)
	}
}

// addDirs watches SourceDir, plus every subdirectory when the pattern recurses.
func (s *Service) addDirs(w *fsnotify.Watcher) error {
	if !s.recursive() {
		if err := w.Add(s.cfg.SourceDir); err != nil {
			return fmt.Errorf("watch %s: %w", s.cfg.SourceDir, err)
		}
		return nil
	}
	err := filepath.WalkDir(s.cfg.SourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", s.cfg.SourceDir, err)
	}
	return nil
}

func (s *Service) recursive() bool {
	return strings.Contains(s.cfg.Pattern, "**") || strings.Contains(s.cfg.Pattern, "/")
}

func isDir(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}
