// Package ingest turns a directory of documents into embedded chunks in the vector store.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/ragchat/internal/domain"
	domchunk "github.com/kailas-cloud/ragchat/internal/domain/chunk"
	"github.com/kailas-cloud/ragchat/internal/metrics"
)

// DefaultPattern matches PDFs at the top of the source directory.
const DefaultPattern = "*.pdf"

// Config controls a run.
type Config struct {
	SourceDir string
	Pattern   string // doublestar syntax, relative to SourceDir
	ChunkSize int    // words per chunk
	Workers   int    // documents processed concurrently
}

// Report summarizes a run.
type Report struct {
	Processed int
	Skipped   int // no extractable text
	Failed    int
	Chunks    int
	Duration  time.Duration
}

// Service ingests documents. Per-document failures never abort a run.
type Service struct {
	store    Store
	extract  Extractor
	embedder domain.Embedder
	cfg      Config
	logger   *zap.Logger

	onWatching func() // test hook, called once the watcher is armed
}

// New creates an ingest service.
func New(store Store, extract Extractor, embedder domain.Embedder, cfg Config, l *zap.Logger) *Service {
	if cfg.Pattern == "" {
		cfg.Pattern = DefaultPattern
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = domchunk.DefaultSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Service{store: store, extract: extract, embedder: embedder, cfg: cfg, logger: l}
}

type counters struct {
	processed, skipped, failed, chunks atomic.Int64
}

// Run ingests every matching document in SourceDir. The error is reserved for
// problems that stop the whole run: listing, index creation, cancellation.
func (s *Service) Run(ctx context.Context) (Report, error) {
	start := time.Now()

	files, err := s.list()
	if err != nil {
		return Report{}, err
	}
	if len(files) == 0 {
		s.logger.Warn("No source files found", zap.String("dir", s.cfg.SourceDir), zap.String("pattern", s.cfg.Pattern))
		return Report{Duration: time.Since(start)}, nil
	}

	if err := s.store.EnsureIndex(ctx); err != nil {
		return Report{}, fmt.Errorf("ensure index: %w", err)
	}

	s.logger.Info("Ingestion started", zap.Int("files", len(files)), zap.Int("workers", s.cfg.Workers))

	var c counters
	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)
	for _, rel := range files {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			s.ingestOne(ctx, rel, &c)
			return nil
		})
	}
	_ = g.Wait()

	rep := Report{
		Processed: int(c.processed.Load()),
		Skipped:   int(c.skipped.Load()),
		Failed:    int(c.failed.Load()),
		Chunks:    int(c.chunks.Load()),
		Duration:  time.Since(start),
	}
	if err := ctx.Err(); err != nil {
		return rep, fmt.Errorf("ingestion interrupted: %w", err)
	}
	return rep, nil
}

// IngestFile processes one document given relative to SourceDir and returns its chunk count.
func (s *Service) IngestFile(ctx context.Context, rel string) (int, error) {
	text, err := s.extract.Text(filepath.Join(s.cfg.SourceDir, filepath.FromSlash(rel)))
	if err != nil {
		return 0, err //nolint:wrapcheck // extractor errors carry the file name
	}

	parts := domchunk.Split(text, s.cfg.ChunkSize)
	if len(parts) == 0 {
		return 0, fmt.Errorf("%s: %w", rel, domain.ErrNoText)
	}

	emb, err := domain.EmbedAll(ctx, s.embedder, parts)
	if err != nil {
		return 0, fmt.Errorf("embed %s: %w", rel, err)
	}
	if len(emb.Embeddings) != len(parts) {
		return 0, fmt.Errorf("embed %s: %w: got %d vectors for %d chunks",
			rel, domain.ErrEmbeddingProviderError, len(emb.Embeddings), len(parts))
	}

	chunks := make([]domchunk.Chunk, 0, len(parts))
	for i, part := range parts {
		c, err := domchunk.New(uuid.New().String(), rel, i, part)
		if err != nil {
			return 0, fmt.Errorf("build chunk %d of %s: %w", i, rel, err)
		}
		chunks = append(chunks, c.WithVector(emb.Embeddings[i]))
	}

	if err := s.store.UpsertBatch(ctx, chunks); err != nil {
		return 0, fmt.Errorf("upsert %s: %w", rel, err)
	}
	return len(chunks), nil
}

// Reset removes every stored chunk and the index.
func (s *Service) Reset(ctx context.Context) (int, error) {
	n, err := s.store.Reset(ctx)
	if err != nil {
		return n, fmt.Errorf("reset store: %w", err)
	}
	s.logger.Info("Vector store reset", zap.Int("chunks_removed", n))
	return n, nil
}

func (s *Service) ingestOne(ctx context.Context, rel string, c *counters) {
	log := s.logger.With(zap.String("file", rel))
	start := time.Now()

	n, err := s.IngestFile(ctx, rel)
	switch {
	case errors.Is(err, domain.ErrNoText):
		log.Warn("No text extracted, skipping")
		c.skipped.Add(1)
		metrics.IngestDocumentsTotal.WithLabelValues("skipped").Inc()
	case err != nil:
		log.Error("Failed to ingest document", zap.Error(err))
		c.failed.Add(1)
		metrics.IngestDocumentsTotal.WithLabelValues("failed").Inc()
	default:
		log.Info("Added chunks", zap.Int("chunks", n), zap.Duration("duration", time.Since(start)))
		c.processed.Add(1)
		c.chunks.Add(int64(n))
		metrics.IngestDocumentsTotal.WithLabelValues("processed").Inc()
		metrics.IngestChunksTotal.Add(float64(n))
	}
}

// list returns the matching, supported files as slash-separated paths relative to SourceDir.
func (s *Service) list() ([]string, error) {
	if st, err := os.Stat(s.cfg.SourceDir); err != nil {
		return nil, fmt.Errorf("source dir: %w", err)
	} else if !st.IsDir() {
		return nil, fmt.Errorf("source dir %s is not a directory", s.cfg.SourceDir)
	}

	matches, err := doublestar.Glob(os.DirFS(s.cfg.SourceDir), s.cfg.Pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.cfg.SourceDir, err)
	}
	files := matches[:0]
	for _, m := range matches {
		if s.extract.Supports(m) {
			files = append(files, m)
		}
	}
	return files, nil
}

func (s *Service) matches(rel string) bool {
	ok, err := doublestar.Match(s.cfg.Pattern, rel)
	return err == nil && ok && s.extract.Supports(rel)
}
