package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragchat/internal/config"
	dbRedis "github.com/kailas-cloud/ragchat/internal/db/redis"
	"github.com/kailas-cloud/ragchat/internal/domain"
	"github.com/kailas-cloud/ragchat/internal/extract"
	logpkg "github.com/kailas-cloud/ragchat/internal/logger"
	"github.com/kailas-cloud/ragchat/internal/metrics"
	chunkrepo "github.com/kailas-cloud/ragchat/internal/repository/chunk"
	"github.com/kailas-cloud/ragchat/internal/repository/embcache"
	openaiTransport "github.com/kailas-cloud/ragchat/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/ragchat/internal/usecase/embedding"
	ingestuc "github.com/kailas-cloud/ragchat/internal/usecase/ingest"
	"github.com/kailas-cloud/ragchat/internal/version"
)

func main() {
	var (
		dir         = flag.String("dir", "", "source directory (overrides ingest.source_dir)")
		pattern     = flag.String("pattern", "", "doublestar include pattern (overrides ingest.pattern)")
		reset       = flag.Bool("reset", false, "drop the index and every chunk before ingesting")
		watch       = flag.Bool("watch", false, "keep running and ingest files as they appear")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if err := run(*dir, *pattern, *reset, *watch); err != nil {
		fmt.Fprintln(os.Stderr, "ingest:", err)
		os.Exit(1)
	}
}

func run(dir, pattern string, reset, watch bool) error {
	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if dir != "" {
		cfg.Ingest.SourceDir = dir
	}
	if pattern != "" {
		cfg.Ingest.Pattern = pattern
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting ingestion",
		append(version.Fields(),
			zap.String("env", env),
			zap.String("source_dir", cfg.Ingest.SourceDir),
			zap.String("pattern", cfg.Ingest.Pattern),
			zap.Int("workers", cfg.Ingest.Workers),
		)...,
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		return fmt.Errorf("create database store: %w", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterIngestMetrics()

	var embedder domain.Embedder = openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})
	if *cfg.Embedding.Cache {
		embedder = embcache.New(embedder, store, metrics.EmbeddingCacheTotal, logger)
	}
	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, "openai", cfg.Embedding.Model, 0, logger)

	chunks := chunkrepo.New(store, cfg.Embedding.Dimensions, chunkrepo.HNSWConfig{
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})
	svc := ingestuc.New(chunks, extract.NewRegistry(), embedder, ingestuc.Config{
		SourceDir: cfg.Ingest.SourceDir,
		Pattern:   cfg.Ingest.Pattern,
		ChunkSize: cfg.Ingest.ChunkSize,
		Workers:   cfg.Ingest.Workers,
	}, logger)

	if reset {
		if _, err := svc.Reset(ctx); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}

	report, err := svc.Run(ctx)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	logger.Info("Ingestion finished",
		zap.Int("processed", report.Processed),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Int("chunks", report.Chunks),
		zap.Duration("duration", report.Duration),
	)

	if !watch {
		return nil
	}
	if err := svc.Watch(ctx, ingestuc.DefaultSettle); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch: %w", err)
	}
	return nil
}
