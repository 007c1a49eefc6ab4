package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragchat/internal/config"
	dbRedis "github.com/kailas-cloud/ragchat/internal/db/redis"
	"github.com/kailas-cloud/ragchat/internal/domain"
	"github.com/kailas-cloud/ragchat/internal/domain/model"
	logpkg "github.com/kailas-cloud/ragchat/internal/logger"
	"github.com/kailas-cloud/ragchat/internal/metrics"
	"github.com/kailas-cloud/ragchat/internal/repository/audio"
	chunkrepo "github.com/kailas-cloud/ragchat/internal/repository/chunk"
	"github.com/kailas-cloud/ragchat/internal/repository/embcache"
	sessionrepo "github.com/kailas-cloud/ragchat/internal/repository/session"
	chiTransport "github.com/kailas-cloud/ragchat/internal/transport/chi"
	"github.com/kailas-cloud/ragchat/internal/transport/gemini"
	openaiTransport "github.com/kailas-cloud/ragchat/internal/transport/openai"
	chatuc "github.com/kailas-cloud/ragchat/internal/usecase/chat"
	embeddinguc "github.com/kailas-cloud/ragchat/internal/usecase/embedding"
	generationuc "github.com/kailas-cloud/ragchat/internal/usecase/generation"
	healthuc "github.com/kailas-cloud/ragchat/internal/usecase/health"
	retrievaluc "github.com/kailas-cloud/ragchat/internal/usecase/retrieval"
	searchuc "github.com/kailas-cloud/ragchat/internal/usecase/search"
	speechuc "github.com/kailas-cloud/ragchat/internal/usecase/speech"
	"github.com/kailas-cloud/ragchat/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting ragchat server",
		append(version.Fields(),
			zap.String("env", env),
			zap.Int("http_port", cfg.HTTP.Port),
			zap.Strings("db_addrs", cfg.Database.Addrs),
		)...,
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterChatMetrics()

	// Retrieval: embedder chain -> KNN over chunks -> LRU of formatted context
	baseEmbedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})
	embedder := buildEmbedder(baseEmbedder, cfg, store, logger)

	chunks := chunkrepo.New(store, cfg.Embedding.Dimensions, chunkrepo.HNSWConfig{
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})
	if err := chunks.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure chunk index", zap.Error(err))
	}
	cache, err := retrievaluc.NewLRU(cfg.Retrieval.CacheSize)
	if err != nil {
		logger.Fatal("Failed to create context cache", zap.Error(err))
	}
	retriever := retrievaluc.New(searchuc.New(chunks, embedder), cache, retrievaluc.Config{
		TopK:        cfg.Retrieval.TopK,
		MaxDistance: cfg.Retrieval.MaxDistance,
	}, logger)

	// Speech
	audioRepo, err := audio.New(cfg.Speech.AudioDir)
	if err != nil {
		logger.Fatal("Failed to prepare audio directory", zap.Error(err))
	}
	var engine speechuc.Engine
	if *cfg.Speech.Enabled {
		engine = openaiTransport.NewSpeechEngine(&openaiTransport.SpeechConfig{
			APIKey:  cfg.LLM.OpenAI.APIKey,
			BaseURL: cfg.LLM.OpenAI.BaseURL,
			Model:   cfg.Speech.Model,
			Voice:   cfg.Speech.Voice,
			Speed:   cfg.Speech.Speed,
		})
	}
	speechSvc := speechuc.New(engine, audioRepo, logger)

	// Generation backends
	openaiBackend := openaiTransport.NewChatBackend(&openaiTransport.ChatConfig{
		APIKey:        cfg.LLM.OpenAI.APIKey,
		BaseURL:       cfg.LLM.OpenAI.BaseURL,
		Model:         cfg.LLM.OpenAI.Model,
		Temperature:   cfg.LLM.OpenAI.Temperature,
		MaxTokens:     cfg.LLM.OpenAI.MaxTokens,
		RepairContext: *cfg.LLM.OpenAI.RepairContext,
		Logger:        logger,
	})
	geminiBackend, err := gemini.New(ctx, &gemini.Config{
		APIKey:      cfg.LLM.Gemini.APIKey,
		BaseURL:     cfg.LLM.Gemini.BaseURL,
		Model:       cfg.LLM.Gemini.Model,
		Temperature: cfg.LLM.Gemini.Temperature,
		MaxTokens:   cfg.LLM.Gemini.MaxTokens,
		Logger:      logger,
	})
	if err != nil {
		logger.Fatal("Failed to create Gemini client", zap.Error(err))
	}
	generator := generationuc.New(map[model.Choice]generationuc.Backend{
		model.OpenAI: openaiBackend,
		model.Gemini: geminiBackend,
	}, speechSvc, logger)

	sessions := sessionrepo.New(store, time.Duration(cfg.Session.TTLSec)*time.Second, cfg.Session.MaxTurns, logger)
	chatSvc := chatuc.New(retriever, generator, sessions, speechSvc, logger)

	healthSvc := healthuc.New(store, chunks, map[string]healthuc.ProviderChecker{
		"embedding": baseEmbedder,
		"openai":    openaiBackend,
		"gemini":    geminiBackend,
	})

	server := chiTransport.NewServer(chatSvc, speechSvc, healthSvc, chiTransport.CookieConfig{
		Name:   cfg.Session.CookieName,
		MaxAge: time.Duration(cfg.Session.TTLSec) * time.Second,
		Secure: env == "prod",
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger),
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented.
func buildEmbedder(
	base domain.Embedder, cfg config.Config, store *dbRedis.Store, logger *zap.Logger,
) domain.Embedder {
	embedder := base
	if *cfg.Embedding.Cache {
		embedder = embcache.New(base, store, metrics.EmbeddingCacheTotal, logger)
	}
	return embeddinguc.NewInstrumentedEmbedder(embedder, "openai", cfg.Embedding.Model, 0, logger)
}
