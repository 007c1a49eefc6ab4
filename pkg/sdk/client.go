package ragchat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragchat/internal/db"
	dbRedis "github.com/kailas-cloud/ragchat/internal/db/redis"
	"github.com/kailas-cloud/ragchat/internal/domain"
	domret "github.com/kailas-cloud/ragchat/internal/domain/retrieval"
	"github.com/kailas-cloud/ragchat/internal/extract"
	chunkrepo "github.com/kailas-cloud/ragchat/internal/repository/chunk"
	openaiTransport "github.com/kailas-cloud/ragchat/internal/transport/openai"
	healthuc "github.com/kailas-cloud/ragchat/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/ragchat/internal/usecase/ingest"
	retrievaluc "github.com/kailas-cloud/ragchat/internal/usecase/retrieval"
	searchuc "github.com/kailas-cloud/ragchat/internal/usecase/search"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultVectorDim        = 1536
)

// Внутренние интерфейсы для подмены в тестах.
type ingestUseCase interface {
	Run(ctx context.Context) (ingestuc.Report, error)
}

type searchUseCase interface {
	Query(ctx context.Context, text string, n int) ([]domret.Passage, error)
}

type retrievalUseCase interface {
	Context(ctx context.Context, query string) string
}

type resetter interface {
	Reset(ctx context.Context) (int, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the ragchat SDK entry point. It is safe for concurrent use.
type Client struct {
	store     db.Store
	newIngest func(dir, pattern string) ingestUseCase
	searchSvc searchUseCase
	retrSvc   retrievalUseCase
	chunks    resetter
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client and connects to the database.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{vectorDim: defaultVectorDim}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("ragchat: database address required (use WithRedis)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.addrs, Password: cfg.password})
	if err != nil {
		return nil, fmt.Errorf("ragchat: create redis store: %w", err)
	}
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("ragchat: database not ready: %w", err)
	}

	c, err := wireClient(store, cfg, obs)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	log := zap.NewNop()
	emb := buildEmbedder(cfg, log)

	chunks := chunkrepo.New(store, cfg.vectorDim, chunkrepo.HNSWConfig{
		M:           cfg.hnswM,
		EFConstruct: cfg.hnswEFBuild,
	})
	search := searchuc.New(chunks, emb)

	cache, err := retrievaluc.NewLRU(cfg.contextCache)
	if err != nil {
		return nil, fmt.Errorf("ragchat: context cache: %w", err)
	}
	retr := retrievaluc.New(search, cache, retrievaluc.Config{
		TopK:        cfg.topK,
		MaxDistance: cfg.maxDistance,
	}, log)

	registry := extract.NewRegistry()
	newIngest := func(dir, pattern string) ingestUseCase {
		return ingestuc.New(chunks, registry, emb, ingestuc.Config{
			SourceDir: dir,
			Pattern:   pattern,
			ChunkSize: cfg.chunkSize,
			Workers:   cfg.workers,
		}, log)
	}

	return &Client{
		store:     store,
		newIngest: newIngest,
		searchSvc: search,
		retrSvc:   retr,
		chunks:    chunks,
		healthSvc: healthuc.New(store, chunks, nil),
		obs:       obs,
	}, nil
}

func buildEmbedder(cfg *clientConfig, log *zap.Logger) domain.Embedder {
	switch {
	case cfg.embedder != nil:
		if be, ok := cfg.embedder.(BatchEmbedder); ok {
			return &batchEmbedderAdapter{embedderAdapter: embedderAdapter{inner: cfg.embedder}, batch: be}
		}
		return &embedderAdapter{inner: cfg.embedder}
	case cfg.openAIKey != "":
		model := cfg.openAIModel
		if model == "" {
			model = "text-embedding-3-small"
		}
		return openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
			APIKey:     cfg.openAIKey,
			BaseURL:    cfg.openAIURL,
			Model:      model,
			Dimensions: cfg.vectorDim,
			Logger:     log,
		})
	default:
		return noopEmbedder{}
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Ingest chunks, embeds and stores every file under dir matching pattern (doublestar syntax).
// Per-document failures are counted in the report, not returned.
func (c *Client) Ingest(ctx context.Context, dir, pattern string) (rep IngestReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ingest", start, err, "chunks", rep.Chunks) }()

	r, err := c.newIngest(dir, pattern).Run(ctx)
	rep = IngestReport{
		Processed: r.Processed,
		Skipped:   r.Skipped,
		Failed:    r.Failed,
		Chunks:    r.Chunks,
		Duration:  r.Duration,
	}
	if err != nil {
		return rep, fmt.Errorf("ingest %s: %w", dir, err)
	}
	return rep, nil
}

// Reset drops the index and every stored chunk.
func (c *Client) Reset(ctx context.Context) (n int, err error) {
	start := time.Now()
	defer func() { c.obs.observe("reset", start, err, "removed", n) }()

	n, err = c.chunks.Reset(ctx)
	if err != nil {
		return n, fmt.Errorf("reset: %w", err)
	}
	return n, nil
}

// Search returns up to n passages closest to query, nearest first.
func (c *Client) Search(ctx context.Context, query string, n int) (out []Passage, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err, "results", len(out)) }()

	passages, err := c.searchSvc.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	out = make([]Passage, len(passages))
	for i, p := range passages {
		out[i] = Passage{
			ID:         p.ID(),
			Filename:   p.Filename(),
			ChunkIndex: p.ChunkIndex(),
			Content:    p.Text(),
			Distance:   p.Distance(),
		}
	}
	return out, nil
}

// Context returns the numbered context block for query, exactly as the chat service builds it.
// Failures come back as fixed sentinel strings rather than errors.
func (c *Client) Context(ctx context.Context, query string) string {
	start := time.Now()
	block := c.retrSvc.Context(ctx, query)
	c.obs.observe("context", start, nil)
	return block
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// batchEmbedderAdapter also exposes BatchEmbed so ingestion sends one request per document.
type batchEmbedderAdapter struct {
	embedderAdapter
	batch BatchEmbedder
}

func (a *batchEmbedderAdapter) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	r, err := a.batch.BatchEmbed(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
	}
	return domain.BatchEmbeddingResult{
		Embeddings:   r.Embeddings,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// noopEmbedder fails every call; used when no embedder is configured.
type noopEmbedder struct{}

func (noopEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, errors.New(
		"ragchat: embedder not configured (use WithOpenAI or WithEmbedder)",
	)
}
