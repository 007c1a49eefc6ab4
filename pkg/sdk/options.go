package ragchat

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	password string

	embedder     Embedder
	openAIKey    string
	openAIURL    string
	openAIModel  string
	vectorDim    int
	hnswM        int
	hnswEFBuild  int
	topK         int
	maxDistance  float64
	contextCache int
	chunkSize    int
	workers      int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis connects to a Redis 8 (or Valkey with the search module) instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithEmbedder sets a custom embedding provider. It takes precedence over WithOpenAI.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithOpenAI embeds through an OpenAI-compatible API. Empty model means text-embedding-3-small.
func WithOpenAI(apiKey, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAIKey = apiKey
		c.openAIModel = model
	})
}

// WithOpenAIBaseURL points WithOpenAI at a compatible server.
func WithOpenAIBaseURL(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAIURL = url
	})
}

// WithVectorDimensions sets the embedding size. Defaults to 1536.
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorDim = dim
	})
}

// WithHNSW configures HNSW index parameters (M and EF construction).
// Zero values leave the server defaults.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFBuild = efConstruct
	})
}

// WithRetrieval tunes Context: passages per query, the distance cutoff and the LRU size.
// Zero values keep the defaults (5, 0.8, 100).
func WithRetrieval(topK int, maxDistance float64, cacheSize int) Option {
	return optionFunc(func(c *clientConfig) {
		c.topK = topK
		c.maxDistance = maxDistance
		c.contextCache = cacheSize
	})
}

// WithIngest sets the chunk size in words and the number of documents processed concurrently.
func WithIngest(chunkSize, workers int) Option {
	return optionFunc(func(c *clientConfig) {
		c.chunkSize = chunkSize
		c.workers = workers
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
