// Package config loads ragchat settings from config/<ENV>.yaml with ${VAR} expansion.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the settings of both binaries.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Speech    SpeechConfig    `yaml:"speech"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Session   SessionConfig   `yaml:"session"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis/Valkey connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // only "redis" is supported
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IndexConfig holds HNSW build parameters.
type IndexConfig struct {
	HNSWM           int `yaml:"hnsw_m"`
	HNSWEFConstruct int `yaml:"hnsw_ef_construction"`
}

// EmbeddingConfig holds the OpenAI-compatible embedding provider settings.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	Cache      *bool  `yaml:"cache"`
}

// LLMConfig groups both completion backends.
type LLMConfig struct {
	OpenAI OpenAIConfig `yaml:"openai"`
	Gemini GeminiConfig `yaml:"gemini"`
}

// OpenAIConfig configures the OpenAI chat backend.
type OpenAIConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	// RepairContext glues adjacent words of the context before prompting. Lossy.
	RepairContext *bool `yaml:"repair_context"`
}

// GeminiConfig configures the Gemini backend.
type GeminiConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// SpeechConfig configures text-to-speech.
type SpeechConfig struct {
	Enabled  *bool   `yaml:"enabled"`
	Model    string  `yaml:"model"`
	Voice    string  `yaml:"voice"`
	Speed    float64 `yaml:"speed"`
	AudioDir string  `yaml:"audio_dir"`
}

// RetrievalConfig configures context retrieval.
type RetrievalConfig struct {
	TopK        int     `yaml:"top_k"`
	MaxDistance float64 `yaml:"max_distance"`
	CacheSize   int     `yaml:"cache_size"`
}

// SessionConfig configures conversation sessions.
type SessionConfig struct {
	CookieName string `yaml:"cookie_name"`
	TTLSec     int    `yaml:"ttl_sec"`
	MaxTurns   int    `yaml:"max_turns"`
}

// IngestConfig configures the offline ingestor.
type IngestConfig struct {
	SourceDir string `yaml:"source_dir"`
	Pattern   string `yaml:"pattern"`
	ChunkSize int    `yaml:"chunk_size"`
	Workers   int    `yaml:"workers"`
}

// AuthConfig holds API authentication settings. Empty APIKeys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: by env)
}

// Load reads .env (if present), then config/<env>.yaml, expands ${VAR} references,
// applies defaults and validates.
func Load(env string) (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	return LoadFile(findConfigPath(env))
}

// LoadFile is Load for an explicit path, without .env handling.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(expandEnvVars(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// GetEnv returns the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
//
//nolint:gocyclo,cyclop // flat list of defaults
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 5000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60 // covers LLM + TTS latency
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "redis"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}

	if c.Embedding.APIKey == "" {
		c.Embedding.APIKey = c.LLM.OpenAI.APIKey
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	c.Embedding.Cache = orTrue(c.Embedding.Cache)

	if c.LLM.OpenAI.Model == "" {
		c.LLM.OpenAI.Model = "gpt-4-turbo"
	}
	if c.LLM.OpenAI.Temperature <= 0 {
		c.LLM.OpenAI.Temperature = 0.7
	}
	if c.LLM.OpenAI.MaxTokens <= 0 {
		c.LLM.OpenAI.MaxTokens = 200
	}
	c.LLM.OpenAI.RepairContext = orTrue(c.LLM.OpenAI.RepairContext)
	if c.LLM.Gemini.Model == "" {
		c.LLM.Gemini.Model = "gemini-1.5-flash"
	}
	if c.LLM.Gemini.Temperature <= 0 {
		c.LLM.Gemini.Temperature = 0.7
	}
	if c.LLM.Gemini.MaxTokens <= 0 {
		c.LLM.Gemini.MaxTokens = 200
	}

	c.Speech.Enabled = orTrue(c.Speech.Enabled)
	if c.Speech.Model == "" {
		c.Speech.Model = "tts-1"
	}
	if c.Speech.Voice == "" {
		c.Speech.Voice = "nova"
	}
	if c.Speech.Speed <= 0 {
		c.Speech.Speed = 1.0
	}
	if c.Speech.AudioDir == "" {
		c.Speech.AudioDir = filepath.Join("static", "audio")
	}

	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = 5
	}
	if c.Retrieval.MaxDistance <= 0 {
		c.Retrieval.MaxDistance = 0.8
	}
	if c.Retrieval.CacheSize <= 0 {
		c.Retrieval.CacheSize = 100
	}

	if c.Session.CookieName == "" {
		c.Session.CookieName = "ragchat_session"
	}
	if c.Session.TTLSec <= 0 {
		c.Session.TTLSec = 86400
	}
	if c.Session.MaxTurns <= 0 {
		c.Session.MaxTurns = 10
	}

	if c.Ingest.SourceDir == "" {
		c.Ingest.SourceDir = "files"
	}
	if c.Ingest.Pattern == "" {
		c.Ingest.Pattern = "*.pdf"
	}
	if c.Ingest.ChunkSize <= 0 {
		c.Ingest.ChunkSize = 500
	}
	if c.Ingest.Workers <= 0 {
		c.Ingest.Workers = runtime.NumCPU()
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Database.Driver != "redis" {
		return fmt.Errorf("database.driver must be \"redis\", got %q", c.Database.Driver)
	}
	if len(c.Database.Addrs) == 0 {
		return errors.New("database.addrs is required")
	}
	if c.LLM.OpenAI.APIKey == "" {
		return errors.New("llm.openai.api_key is required (set OPENAI_API_KEY)")
	}
	if c.LLM.Gemini.APIKey == "" {
		return errors.New("llm.gemini.api_key is required (set GEMINI_API_KEY)")
	}
	if c.Retrieval.MaxDistance > 2 {
		return fmt.Errorf("retrieval.max_distance must be within (0, 2], got %g", c.Retrieval.MaxDistance)
	}
	return nil
}

func orTrue(b *bool) *bool {
	if b != nil {
		return b
	}
	t := true
	return &t
}

// loadDotEnv exports variables from path without overriding the environment. A missing file is fine.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// findConfigPath looks in ./config first, then next to the module root.
func findConfigPath(env string) string {
	filename := env + ".yaml"

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	_, b, _, _ := runtime.Caller(0)
	root := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> module root
	if path := filepath.Join(root, "config", filename); fileExists(path) {
		return path
	}
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default}.
func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		name, def, hasDefault := strings.Cut(string(match[2:len(match)-1]), ":-")
		val := os.Getenv(name)
		if val == "" && hasDefault {
			val = def
		}
		return []byte(val)
	})
}
