package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/docqa/internal/index"
	"github.com/kailas-cloud/docqa/internal/intent"
	"github.com/kailas-cloud/docqa/internal/rank"
	"github.com/kailas-cloud/docqa/internal/segment"
)

// Embedding provider names.
const (
	ProviderLocal  = "local"
	ProviderOpenAI = "openai"
)

// Defaults not owned by a domain package.
const (
	DefaultGeneratorBaseURL = "https://api.groq.com/openai/v1"
	DefaultGeneratorModel   = "llama-3.3-70b-versatile"
	DefaultMaxTokens        = 1200
	DefaultTemperature      = float32(0.1)
	DefaultEmbeddingModel   = "all-MiniLM-L6-v2"
	DefaultBatchSize        = 50
	DefaultDimensions       = 384
)

// Config holds the docqa configuration.
type Config struct {
	HTTP         HTTPConfig         `yaml:"http"`
	Logging      LoggingConfig      `yaml:"logging"`
	Chunking     ChunkingConfig     `yaml:"chunking"`
	Segmenter    SegmenterConfig    `yaml:"segmenter"`
	Embedding    EmbeddingConfig    `yaml:"embedding"`
	Index        index.Options      `yaml:"index"`
	Retrieval    RetrievalConfig    `yaml:"retrieval"`
	Conversation ConversationConfig `yaml:"conversation"`
	Intents      []intent.Category  `yaml:"intents"`
	Generator    GeneratorConfig    `yaml:"generator"`
	Cache        CacheConfig        `yaml:"cache"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int   `yaml:"port"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
	MaxUploadBytes  int64 `yaml:"max_upload_bytes"`
}

// ChunkingConfig holds chunk size settings, in characters.
type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// SegmenterConfig holds section detection settings.
type SegmenterConfig struct {
	ExtraHeaderPatterns []segment.PatternSpec `yaml:"extra_header_patterns"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"` // local, openai (default: local)
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	BatchSize  int    `yaml:"batch_size"`
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
}

// RetrievalConfig holds search and reranking settings.
type RetrievalConfig struct {
	TopK       int          `yaml:"top_k"`
	Oversample int          `yaml:"oversample"`
	Weights    rank.Weights `yaml:"weights"`
}

// ConversationConfig holds history settings.
type ConversationConfig struct {
	MaxTurns int `yaml:"max_turns"`
}

// GeneratorConfig holds answer generator settings.
type GeneratorConfig struct {
	BaseURL     string   `yaml:"base_url"`
	APIKey      string   `yaml:"api_key"`
	Model       string   `yaml:"model"`
	MaxTokens   int      `yaml:"max_tokens"`
	Temperature *float32 `yaml:"temperature"`
}

// CacheConfig holds the optional Valkey embedding cache settings.
type CacheConfig struct {
	Enabled          bool     `yaml:"enabled"`
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	TTLSec           int      `yaml:"ttl_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxUploadBytes <= 0 {
		c.HTTP.MaxUploadBytes = 20 << 20
	}

	if c.Chunking.Size <= 0 {
		c.Chunking.Size = segment.DefaultChunkSize
	}
	if c.Chunking.Overlap <= 0 {
		c.Chunking.Overlap = segment.DefaultChunkOverlap
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderLocal
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = DefaultEmbeddingModel
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = DefaultDimensions
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = DefaultBatchSize
	}

	c.applyIndexDefaults()

	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = 8
	}
	if c.Retrieval.Oversample <= 0 {
		c.Retrieval.Oversample = 2
	}
	if c.Retrieval.Weights == (rank.Weights{}) {
		c.Retrieval.Weights = rank.DefaultWeights()
	}
	if c.Conversation.MaxTurns <= 0 {
		c.Conversation.MaxTurns = 6
	}
	if len(c.Intents) == 0 {
		c.Intents = intent.DefaultTable()
	}

	if c.Generator.BaseURL == "" {
		c.Generator.BaseURL = DefaultGeneratorBaseURL
	}
	if c.Generator.Model == "" {
		c.Generator.Model = DefaultGeneratorModel
	}
	if c.Generator.MaxTokens <= 0 {
		c.Generator.MaxTokens = DefaultMaxTokens
	}
	if c.Generator.Temperature == nil {
		t := DefaultTemperature
		c.Generator.Temperature = &t
	}

	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "docqa:"
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 7 * 24 * 3600
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
}

func (c *Config) applyIndexDefaults() {
	d := index.DefaultOptions()
	if c.Index.FlatThreshold <= 0 {
		c.Index.FlatThreshold = d.FlatThreshold
	}
	if c.Index.MaxPartitions <= 0 {
		c.Index.MaxPartitions = d.MaxPartitions
	}
	if c.Index.VectorsPerPartition <= 0 {
		c.Index.VectorsPerPartition = d.VectorsPerPartition
	}
	if c.Index.NProbe <= 0 {
		c.Index.NProbe = d.NProbe
	}
	if c.Index.TrainIterations <= 0 {
		c.Index.TrainIterations = d.TrainIterations
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("chunking.overlap (%d) must be smaller than chunking.size (%d)",
			c.Chunking.Overlap, c.Chunking.Size)
	}

	switch c.Embedding.Provider {
	case ProviderLocal:
	case ProviderOpenAI:
		if c.Embedding.APIKey == "" {
			return errors.New("embedding.api_key is required for the openai provider")
		}
	default:
		return fmt.Errorf("embedding.provider must be %q or %q, got %q",
			ProviderLocal, ProviderOpenAI, c.Embedding.Provider)
	}

	if err := c.Retrieval.Weights.Validate(); err != nil {
		return fmt.Errorf("retrieval.weights: %w", err)
	}
	if _, err := intent.NewClassifier(c.Intents); err != nil {
		return fmt.Errorf("intents: %w", err)
	}
	if c.Generator.MaxTokens <= 0 {
		return fmt.Errorf("generator.max_tokens must be positive, got %d", c.Generator.MaxTokens)
	}
	if t := c.Generator.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("generator.temperature must be between 0 and 2, got %g", *t)
	}
	if c.Cache.Enabled && len(c.Cache.Addrs) == 0 {
		return errors.New("cache.addrs is required when cache is enabled")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
