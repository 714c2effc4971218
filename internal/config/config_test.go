package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kailas-cloud/docqa/internal/intent"
	"github.com/kailas-cloud/docqa/internal/rank"
)

func validConfig() Config {
	cfg := Config{HTTP: HTTPConfig{Port: 8080}}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Chunking.Size != 1500 || cfg.Chunking.Overlap != 300 {
		t.Errorf("unexpected chunking defaults: %+v", cfg.Chunking)
	}
	if cfg.Embedding.Provider != ProviderLocal || cfg.Embedding.Dimensions != 384 || cfg.Embedding.BatchSize != 50 {
		t.Errorf("unexpected embedding defaults: %+v", cfg.Embedding)
	}
	if cfg.Index.FlatThreshold != 1000 || cfg.Index.MaxPartitions != 100 || cfg.Index.NProbe != 10 {
		t.Errorf("unexpected index defaults: %+v", cfg.Index)
	}
	if cfg.Retrieval.TopK != 8 || cfg.Retrieval.Oversample != 2 {
		t.Errorf("unexpected retrieval defaults: %+v", cfg.Retrieval)
	}
	if cfg.Retrieval.Weights != rank.DefaultWeights() {
		t.Errorf("unexpected weights: %+v", cfg.Retrieval.Weights)
	}
	if cfg.Conversation.MaxTurns != 6 {
		t.Errorf("expected MaxTurns=6, got %d", cfg.Conversation.MaxTurns)
	}
	if len(cfg.Intents) != len(intent.DefaultTable()) {
		t.Errorf("expected default intent table, got %d entries", len(cfg.Intents))
	}
	if cfg.Generator.Model != DefaultGeneratorModel || cfg.Generator.MaxTokens != 1200 {
		t.Errorf("unexpected generator defaults: %+v", cfg.Generator)
	}
	if cfg.Generator.Temperature == nil || *cfg.Generator.Temperature != DefaultTemperature {
		t.Errorf("expected temperature %v", DefaultTemperature)
	}
	if cfg.Cache.KeyPrefix != "docqa:" {
		t.Errorf("expected KeyPrefix='docqa:', got %q", cfg.Cache.KeyPrefix)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	zero := float32(0)
	cfg := Config{
		HTTP:      HTTPConfig{ReadTimeoutSec: 5, WriteTimeoutSec: 60},
		Chunking:  ChunkingConfig{Size: 800, Overlap: 100},
		Retrieval: RetrievalConfig{TopK: 4, Weights: rank.Weights{Similarity: 1}},
		Generator: GeneratorConfig{Temperature: &zero},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 5 || cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("HTTP overrides lost: %+v", cfg.HTTP)
	}
	if cfg.Chunking.Size != 800 || cfg.Chunking.Overlap != 100 {
		t.Errorf("chunking overrides lost: %+v", cfg.Chunking)
	}
	if cfg.Retrieval.TopK != 4 || cfg.Retrieval.Weights.Similarity != 1 {
		t.Errorf("retrieval overrides lost: %+v", cfg.Retrieval)
	}
	if *cfg.Generator.Temperature != 0 {
		t.Errorf("explicit zero temperature must be kept")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"invalid port", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"overlap not smaller than size", func(c *Config) { c.Chunking.Overlap = c.Chunking.Size }, "chunking.overlap"},
		{"unknown provider", func(c *Config) { c.Embedding.Provider = "magic" }, "embedding.provider"},
		{"openai without key", func(c *Config) { c.Embedding.Provider = ProviderOpenAI }, "embedding.api_key"},
		{"weights do not sum to one", func(c *Config) { c.Retrieval.Weights.Section = 0.5 }, "retrieval.weights"},
		{"duplicate intent", func(c *Config) { c.Intents = append(c.Intents, c.Intents[0]) }, "intents"},
		{"cache without addrs", func(c *Config) { c.Cache.Enabled = true }, "cache.addrs"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadFile_ExpandsEnv(t *testing.T) {
	t.Setenv("DOCQA_TEST_PORT", "9090")
	t.Setenv("DOCQA_TEST_KEY", "")

	yml := `
http:
  port: ${DOCQA_TEST_PORT}
generator:
  api_key: ${DOCQA_TEST_KEY:-fallback-key}
segmenter:
  extra_header_patterns:
    - name: appendix
      pattern: '^Appendix\s+[A-Z]$'
intents:
  - name: pricing
    keywords: [price, cost]
    focus: Plans and billing.
`
	path := filepath.Join(t.TempDir(), "test.yaml")
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.HTTP.Port)
	}
	if cfg.Generator.APIKey != "fallback-key" {
		t.Errorf("expected default api key, got %q", cfg.Generator.APIKey)
	}
	if len(cfg.Segmenter.ExtraHeaderPatterns) != 1 || cfg.Segmenter.ExtraHeaderPatterns[0].Name != "appendix" {
		t.Errorf("unexpected header patterns: %+v", cfg.Segmenter.ExtraHeaderPatterns)
	}
	if len(cfg.Intents) != 1 || cfg.Intents[0].Name != "pricing" || cfg.Intents[0].Keywords[1] != "cost" {
		t.Errorf("unexpected intents: %+v", cfg.Intents)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_ShippedEnvironments(t *testing.T) {
	t.Setenv("CACHE_ENABLED", "false")
	for _, env := range []string{"local", "prod"} {
		t.Run(env, func(t *testing.T) {
			if _, err := Load(env); err != nil {
				t.Fatalf("Load(%s) failed: %v", env, err)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("DOCQA_SET", "value")
	got := string(expandEnvVars([]byte("a=${DOCQA_SET} b=${DOCQA_UNSET:-def} c=${DOCQA_UNSET}")))
	if got != "a=value b=def c=" {
		t.Errorf("unexpected expansion: %q", got)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if GetEnv() != "local" {
		t.Errorf("expected local default")
	}
	t.Setenv("ENV", "prod")
	if GetEnv() != "prod" {
		t.Errorf("expected prod")
	}
}
