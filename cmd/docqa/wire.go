package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/config"
	dbValkey "github.com/kailas-cloud/docqa/internal/db/valkey"
	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/conversation"
	"github.com/kailas-cloud/docqa/internal/embedding/hashing"
	"github.com/kailas-cloud/docqa/internal/intent"
	"github.com/kailas-cloud/docqa/internal/metrics"
	"github.com/kailas-cloud/docqa/internal/rank"
	"github.com/kailas-cloud/docqa/internal/repository/embcache"
	"github.com/kailas-cloud/docqa/internal/segment"
	openaiTransport "github.com/kailas-cloud/docqa/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/docqa/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/docqa/internal/usecase/health"
	"github.com/kailas-cloud/docqa/internal/usecase/session"
)

// app is the assembled object graph shared by serve and ask.
type app struct {
	manager *session.Manager
	health  *healthuc.Service
	store   *dbValkey.Store
}

func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
}

// buildApp is the composition root. gen overrides the configured answer generator when set.
func buildApp(ctx context.Context, cfg config.Config, gen conversation.Generator, logger *zap.Logger) (*app, error) {
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRetrievalMetrics()

	a := &app{}

	var cache healthuc.CachePinger
	if cfg.Cache.Enabled {
		store, err := dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create cache store: %w", err)
		}
		if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			store.Close()
			return nil, fmt.Errorf("cache not ready: %w", err)
		}
		logger.Info("Connected to embedding cache", zap.Strings("addrs", cfg.Cache.Addrs))
		a.store = store
		cache = store
	}

	base, model := buildProvider(cfg.Embedding, logger)

	// Decorator chain: provider -> cache -> batching/validation.
	var provider domain.Embedder = base
	if a.store != nil {
		provider = embcache.New(
			base, a.store, cfg.Cache.KeyPrefix, model,
			time.Duration(cfg.Cache.TTLSec)*time.Second,
			metrics.EmbeddingCacheTotal, logger,
		)
	}
	embedder := embeddinguc.NewInstrumentedEmbedder(
		provider, cfg.Embedding.Provider, model,
		cfg.Embedding.BatchSize, cfg.Embedding.Dimensions, logger,
	)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cached", a.store != nil),
	)

	classifier, err := intent.NewClassifier(cfg.Intents)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build intent classifier: %w", err)
	}

	if gen == nil {
		gen = openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
			APIKey:      cfg.Generator.APIKey,
			BaseURL:     cfg.Generator.BaseURL,
			Model:       cfg.Generator.Model,
			MaxTokens:   cfg.Generator.MaxTokens,
			Temperature: *cfg.Generator.Temperature,
			Logger:      logger,
		})
		if cfg.Generator.APIKey == "" {
			logger.Warn("generator.api_key is empty, answers will fail until it is set")
		}
	}

	deps := session.Deps{
		Segmenter: segment.New(segment.Config{
			ChunkSize:           cfg.Chunking.Size,
			ChunkOverlap:        cfg.Chunking.Overlap,
			ExtraHeaderPatterns: cfg.Segmenter.ExtraHeaderPatterns,
		}, logger),
		Embedder:   embedder,
		Classifier: classifier,
		Ranker:     rank.New(cfg.Retrieval.Weights),
		Generator:  gen,
		Logger:     logger,
	}
	a.manager = session.NewManager(deps, session.Options{
		TopK:       cfg.Retrieval.TopK,
		Oversample: cfg.Retrieval.Oversample,
		MaxTurns:   cfg.Conversation.MaxTurns,
		Index:      cfg.Index,
	})

	var checker healthuc.EmbeddingChecker
	if hc, ok := base.(domain.HealthChecker); ok {
		checker = hc
	}
	a.health = healthuc.New(cache, checker, a.manager)
	return a, nil
}

// buildProvider returns the base embedding provider and the model name it reports.
func buildProvider(cfg config.EmbeddingConfig, logger *zap.Logger) (domain.Embedder, string) {
	if cfg.Provider == config.ProviderOpenAI {
		return openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Provider:   cfg.Provider,
			Logger:     logger,
		}), cfg.Model
	}
	return hashing.New(cfg.Dimensions), hashing.ModelName
}
