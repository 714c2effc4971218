package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/metrics"
)

// DefaultBatchSize is the number of texts sent to the provider per request.
const DefaultBatchSize = 50

// InstrumentedEmbedder splits texts into ordered sub-batches, verifies the output
// dimension, reports progress and logs. Transport metrics (requests, duration, tokens)
// are recorded by the provider adapter.
type InstrumentedEmbedder struct {
	inner     domain.Embedder
	provider  string
	model     string
	batchSize int
	dims      int
	logger    *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder. batchSize <= 0 uses DefaultBatchSize,
// dims <= 0 disables the dimension check.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string,
	batchSize, dims int, logger *zap.Logger,
) *InstrumentedEmbedder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &InstrumentedEmbedder{
		inner:     inner,
		provider:  provider,
		model:     model,
		batchSize: batchSize,
		dims:      dims,
		logger:    logger,
	}
}

// Dimensions returns the configured vector dimension.
func (p *InstrumentedEmbedder) Dimensions() int { return p.dims }

// EmbedTexts returns one vector per text, in input order. Progress is reported after each sub-batch.
func (p *InstrumentedEmbedder) EmbedTexts(
	ctx context.Context, texts []string, progress domain.ProgressFunc,
) ([][]float32, error) {
	res, err := p.embedChunked(ctx, texts, progress)
	if err != nil {
		return nil, err
	}
	return res.Embeddings, nil
}

// EmbedQuery embeds a single query through the same path as a batch of one.
func (p *InstrumentedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.EmbedTexts(ctx, []string{text}, nil)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// Embed implements domain.Embedder.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := p.embedChunked(ctx, []string{text}, nil)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:    res.Embeddings[0],
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// BatchEmbed implements domain.BatchEmbedder.
func (p *InstrumentedEmbedder) BatchEmbed(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	return p.embedChunked(ctx, texts, nil)
}

// embedChunked splits texts into sub-batches of batchSize, preserving order.
func (p *InstrumentedEmbedder) embedChunked(
	ctx context.Context, texts []string, progress domain.ProgressFunc,
) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	start := time.Now()
	allEmbeddings := make([][]float32, 0, len(texts))
	var totalPrompt, totalTokens int

	for offset := 0; offset < len(texts); offset += p.batchSize {
		end := min(offset+p.batchSize, len(texts))
		chunk := texts[offset:end]

		metrics.EmbeddingBatchSize.WithLabelValues(p.provider).Observe(float64(len(chunk)))

		chunkResult, err := domain.EmbedBatch(ctx, p.inner, chunk)
		if err != nil {
			p.logger.Error("Batch embedding request failed",
				zap.String("provider", p.provider),
				zap.String("model", p.model),
				zap.Int("chunk_offset", offset),
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err),
			)
			return domain.BatchEmbeddingResult{}, fmt.Errorf("embed batch at %d: %w", offset, err)
		}
		if len(chunkResult.Embeddings) != len(chunk) {
			return domain.BatchEmbeddingResult{}, fmt.Errorf(
				"provider returned %d vectors for %d texts: %w",
				len(chunkResult.Embeddings), len(chunk), domain.ErrEmbeddingProviderError,
			)
		}
		if err := p.checkDims(chunkResult.Embeddings); err != nil {
			metrics.EmbeddingErrorsTotal.WithLabelValues(p.provider, p.model, "dim_mismatch").Inc()
			return domain.BatchEmbeddingResult{}, err
		}

		allEmbeddings = append(allEmbeddings, chunkResult.Embeddings...)
		totalPrompt += chunkResult.PromptTokens
		totalTokens += chunkResult.TotalTokens

		progress.Report(domain.StageEmbedding, end, len(texts))
	}

	p.logger.Debug("Batch embedding completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("texts", len(texts)),
		zap.Int("prompt_tokens", totalPrompt),
		zap.Int("total_tokens", totalTokens),
	)

	return domain.BatchEmbeddingResult{
		Embeddings:   allEmbeddings,
		PromptTokens: totalPrompt,
		TotalTokens:  totalTokens,
	}, nil
}

func (p *InstrumentedEmbedder) checkDims(vecs [][]float32) error {
	if p.dims <= 0 {
		return nil
	}
	for _, v := range vecs {
		if len(v) != p.dims {
			return domain.NewDimMismatch(p.dims, len(v))
		}
	}
	return nil
}
