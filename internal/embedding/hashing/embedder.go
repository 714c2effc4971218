// Package hashing provides a deterministic local embedder based on feature hashing.
//
// Word unigrams and character trigrams are hashed into a fixed number of buckets with
// a signed contribution, then the vector is L2-normalized. No model download, no network.
package hashing

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/kailas-cloud/docqa/internal/domain"
)

// ModelName identifies the local embedder in cache keys and metrics.
const ModelName = "local-hashing"

const (
	wordWeight    = 1.0
	trigramWeight = 0.5
)

// Embedder maps text to a fixed-dimension vector. It is stateless and safe for concurrent use.
type Embedder struct {
	dims int
}

// New creates a hashing embedder. dims <= 0 falls back to domain.DefaultDimensions.
func New(dims int) *Embedder {
	if dims <= 0 {
		dims = domain.DefaultDimensions
	}
	return &Embedder{dims: dims}
}

// Dimensions returns the output vector size.
func (e *Embedder) Dimensions() int {
	return e.dims
}

// Embed vectorizes a single text.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.EmbeddingResult{}, err
	}
	tokens := len(tokenize(text))
	return domain.EmbeddingResult{
		Embedding:    e.vector(text),
		PromptTokens: tokens,
		TotalTokens:  tokens,
	}, nil
}

// BatchEmbed vectorizes texts in order.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, text := range texts {
		res, err := e.Embed(ctx, text)
		if err != nil {
			return domain.BatchEmbeddingResult{}, err
		}
		out.Embeddings[i] = res.Embedding
		out.PromptTokens += res.PromptTokens
		out.TotalTokens += res.TotalTokens
	}
	return out, nil
}

// HealthCheck always succeeds.
func (e *Embedder) HealthCheck(context.Context) error {
	return nil
}

func (e *Embedder) vector(text string) []float32 {
	acc := make([]float64, e.dims)
	for _, tok := range tokenize(text) {
		e.add(acc, "w:"+tok, wordWeight)
		padded := []rune(" " + tok + " ")
		for i := 0; i+3 <= len(padded); i++ {
			e.add(acc, "t:"+string(padded[i:i+3]), trigramWeight)
		}
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	vec := make([]float32, e.dims)
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i, v := range acc {
		vec[i] = float32(v / norm)
	}
	return vec
}

func (e *Embedder) add(acc []float64, feature string, weight float64) {
	h := xxhash.Sum64String(feature)
	bucket := int(h % uint64(e.dims))
	if h>>63 == 1 {
		weight = -weight
	}
	acc[bucket] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
