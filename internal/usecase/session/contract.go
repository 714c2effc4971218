package session

import (
	"context"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/retrieval"
	"github.com/kailas-cloud/docqa/internal/intent"
	"github.com/kailas-cloud/docqa/internal/rank"
)

// Segmenter turns raw pages into a structured document and its chunks.
type Segmenter interface {
	Segment(raw domain.RawDocument) (domain.Document, error)
	Chunk(doc domain.Document) []domain.Chunk
}

// Embedder vectorizes chunk texts and queries through one order-preserving path.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string, progress domain.ProgressFunc) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Classifier picks the intent category of a query.
type Classifier interface {
	Classify(query string) intent.Category
}

// Ranker reorders nearest-neighbour candidates.
type Ranker interface {
	Rerank(candidates []rank.Candidate, query string) []retrieval.Result
}
