package retrieval

import "github.com/kailas-cloud/docqa/internal/domain"

// Scores holds the per-signal scores that make up a result's final score.
type Scores struct {
	Similarity float64
	Keyword    float64
	Section    float64
	Final      float64
}

// Result is a single reranked retrieval hit. Produced per query, never persisted.
type Result struct {
	chunk      domain.Chunk
	distance   float32
	scores     Scores
	rank       int
	searchRank int
}

// New creates a retrieval result. rank is the 1-based position after reranking,
// searchRank the 1-based position in the raw nearest-neighbor order.
func New(chunk domain.Chunk, distance float32, scores Scores, rank, searchRank int) Result {
	return Result{
		chunk:      chunk,
		distance:   distance,
		scores:     scores,
		rank:       rank,
		searchRank: searchRank,
	}
}

// Chunk returns the retrieved chunk.
func (r *Result) Chunk() domain.Chunk { return r.chunk }

// Distance returns the raw squared Euclidean distance.
func (r *Result) Distance() float32 { return r.distance }

// Similarity returns 1/(1+distance).
func (r *Result) Similarity() float64 { return r.scores.Similarity }

// KeywordScore returns the query/chunk word overlap ratio.
func (r *Result) KeywordScore() float64 { return r.scores.Keyword }

// SectionScore returns 1 when a query word appears in the section title.
func (r *Result) SectionScore() float64 { return r.scores.Section }

// FinalScore returns the blended score.
func (r *Result) FinalScore() float64 { return r.scores.Final }

// Scores returns all score components.
func (r *Result) Scores() Scores { return r.scores }

// Rank returns the 1-based position after reranking.
func (r *Result) Rank() int { return r.rank }

// SearchRank returns the 1-based position in the raw search order.
func (r *Result) SearchRank() int { return r.searchRank }
