// Package rank reorders nearest-neighbour hits by blending vector similarity with
// lexical overlap and section-title relevance.
package rank

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/retrieval"
	"github.com/kailas-cloud/docqa/internal/index"
)

// Weights are the blend coefficients of the final score.
type Weights struct {
	Similarity float64 `yaml:"similarity"`
	Keyword    float64 `yaml:"keyword"`
	Section    float64 `yaml:"section"`
}

// DefaultWeights returns 0.6 similarity, 0.3 keyword, 0.1 section.
func DefaultWeights() Weights {
	return Weights{Similarity: 0.6, Keyword: 0.3, Section: 0.1}
}

// Validate checks that weights are non-negative and sum to 1.
func (w Weights) Validate() error {
	if w.Similarity < 0 || w.Keyword < 0 || w.Section < 0 {
		return fmt.Errorf("ranking weights must be non-negative: %+v", w)
	}
	if sum := w.Similarity + w.Keyword + w.Section; math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("ranking weights must sum to 1, got %g", sum)
	}
	return nil
}

// Candidate is a raw search hit joined with its chunk.
type Candidate struct {
	Chunk    domain.Chunk
	Distance float32
}

// Ranker scores and orders candidates.
type Ranker struct {
	weights Weights
}

// New creates a ranker with the given weights.
func New(w Weights) *Ranker {
	return &Ranker{weights: w}
}

// Weights returns the blend coefficients.
func (r *Ranker) Weights() Weights { return r.weights }

// Rerank scores candidates (given in nearest-first order) against query and returns them
// sorted by final score, descending. Equal scores keep their similarity order.
func (r *Ranker) Rerank(candidates []Candidate, query string) []retrieval.Result {
	if len(candidates) == 0 {
		return nil
	}
	queryWords := wordSet(query)

	type scored struct {
		cand       Candidate
		scores     retrieval.Scores
		searchRank int
	}
	items := make([]scored, len(candidates))
	for i, c := range candidates {
		s := retrieval.Scores{
			Similarity: float64(index.Similarity(c.Distance)),
			Keyword:    KeywordScore(queryWords, c.Chunk.Text),
			Section:    SectionScore(queryWords, c.Chunk.Section),
		}
		s.Final = r.weights.Similarity*s.Similarity + r.weights.Keyword*s.Keyword + r.weights.Section*s.Section
		items[i] = scored{cand: c, scores: s, searchRank: i + 1}
	}

	slices.SortStableFunc(items, func(a, b scored) int {
		switch {
		case a.scores.Final > b.scores.Final:
			return -1
		case a.scores.Final < b.scores.Final:
			return 1
		default:
			return 0
		}
	})

	out := make([]retrieval.Result, len(items))
	for i, it := range items {
		out[i] = retrieval.New(it.cand.Chunk, it.cand.Distance, it.scores, i+1, it.searchRank)
	}
	return out
}

// KeywordScore is the fraction of query words that also appear in text.
func KeywordScore(queryWords map[string]struct{}, text string) float64 {
	if len(queryWords) == 0 {
		return 0
	}
	textWords := wordSet(text)
	overlap := 0
	for w := range queryWords {
		if _, ok := textWords[w]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(len(queryWords))
}

// SectionScore is 1 when any query word occurs inside the section title, else 0.
func SectionScore(queryWords map[string]struct{}, section string) float64 {
	title := strings.ToLower(section)
	for w := range queryWords {
		if strings.Contains(title, w) {
			return 1
		}
	}
	return 0
}

func wordSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
