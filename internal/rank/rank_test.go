package rank

import (
	"math"
	"testing"

	"github.com/kailas-cloud/docqa/internal/domain"
)

func chunk(id, section, text string) domain.Chunk {
	return domain.Chunk{ID: id, Section: section, Text: text, Kind: domain.ChunkSection}
}

func TestDefaultWeights_SumToOne(t *testing.T) {
	w := DefaultWeights()
	if err := w.Validate(); err != nil {
		t.Fatalf("default weights invalid: %v", err)
	}
	if w.Similarity != 0.6 || w.Keyword != 0.3 || w.Section != 0.1 {
		t.Errorf("unexpected defaults: %+v", w)
	}
}

func TestWeights_Validate(t *testing.T) {
	tests := []struct {
		name    string
		w       Weights
		wantErr bool
	}{
		{"balanced", Weights{0.5, 0.25, 0.25}, false},
		{"sum too large", Weights{0.6, 0.3, 0.3}, true},
		{"negative", Weights{1.2, -0.2, 0}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.w.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestKeywordScore(t *testing.T) {
	q := wordSet("How to INSTALL docker")
	got := KeywordScore(q, "To install, run the script. install docker now")
	// "to", "install", "docker" match; "how" does not; "install," is a different token.
	if math.Abs(got-0.75) > 1e-9 {
		t.Errorf("KeywordScore = %v, want 0.75", got)
	}
	if KeywordScore(wordSet("   "), "anything") != 0 {
		t.Error("empty query must score 0")
	}
}

func TestSectionScore(t *testing.T) {
	q := wordSet("install steps")
	if SectionScore(q, "Installation Guide") != 1 {
		t.Error("expected substring match on section title")
	}
	if SectionScore(q, "Overview") != 0 {
		t.Error("expected no match")
	}
}

func TestRerank_FinalScoreBlend(t *testing.T) {
	r := New(DefaultWeights())
	results := r.Rerank([]Candidate{
		{Chunk: chunk("Installation_0", "Installation", "run the installer"), Distance: 1},
	}, "installer")

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	res := results[0]
	// similarity 0.5, keyword 1, section 0 ("installer" is not inside "installation")
	want := 0.6*0.5 + 0.3*1 + 0.1*0
	if math.Abs(res.FinalScore()-want) > 1e-9 {
		t.Errorf("FinalScore = %v, want %v", res.FinalScore(), want)
	}
	if res.Rank() != 1 || res.SearchRank() != 1 {
		t.Errorf("unexpected ranks: %d/%d", res.Rank(), res.SearchRank())
	}
}

func TestRerank_KeywordOverlapPromotes(t *testing.T) {
	r := New(DefaultWeights())
	results := r.Rerank([]Candidate{
		{Chunk: chunk("A_0", "A", "completely unrelated words"), Distance: 0.2},
		{Chunk: chunk("B_0", "B", "configure the proxy timeout"), Distance: 0.4},
	}, "proxy timeout")

	if results[0].Chunk().ID != "B_0" {
		t.Errorf("expected keyword-matching chunk first, got %s", results[0].Chunk().ID)
	}
	if results[0].SearchRank() != 2 || results[1].SearchRank() != 1 {
		t.Errorf("search ranks not preserved: %d, %d", results[0].SearchRank(), results[1].SearchRank())
	}
}

func TestRerank_TiesKeepSimilarityOrder(t *testing.T) {
	r := New(DefaultWeights())
	cands := []Candidate{
		{Chunk: chunk("first", "X", "same"), Distance: 1},
		{Chunk: chunk("second", "X", "same"), Distance: 1},
		{Chunk: chunk("third", "X", "same"), Distance: 1},
	}
	results := r.Rerank(cands, "nothing matches")
	for i, want := range []string{"first", "second", "third"} {
		if results[i].Chunk().ID != want {
			t.Errorf("position %d = %s, want %s", i, results[i].Chunk().ID, want)
		}
		if results[i].Rank() != i+1 {
			t.Errorf("position %d has rank %d", i, results[i].Rank())
		}
	}
}

func TestRerank_Empty(t *testing.T) {
	if got := New(DefaultWeights()).Rerank(nil, "q"); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}
