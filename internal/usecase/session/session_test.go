package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/retrieval"
	"github.com/kailas-cloud/docqa/internal/index"
)

func TestAsk_NoDocument(t *testing.T) {
	gen := &mockGenerator{reply: "unused"}
	emb := &failingEmbedder{inner: localEmbedder()}
	s := New("s", newTestDeps(t, gen, emb), DefaultOptions())

	ans, err := s.Ask(context.Background(), "How do I install it?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ans.Text != NoDocumentReply {
		t.Errorf("expected upload prompt, got %q", ans.Text)
	}
	if len(gen.prompts) != 0 {
		t.Error("generator must not be called without a document")
	}
	if emb.queryCalls != 0 {
		t.Error("index must not be touched without a document")
	}
	if len(s.History()) != 0 {
		t.Error("history must stay empty")
	}
}

func TestAsk_EmptyQuery(t *testing.T) {
	s := newTestSession(t, &mockGenerator{})
	if _, err := s.Ask(context.Background(), "   "); !errors.Is(err, domain.ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestSetDocument_Info(t *testing.T) {
	s := newTestSession(t, &mockGenerator{})
	info := loadManual(t, s)

	if !info.HasDocument || info.Title != "Server Manual" {
		t.Fatalf("unexpected info: %+v", info)
	}
	if info.PageCount != 2 || info.SectionCount != 3 || info.ChunkCount != 3 {
		t.Errorf("unexpected counts: pages=%d sections=%d chunks=%d", info.PageCount, info.SectionCount, info.ChunkCount)
	}
	if strings.Join(info.Sections, ",") != "Installation,Troubleshooting,Configuration" {
		t.Errorf("unexpected sections: %v", info.Sections)
	}
	if info.IndexKind != string(index.KindFlat) || info.Degraded {
		t.Errorf("expected healthy flat index, got %s degraded=%v", info.IndexKind, info.Degraded)
	}
}

func TestAsk_BuildsPrompt(t *testing.T) {
	gen := &mockGenerator{reply: "Use the package manager."}
	s := newTestSession(t, gen)
	loadManual(t, s)

	ans, err := s.Ask(context.Background(), "How do I install the server?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ans.Text != "Use the package manager." || ans.Failed {
		t.Fatalf("unexpected answer: %+v", ans)
	}
	if ans.Intent != "getting_started" {
		t.Errorf("expected getting_started intent, got %s", ans.Intent)
	}
	if len(ans.Sources) == 0 || ans.Sources[0].Chunk().Section != "Installation" {
		t.Errorf("expected Installation as top source, got %+v", ans.Sources)
	}

	if len(gen.prompts) != 1 {
		t.Fatalf("expected one generator call, got %d", len(gen.prompts))
	}
	p := gen.prompts[0]
	for _, want := range []string{"- Title: Server Manual", "- Pages: 2", "- Sections: 3",
		"Current query intent: getting_started", "Focus on: Beginner-friendly"} {
		if !strings.Contains(p.System, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
	if !strings.HasPrefix(p.Context, "Relevant documentation sections for getting_started query:\n\n") {
		t.Errorf("unexpected context header: %q", p.Context)
	}
	if !strings.Contains(p.Context, "Section 1 (from Installation):\n") {
		t.Errorf("context missing provenance: %q", p.Context)
	}
	if p.Query != "How do I install the server?" || len(p.History) != 0 {
		t.Errorf("unexpected query/history: %q / %v", p.Query, p.History)
	}

	hist := s.History()
	if len(hist) != 2 || hist[0].Text != "How do I install the server?" || hist[1].Text != "Use the package manager." {
		t.Errorf("unexpected history: %+v", hist)
	}
}

func TestAsk_HistoryCappedToRecentTurns(t *testing.T) {
	gen := &mockGenerator{}
	s := newTestSession(t, gen)
	loadManual(t, s)

	for i := range 5 {
		gen.reply = fmt.Sprintf("answer %d", i)
		if _, err := s.Ask(context.Background(), fmt.Sprintf("question %d", i)); err != nil {
			t.Fatalf("Ask %d failed: %v", i, err)
		}
	}

	last := gen.prompts[len(gen.prompts)-1]
	if len(last.History) != DefaultMaxTurns {
		t.Fatalf("expected %d history turns, got %d", DefaultMaxTurns, len(last.History))
	}
	// 8 turns existed before the 5th question; the last 6 start at "question 1".
	if last.History[0].Text != "question 1" || last.History[5].Text != "answer 3" {
		t.Errorf("unexpected window: first=%q last=%q", last.History[0].Text, last.History[5].Text)
	}
	if len(s.History()) != 10 {
		t.Errorf("expected all 10 turns stored, got %d", len(s.History()))
	}
}

func TestAsk_GeneratorFailure(t *testing.T) {
	gen := &mockGenerator{err: fmt.Errorf("rate limited: %w", domain.ErrGeneratorError)}
	s := newTestSession(t, gen)
	loadManual(t, s)

	ans, err := s.Ask(context.Background(), "What does the config do?")
	if err != nil {
		t.Fatalf("generator failures must not surface as errors: %v", err)
	}
	if !ans.Failed {
		t.Error("expected Failed answer")
	}
	if !strings.HasPrefix(ans.Text, "I apologize, but I'm experiencing technical difficulties.") ||
		!strings.Contains(ans.Text, "rate limited") {
		t.Errorf("unexpected apology: %q", ans.Text)
	}
	if len(s.History()) != 0 {
		t.Error("failed turn must not be recorded")
	}
}

func TestSetDocument_ResetsHistory(t *testing.T) {
	gen := &mockGenerator{reply: "ok"}
	s := newTestSession(t, gen)
	loadManual(t, s)

	if _, err := s.Ask(context.Background(), "anything"); err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if len(s.History()) != 2 {
		t.Fatalf("expected 2 turns before reload")
	}

	loadManual(t, s)
	if len(s.History()) != 0 {
		t.Error("history must be cleared on new document")
	}
}

func TestSetDocument_MalformedKeepsPreviousState(t *testing.T) {
	s := newTestSession(t, &mockGenerator{reply: "ok"})
	loadManual(t, s)
	if _, err := s.Ask(context.Background(), "anything"); err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	bad := domain.RawDocument{Title: "Broken", Pages: []string{"ok", "\xff\xfe"}}
	_, err := s.SetDocument(context.Background(), bad, nil)
	if !errors.Is(err, domain.ErrMalformedDocument) {
		t.Fatalf("expected ErrMalformedDocument, got %v", err)
	}

	info := s.Info()
	if info.Title != "Server Manual" || info.ChunkCount != 3 {
		t.Errorf("previous document must stay loaded, got %+v", info)
	}
	if info.HistoryTurns != 2 {
		t.Errorf("history must be untouched, got %d turns", info.HistoryTurns)
	}
}

func TestSetDocument_EmbeddingFailureDegrades(t *testing.T) {
	gen := &mockGenerator{reply: "I could not find that."}
	emb := &failingEmbedder{inner: localEmbedder(), textsErr: errProvider}
	s := New("s", newTestDeps(t, gen, emb), DefaultOptions())

	info, err := s.SetDocument(context.Background(), manualDoc(), nil)
	if err != nil {
		t.Fatalf("embedding failure must not reject the document: %v", err)
	}
	if !info.Degraded || info.ChunkCount != 3 {
		t.Errorf("expected degraded document with chunks, got %+v", info)
	}

	if out := s.Retrieve(context.Background(), "install"); out.Status != retrieval.StatusEmpty {
		t.Errorf("expected empty outcome, got %s", out.Status)
	}

	if _, err := s.Ask(context.Background(), "install"); err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if gen.prompts[0].Context != NoContentContext {
		t.Errorf("expected no-content context, got %q", gen.prompts[0].Context)
	}
}

func TestRetrieve_SearchFailureIsFailedOutcome(t *testing.T) {
	gen := &mockGenerator{reply: "ok"}
	emb := &failingEmbedder{inner: localEmbedder()}
	s := New("s", newTestDeps(t, gen, emb), DefaultOptions())
	loadManual(t, s)

	emb.queryErr = errProvider
	out := s.Retrieve(context.Background(), "install")
	if out.Status != retrieval.StatusFailed || !errors.Is(out.Err, errProvider) {
		t.Fatalf("expected failed outcome wrapping provider error, got %+v", out)
	}

	ans, err := s.Ask(context.Background(), "install")
	if err != nil || ans.Text != "ok" {
		t.Fatalf("Ask must continue after search failure: %v %q", err, ans.Text)
	}
	if gen.prompts[0].Context != NoContentContext {
		t.Errorf("expected no-content context, got %q", gen.prompts[0].Context)
	}
}

func TestRetrieve_NoDocument(t *testing.T) {
	s := newTestSession(t, &mockGenerator{})
	out := s.Retrieve(context.Background(), "install")
	if out.Status != retrieval.StatusFailed || !errors.Is(out.Err, domain.ErrNoDocument) {
		t.Fatalf("expected failed outcome with ErrNoDocument, got %+v", out)
	}
}

func TestRetrieve_TopKAndRanks(t *testing.T) {
	var pages []string
	for i := range 20 {
		pages = append(pages, fmt.Sprintf("# Topic %d\nDetails about topic number %d and its settings.", i, i))
	}
	opts := DefaultOptions()
	opts.TopK = 5
	s := New("s", newTestDeps(t, &mockGenerator{}, nil), opts)
	if _, err := s.SetDocument(context.Background(), domain.RawDocument{Title: "Topics", Pages: pages}, nil); err != nil {
		t.Fatalf("SetDocument failed: %v", err)
	}

	out := s.Retrieve(context.Background(), "topic settings")
	if out.Status != retrieval.StatusFound {
		t.Fatalf("expected found, got %s (%v)", out.Status, out.Err)
	}
	if len(out.Results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(out.Results))
	}
	for i := range out.Results {
		if out.Results[i].Rank() != i+1 {
			t.Errorf("result %d has rank %d", i, out.Results[i].Rank())
		}
		if out.Results[i].SearchRank() < 1 || out.Results[i].SearchRank() > 10 {
			t.Errorf("search rank %d outside oversampled window", out.Results[i].SearchRank())
		}
		if i > 0 && out.Results[i].FinalScore() > out.Results[i-1].FinalScore() {
			t.Errorf("results not sorted by final score")
		}
	}
}

func TestSetDocument_ReportsProgress(t *testing.T) {
	s := newTestSession(t, &mockGenerator{})
	var stages []domain.Stage
	progress := func(p domain.Progress) { stages = append(stages, p.Stage) }

	if _, err := s.SetDocument(context.Background(), manualDoc(), progress); err != nil {
		t.Fatalf("SetDocument failed: %v", err)
	}
	if len(stages) < 2 || stages[0] != domain.StageEmbedding || stages[len(stages)-1] != domain.StageIndexing {
		t.Errorf("unexpected progress stages: %v", stages)
	}
}

func TestClearHistory_KeepsDocument(t *testing.T) {
	s := newTestSession(t, &mockGenerator{reply: "ok"})
	loadManual(t, s)
	if _, err := s.Ask(context.Background(), "anything"); err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	s.ClearHistory()
	info := s.Info()
	if info.HistoryTurns != 0 || !info.HasDocument {
		t.Errorf("unexpected info after clear: %+v", info)
	}
}
