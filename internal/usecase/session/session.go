// Package session owns one document's retrieval state and conversation, and turns
// queries into generator prompts.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/conversation"
	"github.com/kailas-cloud/docqa/internal/domain/retrieval"
	"github.com/kailas-cloud/docqa/internal/index"
	"github.com/kailas-cloud/docqa/internal/metrics"
	"github.com/kailas-cloud/docqa/internal/rank"
)

// Defaults for Options.
const (
	DefaultTopK       = 8
	DefaultOversample = 2
	DefaultMaxTurns   = 6
)

// Options tune retrieval and conversation.
type Options struct {
	TopK       int
	Oversample int
	MaxTurns   int
	Index      index.Options
}

// DefaultOptions returns top-k 8, oversample 2, 6 history turns and default index options.
func DefaultOptions() Options {
	return Options{
		TopK:       DefaultTopK,
		Oversample: DefaultOversample,
		MaxTurns:   DefaultMaxTurns,
		Index:      index.DefaultOptions(),
	}
}

func (o Options) withDefaults() Options {
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	if o.Oversample <= 0 {
		o.Oversample = DefaultOversample
	}
	if o.MaxTurns <= 0 {
		o.MaxTurns = DefaultMaxTurns
	}
	return o
}

// Deps are the collaborators of a session. All are required except Logger.
type Deps struct {
	Segmenter  Segmenter
	Embedder   Embedder
	Classifier Classifier
	Ranker     Ranker
	Generator  conversation.Generator
	Logger     *zap.Logger
}

// loaded is everything derived from one document. Replaced as a whole, never mutated.
type loaded struct {
	doc      domain.Document
	chunks   []domain.Chunk
	idx      index.Index
	degraded bool
	loadedAt time.Time
}

// Session is a single-document question answering context. Calls are serialised.
type Session struct {
	id        string
	deps      Deps
	opts      Options
	logger    *zap.Logger
	createdAt time.Time

	mu      sync.Mutex
	state   *loaded
	history *conversation.History
}

// New creates an empty session.
func New(id string, deps Deps, opts Options) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		id:        id,
		deps:      deps,
		opts:      opts.withDefaults(),
		logger:    logger.With(zap.String("session_id", id)),
		createdAt: time.Now(),
		history:   conversation.NewHistory(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// SetDocument segments, chunks, embeds and indexes raw, then swaps it in and clears the
// history. A segmentation error leaves the previous document in place. Embedding or
// index failures install the document with an empty index and mark it degraded.
func (s *Session) SetDocument(ctx context.Context, raw domain.RawDocument, progress domain.ProgressFunc) (Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.deps.Segmenter.Segment(raw)
	if err != nil {
		s.logger.Warn("Document rejected", zap.String("title", raw.Title), zap.Error(err))
		return Info{}, fmt.Errorf("segment document: %w", err)
	}
	chunks := s.deps.Segmenter.Chunk(doc)

	next := &loaded{doc: doc, chunks: chunks, loadedAt: time.Now()}
	idx, err := s.buildIndex(ctx, chunks, progress)
	if err != nil {
		s.logger.Error("Index build failed, document loaded without search",
			zap.String("title", doc.Title),
			zap.Int("chunks", len(chunks)),
			zap.Error(err),
		)
		idx = index.Empty()
		next.degraded = true
	}
	next.idx = idx

	s.state = next
	s.history.Reset()
	metrics.IndexedChunks.Observe(float64(len(chunks)))

	s.logger.Info("Document loaded",
		zap.String("title", doc.Title),
		zap.Int("pages", doc.PageCount),
		zap.Int("sections", len(doc.Sections)),
		zap.Int("chunks", len(chunks)),
		zap.String("index", string(idx.Kind())),
	)
	return s.infoLocked(), nil
}

func (s *Session) buildIndex(ctx context.Context, chunks []domain.Chunk, progress domain.ProgressFunc) (index.Index, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := s.deps.Embedder.EmbedTexts(ctx, texts, progress)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}

	start := time.Now()
	idx, err := index.Build(vectors, s.opts.Index, progress)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	kind := string(idx.Kind())
	metrics.IndexBuildsTotal.WithLabelValues(kind).Inc()
	metrics.IndexBuildDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	return idx, nil
}

// Retrieve returns the top-k reranked chunks for query.
func (s *Session) Retrieve(ctx context.Context, query string) retrieval.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retrieveLocked(ctx, query)
}

func (s *Session) retrieveLocked(ctx context.Context, query string) retrieval.Outcome {
	out := s.search(ctx, query)
	metrics.SearchOutcomesTotal.WithLabelValues(string(out.Status)).Inc()
	if out.Status == retrieval.StatusFailed {
		s.logger.Warn("Retrieval failed", zap.Error(out.Err))
	}
	return out
}

func (s *Session) search(ctx context.Context, query string) retrieval.Outcome {
	if s.state == nil {
		return retrieval.Failed(domain.ErrNoDocument)
	}
	if strings.TrimSpace(query) == "" {
		return retrieval.Failed(domain.ErrEmptyQuery)
	}
	idx := s.state.idx
	if idx.Len() == 0 {
		return retrieval.Empty()
	}

	qv, err := s.deps.Embedder.EmbedQuery(ctx, query)
	if err != nil {
		return retrieval.Failed(fmt.Errorf("embed query: %w", err))
	}

	fetch := min(s.opts.TopK*s.opts.Oversample, idx.Len())
	hits, err := idx.Search(qv, fetch)
	if err != nil {
		return retrieval.Failed(fmt.Errorf("search index: %w", err))
	}

	candidates := make([]rank.Candidate, 0, len(hits))
	for _, h := range hits {
		candidates = append(candidates, rank.Candidate{Chunk: s.state.chunks[h.Position], Distance: h.Distance})
	}

	results := s.deps.Ranker.Rerank(candidates, query)
	if len(results) > s.opts.TopK {
		results = results[:s.opts.TopK]
	}
	return retrieval.Found(results)
}

// Answer is the reply to one query.
type Answer struct {
	Text    string
	Intent  string
	Sources []retrieval.Result
	// Failed is set when the generator failed and Text is an apology.
	Failed bool
}

// Ask answers query from the loaded document. Without a document it returns the fixed
// upload prompt and touches nothing. History is extended only when the generator succeeds.
func (s *Session) Ask(ctx context.Context, query string) (Answer, error) {
	if strings.TrimSpace(query) == "" {
		return Answer{}, domain.ErrEmptyQuery
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return Answer{Text: NoDocumentReply}, nil
	}

	prompt, ans := s.preparePrompt(ctx, query)

	start := time.Now()
	reply, err := s.deps.Generator.Generate(ctx, prompt)
	if err != nil {
		s.logger.Error("Answer generation failed", zap.String("intent", ans.Intent), zap.Error(err))
		ans.Text = Apology(err)
		ans.Failed = true
		return ans, nil
	}

	s.history.AppendExchange(query, reply)
	s.logger.Debug("Answer generated",
		zap.String("intent", ans.Intent),
		zap.Int("sources", len(ans.Sources)),
		zap.Duration("duration", time.Since(start)),
	)
	ans.Text = reply
	return ans, nil
}

// AskStream is Ask with incremental delivery. The session stays locked until the
// returned stream reaches io.EOF or is closed, so callers must always Close it.
func (s *Session) AskStream(ctx context.Context, query string) (*ReplyStream, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}

	s.mu.Lock()

	if s.state == nil {
		return newCannedStream(s, NoDocumentReply), nil
	}

	prompt, ans := s.preparePrompt(ctx, query)
	inner, err := s.deps.Generator.Stream(ctx, prompt)
	if err != nil {
		s.logger.Error("Answer stream failed to open", zap.String("intent", ans.Intent), zap.Error(err))
		rs := newCannedStream(s, Apology(err))
		rs.answer = ans
		rs.answer.Failed = true
		return rs, nil
	}
	return newReplyStream(s, query, inner, ans), nil
}

func (s *Session) preparePrompt(ctx context.Context, query string) (conversation.Prompt, Answer) {
	cat := s.deps.Classifier.Classify(query)
	metrics.QueryIntentsTotal.WithLabelValues(cat.Name).Inc()

	out := s.retrieveLocked(ctx, query)

	prompt := conversation.Prompt{
		System:  systemPrompt(s.infoLocked(), cat),
		History: s.history.Recent(s.opts.MaxTurns),
		Context: buildContext(cat.Name, out.Results),
		Query:   query,
	}
	return prompt, Answer{Intent: cat.Name, Sources: out.Results}
}

// History returns every recorded turn.
func (s *Session) History() []conversation.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.All()
}

// ClearHistory drops the conversation but keeps the document.
func (s *Session) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.Reset()
}

// Info returns a snapshot for presentation.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.infoLocked()
}
