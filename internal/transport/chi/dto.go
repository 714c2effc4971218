package chi

import (
	"time"

	"github.com/kailas-cloud/docqa/internal/domain/conversation"
	"github.com/kailas-cloud/docqa/internal/domain/retrieval"
	"github.com/kailas-cloud/docqa/internal/usecase/session"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string            `json:"status"`
	Checks   map[string]string `json:"checks"`
	Sessions int               `json:"sessions"`
}

// DocumentInfo describes the loaded document.
type DocumentInfo struct {
	Title        string    `json:"title"`
	PageCount    int       `json:"page_count"`
	SectionCount int       `json:"section_count"`
	Sections     []string  `json:"sections"`
	ChunkCount   int       `json:"chunk_count"`
	IndexKind    string    `json:"index_kind"`
	Degraded     bool      `json:"degraded"`
	LoadedAt     time.Time `json:"loaded_at"`
}

// SessionResponse describes a session.
type SessionResponse struct {
	ID           string        `json:"id"`
	CreatedAt    time.Time     `json:"created_at"`
	Document     *DocumentInfo `json:"document,omitempty"`
	HistoryTurns int           `json:"history_turns"`
}

// SessionListResponse is the body of GET /sessions.
type SessionListResponse struct {
	Items []string `json:"items"`
}

// AskRequest is the body of the query endpoints.
type AskRequest struct {
	Query string `json:"query"`
}

// SourceItem is one retrieved chunk backing an answer.
type SourceItem struct {
	ChunkID      string  `json:"chunk_id"`
	Section      string  `json:"section"`
	Text         string  `json:"text"`
	Rank         int     `json:"rank"`
	SearchRank   int     `json:"search_rank"`
	Similarity   float64 `json:"similarity"`
	KeywordScore float64 `json:"keyword_score"`
	SectionScore float64 `json:"section_score"`
	FinalScore   float64 `json:"final_score"`
}

// AnswerResponse is the body of POST /sessions/{session}/query.
type AnswerResponse struct {
	Answer  string       `json:"answer"`
	Intent  string       `json:"intent,omitempty"`
	Failed  bool         `json:"failed"`
	Sources []SourceItem `json:"sources"`
}

// HistoryResponse is the body of GET /sessions/{session}/history.
type HistoryResponse struct {
	Turns []conversation.Turn `json:"turns"`
}

func sessionToResponse(info session.Info) SessionResponse {
	resp := SessionResponse{
		ID:           info.ID,
		CreatedAt:    info.CreatedAt,
		HistoryTurns: info.HistoryTurns,
	}
	if info.HasDocument {
		resp.Document = &DocumentInfo{
			Title:        info.Title,
			PageCount:    info.PageCount,
			SectionCount: info.SectionCount,
			Sections:     info.Sections,
			ChunkCount:   info.ChunkCount,
			IndexKind:    info.IndexKind,
			Degraded:     info.Degraded,
			LoadedAt:     info.LoadedAt,
		}
	}
	return resp
}

func answerToResponse(ans session.Answer) AnswerResponse {
	return AnswerResponse{
		Answer:  ans.Text,
		Intent:  ans.Intent,
		Failed:  ans.Failed,
		Sources: sourcesToResponse(ans.Sources),
	}
}

func sourcesToResponse(results []retrieval.Result) []SourceItem {
	items := make([]SourceItem, len(results))
	for i := range results {
		r := &results[i]
		c := r.Chunk()
		items[i] = SourceItem{
			ChunkID:      c.ID,
			Section:      c.Section,
			Text:         c.Text,
			Rank:         r.Rank(),
			SearchRank:   r.SearchRank(),
			Similarity:   r.Similarity(),
			KeywordScore: r.KeywordScore(),
			SectionScore: r.SectionScore(),
			FinalScore:   r.FinalScore(),
		}
	}
	return items
}
