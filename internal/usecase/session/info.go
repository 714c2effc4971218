package session

import "time"

// Info describes the session state for display.
type Info struct {
	ID           string
	CreatedAt    time.Time
	HasDocument  bool
	Title        string
	PageCount    int
	SectionCount int
	Sections     []string
	ChunkCount   int
	IndexKind    string
	Degraded     bool
	LoadedAt     time.Time
	HistoryTurns int
}

func (s *Session) infoLocked() Info {
	info := Info{
		ID:           s.id,
		CreatedAt:    s.createdAt,
		HistoryTurns: s.history.Len(),
	}
	if s.state == nil {
		return info
	}

	doc := s.state.doc
	sections := make([]string, len(doc.Sections))
	for i, sec := range doc.Sections {
		sections[i] = sec.Title
	}

	info.HasDocument = true
	info.Title = doc.Title
	info.PageCount = doc.PageCount
	info.SectionCount = len(doc.Sections)
	info.Sections = sections
	info.ChunkCount = len(s.state.chunks)
	info.IndexKind = string(s.state.idx.Kind())
	info.Degraded = s.state.degraded
	info.LoadedAt = s.state.loadedAt
	return info
}
