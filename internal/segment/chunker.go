package segment

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/docqa/internal/domain"
)

// Chunk cuts the document into chunks. Sections are chunked in order; when they yield
// nothing the full text is chunked as a single General section.
// Chunk IDs are <section-title>_<seq> or general_<seq> and unique within the document:
// a repeated section title gets a " (n)" suffix in its ID base.
func (s *Segmenter) Chunk(doc domain.Document) []domain.Chunk {
	var chunks []domain.Chunk

	used := make(map[string]bool, len(doc.Sections))
	for _, sec := range doc.Sections {
		base := sec.Title
		for n := 2; used[base]; n++ {
			base = fmt.Sprintf("%s (%d)", sec.Title, n)
		}
		used[base] = true

		for i, text := range s.splitter.Split(sec.Content) {
			chunks = append(chunks, domain.Chunk{
				ID:        base + "_" + strconv.Itoa(i),
				Text:      text,
				Section:   sec.Title,
				Sequence:  i,
				WordCount: domain.WordCount(text),
				Kind:      domain.ChunkSection,
			})
		}
	}

	if len(chunks) > 0 {
		return chunks
	}

	prefix := strings.ToLower(domain.GeneralSection)
	for i, text := range s.splitter.Split(doc.FullText) {
		chunks = append(chunks, domain.Chunk{
			ID:        prefix + "_" + strconv.Itoa(i),
			Text:      text,
			Section:   domain.GeneralSection,
			Sequence:  i,
			WordCount: domain.WordCount(text),
			Kind:      domain.ChunkGeneral,
		})
	}
	return chunks
}
