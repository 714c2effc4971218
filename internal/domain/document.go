package domain

import "strings"

// UnknownTitle is used when the document source supplies no title.
const UnknownTitle = "Unknown"

// GeneralSection is the implicit section title for text outside any detected header.
const GeneralSection = "General"

// ChunkKind tells whether a chunk came from a detected section or the whole-document fallback.
type ChunkKind string

const (
	// ChunkSection is a chunk cut from a detected section.
	ChunkSection ChunkKind = "section"
	// ChunkGeneral is a chunk cut from the whole document when no sections were found.
	ChunkGeneral ChunkKind = "general"
)

// RawDocument is what a document source hands to the segmenter: page texts plus a title.
type RawDocument struct {
	Title string
	Pages []string
}

// Document is a segmented document. Immutable once built.
type Document struct {
	Title     string
	PageCount int
	FullText  string
	Pages     []Page
	Sections  []Section
}

// Page is a single cleaned page.
type Page struct {
	Number    int // 1-based
	Text      string
	WordCount int
}

// Section is a contiguous titled span of the document.
type Section struct {
	Title     string
	Content   string
	WordCount int
}

// Chunk is the atomic retrieval unit.
type Chunk struct {
	ID        string
	Text      string
	Section   string
	Sequence  int
	WordCount int
	Kind      ChunkKind
}

// WordCount counts whitespace-separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
