// Package segment turns extracted page text into a sectioned document and then into
// overlapping, section-tagged chunks.
package segment

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
)

const (
	// DefaultChunkSize is the maximum chunk length in characters.
	DefaultChunkSize = 1500
	// DefaultChunkOverlap is the number of characters carried over between chunks.
	DefaultChunkOverlap = 300
)

// Config holds segmentation settings.
type Config struct {
	ChunkSize           int
	ChunkOverlap        int
	ExtraHeaderPatterns []PatternSpec
}

// Segmenter cleans pages, detects sections and cuts chunks.
type Segmenter struct {
	rules    []HeaderRule
	splitter *Splitter
	logger   *zap.Logger
}

// New creates a Segmenter. Header patterns that fail to compile are logged and skipped.
func New(cfg Config, logger *zap.Logger) *Segmenter {
	if logger == nil {
		logger = zap.NewNop()
	}

	rules := make([]HeaderRule, 0, len(builtinPatterns)+1+len(cfg.ExtraHeaderPatterns))
	for _, p := range builtinPatterns {
		rule, err := NewPatternRule(p.spec, p.shortOnly)
		if err != nil {
			logger.Warn("Skipping header rule", zap.String("rule", p.spec.Name), zap.Error(err))
			continue
		}
		rules = append(rules, rule)
	}
	rules = append(rules, leadInRule)
	for _, p := range cfg.ExtraHeaderPatterns {
		rule, err := NewPatternRule(p, true)
		if err != nil {
			logger.Warn("Skipping header rule", zap.String("rule", p.Name), zap.Error(err))
			continue
		}
		rules = append(rules, rule)
	}

	return &Segmenter{
		rules:    rules,
		splitter: NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		logger:   logger,
	}
}

// Rules returns the active header rule names in evaluation order.
func (s *Segmenter) Rules() []string {
	names := make([]string, len(s.rules))
	for i, r := range s.rules {
		names[i] = r.Name
	}
	return names
}

// Segment cleans every page and detects sections over the concatenated text.
// Empty pages keep their slot. Pages that are not valid UTF-8 make the whole
// document malformed.
func (s *Segmenter) Segment(raw domain.RawDocument) (domain.Document, error) {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		title = domain.UnknownTitle
	}

	pages := make([]domain.Page, len(raw.Pages))
	texts := make([]string, 0, len(raw.Pages))
	for i, text := range raw.Pages {
		if !utf8.ValidString(text) {
			return domain.Document{}, fmt.Errorf("page %d is not valid UTF-8: %w", i+1, domain.ErrMalformedDocument)
		}
		cleaned := CleanPage(text)
		pages[i] = domain.Page{
			Number:    i + 1,
			Text:      cleaned,
			WordCount: domain.WordCount(cleaned),
		}
		if cleaned != "" {
			texts = append(texts, cleaned)
		}
	}

	fullText := strings.Join(texts, "\n\n")
	sections := s.detectSections(fullText)

	s.logger.Debug("Document segmented",
		zap.String("title", title),
		zap.Int("pages", len(pages)),
		zap.Int("sections", len(sections)),
	)

	return domain.Document{
		Title:     title,
		PageCount: len(pages),
		FullText:  fullText,
		Pages:     pages,
		Sections:  sections,
	}, nil
}

// detectSections scans text line by line. A header closes the current section and
// opens a new one. Text before the first header becomes a leading General section.
// No headers at all yields no sections.
func (s *Segmenter) detectSections(text string) []domain.Section {
	lines := strings.Split(text, "\n")

	var (
		sections []domain.Section
		body     []string
		title    string
		open     bool
	)
	emit := func(t string) {
		content := strings.TrimSpace(strings.Join(body, "\n"))
		sections = append(sections, domain.Section{
			Title:     t,
			Content:   content,
			WordCount: domain.WordCount(content),
		})
	}

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			if len(body) > 0 && body[len(body)-1] != "" {
				body = append(body, "")
			}
			continue
		}

		l := Line{
			Text:       line,
			BreakAfter: i+1 < len(lines) && strings.TrimSpace(lines[i+1]) == "",
		}
		header, ok := s.matchHeader(l)
		if !ok {
			body = append(body, line)
			continue
		}

		switch {
		case open:
			emit(title)
		case strings.TrimSpace(strings.Join(body, "\n")) != "":
			emit(domain.GeneralSection)
		}
		title = header
		open = true
		body = nil
	}

	if open {
		emit(title)
	}
	return sections
}

func (s *Segmenter) matchHeader(l Line) (string, bool) {
	for _, rule := range s.rules {
		if title, ok := rule.Match(l); ok {
			return title, true
		}
	}
	return "", false
}
