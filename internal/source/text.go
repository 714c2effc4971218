// Package source extracts page text from uploaded files.
package source

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/docqa/internal/domain"
)

// PageBreak separates pages in plain-text input, as emitted by pdftotext.
const PageBreak = "\f"

// TextSource reads UTF-8 text where pages are separated by form feeds.
type TextSource struct{}

// NewTextSource creates a plain-text document source.
func NewTextSource() *TextSource {
	return &TextSource{}
}

// Extract splits data into pages. A trailing form feed does not create an extra page.
// An empty title falls back to domain.UnknownTitle.
func (TextSource) Extract(data []byte, title string) (domain.RawDocument, error) {
	if !utf8.Valid(data) {
		return domain.RawDocument{}, fmt.Errorf("text is not valid UTF-8: %w", domain.ErrMalformedDocument)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.TrimSuffix(text, PageBreak)

	title = strings.TrimSpace(title)
	if title == "" {
		title = domain.UnknownTitle
	}

	var pages []string
	if strings.TrimSpace(text) != "" {
		pages = strings.Split(text, PageBreak)
	}
	return domain.RawDocument{Title: title, Pages: pages}, nil
}

// TitleFromFilename strips directories and the extension from name.
func TitleFromFilename(name string) string {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
