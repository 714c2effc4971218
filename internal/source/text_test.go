package source

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/docqa/internal/domain"
)

func TestExtract_Pages(t *testing.T) {
	raw, err := NewTextSource().Extract([]byte("page one\r\nline\fpage two\f"), "Manual")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw.Title != "Manual" {
		t.Errorf("unexpected title %q", raw.Title)
	}
	if len(raw.Pages) != 2 || raw.Pages[0] != "page one\nline" || raw.Pages[1] != "page two" {
		t.Errorf("unexpected pages: %q", raw.Pages)
	}
}

func TestExtract_EmptyPageKeepsSlot(t *testing.T) {
	raw, _ := NewTextSource().Extract([]byte("a\f\fc"), "x")
	if len(raw.Pages) != 3 || raw.Pages[1] != "" {
		t.Errorf("unexpected pages: %q", raw.Pages)
	}
}

func TestExtract_UnknownTitle(t *testing.T) {
	raw, _ := NewTextSource().Extract([]byte("text"), "  ")
	if raw.Title != domain.UnknownTitle {
		t.Errorf("expected %q, got %q", domain.UnknownTitle, raw.Title)
	}
}

func TestExtract_EmptyInput(t *testing.T) {
	raw, err := NewTextSource().Extract(nil, "x")
	if err != nil || len(raw.Pages) != 0 {
		t.Errorf("expected no pages, got %q, %v", raw.Pages, err)
	}
}

func TestExtract_InvalidUTF8(t *testing.T) {
	_, err := NewTextSource().Extract([]byte{0xff, 0xfe, 'a'}, "x")
	if !errors.Is(err, domain.ErrMalformedDocument) {
		t.Fatalf("expected ErrMalformedDocument, got %v", err)
	}
}

func TestTitleFromFilename(t *testing.T) {
	tests := map[string]string{
		"docs/user-guide.txt": "user-guide",
		"README":              "README",
		"":                    "",
	}
	for in, want := range tests {
		if got := TitleFromFilename(in); got != want {
			t.Errorf("TitleFromFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
