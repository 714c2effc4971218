package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/config"
	"github.com/kailas-cloud/docqa/internal/domain/conversation"
	"github.com/kailas-cloud/docqa/internal/usecase/session"
)

// --- Mocks ---

type stubGenerator struct {
	fragments []string
	prompts   []conversation.Prompt
}

func (g *stubGenerator) Generate(_ context.Context, p conversation.Prompt) (string, error) {
	g.prompts = append(g.prompts, p)
	return strings.Join(g.fragments, ""), nil
}

func (g *stubGenerator) Stream(_ context.Context, p conversation.Prompt) (conversation.FragmentStream, error) {
	g.prompts = append(g.prompts, p)
	return &stubStream{fragments: append([]string(nil), g.fragments...)}, nil
}

type stubStream struct {
	fragments []string
}

func (s *stubStream) Recv() (string, error) {
	if len(s.fragments) == 0 {
		return "", io.EOF
	}
	f := s.fragments[0]
	s.fragments = s.fragments[1:]
	return f, nil
}

func (s *stubStream) Close() error { return nil }

// --- Helpers ---

const manual = "# Installation\nInstall the server with the package manager and start the service.\n\n" +
	"# Configuration\nSet the port option in the config file.\f" +
	"# Troubleshooting\nCheck the logs when the service fails to start."

func defaultConfig() config.Config {
	var cfg config.Config
	cfg.ApplyDefaults()
	return cfg
}

func newTestApp(t *testing.T, gen *stubGenerator) *app {
	t.Helper()
	a, err := buildApp(context.Background(), defaultConfig(), gen, zap.NewNop())
	if err != nil {
		t.Fatalf("buildApp: %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func writeManual(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server-manual.txt")
	if err := os.WriteFile(path, []byte(manual), 0o600); err != nil {
		t.Fatalf("write manual: %v", err)
	}
	return path
}

func loadedSession(t *testing.T, gen *stubGenerator) *session.Session {
	t.Helper()
	sess := newTestApp(t, gen).manager.Create()
	var log bytes.Buffer
	if err := loadDocument(context.Background(), &log, sess, writeManual(t), ""); err != nil {
		t.Fatalf("loadDocument: %v", err)
	}
	return sess
}

// --- Tests ---

func TestBuildApp_LocalProvider(t *testing.T) {
	a := newTestApp(t, &stubGenerator{})
	if a.store != nil {
		t.Error("cache must not be connected when disabled")
	}
	report := a.health.Check(context.Background())
	if report.Status != "ok" {
		t.Errorf("expected healthy report, got %+v", report)
	}
}

func TestLoadDocument(t *testing.T) {
	sess := newTestApp(t, &stubGenerator{}).manager.Create()
	var out bytes.Buffer

	if err := loadDocument(context.Background(), &out, sess, writeManual(t), ""); err != nil {
		t.Fatalf("loadDocument: %v", err)
	}

	info := sess.Info()
	if info.Title != "server-manual" {
		t.Errorf("expected title from file name, got %q", info.Title)
	}
	if info.PageCount != 2 || info.SectionCount != 3 {
		t.Errorf("unexpected info %+v", info)
	}
	if !strings.Contains(out.String(), `Loaded "server-manual"`) {
		t.Errorf("expected summary line, got %q", out.String())
	}
}

func TestLoadDocument_TitleFlag(t *testing.T) {
	sess := newTestApp(t, &stubGenerator{}).manager.Create()
	if err := loadDocument(context.Background(), io.Discard, sess, writeManual(t), "Admin Guide"); err != nil {
		t.Fatalf("loadDocument: %v", err)
	}
	if got := sess.Info().Title; got != "Admin Guide" {
		t.Errorf("expected title %q, got %q", "Admin Guide", got)
	}
}

func TestLoadDocument_MissingFile(t *testing.T) {
	sess := newTestApp(t, &stubGenerator{}).manager.Create()
	err := loadDocument(context.Background(), io.Discard, sess, filepath.Join(t.TempDir(), "nope.txt"), "")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if sess.Info().HasDocument {
		t.Error("session must stay empty")
	}
}

func TestAskOnce(t *testing.T) {
	gen := &stubGenerator{fragments: []string{"Set the ", "port option."}}
	sess := loadedSession(t, gen)
	var out bytes.Buffer

	if err := askOnce(context.Background(), &out, sess, "Which port do I configure?", true); err != nil {
		t.Fatalf("askOnce: %v", err)
	}

	got := out.String()
	if !strings.HasPrefix(got, "Set the port option.\n") {
		t.Errorf("unexpected output %q", got)
	}
	if !strings.Contains(got, "Sources (") {
		t.Errorf("expected sources listing, got %q", got)
	}
	if turns := len(sess.History()); turns != 2 {
		t.Errorf("expected 2 turns, got %d", turns)
	}
}

func TestInteractive(t *testing.T) {
	gen := &stubGenerator{fragments: []string{"Check the logs."}}
	sess := loadedSession(t, gen)
	in := strings.NewReader("Why does it fail?\n\n:info\n:clear\n:quit\nnever asked\n")
	var out bytes.Buffer

	if err := interactive(context.Background(), in, &out, sess, false); err != nil {
		t.Fatalf("interactive: %v", err)
	}

	got := out.String()
	for _, want := range []string{"Check the logs.", "Title:    server-manual", "History cleared."} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if len(gen.prompts) != 1 {
		t.Errorf("expected 1 generator call, got %d", len(gen.prompts))
	}
	if turns := len(sess.History()); turns != 0 {
		t.Errorf("expected cleared history, got %d turns", turns)
	}
}

func TestInteractive_EOF(t *testing.T) {
	sess := loadedSession(t, &stubGenerator{})
	if err := interactive(context.Background(), strings.NewReader(""), io.Discard, sess, false); err != nil {
		t.Fatalf("interactive: %v", err)
	}
}

func TestLoadEnvFile(t *testing.T) {
	if err := loadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing env file must be ignored, got %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("DOCQA_TEST_KEY=from-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DOCQA_TEST_KEY", "")
	os.Unsetenv("DOCQA_TEST_KEY")

	if err := loadEnvFile(path); err != nil {
		t.Fatalf("loadEnvFile: %v", err)
	}
	if got := os.Getenv("DOCQA_TEST_KEY"); got != "from-dotenv" {
		t.Errorf("expected value from .env, got %q", got)
	}
}
