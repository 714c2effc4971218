package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/docqa/internal/domain"
	logpkg "github.com/kailas-cloud/docqa/internal/logger"
	"github.com/kailas-cloud/docqa/internal/source"
	"github.com/kailas-cloud/docqa/internal/usecase/session"
)

var (
	askTitle    string
	askSources  bool
	askCache    bool
	askLogLevel string
)

var askCmd = &cobra.Command{
	Use:   "ask <file> [question...]",
	Short: "Load a text document and ask questions about it",
	Long: `Loads a UTF-8 text file (pages separated by form feeds, as produced by pdftotext),
indexes it and answers the question given on the command line. Without a question
it starts an interactive prompt; type :info, :clear or :quit there.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askTitle, "title", "t", "", "document title (default: file name)")
	askCmd.Flags().BoolVarP(&askSources, "sources", "s", false, "print the sections each answer was drawn from")
	askCmd.Flags().BoolVar(&askCache, "cache", false, "use the configured embedding cache")
	askCmd.Flags().StringVar(&askLogLevel, "log-level", "", "log level on stderr (default: warn)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logpkg.NewLogger(logpkg.EnvCLI, askLogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg.Cache.Enabled = cfg.Cache.Enabled && askCache

	a, err := buildApp(ctx, cfg, nil, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	sess := a.manager.Create()
	if err := loadDocument(ctx, cmd.ErrOrStderr(), sess, args[0], askTitle); err != nil {
		return err
	}

	if len(args) > 1 {
		return askOnce(ctx, cmd.OutOrStdout(), sess, strings.Join(args[1:], " "), askSources)
	}
	return interactive(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), sess, askSources)
}

// loadDocument reads path into sess and prints a one-line summary to w.
func loadDocument(ctx context.Context, w io.Writer, sess *session.Session, path, title string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	if title == "" {
		title = source.TitleFromFilename(path)
	}

	raw, err := source.NewTextSource().Extract(data, title)
	if err != nil {
		return fmt.Errorf("extract %s: %w", path, err)
	}

	progress := func(p domain.Progress) {
		if p.Total > 0 {
			fmt.Fprintf(w, "\r%-9s %d/%d", p.Stage, p.Done, p.Total)
			if p.Done == p.Total {
				fmt.Fprintln(w)
			}
		}
	}

	info, err := sess.SetDocument(ctx, raw, progress)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}

	fmt.Fprintf(w, "Loaded %q: %d pages, %d sections, %d chunks (%s index)\n",
		info.Title, info.PageCount, info.SectionCount, info.ChunkCount, info.IndexKind)
	if info.Degraded {
		fmt.Fprintln(w, "Warning: embedding failed, answers will have no document context.")
	}
	return nil
}

// askOnce streams the answer to question onto w.
func askOnce(ctx context.Context, w io.Writer, sess *session.Session, question string, sources bool) error {
	stream, err := sess.AskStream(ctx, question)
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}
	defer func() { _ = stream.Close() }()

	for {
		frag, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read answer: %w", err)
		}
		fmt.Fprint(w, frag)
	}
	fmt.Fprintln(w)

	if sources {
		printSources(w, stream.Answer())
	}
	return nil
}

func printSources(w io.Writer, ans session.Answer) {
	if len(ans.Sources) == 0 {
		return
	}
	fmt.Fprintf(w, "\nSources (%s):\n", ans.Intent)
	for i := range ans.Sources {
		r := &ans.Sources[i]
		fmt.Fprintf(w, "  [%d] %s (%.2f)\n", r.Rank(), r.Chunk().Section, r.FinalScore())
	}
}

// interactive reads questions line by line until EOF or :quit.
func interactive(ctx context.Context, in io.Reader, w io.Writer, sess *session.Session, sources bool) error {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(w, "> ")
		if !sc.Scan() {
			fmt.Fprintln(w)
			break
		}
		line := strings.TrimSpace(sc.Text())

		switch line {
		case "":
			continue
		case ":quit", ":q", ":exit":
			return nil
		case ":clear":
			sess.ClearHistory()
			fmt.Fprintln(w, "History cleared.")
			continue
		case ":info":
			printInfo(w, sess.Info())
			continue
		}

		if err := askOnce(ctx, w, sess, line, sources); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

func printInfo(w io.Writer, info session.Info) {
	if !info.HasDocument {
		fmt.Fprintln(w, "No document loaded.")
		return
	}
	fmt.Fprintf(w, "Title:    %s\n", info.Title)
	fmt.Fprintf(w, "Pages:    %d\n", info.PageCount)
	fmt.Fprintf(w, "Chunks:   %d (%s index)\n", info.ChunkCount, info.IndexKind)
	fmt.Fprintf(w, "History:  %d turns\n", info.HistoryTurns)
	fmt.Fprintf(w, "Sections: %d\n", info.SectionCount)
	for _, s := range info.Sections {
		fmt.Fprintf(w, "  - %s\n", s)
	}
}
