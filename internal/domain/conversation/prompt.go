package conversation

import "context"

// Prompt is everything the answer generator receives for one query.
type Prompt struct {
	System  string
	History []Turn
	Context string
	Query   string
}

// Generator produces an answer for a prompt.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
	Stream(ctx context.Context, p Prompt) (FragmentStream, error)
}

// FragmentStream yields answer fragments in order. Recv returns io.EOF after the last
// fragment. A stream cannot be restarted; Close releases it early.
type FragmentStream interface {
	Recv() (string, error)
	Close() error
}
