package session

import (
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain/conversation"
)

// ReplyStream delivers an answer fragment by fragment. It is finite and cannot be
// restarted. History is extended once, when the generator stream ends cleanly. A
// generator error mid-stream is turned into a final apology fragment.
type ReplyStream struct {
	s      *Session
	query  string
	inner  conversation.FragmentStream
	canned []string
	answer Answer
	sb     strings.Builder
	done   bool
}

func newReplyStream(s *Session, query string, inner conversation.FragmentStream, ans Answer) *ReplyStream {
	return &ReplyStream{s: s, query: query, inner: inner, answer: ans}
}

func newCannedStream(s *Session, text string) *ReplyStream {
	return &ReplyStream{s: s, canned: []string{text}, answer: Answer{Text: text}}
}

// Recv returns the next fragment, or io.EOF after the last one.
func (r *ReplyStream) Recv() (string, error) {
	if r.done {
		return "", io.EOF
	}

	if r.inner == nil {
		if len(r.canned) == 0 {
			r.finish(false)
			return "", io.EOF
		}
		frag := r.canned[0]
		r.canned = r.canned[1:]
		return frag, nil
	}

	frag, err := r.inner.Recv()
	if errors.Is(err, io.EOF) {
		r.answer.Text = r.sb.String()
		r.closeInner()
		r.finish(true)
		return "", io.EOF
	}
	if err != nil {
		r.s.logger.Error("Answer stream failed", zap.String("intent", r.answer.Intent), zap.Error(err))
		r.closeInner()
		apology := Apology(err)
		r.answer.Text = apology
		r.answer.Failed = true
		r.canned = []string{apology}
		return r.Recv()
	}

	r.sb.WriteString(frag)
	return frag, nil
}

// Answer returns the reply metadata. Text is complete only after Recv returned io.EOF.
func (r *ReplyStream) Answer() Answer { return r.answer }

// Close releases the stream and the session. An unfinished answer is not recorded.
func (r *ReplyStream) Close() error {
	if r.done {
		return nil
	}
	r.closeInner()
	r.finish(false)
	return nil
}

func (r *ReplyStream) closeInner() {
	if r.inner == nil {
		return
	}
	if err := r.inner.Close(); err != nil {
		r.s.logger.Debug("Closing generator stream", zap.Error(err))
	}
	r.inner = nil
}

func (r *ReplyStream) finish(record bool) {
	r.done = true
	if record {
		r.s.history.AppendExchange(r.query, r.answer.Text)
	}
	r.s.mu.Unlock()
}
