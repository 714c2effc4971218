package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// SSE event names.
const (
	EventFragment = "fragment"
	EventDone     = "done"
)

// FragmentEvent carries one piece of a streamed answer.
type FragmentEvent struct {
	Text string `json:"text"`
}

// AskStream handles POST /sessions/{session}/query/stream. Fragments are sent as
// "fragment" events followed by a single "done" event carrying the full answer.
func (s *Server) AskStream(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	query, ok := decodeQuery(w, r)
	if !ok {
		return
	}

	stream, err := sess.AskStream(r.Context(), query)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	defer func() { _ = stream.Close() }()

	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for {
		if r.Context().Err() != nil {
			s.logger.Debug("Client went away mid-stream", zap.Error(r.Context().Err()))
			return
		}
		frag, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.logger.Error("answer stream", zap.Error(err))
			return
		}
		if err := writeSSE(w, EventFragment, FragmentEvent{Text: frag}); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	if err := writeSSE(w, EventDone, answerToResponse(stream.Answer())); err != nil {
		return
	}
	if flusher != nil {
		flusher.Flush()
	}
}

func writeSSE(w io.Writer, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event, err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return fmt.Errorf("write %s event: %w", event, err)
	}
	return nil
}
