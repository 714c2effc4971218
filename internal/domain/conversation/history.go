package conversation

// Role is the speaker of a turn.
type Role string

const (
	// RoleUser is a user query.
	RoleUser Role = "user"
	// RoleAssistant is a generated answer.
	RoleAssistant Role = "assistant"
)

// Turn is one message in the conversation.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// History is the ordered list of turns for one document session.
// It is not safe for concurrent use; the owning session serialises access.
type History struct {
	turns []Turn
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{}
}

// AppendExchange records a completed question/answer pair.
func (h *History) AppendExchange(query, reply string) {
	h.turns = append(h.turns,
		Turn{Role: RoleUser, Text: query},
		Turn{Role: RoleAssistant, Text: reply},
	)
}

// Recent returns a copy of at most n trailing turns. n <= 0 returns nil.
func (h *History) Recent(n int) []Turn {
	if n <= 0 || len(h.turns) == 0 {
		return nil
	}
	start := max(len(h.turns)-n, 0)
	out := make([]Turn, len(h.turns)-start)
	copy(out, h.turns[start:])
	return out
}

// All returns a copy of every turn.
func (h *History) All() []Turn {
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Len returns the number of turns.
func (h *History) Len() int { return len(h.turns) }

// Reset drops all turns.
func (h *History) Reset() { h.turns = nil }
