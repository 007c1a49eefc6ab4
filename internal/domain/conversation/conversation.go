// Package conversation holds the bounded per-session dialogue history.
package conversation

import "fmt"

// DefaultMaxTurns is the history window when none is configured.
const DefaultMaxTurns = 10

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of the dialogue.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserTurn builds a user turn.
func UserTurn(content string) Turn { return Turn{Role: RoleUser, Content: content} }

// AssistantTurn builds an assistant turn.
func AssistantTurn(content string) Turn { return Turn{Role: RoleAssistant, Content: content} }

// History is an ordered window of turns. After every Append it holds at most maxTurns
// entries, the oldest dropped first. There is no other way to remove turns.
type History struct {
	maxTurns int
	turns    []Turn
}

// New creates an empty history. maxTurns <= 0 means DefaultMaxTurns.
func New(maxTurns int) *History {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &History{maxTurns: maxTurns}
}

// Restore rebuilds a history from persisted turns, enforcing the window.
func Restore(maxTurns int, turns []Turn) (*History, error) {
	h := New(maxTurns)
	for i, t := range turns {
		if t.Role != RoleUser && t.Role != RoleAssistant {
			return nil, fmt.Errorf("turn %d: unknown role %q", i, t.Role)
		}
		h.Append(t)
	}
	return h, nil
}

// Append adds a turn and trims the oldest entries beyond the window.
func (h *History) Append(t Turn) {
	h.turns = append(h.turns, t)
	if over := len(h.turns) - h.maxTurns; over > 0 {
		h.turns = append([]Turn(nil), h.turns[over:]...)
	}
}

// Turns returns a copy of the turns, oldest first.
func (h *History) Turns() []Turn {
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Len returns the number of turns held.
func (h *History) Len() int { return len(h.turns) }

// MaxTurns returns the window size.
func (h *History) MaxTurns() int { return h.maxTurns }
