package chat

import "time"

// State is the request lifecycle state of a conversation.
type State string

const (
	StateIdle                State = "idle"
	StateAwaitingOpeningTurn State = "awaiting_opening_turn"
	StateAwaitingResponse    State = "awaiting_response"
)

// Busy reports whether a backend request is outstanding.
func (s State) Busy() bool {
	return s == StateAwaitingOpeningTurn || s == StateAwaitingResponse
}

// Snapshot is a point-in-time view of a conversation for presentation.
type Snapshot struct {
	SessionID  string    `json:"sessionId"`
	PersonaID  string    `json:"personaId"`
	Title      string    `json:"title"`
	State      State     `json:"state"`
	Transcript []Turn    `json:"transcript"`
	CreatedAt  time.Time `json:"createdAt"`
}
