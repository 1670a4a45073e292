package chat

import (
	"html/template"
	"time"

	"github.com/krishimitra/krishi-mitra/backend/internal/model/chat"
	"github.com/krishimitra/krishi-mitra/backend/internal/render"
)

// TurnView is a transcript turn with display-ready markup.
type TurnView struct {
	Role chat.Role     `json:"role"`
	Text string        `json:"text"`
	HTML template.HTML `json:"html"`
}

// SessionView is the wire form of a session snapshot.
type SessionView struct {
	SessionID  string     `json:"sessionId"`
	PersonaID  string     `json:"personaId"`
	Title      string     `json:"title"`
	State      chat.State `json:"state"`
	Busy       bool       `json:"busy"`
	Transcript []TurnView `json:"transcript"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Present renders every turn of snap. Model turns go through the markdown
// renderer; user turns are escaped only.
func Present(snap chat.Snapshot) SessionView {
	turns := make([]TurnView, 0, len(snap.Transcript))
	for _, turn := range snap.Transcript {
		html := render.Plain(turn.Text)
		if turn.Role == chat.RoleModel {
			html = render.Markdown(turn.Text)
		}
		turns = append(turns, TurnView{Role: turn.Role, Text: turn.Text, HTML: html})
	}

	return SessionView{
		SessionID:  snap.SessionID,
		PersonaID:  snap.PersonaID,
		Title:      snap.Title,
		State:      snap.State,
		Busy:       snap.State.Busy(),
		Transcript: turns,
		CreatedAt:  snap.CreatedAt,
	}
}
