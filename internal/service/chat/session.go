package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/krishimitra/krishi-mitra/backend/internal/model/chat"
	"github.com/krishimitra/krishi-mitra/backend/internal/model/persona"
	"github.com/krishimitra/krishi-mitra/backend/internal/service/ai"
)

// BootstrapMessage is sent once when a session opens so that the persona's
// system instruction alone decides the greeting.
const BootstrapMessage = "Hello"

var (
	ErrEmptyInput      = errors.New("empty input")
	ErrBusy            = errors.New("session busy")
	ErrSessionNotFound = errors.New("session not found")
)

// Session is one dialogue with a persona. The transcript exists for rendering;
// context is carried by the backend conversation handle.
type Session struct {
	persona persona.Persona

	mu         sync.Mutex
	conv       ai.Conversation
	busy       bool
	transcript []chat.Turn
}

// Open creates a conversation for p and requests its opening turn.
func Open(ctx context.Context, backend ai.Backend, p persona.Persona) (*Session, error) {
	s := newSession(p)
	if err := s.open(ctx, backend); err != nil {
		return nil, err
	}
	return s, nil
}

func newSession(p persona.Persona) *Session {
	return &Session{persona: p, transcript: make([]chat.Turn, 0, 16)}
}

func (s *Session) open(ctx context.Context, backend ai.Backend) error {
	if backend == nil {
		return fmt.Errorf("%w: no backend configured", ai.ErrBackendUnavailable)
	}

	s.mu.Lock()
	s.busy = true
	s.mu.Unlock()
	defer s.release()

	conv, err := backend.OpenConversation(ctx, s.persona.SystemInstruction)
	if err != nil {
		return backendError(err)
	}

	s.mu.Lock()
	s.conv = conv
	s.mu.Unlock()

	text, err := conv.Continue(ctx, BootstrapMessage)
	if err != nil {
		return backendError(err)
	}

	s.appendTurn(chat.ModelTurn(text))
	return nil
}

// Persona returns the persona the session is bound to.
func (s *Session) Persona() persona.Persona {
	return s.persona
}

// Send appends a user turn, forwards it through the conversation handle and
// appends the model reply.
func (s *Session) Send(ctx context.Context, text string) (chat.Turn, error) {
	if err := s.begin(text); err != nil {
		return chat.Turn{}, err
	}
	return s.complete(ctx, text)
}

// begin validates text, marks the session busy and appends the user turn.
func (s *Session) begin(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	s.busy = true
	s.transcript = append(s.transcript, chat.UserTurn(text))
	return nil
}

// complete performs the backend call for a turn started with begin.
func (s *Session) complete(ctx context.Context, text string) (chat.Turn, error) {
	defer s.release()

	s.mu.Lock()
	conv := s.conv
	s.mu.Unlock()
	if conv == nil {
		return chat.Turn{}, fmt.Errorf("%w: conversation was never opened", ai.ErrBackendUnavailable)
	}

	reply, err := conv.Continue(ctx, text)
	if err != nil {
		return chat.Turn{}, backendError(err)
	}

	turn := chat.ModelTurn(reply)
	s.appendTurn(turn)
	return turn, nil
}

func (s *Session) release() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

func (s *Session) appendTurn(turn chat.Turn) {
	s.mu.Lock()
	s.transcript = append(s.transcript, turn)
	s.mu.Unlock()
}

// Transcript returns a copy of the turns so far.
func (s *Session) Transcript() []chat.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]chat.Turn(nil), s.transcript...)
}

func backendError(err error) error {
	if errors.Is(err, ai.ErrBackendUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ai.ErrBackendUnavailable, err)
}
