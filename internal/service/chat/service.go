package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/krishimitra/krishi-mitra/backend/internal/model/chat"
	"github.com/krishimitra/krishi-mitra/backend/internal/model/persona"
	"github.com/krishimitra/krishi-mitra/backend/internal/service/ai"
)

// Service owns the running controllers, keyed by session id.
type Service struct {
	backend  ai.Backend
	personas persona.Store

	mu          sync.RWMutex
	controllers map[string]*Controller
}

// NewService shares one long-lived backend across every session it opens.
func NewService(backend ai.Backend, personas persona.Store) *Service {
	return &Service{
		backend:     backend,
		personas:    personas,
		controllers: make(map[string]*Controller),
	}
}

// Open starts a controller for personaID and requests its opening turn.
// Unknown personas yield persona.ErrNotFound and no session.
func (s *Service) Open(ctx context.Context, personaID string) (*Controller, error) {
	p, err := persona.Lookup(s.personas, personaID)
	if err != nil {
		return nil, err
	}

	ctrl := NewController(uuid.NewString(), s.backend, p)

	s.mu.Lock()
	s.controllers[ctrl.ID()] = ctrl
	s.mu.Unlock()

	ctrl.Start(ctx)
	return ctrl, nil
}

// Get returns the controller for sessionID.
func (s *Service) Get(sessionID string) (*Controller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ctrl, ok := s.controllers[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return ctrl, nil
}

// SubmitUserText forwards text to the session without waiting for the reply.
// The bool reports whether the text was accepted.
func (s *Service) SubmitUserText(ctx context.Context, sessionID, text string) (bool, error) {
	ctrl, err := s.Get(sessionID)
	if err != nil {
		return false, err
	}
	return ctrl.Submit(ctx, text), nil
}

// Transcript returns the current transcript of sessionID.
func (s *Service) Transcript(sessionID string) ([]chat.Turn, error) {
	ctrl, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return ctrl.Transcript(), nil
}

// State returns the request state of sessionID.
func (s *Service) State(sessionID string) (chat.State, error) {
	ctrl, err := s.Get(sessionID)
	if err != nil {
		return "", err
	}
	return ctrl.State(), nil
}

// Close discards the session. Nothing is persisted.
func (s *Service) Close(sessionID string) error {
	s.mu.Lock()
	ctrl, ok := s.controllers[sessionID]
	delete(s.controllers, sessionID)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	ctrl.Close()
	return nil
}
