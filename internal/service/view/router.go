// Package view selects which conversation, if any, is on screen.
package view

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/krishimitra/krishi-mitra/backend/internal/model/feature"
	"github.com/krishimitra/krishi-mitra/backend/internal/model/persona"
	"github.com/krishimitra/krishi-mitra/backend/internal/service/chat"
)

// Kind names the screen a View shows.
type Kind string

const (
	KindHome    Kind = "home"
	KindChat    Kind = "chat"
	KindDisease Kind = "disease"
	KindFeature Kind = "feature"
)

const (
	homeTitle    = "Krishi Mitra"
	diseaseTitle = "AI Disease Detection"
)

// Request is a navigation target. The set of variants is closed.
type Request interface {
	isRequest()
}

// Home is the feature catalog.
type Home struct{}

// Chat opens the general assistant.
type Chat struct{}

// Disease opens the image diagnosis screen.
type Disease struct{}

// Feature opens the persona-bound conversation with ID.
type Feature struct {
	ID string
}

func (Home) isRequest()    {}
func (Chat) isRequest()    {}
func (Disease) isRequest() {}
func (Feature) isRequest() {}

// FromFeatureID maps a catalog id to its request.
func FromFeatureID(id string) Request {
	switch feature.KindOf(id) {
	case feature.KindChat:
		return Chat{}
	case feature.KindDisease:
		return Disease{}
	default:
		return Feature{ID: id}
	}
}

// View is the active screen. Controller is nil for Home and Disease.
type View struct {
	Kind       Kind
	Title      string
	Controller *chat.Controller
}

// Sessions opens and discards conversations.
type Sessions interface {
	Open(ctx context.Context, personaID string) (*chat.Controller, error)
	Close(sessionID string) error
}

// Router keeps at most one conversation alive at a time.
type Router struct {
	sessions Sessions

	mu     sync.Mutex
	active View
}

// NewRouter starts on the home screen.
func NewRouter(sessions Sessions) *Router {
	return &Router{sessions: sessions, active: View{Kind: KindHome, Title: homeTitle}}
}

// Activate switches to req. The previous conversation is discarded once the
// new view is ready. An unknown feature leaves the current view in place and
// returns an error wrapping persona.ErrNotFound.
func (r *Router) Activate(ctx context.Context, req Request) (View, error) {
	var (
		next      View
		personaID string
	)
	switch req := req.(type) {
	case Home:
		next = View{Kind: KindHome, Title: homeTitle}
	case Disease:
		next = View{Kind: KindDisease, Title: diseaseTitle}
	case Chat:
		next = View{Kind: KindChat}
		personaID = persona.GeneralID
	case Feature:
		next = View{Kind: KindFeature}
		personaID = req.ID
	default:
		return View{}, fmt.Errorf("unknown view request %T", req)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if personaID != "" {
		ctrl, err := r.sessions.Open(ctx, personaID)
		if err != nil {
			return View{}, fmt.Errorf("feature %q unavailable: %w", personaID, err)
		}
		next.Controller = ctrl
		next.Title = ctrl.Persona().Title
	}

	r.discardLocked()
	r.active = next
	log.Printf("[view] activated kind=%s title=%q", next.Kind, next.Title)
	return next, nil
}

// Deactivate discards the active conversation and returns home.
func (r *Router) Deactivate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.discardLocked()
	r.active = View{Kind: KindHome, Title: homeTitle}
}

// Active returns the current view.
func (r *Router) Active() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

func (r *Router) discardLocked() {
	if r.active.Controller == nil {
		return
	}
	if err := r.sessions.Close(r.active.Controller.ID()); err != nil {
		log.Printf("[view] discard session %s: %v", r.active.Controller.ID(), err)
	}
	r.active.Controller = nil
}
