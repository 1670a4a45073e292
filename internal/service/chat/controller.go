package chat

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/krishimitra/krishi-mitra/backend/internal/model/chat"
	"github.com/krishimitra/krishi-mitra/backend/internal/model/persona"
	"github.com/krishimitra/krishi-mitra/backend/internal/service/ai"
)

// ApologyText replaces a model turn whose backend call failed.
const ApologyText = "Sorry, I encountered an error. Please try again."

const subscriberBuffer = 4

// Controller drives one Session through its request lifecycle:
// Idle -> AwaitingOpeningTurn -> Idle -> (AwaitingResponse <-> Idle)*.
// At most one backend call is in flight; submissions while busy are dropped.
type Controller struct {
	id        string
	backend   ai.Backend
	session   *Session
	createdAt time.Time

	mu      sync.Mutex
	idle    *sync.Cond
	state   chat.State
	started bool
	closed  bool

	subMu       sync.Mutex
	subscribers map[int]chan chat.Snapshot
	nextSub     int
}

// NewController binds a fresh session for p. Call Start to request the opening turn.
func NewController(id string, backend ai.Backend, p persona.Persona) *Controller {
	c := &Controller{
		id:          id,
		backend:     backend,
		session:     newSession(p),
		createdAt:   time.Now().UTC(),
		state:       chat.StateIdle,
		subscribers: make(map[int]chan chat.Snapshot),
	}
	c.idle = sync.NewCond(&c.mu)
	return c
}

// ID returns the controller handle.
func (c *Controller) ID() string { return c.id }

// Persona returns the persona of the underlying session.
func (c *Controller) Persona() persona.Persona { return c.session.Persona() }

// Start requests the opening turn. A failed opening leaves the persona's
// fallback greeting as the only turn.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started || c.closed {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.state = chat.StateAwaitingOpeningTurn
	c.mu.Unlock()
	c.notify()

	ctx = context.WithoutCancel(ctx)
	go func() {
		p := c.session.Persona()
		if err := c.session.open(ctx, c.backend); err != nil {
			log.Printf("[chat] opening turn failed session=%s persona=%s: %v", c.id, p.ID, err)
			c.session.appendTurn(chat.ModelTurn(p.Greeting()))
		} else {
			log.Printf("[chat] session opened session=%s persona=%s", c.id, p.ID)
		}
		c.finish()
	}()
}

// Submit sends text as a user turn without waiting for the reply. It reports
// false when the input was ignored: blank text, a request already in flight,
// or a controller that is not running.
func (c *Controller) Submit(ctx context.Context, text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	c.mu.Lock()
	if !c.started || c.closed || c.state != chat.StateIdle {
		c.mu.Unlock()
		return false
	}
	if err := c.session.begin(text); err != nil {
		c.mu.Unlock()
		return false
	}
	c.state = chat.StateAwaitingResponse
	c.mu.Unlock()
	c.notify()

	ctx = context.WithoutCancel(ctx)
	go func() {
		if _, err := c.session.complete(ctx, text); err != nil {
			log.Printf("[chat] send failed session=%s: %v", c.id, err)
			c.session.appendTurn(chat.ModelTurn(ApologyText))
		}
		c.finish()
	}()
	return true
}

func (c *Controller) finish() {
	c.mu.Lock()
	c.state = chat.StateIdle
	c.idle.Broadcast()
	c.mu.Unlock()
	c.notify()
}

// State returns the current request state.
func (c *Controller) State() chat.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Transcript returns a copy of the turns so far.
func (c *Controller) Transcript() []chat.Turn {
	return c.session.Transcript()
}

// Snapshot captures state and transcript together.
func (c *Controller) Snapshot() chat.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.session.Persona()
	return chat.Snapshot{
		SessionID:  c.id,
		PersonaID:  p.ID,
		Title:      p.Title,
		State:      c.state,
		Transcript: c.session.Transcript(),
		CreatedAt:  c.createdAt,
	}
}

// Wait blocks until no backend call is in flight.
func (c *Controller) Wait() {
	c.mu.Lock()
	for c.state.Busy() {
		c.idle.Wait()
	}
	c.mu.Unlock()
}

// Subscribe returns a channel receiving a snapshot after every change. Slow
// readers only see the latest snapshot. The returned func unsubscribes.
func (c *Controller) Subscribe() (<-chan chat.Snapshot, func()) {
	ch := make(chan chat.Snapshot, subscriberBuffer)

	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subscribers[id] = ch
	c.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.subMu.Lock()
			if sub, ok := c.subscribers[id]; ok {
				delete(c.subscribers, id)
				close(sub)
			}
			c.subMu.Unlock()
		})
	}
}

// Close detaches every subscriber and rejects further submissions. An in-flight
// call still runs to completion; the backend is not told.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.subMu.Lock()
	for id, ch := range c.subscribers {
		delete(c.subscribers, id)
		close(ch)
	}
	c.subMu.Unlock()
}

func (c *Controller) notify() {
	snap := c.Snapshot()

	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the stalest snapshot so the newest always lands.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
