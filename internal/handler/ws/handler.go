package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	chatHandler "github.com/krishimitra/krishi-mitra/backend/internal/handler/chat"
	"github.com/krishimitra/krishi-mitra/backend/internal/model/chat"
	chatService "github.com/krishimitra/krishi-mitra/backend/internal/service/chat"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// Handler exposes a session over a websocket: text frames in, snapshots out.
type Handler struct {
	chatSvc  *chatService.Service
	upgrader websocket.Upgrader
}

// New creates a websocket handler. allowedOrigins follows the CORS list; "*"
// accepts any origin.
func New(chatSvc *chatService.Service, allowedOrigins []string) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin:     originChecker(allowedOrigins),
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the websocket route on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
}

// TextMessage carries user input.
type TextMessage struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// conn serialises writes; gorilla allows one concurrent writer.
type conn struct {
	*websocket.Conn
	mu sync.Mutex
}

func (c *conn) send(msg outgoingMessage) error {
	msg.Timestamp = time.Now().UnixMilli()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.WriteJSON(msg)
}

func (c *conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

// closeWith sends a normal close frame and drops the connection, which also
// unblocks the read loop.
func (c *conn) closeWith(reason string) {
	c.mu.Lock()
	c.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason),
		time.Now().Add(writeTimeout))
	c.mu.Unlock()
	c.Close()
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if h.chatSvc == nil {
		http.Error(w, "ai backend unavailable", http.StatusServiceUnavailable)
		return
	}

	ctrl, err := h.chatSvc.Get(sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	raw, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	c := &conn{Conn: raw}
	defer c.Close()

	log.Printf("[ws] new connection for session: %s", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c.SetReadDeadline(time.Now().Add(readTimeout))
	c.SetPongHandler(func(string) error {
		c.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	updates, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	go pingLoop(ctx, c)
	go forward(ctx, cancel, c, sessionID, updates)

	sendInfo(c, sessionID, map[string]any{"type": "connected", "persona": ctrl.Persona().ID})
	c.send(outgoingMessage{Type: "result", SessionID: sessionID, Data: chatHandler.Present(ctrl.Snapshot())})

	for {
		var msg inboundMessage
		if err := c.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read error: %v", err)
			}
			return
		}
		c.SetReadDeadline(time.Now().Add(readTimeout))

		if ctx.Err() != nil {
			return
		}
		if msg.SessionID != "" && msg.SessionID != sessionID {
			sendError(c, "session mismatch")
			continue
		}

		switch msg.Type {
		case "text":
			var text TextMessage
			if err := json.Unmarshal(msg.Data, &text); err != nil {
				sendError(c, "invalid text payload")
				continue
			}
			if !ctrl.Submit(ctx, text.Text) {
				sendInfo(c, sessionID, map[string]any{"type": "ignored", "state": ctrl.State()})
			}
		case "ping":
			sendInfo(c, sessionID, map[string]any{"type": "pong"})
		default:
			sendError(c, "unsupported message type: "+msg.Type)
		}
	}
}

// forward relays snapshots until the subscription closes or the client leaves.
func forward(ctx context.Context, cancel context.CancelFunc, c *conn, sessionID string, updates <-chan chat.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				sendInfo(c, sessionID, map[string]any{"type": "closed"})
				c.closeWith("session closed")
				cancel()
				return
			}
			if err := c.send(outgoingMessage{Type: "result", SessionID: sessionID, Data: chatHandler.Present(snap)}); err != nil {
				log.Printf("[ws] write failed session=%s: %v", sessionID, err)
				cancel()
				return
			}
		}
	}
}

func sendInfo(c *conn, sessionID string, data map[string]any) {
	if err := c.send(outgoingMessage{Type: "info", SessionID: sessionID, Data: data}); err != nil {
		log.Printf("[ws] send info failed: %v", err)
	}
}

func sendError(c *conn, message string) {
	if err := c.send(outgoingMessage{Type: "error", Data: map[string]string{"message": message}}); err != nil {
		log.Printf("[ws] send error failed: %v", err)
	}
}

func pingLoop(ctx context.Context, c *conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}
