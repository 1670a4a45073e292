package stream

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	chatHandler "github.com/krishimitra/krishi-mitra/backend/internal/handler/chat"
	"github.com/krishimitra/krishi-mitra/backend/internal/model/chat"
	chatService "github.com/krishimitra/krishi-mitra/backend/internal/service/chat"
	"github.com/krishimitra/krishi-mitra/backend/pkg/utils"
)

const heartbeatInterval = 8 * time.Second

// Handler pushes session snapshots over Server-Sent Events.
type Handler struct {
	chatSvc   *chatService.Service
	heartbeat time.Duration
}

// New creates a stream handler.
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc, heartbeat: heartbeatInterval}
}

// RegisterRoutes mounts the stream route on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}", h.handleStream)
}

// handleStream sends a "snapshot" event for the current state and each change.
// Once the session is idle the stream ends with "end", unless ?follow=true
// keeps it open until the client leaves or the session closes.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	if h.chatSvc == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "ai backend unavailable")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	ctrl, err := h.chatSvc.Get(sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	follow := r.URL.Query().Get("follow") == "true"

	// Subscribe before the first snapshot so no transition is missed.
	updates, cancel := ctrl.Subscribe()
	defer cancel()

	utils.SetupSSEHeaders(w)
	log.Printf("[sse] opening stream session=%s follow=%t", sessionID, follow)

	snap := ctrl.Snapshot()
	if err := utils.SendSSEEvent(w, flusher, "snapshot", chatHandler.Present(snap)); err != nil {
		return
	}
	if done(snap, follow) {
		h.sendEnd(w, flusher, sessionID)
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			log.Printf("[sse] client left session=%s", sessionID)
			return
		case snap, ok := <-updates:
			if !ok {
				h.sendEnd(w, flusher, sessionID)
				return
			}
			if err := utils.SendSSEEvent(w, flusher, "snapshot", chatHandler.Present(snap)); err != nil {
				return
			}
			if done(snap, follow) {
				h.sendEnd(w, flusher, sessionID)
				return
			}
		case t := <-ticker.C:
			if err := utils.SendSSEEvent(w, flusher, "heartbeat", map[string]string{
				"time": t.UTC().Format(time.RFC3339),
			}); err != nil {
				return
			}
		}
	}
}

func done(snap chat.Snapshot, follow bool) bool {
	return !follow && !snap.State.Busy()
}

func (h *Handler) sendEnd(w http.ResponseWriter, flusher http.Flusher, sessionID string) {
	utils.SendSSEEvent(w, flusher, "end", map[string]any{"sessionId": sessionID, "finished": true})
	log.Printf("[sse] closing stream session=%s", sessionID)
}
