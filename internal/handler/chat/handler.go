package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/krishimitra/krishi-mitra/backend/internal/model/persona"
	chatService "github.com/krishimitra/krishi-mitra/backend/internal/service/chat"
	"github.com/krishimitra/krishi-mitra/backend/pkg/utils"
)

// Handler serves the session endpoints.
type Handler struct {
	chatSvc *chatService.Service
}

// New creates a chat handler. A nil service answers 503 on every route.
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes mounts the session routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Route("/session/{sessionID}", func(r chi.Router) {
		r.Get("/", h.handleGetSession)
		r.Delete("/", h.handleCloseSession)
		r.Post("/messages", h.handleSubmitMessage)
	})
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	var payload struct {
		PersonaID string `json:"personaId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.PersonaID) == "" {
		utils.RespondError(w, http.StatusBadRequest, "personaId is required")
		return
	}

	ctrl, err := h.chatSvc.Open(r.Context(), payload.PersonaID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, Present(ctrl.Snapshot()))
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	ctrl, err := h.chatSvc.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, Present(ctrl.Snapshot()))
}

func (h *Handler) handleSubmitMessage(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	ctrl, err := h.chatSvc.Get(sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if strings.TrimSpace(payload.Text) == "" {
		respondServiceError(w, chatService.ErrEmptyInput)
		return
	}

	if !ctrl.Submit(r.Context(), payload.Text) {
		utils.RespondStatus(w, http.StatusOK, "ignored", map[string]any{"session": Present(ctrl.Snapshot())})
		return
	}
	utils.RespondStatus(w, http.StatusAccepted, "accepted", map[string]any{"session": Present(ctrl.Snapshot())})
}

func (h *Handler) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	if err := h.chatSvc.Close(chi.URLParam(r, "sessionID")); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) available(w http.ResponseWriter) bool {
	if h.chatSvc == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "ai backend unavailable")
		return false
	}
	return true
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, persona.ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, "feature unavailable")
	case errors.Is(err, chatService.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, chatService.ErrEmptyInput):
		utils.RespondError(w, http.StatusUnprocessableEntity, "text is required")
	default:
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
	}
}
