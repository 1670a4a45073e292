package persona

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/krishimitra/krishi-mitra/backend/internal/model/feature"
	"github.com/krishimitra/krishi-mitra/backend/internal/model/persona"
	"github.com/krishimitra/krishi-mitra/backend/pkg/utils"
)

// Handler serves the persona registry and the home screen catalog.
type Handler struct {
	personas persona.Store
	features []feature.Feature
}

// New creates a persona handler.
func New(personas persona.Store, features []feature.Feature) *Handler {
	return &Handler{
		personas: personas,
		features: features,
	}
}

// RegisterRoutes mounts the catalog routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/personas", h.handleListPersonas)
	r.Get("/features", h.handleListFeatures)
}

func (h *Handler) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.personas.List())
}

func (h *Handler) handleListFeatures(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.features)
}
