package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/krishimitra/krishi-mitra/backend/internal/handler/chat"
	"github.com/krishimitra/krishi-mitra/backend/internal/handler/diagnosis"
	"github.com/krishimitra/krishi-mitra/backend/internal/handler/persona"
	"github.com/krishimitra/krishi-mitra/backend/internal/handler/stream"
	"github.com/krishimitra/krishi-mitra/backend/internal/handler/ws"
	middlewarePkg "github.com/krishimitra/krishi-mitra/backend/internal/middleware"
	"github.com/krishimitra/krishi-mitra/backend/internal/model/feature"
	personaModel "github.com/krishimitra/krishi-mitra/backend/internal/model/persona"
	chatService "github.com/krishimitra/krishi-mitra/backend/internal/service/chat"
	diagnosisService "github.com/krishimitra/krishi-mitra/backend/internal/service/diagnosis"
	"github.com/krishimitra/krishi-mitra/backend/pkg/utils"
)

// Dependencies are the services behind the HTTP surface. Sessions and
// Diagnosis are nil when no AI backend is configured; their routes then
// answer 503.
type Dependencies struct {
	Personas       personaModel.Store
	Sessions       *chatService.Service
	Diagnosis      *diagnosisService.Engine
	MaxImageBytes  int64
	AllowedOrigins []string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.AllowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"ai":     deps.Sessions != nil,
		})
	})

	r.Route("/api", func(api chi.Router) {
		persona.New(deps.Personas, feature.Catalog()).RegisterRoutes(api)
		chat.New(deps.Sessions).RegisterRoutes(api)
		stream.New(deps.Sessions).RegisterRoutes(api)
		ws.New(deps.Sessions, deps.AllowedOrigins).RegisterRoutes(api)
		diagnosis.New(deps.Diagnosis, deps.MaxImageBytes).RegisterRoutes(api)
	})

	return r
}
