package diagnosis

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	model "github.com/krishimitra/krishi-mitra/backend/internal/model/diagnosis"
	"github.com/krishimitra/krishi-mitra/backend/internal/service/ai"
	diagnosisService "github.com/krishimitra/krishi-mitra/backend/internal/service/diagnosis"
	"github.com/krishimitra/krishi-mitra/backend/pkg/utils"
)

const formOverhead = 1 << 20

// Handler serves leaf photo diagnosis.
type Handler struct {
	engine   *diagnosisService.Engine
	maxBytes int64
}

// New creates a diagnosis handler. A nil engine answers 503.
func New(engine *diagnosisService.Engine, maxBytes int64) *Handler {
	return &Handler{engine: engine, maxBytes: maxBytes}
}

// RegisterRoutes mounts the diagnosis route on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/diagnosis", h.handleDiagnose)
}

type jsonRequest struct {
	MIMEType string `json:"mimeType"`
	// Data is base64 image bytes or a data URL.
	Data string `json:"data"`
}

func (h *Handler) handleDiagnose(w http.ResponseWriter, r *http.Request) {
	if h.engine == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "ai backend unavailable")
		return
	}

	// base64 inflates by 4/3; the form overhead covers both encodings.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes*4/3+formOverhead)

	var (
		req model.Request
		err error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		req, err = h.readMultipart(r)
	} else {
		req, err = readJSON(r)
	}
	if err != nil {
		respondError(w, err)
		return
	}

	result, err := h.engine.Analyze(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) readMultipart(r *http.Request) (model.Request, error) {
	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return model.Request{}, diagnosisService.ErrEmptyImage
		}
		return model.Request{}, bodyError(err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		return model.Request{}, bodyError(err)
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	return model.Request{Image: data, MIMEType: mimeType}, nil
}

func readJSON(r *http.Request) (model.Request, error) {
	var payload jsonRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return model.Request{}, bodyError(err)
	}

	mimeType, encoded := payload.MIMEType, payload.Data
	if rest, ok := strings.CutPrefix(encoded, "data:"); ok {
		meta, body, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(meta, ";base64") {
			return model.Request{}, errMalformedImage
		}
		mimeType = strings.TrimSuffix(meta, ";base64")
		encoded = body
	}
	if strings.TrimSpace(encoded) == "" {
		return model.Request{}, diagnosisService.ErrEmptyImage
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return model.Request{}, fmt.Errorf("%w: %w", errMalformedImage, err)
	}
	return model.Request{Image: data, MIMEType: mimeType}, nil
}

var errMalformedImage = errors.New("image data is not valid base64")

func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return fmt.Errorf("%w: %w", diagnosisService.ErrImageTooLarge, err)
	}
	return fmt.Errorf("invalid request body: %w", err)
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, diagnosisService.ErrUnsupportedMediaType):
		utils.RespondError(w, http.StatusUnsupportedMediaType, "only JPEG, PNG or WEBP images are supported")
	case errors.Is(err, diagnosisService.ErrImageTooLarge):
		utils.RespondError(w, http.StatusRequestEntityTooLarge, "image too large")
	case errors.Is(err, diagnosisService.ErrEmptyImage):
		utils.RespondError(w, http.StatusUnprocessableEntity, "Please upload an image first.")
	case errors.Is(err, ai.ErrBackendUnavailable):
		utils.RespondError(w, http.StatusBadGateway, diagnosisService.FailureMessage)
	default:
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	}
}
