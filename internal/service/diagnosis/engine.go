package diagnosis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime"
	"strings"

	"github.com/krishimitra/krishi-mitra/backend/internal/analysis/confidence"
	model "github.com/krishimitra/krishi-mitra/backend/internal/model/diagnosis"
	"github.com/krishimitra/krishi-mitra/backend/internal/render"
	"github.com/krishimitra/krishi-mitra/backend/internal/service/ai"
)

// FailureMessage is shown to the user when the backend could not analyse an image.
const FailureMessage = "Failed to analyze the image. The AI model may be temporarily unavailable. Please try again later."

const instruction = "You are an expert in plant pathology specializing in Indian agriculture."

const analysisPrompt = `Analyze this image of a crop leaf.
1. Identify the disease if present. If you are confident, state the name of the disease clearly.
2. Describe the common symptoms of this disease.
3. Suggest 2-3 practical organic and chemical treatment options suitable for Indian farmers.
4. Provide a confidence score (e.g., High, Medium, Low) for your diagnosis.
If the image is not a plant leaf or is too unclear to analyze, state that and ask for a better picture.
Format the response using markdown.`

var (
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrEmptyImage           = errors.New("please upload an image first")
	ErrImageTooLarge        = errors.New("image too large")
)

// Engine runs single-shot leaf diagnoses. It holds no per-request state.
type Engine struct {
	backend  ai.Backend
	maxBytes int64
}

// NewEngine returns an Engine. maxBytes <= 0 disables the size check.
func NewEngine(backend ai.Backend, maxBytes int64) *Engine {
	return &Engine{backend: backend, maxBytes: maxBytes}
}

// Analyze sends the image with the fixed diagnosis prompt and returns the
// model's reply as rendered markup.
func (e *Engine) Analyze(ctx context.Context, req model.Request) (model.Result, error) {
	mimeType := NormalizeMIME(req.MIMEType)
	if !model.Supported(mimeType) {
		return model.Result{}, fmt.Errorf("%w: %q", ErrUnsupportedMediaType, req.MIMEType)
	}
	if len(req.Image) == 0 {
		return model.Result{}, ErrEmptyImage
	}
	if e.maxBytes > 0 && int64(len(req.Image)) > e.maxBytes {
		return model.Result{}, fmt.Errorf("%w: %d bytes exceeds %d", ErrImageTooLarge, len(req.Image), e.maxBytes)
	}
	if e.backend == nil {
		return model.Result{}, fmt.Errorf("%w: no backend configured", ai.ErrBackendUnavailable)
	}

	text, err := e.backend.CompleteOnce(ctx, instruction,
		ai.InlineImage(req.Image, mimeType),
		ai.TextPart(analysisPrompt),
	)
	if err != nil {
		log.Printf("[diagnosis] analysis failed mime=%s size=%d: %v", mimeType, len(req.Image), err)
		if errors.Is(err, ai.ErrBackendUnavailable) {
			return model.Result{}, err
		}
		return model.Result{}, fmt.Errorf("%w: %w", ai.ErrBackendUnavailable, err)
	}

	decision := confidence.Analyze(text)
	log.Printf("[diagnosis] analysis done mime=%s size=%d confidence=%s", mimeType, len(req.Image), decision.Level)

	return model.Result{
		Text:              text,
		HTML:              string(render.Markdown(text)),
		Confidence:        decision.Level,
		NeedsClearerImage: decision.NeedsClearerImage,
	}, nil
}

// NormalizeMIME lowercases a media type and strips parameters. Unparseable
// values come back trimmed so the allow-list rejects them.
func NormalizeMIME(raw string) string {
	raw = strings.TrimSpace(raw)
	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return strings.ToLower(raw)
	}
	return mediaType
}
