package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/krishimitra/krishi-mitra/backend/internal/config"
)

// ErrBackendUnavailable marks every failure of the completion service: network,
// quota, timeout or an unusable response.
var ErrBackendUnavailable = errors.New("completion backend unavailable")

// Conversation is the opaque handle of one server-side dialogue. The backend keeps
// prior turns; callers only pass the newest user text.
type Conversation interface {
	Continue(ctx context.Context, text string) (string, error)
}

// Backend is the completion service consumed by chat sessions and diagnosis.
type Backend interface {
	OpenConversation(ctx context.Context, systemInstruction string) (Conversation, error)
	CompleteOnce(ctx context.Context, instruction string, parts ...Part) (string, error)
}

// Part is one element of a single-shot multimodal request.
type Part struct {
	Text     string
	Data     []byte
	MIMEType string
}

// TextPart wraps plain text.
func TextPart(text string) Part {
	return Part{Text: text}
}

// InlineImage wraps raw image bytes with their MIME type.
func InlineImage(data []byte, mimeType string) Part {
	return Part{Data: data, MIMEType: mimeType}
}

// IsImage reports whether the part carries inline bytes.
func (p Part) IsImage() bool {
	return len(p.Data) > 0
}

// DataURL encodes an image part as a data URL.
func (p Part) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", p.MIMEType, base64.StdEncoding.EncodeToString(p.Data))
}

// NewBackend creates the backend selected by cfg.Provider.
func NewBackend(ctx context.Context, cfg config.AIConfig) (Backend, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("ai provider %q is not configured", cfg.Provider)
	}

	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiBackend(ctx, cfg)
	case config.ProviderArk:
		chatModel, err := cfg.NewChatModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create chat model: %w", err)
		}
		return NewEinoBackend(ctx, chatModel)
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrBackendUnavailable, err)
}

var errEmptyReply = errors.New("model returned empty text")
