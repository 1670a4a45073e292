package diagnosis

import (
	"context"
	"errors"
	"strings"
	"testing"

	model "github.com/krishimitra/krishi-mitra/backend/internal/model/diagnosis"
	"github.com/krishimitra/krishi-mitra/backend/internal/service/ai"
)

type stubBackend struct {
	reply string
	err   error

	calls       int
	instruction string
	parts       []ai.Part
}

func (b *stubBackend) OpenConversation(context.Context, string) (ai.Conversation, error) {
	return nil, errors.New("not used")
}

func (b *stubBackend) CompleteOnce(_ context.Context, instruction string, parts ...ai.Part) (string, error) {
	b.calls++
	b.instruction = instruction
	b.parts = parts
	return b.reply, b.err
}

var leaf = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 1, 2, 3}

func TestAnalyzeRejectsUnsupportedMediaType(t *testing.T) {
	backend := &stubBackend{reply: "unused"}
	engine := NewEngine(backend, 0)

	for _, mimeType := range []string{"image/gif", "application/pdf", "", "image"} {
		_, err := engine.Analyze(context.Background(), model.Request{Image: leaf, MIMEType: mimeType})
		if !errors.Is(err, ErrUnsupportedMediaType) {
			t.Fatalf("%q: expected ErrUnsupportedMediaType, got %v", mimeType, err)
		}
	}
	if backend.calls != 0 {
		t.Fatalf("expected no backend calls, got %d", backend.calls)
	}
}

func TestAnalyzeLocalChecks(t *testing.T) {
	backend := &stubBackend{reply: "unused"}
	engine := NewEngine(backend, 4)

	if _, err := engine.Analyze(context.Background(), model.Request{MIMEType: model.MIMEJPEG}); !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("expected ErrEmptyImage, got %v", err)
	}
	if _, err := engine.Analyze(context.Background(), model.Request{Image: leaf, MIMEType: model.MIMEPNG}); !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}
	if backend.calls != 0 {
		t.Fatalf("expected no backend calls, got %d", backend.calls)
	}
}

func TestAnalyzeSendsImageThenPrompt(t *testing.T) {
	backend := &stubBackend{reply: "**Disease:** Early Blight\n\nConfidence Level: High"}
	engine := NewEngine(backend, 1<<20)

	result, err := engine.Analyze(context.Background(), model.Request{Image: leaf, MIMEType: "image/PNG"})
	if err != nil {
		t.Fatalf("Analyze err: %v", err)
	}
	if backend.calls != 1 {
		t.Fatalf("expected exactly one backend call, got %d", backend.calls)
	}
	if len(backend.parts) != 2 || !backend.parts[0].IsImage() || backend.parts[0].MIMEType != model.MIMEPNG {
		t.Fatalf("unexpected parts: %+v", backend.parts)
	}
	if !strings.Contains(backend.parts[1].Text, "confidence score") {
		t.Fatalf("prompt should ask for a confidence score, got %q", backend.parts[1].Text)
	}
	if !strings.Contains(backend.instruction, "plant pathology") {
		t.Fatalf("unexpected instruction: %q", backend.instruction)
	}

	if result.Text != backend.reply {
		t.Fatalf("expected raw reply, got %q", result.Text)
	}
	if !strings.Contains(result.HTML, "<strong>Disease:</strong>") {
		t.Fatalf("expected rendered markup, got %q", result.HTML)
	}
	if result.Confidence != model.ConfidenceHigh {
		t.Fatalf("expected high confidence, got %s", result.Confidence)
	}
}

func TestAnalyzeNonLeafReplyIsReturnedVerbatim(t *testing.T) {
	reply := "The image is unclear. Please upload a clearer picture of the leaf."
	backend := &stubBackend{reply: reply}
	engine := NewEngine(backend, 0)

	result, err := engine.Analyze(context.Background(), model.Request{Image: leaf, MIMEType: model.MIMEWebP})
	if err != nil {
		t.Fatalf("Analyze err: %v", err)
	}
	if result.Text != reply {
		t.Fatalf("expected verbatim reply, got %q", result.Text)
	}
	if !strings.Contains(result.HTML, reply) {
		t.Fatalf("rendered markup should contain the reply, got %q", result.HTML)
	}
	if !result.NeedsClearerImage {
		t.Fatal("expected clearer image flag")
	}
}

func TestAnalyzeBackendFailure(t *testing.T) {
	backend := &stubBackend{err: errors.New("quota exceeded")}
	engine := NewEngine(backend, 0)

	_, err := engine.Analyze(context.Background(), model.Request{Image: leaf, MIMEType: model.MIMEJPEG})
	if !errors.Is(err, ai.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if backend.calls != 1 {
		t.Fatalf("failures must not be retried, got %d calls", backend.calls)
	}
}

func TestNormalizeMIME(t *testing.T) {
	cases := map[string]string{
		"image/jpeg":               "image/jpeg",
		" Image/WebP ":             "image/webp",
		"image/png; charset=utf-8": "image/png",
		"garbage/":                 "garbage/",
	}
	for in, want := range cases {
		if got := NormalizeMIME(in); got != want {
			t.Fatalf("NormalizeMIME(%q) = %q, want %q", in, got, want)
		}
	}
}
