package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	personaModel "github.com/krishimitra/krishi-mitra/backend/internal/model/persona"
	"github.com/krishimitra/krishi-mitra/backend/internal/service/ai"
	chatService "github.com/krishimitra/krishi-mitra/backend/internal/service/chat"
	diagnosisService "github.com/krishimitra/krishi-mitra/backend/internal/service/diagnosis"
)

type stubBackend struct{}

func (stubBackend) OpenConversation(context.Context, string) (ai.Conversation, error) {
	return nil, errors.New("offline")
}

func (stubBackend) CompleteOnce(context.Context, string, ...ai.Part) (string, error) {
	return "", errors.New("offline")
}

func TestRouterWithoutBackend(t *testing.T) {
	r := NewRouter(Dependencies{
		Personas:       personaModel.NewMemoryStore(personaModel.Seed()),
		AllowedOrigins: []string{"*"},
	})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/personas", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("personas should be served without a backend, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/session", strings.NewReader(`{"personaId":"market"}`)))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for chat without backend, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/diagnosis", bytes.NewReader([]byte(`{}`))))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for diagnosis without backend, got %d", resp.Code)
	}
}

func TestRouterOpeningFallback(t *testing.T) {
	personas := personaModel.NewMemoryStore(personaModel.Seed())
	sessions := chatService.NewService(stubBackend{}, personas)
	r := NewRouter(Dependencies{
		Personas:       personas,
		Sessions:       sessions,
		Diagnosis:      diagnosisService.NewEngine(stubBackend{}, 1<<20),
		MaxImageBytes:  1 << 20,
		AllowedOrigins: []string{"*"},
	})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/session", strings.NewReader(`{"personaId":"savi"}`)))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if !strings.Contains(resp.Body.String(), `"ai":true`) {
		t.Fatalf("unexpected health body %s", resp.Body.String())
	}
}

func TestRouterPreflight(t *testing.T) {
	r := NewRouter(Dependencies{
		Personas:       personaModel.NewMemoryStore(nil),
		AllowedOrigins: []string{"http://localhost:5173"},
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/session", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if resp.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatal("expected allow origin header")
	}
}
