package diagnosis

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	model "github.com/krishimitra/krishi-mitra/backend/internal/model/diagnosis"
	"github.com/krishimitra/krishi-mitra/backend/internal/service/ai"
	diagnosisService "github.com/krishimitra/krishi-mitra/backend/internal/service/diagnosis"
)

type stubBackend struct {
	reply string
	err   error
	calls int
}

func (b *stubBackend) OpenConversation(context.Context, string) (ai.Conversation, error) {
	return nil, errors.New("not used")
}

func (b *stubBackend) CompleteOnce(context.Context, string, ...ai.Part) (string, error) {
	b.calls++
	return b.reply, b.err
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func setupRouter(backend *stubBackend, maxBytes int64) *chi.Mux {
	r := chi.NewRouter()
	New(diagnosisService.NewEngine(backend, maxBytes), maxBytes).RegisterRoutes(r)
	return r
}

func multipartRequest(t *testing.T, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="leaf"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("CreatePart err: %v", err)
	}
	part.Write(data)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/diagnosis", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jsonRequestBody(payload jsonRequest) *http.Request {
	data, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/diagnosis", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestDiagnoseMultipart(t *testing.T) {
	backend := &stubBackend{reply: "## Leaf Rust\nConfidence Level: Medium"}
	r := setupRouter(backend, 1<<20)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, multipartRequest(t, "image/png", pngBytes))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var result model.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if result.Confidence != model.ConfidenceMedium || !strings.Contains(result.HTML, "<h2") {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestDiagnoseSniffsOctetStream(t *testing.T) {
	backend := &stubBackend{reply: "Healthy leaf"}
	r := setupRouter(backend, 1<<20)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, multipartRequest(t, "application/octet-stream", pngBytes))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestDiagnoseUnsupportedType(t *testing.T) {
	backend := &stubBackend{reply: "unused"}
	r := setupRouter(backend, 1<<20)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, multipartRequest(t, "image/gif", []byte("GIF89a")))

	if resp.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", resp.Code)
	}
	if backend.calls != 0 {
		t.Fatalf("expected no backend call, got %d", backend.calls)
	}
}

func TestDiagnoseJSONDataURL(t *testing.T) {
	backend := &stubBackend{reply: "Early blight"}
	r := setupRouter(backend, 1<<20)

	dataURL := "data:image/webp;base64," + base64.StdEncoding.EncodeToString([]byte("RIFF....WEBPVP8 "))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, jsonRequestBody(jsonRequest{Data: dataURL}))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestDiagnoseJSONErrors(t *testing.T) {
	r := setupRouter(&stubBackend{reply: "unused"}, 1<<20)

	cases := []struct {
		name    string
		payload jsonRequest
		status  int
	}{
		{"empty", jsonRequest{MIMEType: "image/png"}, http.StatusUnprocessableEntity},
		{"bad base64", jsonRequest{MIMEType: "image/png", Data: "%%%"}, http.StatusBadRequest},
		{"bad data url", jsonRequest{Data: "data:image/png,abc"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := httptest.NewRecorder()
			r.ServeHTTP(resp, jsonRequestBody(tc.payload))
			if resp.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, resp.Code, resp.Body.String())
			}
		})
	}
}

func TestDiagnoseTooLarge(t *testing.T) {
	backend := &stubBackend{reply: "unused"}
	r := setupRouter(backend, 8)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, jsonRequestBody(jsonRequest{
		MIMEType: "image/png",
		Data:     base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{1}, 64)),
	}))

	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", resp.Code)
	}
}

func TestDiagnoseBackendFailure(t *testing.T) {
	r := setupRouter(&stubBackend{err: errors.New("deadline exceeded")}, 1<<20)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, multipartRequest(t, "image/jpeg", []byte{0xff, 0xd8, 0xff, 0xe0}))

	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "temporarily unavailable") {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestDiagnoseWithoutEngine(t *testing.T) {
	r := chi.NewRouter()
	New(nil, 0).RegisterRoutes(r)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, jsonRequestBody(jsonRequest{MIMEType: "image/png", Data: "AA=="}))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}
