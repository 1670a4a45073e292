package utils

import (
	"encoding/json"
	"log"
	"net/http"
)

// RespondJSON writes payload as JSON with the given status.
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// RespondError writes {"error": message}.
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{"error": message})
}

// RespondStatus writes {"status": status} plus any extra fields.
func RespondStatus(w http.ResponseWriter, code int, status string, extra map[string]any) {
	payload := map[string]any{"status": status}
	for k, v := range extra {
		payload[k] = v
	}
	RespondJSON(w, code, payload)
}
