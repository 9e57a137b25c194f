package testutils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
)

// NewOllamaServer serves Ollama's /api/embed endpoint from m, so commands
// can be exercised end to end with the ollama embedding provider.
func NewOllamaServer(m *MockEmbedder) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/embed", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		vectors, err := m.EmbedBatch(r.Context(), req.Input)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":      req.Model,
			"embeddings": vectors,
		})
	})

	return httptest.NewServer(mux)
}
