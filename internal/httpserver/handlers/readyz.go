package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/cloudnav/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready bool   `json:"ready"`
	Store string `json:"store,omitempty"`
	Error string `json:"error,omitempty"`
}

// Readyz reports 503 while the document store cannot be reached.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := d.Store.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{
				Ready: false,
				Store: d.Store.Mode(),
				Error: err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, readyzResponse{Ready: true, Store: d.Store.Mode()})
	}
}
