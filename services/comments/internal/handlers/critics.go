package handlers

import (
	"net/http"

	"github.com/example/mflix/internal/platform/api"
	"github.com/example/mflix/internal/platform/httpserver"
	"github.com/example/mflix/services/comments/internal/store"
)

type criticsResponse struct {
	Critics []store.Critic `json:"critics"`
}

// GetCritics handles GET /v1/critics. Mounted behind auth.RequireAdmin.
func GetCritics(cs store.CommentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		critics, err := cs.MostActiveCommenters(r.Context())
		if err != nil {
			writeStoreError(w, err, httpserver.RequestIDFromContext(r.Context()))
			return
		}
		if critics == nil {
			critics = []store.Critic{}
		}
		api.WriteJSON(w, http.StatusOK, criticsResponse{Critics: critics})
	}
}
