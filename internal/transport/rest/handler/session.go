package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"wordoff/internal/service"
)

// SessionHandler serves the public session routes
type SessionHandler struct {
	game *service.GameService
}

func NewSessionHandler(game *service.GameService) *SessionHandler {
	return &SessionHandler{game: game}
}

// Exists handles GET /v1/sessions/{sessionId}
func (h *SessionHandler) Exists(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	exists, err := h.game.SessionExists(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "failed to look up session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"sessionId": sessionID,
		"exists":    exists,
	})
}
