package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"wordoff/internal/repository"
	"wordoff/internal/service"
)

// AdminHandler serves the operator reporting routes
type AdminHandler struct {
	game  *service.GameService
	stats repository.StatsRepo
}

func NewAdminHandler(game *service.GameService, stats repository.StatsRepo) *AdminHandler {
	return &AdminHandler{
		game:  game,
		stats: stats,
	}
}

// ListSessions handles GET /v1/admin/sessions
func (h *AdminHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.game.AllSessions(r.Context())
	if err != nil {
		http.Error(w, "failed to list sessions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"count":    len(sessions),
		"sessions": sessions,
	})
}

// Stats handles GET /v1/admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.AllCategories(r.Context())
	if err != nil {
		http.Error(w, "failed to load stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"stats": stats,
	})
}

// TopWords handles GET /v1/admin/words?limit=N
func (h *AdminHandler) TopWords(w http.ResponseWriter, r *http.Request) {
	limit := int64(50)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}

	words, err := h.stats.TopWords(r.Context(), limit)
	if err != nil {
		http.Error(w, "failed to load word stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"words": words,
	})
}
