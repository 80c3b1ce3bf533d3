package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"wordoff/internal/repository"
	"wordoff/internal/service"
	"wordoff/internal/transport/rest/handler"
	"wordoff/internal/transport/rest/middleware"
	"wordoff/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	GameService *service.GameService
	StatsRepo   repository.StatsRepo
	AdminKey    string
	WSHandler   *ws.Handler
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	sessionHandler := handler.NewSessionHandler(c.GameService)
	adminHandler := handler.NewAdminHandler(c.GameService, c.StatsRepo)
	adminMW := middleware.NewAdminMiddleware(c.AdminKey)

	r.Use(corsMiddleware)

	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/sessions/{sessionId}", sessionHandler.Exists).Methods("GET", "OPTIONS")

	// WebSocket route
	v1.HandleFunc("/ws", c.WSHandler.ServeWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Admin routes (require X-Admin-Key)
	adminRoutes := v1.PathPrefix("/admin").Subrouter()
	adminRoutes.Use(adminMW.Require)

	adminRoutes.HandleFunc("/sessions", adminHandler.ListSessions).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/stats", adminHandler.Stats).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/words", adminHandler.TopWords).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Admin-Key")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
