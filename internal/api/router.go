package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/roomserver/internal/api/handler"
	"github.com/mcoot/roomserver/internal/api/middleware"
	sharedmw "github.com/mcoot/roomserver/internal/middleware"
	"github.com/mcoot/roomserver/internal/services/registry"
	"github.com/mcoot/roomserver/internal/services/room"
	"github.com/mcoot/roomserver/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger   *slog.Logger
	Registry *registry.Registry
	Rooms    *room.Manager
	Storage  storage.Storage
	// WebSocket is mounted at /ws when set
	WebSocket http.Handler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	statusHandler := handler.NewStatusHandler(cfg.Registry, cfg.Rooms, cfg.Storage)

	// Create middleware
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	api.HandleFunc("/health", statusHandler.Health).Methods(http.MethodGet)
	api.HandleFunc("/roster", statusHandler.Roster).Methods(http.MethodGet)
	api.HandleFunc("/rooms", statusHandler.ListRooms).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{id}", statusHandler.GetRoom).Methods(http.MethodGet)
	api.HandleFunc("/chatlog", statusHandler.ChatLog).Methods(http.MethodGet)

	// Game protocol endpoint
	if cfg.WebSocket != nil {
		wsRecovery := sharedmw.Recovery(cfg.Logger, sharedmw.DefaultPanicHandler)
		r.Handle("/ws", wsRecovery(loggingMiddleware(cfg.WebSocket))).Methods(http.MethodGet)
	}

	return r
}
