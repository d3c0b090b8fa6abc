package gateway

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Handler exposes the WebSocket upgrade endpoint and connection stats.
type Handler struct {
	connectionManager *ConnectionManager
}

// NewHandler creates a new WebSocket handler.
func NewHandler(cm *ConnectionManager) *Handler {
	return &Handler{
		connectionManager: cm,
	}
}

// HandleConnection upgrades the request to a WebSocket. Session
// membership is established afterward via join-session messages, so no
// parameters are required here.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	if err := h.connectionManager.UpgradeConnection(w, r); err != nil {
		log.Error().Err(err).Str("remote", r.RemoteAddr).Msg("failed to upgrade WebSocket connection")
		return
	}
}

// HandleConnectionStats returns statistics about active connections.
func (h *Handler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	connections, sessions := h.connectionManager.Stats()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"total_connections":%d,"active_sessions":%d}`, connections, sessions)
}

// RegisterRoutes registers WebSocket routes with an HTTP mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.HandleConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}
