package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Handler exposes the hub's HTTP surface.
type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// HandleSocket upgrades a client to a websocket connection.
func (h *Handler) HandleSocket(w http.ResponseWriter, r *http.Request) {
	if err := h.hub.Upgrade(w, r); err != nil {
		log.Error().Err(err).Str("remote", r.RemoteAddr).Msg("failed to upgrade websocket connection")
		http.Error(w, "failed to upgrade connection", http.StatusInternalServerError)
	}
}

// HandleState serves the full match snapshot, used by late joiners to catch
// up before the event stream takes over.
func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	snapshot := h.hub.game.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		log.Error().Err(err).Msg("failed to encode state snapshot")
	}
}

// RegisterRoutes attaches the gateway routes to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.HandleSocket)
	mux.HandleFunc("/state", h.HandleState)
}
