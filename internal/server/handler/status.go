package handler

import (
	"net/http"
	"time"

	"github.com/alanyoungcy/hedgesim/internal/domain"
)

// ClientCounter reports connected websocket clients.
type ClientCounter interface {
	ClientCount() int
}

// StatusHandler serves the backend status for the dashboard.
type StatusHandler struct {
	Mode      string
	Defaults  domain.Params
	StartedAt time.Time
	Clients   ClientCounter // optional
}

// NewStatusHandler creates a StatusHandler reporting mode and the default
// simulation parameters.
func NewStatusHandler(mode string, defaults domain.Params, clients ClientCounter) *StatusHandler {
	return &StatusHandler{Mode: mode, Defaults: defaults, StartedAt: time.Now().UTC(), Clients: clients}
}

// GetStatus responds with the current mode, uptime and default parameters.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{
		"mode":           h.Mode,
		"uptime_seconds": int64(time.Since(h.StartedAt).Seconds()),
		"defaults":       h.Defaults,
	}
	if h.Clients != nil {
		out["ws_clients"] = h.Clients.ClientCount()
	}
	writeJSON(w, http.StatusOK, out)
}
