package web

import (
	"encoding/json"
	"net/http"
	"time"

	"logsock/internal/shared/types"
	"logsock/internal/store"
)

type Handler struct {
	cfg     *types.Config
	stats   *types.Stats
	ring    *store.Ring
	started time.Time
}

func NewHandler(cfg *types.Config, stats *types.Stats, ring *store.Ring) *Handler {
	return &Handler{
		cfg:     cfg,
		stats:   stats,
		ring:    ring,
		started: time.Now().UTC(),
	}
}

type statusResponse struct {
	Status        string              `json:"status"`
	SocketPath    string              `json:"socket_path"`
	UptimeSeconds int64               `json:"uptime_seconds"`
	Stats         types.StatsSnapshot `json:"stats"`
}

// HandleStatus serves the public daemon status.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, statusResponse{
		Status:        "ok",
		SocketPath:    h.cfg.SocketPath,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Stats:         h.stats.Snapshot(),
	})
}

type entriesResponse struct {
	Entries  []*types.Entry `json:"entries"`
	Count    int            `json:"count"`
	Capacity int            `json:"capacity"`
}

// HandleEntries serves a snapshot of the history ring, oldest first.
func (h *Handler) HandleEntries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	entries := h.ring.Snapshot()
	writeJSON(w, entriesResponse{
		Entries:  entries,
		Count:    len(entries),
		Capacity: h.ring.Capacity(),
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding error", http.StatusInternalServerError)
	}
}
