package handler

import (
	"context"
	"net/http"
	"time"
)

// SystemHandler serves health and counters.
type SystemHandler struct {
	base
	stats   StatsSource
	archive Pinger
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(b base, stats StatsSource, archive Pinger) *SystemHandler {
	return &SystemHandler{base: b, stats: stats, archive: archive}
}

// RegisterRoutes registers system routes
func (h *SystemHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /v1/stats", h.Stats)
}

// Health handles GET /health. A failing archive degrades the report but
// not the status code; the engine keeps serving without it.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok"}

	if h.archive != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.archive.Ping(ctx); err != nil {
			resp["status"] = "degraded"
			resp["archive"] = "unreachable"
		} else {
			resp["archive"] = "ok"
		}
	}

	WriteJSON(w, http.StatusOK, resp)
}

// Stats handles GET /v1/stats
func (h *SystemHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.stats == nil {
		WriteData(w, http.StatusOK, struct{}{}, nil)
		return
	}
	WriteData(w, http.StatusOK, h.stats.Stats(), nil)
}
