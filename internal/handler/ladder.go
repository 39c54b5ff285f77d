package handler

import (
	"net/http"
	"strings"

	"github.com/microarena/api/internal/model"
	"github.com/microarena/api/internal/service"
)

// LadderHandler serves leaderboards
type LadderHandler struct {
	base
	ranking *service.RankingService
}

// NewLadderHandler creates a new ladder handler
func NewLadderHandler(b base, ranking *service.RankingService) *LadderHandler {
	return &LadderHandler{base: b, ranking: ranking}
}

// RegisterRoutes registers ladder routes
func (h *LadderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/ladder", h.Get)
}

// Get handles GET /v1/ladder?tab=CLANS. The tab is case-insensitive and
// defaults to CLANS.
func (h *LadderHandler) Get(w http.ResponseWriter, r *http.Request) {
	tab := model.LadderClans
	if raw := r.URL.Query().Get("tab"); raw != "" {
		tab = model.LadderTab(strings.ToUpper(raw))
	}

	entries, err := h.ranking.Ladder(r.Context(), tab)
	if err != nil {
		h.fail(w, r, "ladder", err)
		return
	}
	WriteCollection(w, entries)
}
