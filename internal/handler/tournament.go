package handler

import (
	"net/http"
	"strings"

	"github.com/microarena/api/internal/model"
	"github.com/microarena/api/internal/service"
)

// TournamentHandler handles tournament HTTP requests
type TournamentHandler struct {
	base
	tournaments *service.TournamentService
}

// NewTournamentHandler creates a new tournament handler
func NewTournamentHandler(b base, tournaments *service.TournamentService) *TournamentHandler {
	return &TournamentHandler{base: b, tournaments: tournaments}
}

// RegisterRoutes registers tournament routes
func (h *TournamentHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/tournaments", h.List)
	mux.Handle("POST /v1/tournaments", authed(h.Create))
	mux.HandleFunc("GET /v1/tournaments/{tournamentId}", h.Get)
	mux.Handle("POST /v1/tournaments/{tournamentId}/register", authed(h.Register))
	mux.Handle("PATCH /v1/tournaments/{tournamentId}/status", authed(h.SetStatus))
}

// List handles GET /v1/tournaments?status=&tier=
func (h *TournamentHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter model.TournamentFilter
	var errs []model.FieldError

	if raw := optionalQuery(r, "status"); raw != nil {
		status := model.TournamentStatus(strings.ToUpper(*raw))
		if status.IsValid() {
			filter.Status = &status
		} else {
			errs = append(errs, model.FieldError{Field: "status", Message: "unknown tournament status"})
		}
	}
	if raw := optionalQuery(r, "tier"); raw != nil {
		tier := model.TournamentTier(strings.ToUpper(*raw))
		if tier.IsValid() {
			filter.Tier = &tier
		} else {
			errs = append(errs, model.FieldError{Field: "tier", Message: "tier must be SHOWCASE, PREMIER or OPEN"})
		}
	}
	if len(errs) > 0 {
		WriteError(w, model.NewValidationError(errs))
		return
	}

	WriteCollection(w, h.tournaments.List(r.Context(), filter))
}

// Create handles POST /v1/tournaments
func (h *TournamentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateTournamentRequest
	if !decodeOrFail(w, r, &req) {
		return
	}

	t, err := h.tournaments.Create(r.Context(), req)
	if err != nil {
		h.fail(w, r, "create tournament", err)
		return
	}
	WriteData(w, http.StatusCreated, t, map[string]string{"self": "/v1/tournaments/" + t.ID})
}

// Get handles GET /v1/tournaments/{tournamentId}
func (h *TournamentHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.tournaments.Get(r.Context(), r.PathValue("tournamentId"))
	if err != nil {
		h.fail(w, r, "get tournament", err)
		return
	}
	WriteData(w, http.StatusOK, t, nil)
}

// Register handles POST /v1/tournaments/{tournamentId}/register
func (h *TournamentHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterTournamentRequest
	if !decodeOrFail(w, r, &req) {
		return
	}

	team, err := h.tournaments.Register(r.Context(), r.PathValue("tournamentId"), actor(r), req)
	if err != nil {
		h.fail(w, r, "register team", err)
		return
	}
	WriteData(w, http.StatusCreated, team, nil)
}

// SetStatus handles PATCH /v1/tournaments/{tournamentId}/status
func (h *TournamentHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req model.SetTournamentStatusRequest
	if !decodeOrFail(w, r, &req) {
		return
	}

	t, err := h.tournaments.SetStatus(r.Context(), r.PathValue("tournamentId"), req)
	if err != nil {
		h.fail(w, r, "set tournament status", err)
		return
	}
	WriteData(w, http.StatusOK, t, nil)
}
