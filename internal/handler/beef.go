package handler

import (
	"net/http"

	"github.com/microarena/api/internal/model"
	"github.com/microarena/api/internal/service"
)

// BeefHandler handles clan-vs-clan challenge requests
type BeefHandler struct {
	base
	beef *service.BeefService
}

// NewBeefHandler creates a new beef handler
func NewBeefHandler(b base, beef *service.BeefService) *BeefHandler {
	return &BeefHandler{base: b, beef: beef}
}

// RegisterRoutes registers beef routes
func (h *BeefHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/beef", h.List)
	mux.Handle("POST /v1/beef", authed(h.Create))
	mux.HandleFunc("GET /v1/beef/{matchId}", h.Get)
	mux.Handle("POST /v1/beef/{matchId}/respond", authed(h.Respond))
	mux.Handle("POST /v1/beef/{matchId}/complete", authed(h.Complete))
	mux.Handle("POST /v1/beef/{matchId}/cancel", authed(h.Cancel))
	mux.Handle("POST /v1/beef/{matchId}/dispute", authed(h.Dispute))
}

// List handles GET /v1/beef?status=&clan_id=
func (h *BeefHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter model.BeefFilter
	if raw := optionalQuery(r, "status"); raw != nil {
		status := model.BeefStatus(*raw)
		if !status.IsValid() {
			WriteError(w, model.NewValidationError([]model.FieldError{{Field: "status", Message: "unknown beef status"}}))
			return
		}
		filter.Status = &status
	}
	filter.ClanID = optionalQuery(r, "clan_id")

	WriteCollection(w, h.beef.List(r.Context(), filter))
}

// Create handles POST /v1/beef
func (h *BeefHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateBeefRequest
	if !decodeOrFail(w, r, &req) {
		return
	}

	match, err := h.beef.Create(r.Context(), actor(r), req)
	if err != nil {
		h.fail(w, r, "create beef", err)
		return
	}
	WriteData(w, http.StatusCreated, match, map[string]string{"self": "/v1/beef/" + match.ID})
}

// Get handles GET /v1/beef/{matchId}
func (h *BeefHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.beef.Get(r.Context(), r.PathValue("matchId"))
	if err != nil {
		h.fail(w, r, "get beef", err)
		return
	}
	WriteData(w, http.StatusOK, view, nil)
}

// Respond handles POST /v1/beef/{matchId}/respond
func (h *BeefHandler) Respond(w http.ResponseWriter, r *http.Request) {
	var req model.RespondBeefRequest
	if !decodeOrFail(w, r, &req) {
		return
	}

	match, err := h.beef.Respond(r.Context(), r.PathValue("matchId"), actor(r), req)
	if err != nil {
		h.fail(w, r, "respond to beef", err)
		return
	}
	WriteData(w, http.StatusOK, match, nil)
}

// Complete handles POST /v1/beef/{matchId}/complete
func (h *BeefHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req model.CompleteBeefRequest
	if !decodeOrFail(w, r, &req) {
		return
	}

	match, err := h.beef.Complete(r.Context(), r.PathValue("matchId"), req)
	if err != nil {
		h.fail(w, r, "complete beef", err)
		return
	}
	WriteData(w, http.StatusOK, match, nil)
}

// Cancel handles POST /v1/beef/{matchId}/cancel
func (h *BeefHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	match, err := h.beef.Cancel(r.Context(), r.PathValue("matchId"), actor(r))
	if err != nil {
		h.fail(w, r, "cancel beef", err)
		return
	}
	WriteData(w, http.StatusOK, match, nil)
}

// Dispute handles POST /v1/beef/{matchId}/dispute
func (h *BeefHandler) Dispute(w http.ResponseWriter, r *http.Request) {
	match, err := h.beef.Dispute(r.Context(), r.PathValue("matchId"), actor(r))
	if err != nil {
		h.fail(w, r, "dispute beef", err)
		return
	}
	WriteData(w, http.StatusOK, match, nil)
}
