package handler

import (
	"net/http"

	"github.com/microarena/api/internal/model"
	"github.com/microarena/api/internal/service"
)

// InviteHandler serves the caller's clan invites
type InviteHandler struct {
	base
	invites *service.InviteService
}

// NewInviteHandler creates a new invite handler
func NewInviteHandler(b base, invites *service.InviteService) *InviteHandler {
	return &InviteHandler{base: b, invites: invites}
}

// RegisterRoutes registers invite routes. Invites are created under
// /v1/clans/{clanId}/invites.
func (h *InviteHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /v1/invites", authed(h.List))
	mux.Handle("POST /v1/invites/{inviteId}/respond", authed(h.Respond))
}

// List handles GET /v1/invites
func (h *InviteHandler) List(w http.ResponseWriter, r *http.Request) {
	invites, err := h.invites.ListInvitesForUser(r.Context(), actor(r))
	if err != nil {
		h.fail(w, r, "list invites", err)
		return
	}
	WriteCollection(w, invites)
}

// Respond handles POST /v1/invites/{inviteId}/respond
func (h *InviteHandler) Respond(w http.ResponseWriter, r *http.Request) {
	var req model.RespondInviteRequest
	if !decodeOrFail(w, r, &req) {
		return
	}

	invite, err := h.invites.RespondToInvite(r.Context(), r.PathValue("inviteId"), actor(r), req)
	if err != nil {
		h.fail(w, r, "respond to invite", err)
		return
	}
	WriteData(w, http.StatusOK, invite, nil)
}
