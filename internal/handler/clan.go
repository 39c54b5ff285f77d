package handler

import (
	"net/http"

	"github.com/microarena/api/internal/model"
	"github.com/microarena/api/internal/service"
)

// ClanHandler handles clan HTTP requests
type ClanHandler struct {
	base
	clans   *service.ClanService
	ranking *service.RankingService
	invites *service.InviteService
}

// NewClanHandler creates a new clan handler
func NewClanHandler(b base, clans *service.ClanService, ranking *service.RankingService, invites *service.InviteService) *ClanHandler {
	return &ClanHandler{base: b, clans: clans, ranking: ranking, invites: invites}
}

// RegisterRoutes registers clan routes
func (h *ClanHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/clans", h.List)
	mux.Handle("POST /v1/clans", authed(h.Create))
	mux.HandleFunc("GET /v1/clans/lookup", h.Lookup)
	mux.HandleFunc("GET /v1/clans/{clanId}", h.Get)
	mux.Handle("PATCH /v1/clans/{clanId}", authed(h.Update))

	// Membership
	mux.Handle("POST /v1/clans/{clanId}/join", authed(h.Join))
	mux.Handle("POST /v1/clans/{clanId}/leave", authed(h.Leave))
	mux.Handle("POST /v1/clans/{clanId}/roles", authed(h.SetRole))
	mux.HandleFunc("GET /v1/clans/{clanId}/members/{userId}/role", h.GetMemberRole)
	mux.Handle("DELETE /v1/clans/{clanId}/members/{userId}", authed(h.Kick))
	mux.Handle("POST /v1/clans/{clanId}/invites", authed(h.Invite))

	// Stats
	mux.HandleFunc("GET /v1/clans/{clanId}/stats", h.Stats)
	mux.HandleFunc("GET /v1/clans/{clanId}/matches", h.RecentMatches)
}

// List handles GET /v1/clans
func (h *ClanHandler) List(w http.ResponseWriter, r *http.Request) {
	WriteCollection(w, h.clans.ListClans(r.Context()))
}

// Create handles POST /v1/clans - the caller becomes founder
func (h *ClanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateClanRequest
	if !decodeOrFail(w, r, &req) {
		return
	}

	clan, err := h.clans.CreateClan(r.Context(), actor(r), req)
	if err != nil {
		h.fail(w, r, "create clan", err)
		return
	}
	WriteData(w, http.StatusCreated, clan, map[string]string{"self": "/v1/clans/" + clan.ID})
}

// Lookup handles GET /v1/clans/lookup?tag=
func (h *ClanHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	clan, err := h.clans.GetClanByTag(r.Context(), r.URL.Query().Get("tag"))
	if err != nil {
		h.fail(w, r, "get clan", err)
		return
	}
	WriteData(w, http.StatusOK, clan, nil)
}

// Get handles GET /v1/clans/{clanId} - clan with its members
func (h *ClanHandler) Get(w http.ResponseWriter, r *http.Request) {
	clan, err := h.clans.GetClanWithMembers(r.Context(), r.PathValue("clanId"))
	if err != nil {
		h.fail(w, r, "get clan", err)
		return
	}
	WriteData(w, http.StatusOK, clan, nil)
}

// Update handles PATCH /v1/clans/{clanId}
func (h *ClanHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateClanRequest
	if !decodeOrFail(w, r, &req) {
		return
	}

	clan, err := h.clans.UpdateClan(r.Context(), r.PathValue("clanId"), actor(r), req)
	if err != nil {
		h.fail(w, r, "update clan", err)
		return
	}
	WriteData(w, http.StatusOK, clan, nil)
}

// Join handles POST /v1/clans/{clanId}/join
func (h *ClanHandler) Join(w http.ResponseWriter, r *http.Request) {
	clan, err := h.clans.JoinClan(r.Context(), r.PathValue("clanId"), actor(r))
	if err != nil {
		h.fail(w, r, "join clan", err)
		return
	}
	WriteData(w, http.StatusOK, clan, nil)
}

// Leave handles POST /v1/clans/{clanId}/leave
func (h *ClanHandler) Leave(w http.ResponseWriter, r *http.Request) {
	result, err := h.clans.LeaveClan(r.Context(), r.PathValue("clanId"), actor(r))
	if err != nil {
		h.fail(w, r, "leave clan", err)
		return
	}
	WriteData(w, http.StatusOK, result, nil)
}

// SetRole handles POST /v1/clans/{clanId}/roles
func (h *ClanHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	var req model.SetRoleRequest
	if !decodeOrFail(w, r, &req) {
		return
	}

	membership, err := h.clans.SetRole(r.Context(), r.PathValue("clanId"), actor(r), req)
	if err != nil {
		h.fail(w, r, "set role", err)
		return
	}
	WriteData(w, http.StatusOK, membership, nil)
}

// GetMemberRole handles GET /v1/clans/{clanId}/members/{userId}/role
func (h *ClanHandler) GetMemberRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.clans.GetClanRole(r.Context(), r.PathValue("clanId"), r.PathValue("userId"))
	if err != nil {
		h.fail(w, r, "get role", err)
		return
	}
	WriteData(w, http.StatusOK, map[string]model.ClanRole{"role": role}, nil)
}

// Kick handles DELETE /v1/clans/{clanId}/members/{userId}
func (h *ClanHandler) Kick(w http.ResponseWriter, r *http.Request) {
	if err := h.clans.Kick(r.Context(), r.PathValue("clanId"), actor(r), r.PathValue("userId")); err != nil {
		h.fail(w, r, "kick member", err)
		return
	}
	WriteNoContent(w)
}

// Invite handles POST /v1/clans/{clanId}/invites
func (h *ClanHandler) Invite(w http.ResponseWriter, r *http.Request) {
	var req model.CreateInviteRequest
	if !decodeOrFail(w, r, &req) {
		return
	}

	invite, err := h.invites.CreateInvite(r.Context(), r.PathValue("clanId"), actor(r), req)
	if err != nil {
		h.fail(w, r, "create invite", err)
		return
	}
	WriteData(w, http.StatusCreated, invite, nil)
}

// Stats handles GET /v1/clans/{clanId}/stats
func (h *ClanHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.ranking.ClanStats(r.Context(), r.PathValue("clanId"))
	if err != nil {
		h.fail(w, r, "clan stats", err)
		return
	}
	WriteData(w, http.StatusOK, stats, nil)
}

// RecentMatches handles GET /v1/clans/{clanId}/matches?limit=
func (h *ClanHandler) RecentMatches(w http.ResponseWriter, r *http.Request) {
	limit, perr := queryLimit(r, defaultRecentMatches, maxRecentMatches)
	if perr != nil {
		WriteError(w, perr)
		return
	}

	matches, err := h.ranking.RecentMatchesForClan(r.Context(), r.PathValue("clanId"), limit)
	if err != nil {
		h.fail(w, r, "clan matches", err)
		return
	}
	WriteCollection(w, matches)
}
