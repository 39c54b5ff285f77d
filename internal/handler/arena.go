package handler

import (
	"net/http"

	"github.com/microarena/api/internal/model"
	"github.com/microarena/api/internal/service"
)

// ArenaHandler handles the open/direct match board
type ArenaHandler struct {
	base
	arena *service.ArenaService
}

// NewArenaHandler creates a new arena handler
func NewArenaHandler(b base, arena *service.ArenaService) *ArenaHandler {
	return &ArenaHandler{base: b, arena: arena}
}

// RegisterRoutes registers arena routes
func (h *ArenaHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/arena", h.List)
	mux.Handle("POST /v1/arena", authed(h.Create))
	mux.HandleFunc("GET /v1/arena/{matchId}", h.Get)
	mux.Handle("POST /v1/arena/{matchId}/respond", authed(h.Respond))
	mux.Handle("POST /v1/arena/{matchId}/join", authed(h.Join))
	mux.Handle("POST /v1/arena/{matchId}/complete", authed(h.Complete))
	mux.Handle("POST /v1/arena/{matchId}/cancel", authed(h.Cancel))
}

// List handles GET /v1/arena
func (h *ArenaHandler) List(w http.ResponseWriter, r *http.Request) {
	WriteCollection(w, h.arena.ListViews(r.Context()))
}

// Create handles POST /v1/arena
func (h *ArenaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateArenaRequest
	if !decodeOrFail(w, r, &req) {
		return
	}

	match, err := h.arena.Create(r.Context(), actor(r), req)
	if err != nil {
		h.fail(w, r, "create arena match", err)
		return
	}
	WriteData(w, http.StatusCreated, match, map[string]string{"self": "/v1/arena/" + match.ID})
}

// Get handles GET /v1/arena/{matchId}
func (h *ArenaHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.arena.GetView(r.Context(), r.PathValue("matchId"))
	if err != nil {
		h.fail(w, r, "get arena match", err)
		return
	}
	WriteData(w, http.StatusOK, view, nil)
}

// Respond handles POST /v1/arena/{matchId}/respond
func (h *ArenaHandler) Respond(w http.ResponseWriter, r *http.Request) {
	var req model.RespondArenaRequest
	if !decodeOrFail(w, r, &req) {
		return
	}

	match, err := h.arena.Respond(r.Context(), r.PathValue("matchId"), actor(r), req)
	if err != nil {
		h.fail(w, r, "respond to arena match", err)
		return
	}
	WriteData(w, http.StatusOK, match, nil)
}

// Join handles POST /v1/arena/{matchId}/join
func (h *ArenaHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req model.JoinArenaRequest
	if !decodeOrFail(w, r, &req) {
		return
	}

	match, err := h.arena.Join(r.Context(), r.PathValue("matchId"), actor(r), req)
	if err != nil {
		h.fail(w, r, "join arena match", err)
		return
	}
	WriteData(w, http.StatusOK, match, nil)
}

// Complete handles POST /v1/arena/{matchId}/complete
func (h *ArenaHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req model.CompleteArenaRequest
	if !decodeOrFail(w, r, &req) {
		return
	}

	match, err := h.arena.Complete(r.Context(), r.PathValue("matchId"), actor(r), req)
	if err != nil {
		h.fail(w, r, "complete arena match", err)
		return
	}
	WriteData(w, http.StatusOK, match, nil)
}

// Cancel handles POST /v1/arena/{matchId}/cancel
func (h *ArenaHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	match, err := h.arena.Cancel(r.Context(), r.PathValue("matchId"), actor(r))
	if err != nil {
		h.fail(w, r, "cancel arena match", err)
		return
	}
	WriteData(w, http.StatusOK, match, nil)
}
