package handler

import (
	"net/http"

	"github.com/microarena/api/internal/model"
	"github.com/microarena/api/internal/service"
)

const (
	defaultRecentMatches = 10
	maxRecentMatches     = 50
)

// UserHandler handles user registration, profiles and per-user stats.
type UserHandler struct {
	base
	clans     *service.ClanService
	ranking   *service.RankingService
	integrity *service.IntegrityService
}

// NewUserHandler creates a new user handler
func NewUserHandler(b base, clans *service.ClanService, ranking *service.RankingService, integrity *service.IntegrityService) *UserHandler {
	return &UserHandler{base: b, clans: clans, ranking: ranking, integrity: integrity}
}

// RegisterRoutes registers user routes
func (h *UserHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/users", h.Create)
	mux.Handle("PATCH /v1/users/me", authed(h.UpdateMe))
	mux.HandleFunc("GET /v1/users/{userId}", h.Get)
	mux.HandleFunc("GET /v1/users/lookup", h.Lookup)
	mux.HandleFunc("GET /v1/users/{userId}/profile", h.Profile)
	mux.HandleFunc("GET /v1/users/{userId}/stats", h.Stats)
	mux.HandleFunc("GET /v1/users/{userId}/matches", h.RecentMatches)
	mux.HandleFunc("GET /v1/users/{userId}/integrity", h.Integrity)
}

// Create handles POST /v1/users. Registering an existing id refreshes it.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateUserRequest
	if !decodeOrFail(w, r, &req) {
		return
	}

	user, err := h.clans.CreateUser(r.Context(), req)
	if err != nil {
		h.fail(w, r, "create user", err)
		return
	}
	WriteData(w, http.StatusCreated, user, map[string]string{"self": "/v1/users/" + user.ID})
}

// UpdateMe handles PATCH /v1/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateUserRequest
	if !decodeOrFail(w, r, &req) {
		return
	}

	user, err := h.clans.UpdateUser(r.Context(), actor(r), req)
	if err != nil {
		h.fail(w, r, "update user", err)
		return
	}
	WriteData(w, http.StatusOK, user, nil)
}

// Get handles GET /v1/users/{userId}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.clans.GetUser(r.Context(), r.PathValue("userId"))
	if err != nil {
		h.fail(w, r, "get user", err)
		return
	}
	WriteData(w, http.StatusOK, user, nil)
}

// Lookup handles GET /v1/users/lookup?username=
func (h *UserHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	user, err := h.clans.GetUserByUsername(r.Context(), r.URL.Query().Get("username"))
	if err != nil {
		h.fail(w, r, "get user", err)
		return
	}
	WriteData(w, http.StatusOK, user, nil)
}

// Profile handles GET /v1/users/{userId}/profile
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.ranking.UserProfile(r.Context(), r.PathValue("userId"))
	if err != nil {
		h.fail(w, r, "user profile", err)
		return
	}
	WriteData(w, http.StatusOK, profile, nil)
}

// Stats handles GET /v1/users/{userId}/stats
func (h *UserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.ranking.UserStats(r.Context(), r.PathValue("userId"))
	if err != nil {
		h.fail(w, r, "user stats", err)
		return
	}
	WriteData(w, http.StatusOK, stats, nil)
}

// RecentMatches handles GET /v1/users/{userId}/matches?limit=
func (h *UserHandler) RecentMatches(w http.ResponseWriter, r *http.Request) {
	limit, perr := queryLimit(r, defaultRecentMatches, maxRecentMatches)
	if perr != nil {
		WriteError(w, perr)
		return
	}

	matches, err := h.ranking.RecentMatchesForUser(r.Context(), r.PathValue("userId"), limit)
	if err != nil {
		h.fail(w, r, "user matches", err)
		return
	}
	WriteCollection(w, matches)
}

// Integrity handles GET /v1/users/{userId}/integrity
func (h *UserHandler) Integrity(w http.ResponseWriter, r *http.Request) {
	summary, err := h.integrity.Summary(r.Context(), r.PathValue("userId"))
	if err != nil {
		h.fail(w, r, "integrity summary", err)
		return
	}
	WriteData(w, http.StatusOK, summary, nil)
}
