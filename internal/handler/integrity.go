package handler

import (
	"net/http"

	"github.com/microarena/api/internal/model"
	"github.com/microarena/api/internal/service"
)

// IntegrityHandler records and resolves integrity events
type IntegrityHandler struct {
	base
	integrity *service.IntegrityService
}

// NewIntegrityHandler creates a new integrity handler
func NewIntegrityHandler(b base, integrity *service.IntegrityService) *IntegrityHandler {
	return &IntegrityHandler{base: b, integrity: integrity}
}

// RegisterRoutes registers integrity routes. Reports are attributed to the
// calling user.
func (h *IntegrityHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("POST /v1/integrity/events", authed(h.Record))
	mux.Handle("POST /v1/integrity/events/{eventId}/resolve", authed(h.Resolve))
}

// Record handles POST /v1/integrity/events
func (h *IntegrityHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req model.RecordIntegrityRequest
	if !decodeOrFail(w, r, &req) {
		return
	}

	event, err := h.integrity.RecordEvent(r.Context(), actor(r), req)
	if err != nil {
		h.fail(w, r, "record integrity event", err)
		return
	}
	WriteData(w, http.StatusCreated, event, nil)
}

// Resolve handles POST /v1/integrity/events/{eventId}/resolve
func (h *IntegrityHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	event, err := h.integrity.ResolveEvent(r.Context(), r.PathValue("eventId"))
	if err != nil {
		h.fail(w, r, "resolve integrity event", err)
		return
	}
	WriteData(w, http.StatusOK, event, nil)
}
