package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/microarena/api/internal/model"
	"github.com/microarena/api/internal/service"
)

// EventsHandler streams match events over SSE
type EventsHandler struct {
	base
	hub   *service.EventHub
	clans *service.ClanService
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(b base, hub *service.EventHub, clans *service.ClanService) *EventsHandler {
	return &EventsHandler{base: b, hub: hub, clans: clans}
}

// RegisterRoutes registers event routes. Nothing is registered without a hub.
func (h *EventsHandler) RegisterRoutes(mux *http.ServeMux) {
	if h.hub == nil {
		return
	}
	mux.HandleFunc("GET /v1/events", h.Stream)
}

// Stream handles GET /v1/events?clan_id=. Without clan_id every match
// event is streamed.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	clanID := r.URL.Query().Get("clan_id")
	if clanID != "" {
		if _, err := h.clans.GetClan(r.Context(), clanID); err != nil {
			h.fail(w, r, "stream events", err)
			return
		}
	}

	rc := http.NewResponseController(w)
	// Streams outlive the server write timeout
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		WriteError(w, model.NewInternalError("streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	subscriberID := uuid.New().String()
	sub := h.hub.Subscribe(clanID, subscriberID)
	defer h.hub.Unsubscribe(clanID, subscriberID)

	fmt.Fprintf(w, "event: connected\ndata: {\"subscriber_id\":\"%s\"}\n\n", subscriberID)
	if err := rc.Flush(); err != nil {
		return
	}

	for {
		select {
		case event, ok := <-sub.Events:
			if !ok {
				return
			}
			fmt.Fprint(w, event.Format())
			if err := rc.Flush(); err != nil {
				return
			}

		case <-sub.Done:
			return

		case <-r.Context().Done():
			return
		}
	}
}
