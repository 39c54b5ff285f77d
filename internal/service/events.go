package service

import (
	"encoding/json"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventBeefCreated   EventType = "beef.created"
	EventBeefAccepted  EventType = "beef.accepted"
	EventBeefDeclined  EventType = "beef.declined"
	EventBeefCompleted EventType = "beef.completed"
	EventBeefCancelled EventType = "beef.cancelled"
	EventBeefDisputed  EventType = "beef.disputed"

	EventArenaCreated   EventType = "arena.created"
	EventArenaAccepted  EventType = "arena.accepted"
	EventArenaDeclined  EventType = "arena.declined"
	EventArenaJoined    EventType = "arena.joined"
	EventArenaCompleted EventType = "arena.completed"
	EventArenaCancelled EventType = "arena.cancelled"

	// System events
	EventHeartbeat EventType = "heartbeat"
)

const (
	defaultHeartbeat = 30 * time.Second
	subscriberBuffer = 100
)

// Event is a match lifecycle notification.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
	// ClanIDs routes the event to clan feeds; not sent to clients.
	ClanIDs []string `json:"-"`
}

// Format returns the SSE formatted string
func (e *Event) Format() string {
	data, _ := json.Marshal(e.Data)
	return "event: " + string(e.Type) + "\ndata: " + string(data) + "\n\n"
}

// EventPublisher receives match events. Publish must not block.
type EventPublisher interface {
	Publish(event *Event)
}

// Subscriber represents a connected SSE client. An empty ClanID follows
// every match.
type Subscriber struct {
	ID     string
	ClanID string
	Events chan *Event
	Done   chan struct{}
}

// EventHub fans match events out to SSE subscribers.
type EventHub struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]*Subscriber // clanID ("" = global) -> subscriberID -> subscriber
	heartbeat   *time.Ticker
	done        chan struct{}
	closeOnce   sync.Once
}

// NewEventHub creates a hub that heartbeats every interval (default 30s).
func NewEventHub(interval time.Duration) *EventHub {
	if interval <= 0 {
		interval = defaultHeartbeat
	}
	hub := &EventHub{
		subscribers: make(map[string]map[string]*Subscriber),
		heartbeat:   time.NewTicker(interval),
		done:        make(chan struct{}),
	}
	go hub.sendHeartbeats()
	return hub
}

// Subscribe adds a subscriber for one clan, or for all matches when clanID
// is empty.
func (h *EventHub) Subscribe(clanID, subscriberID string) *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &Subscriber{
		ID:     subscriberID,
		ClanID: clanID,
		Events: make(chan *Event, subscriberBuffer),
		Done:   make(chan struct{}),
	}

	if h.subscribers[clanID] == nil {
		h.subscribers[clanID] = make(map[string]*Subscriber)
	}
	h.subscribers[clanID][subscriberID] = sub

	return sub
}

// Unsubscribe removes a subscriber
func (h *EventHub) Unsubscribe(clanID, subscriberID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clanSubs, ok := h.subscribers[clanID]; ok {
		if sub, ok := clanSubs[subscriberID]; ok {
			close(sub.Done)
			close(sub.Events)
			delete(clanSubs, subscriberID)
		}
		if len(clanSubs) == 0 {
			delete(h.subscribers, clanID)
		}
	}
}

// Publish sends an event to the global feed and to each clan it names. A
// subscriber with a full buffer misses the event.
func (h *EventHub) Publish(event *Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	h.deliver(h.subscribers[""], event)

	seen := make(map[string]bool, len(event.ClanIDs))
	for _, clanID := range event.ClanIDs {
		if clanID == "" || seen[clanID] {
			continue
		}
		seen[clanID] = true
		h.deliver(h.subscribers[clanID], event)
	}
}

func (h *EventHub) deliver(subs map[string]*Subscriber, event *Event) {
	for _, sub := range subs {
		select {
		case sub.Events <- event:
		default:
		}
	}
}

// sendHeartbeats sends periodic heartbeats to all subscribers
func (h *EventHub) sendHeartbeats() {
	for {
		select {
		case <-h.heartbeat.C:
			event := &Event{
				Type: EventHeartbeat,
				Data: map[string]string{
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				},
			}
			h.mu.RLock()
			for _, clanSubs := range h.subscribers {
				h.deliver(clanSubs, event)
			}
			h.mu.RUnlock()
		case <-h.done:
			return
		}
	}
}

// Close stops the hub and ends every subscription. Safe to call twice.
func (h *EventHub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.heartbeat.Stop()

		h.mu.Lock()
		defer h.mu.Unlock()

		for clanID, clanSubs := range h.subscribers {
			for _, sub := range clanSubs {
				close(sub.Done)
				close(sub.Events)
			}
			delete(h.subscribers, clanID)
		}
	})
}

// SubscriberCount returns the number of subscribers for a clan feed
func (h *EventHub) SubscriberCount(clanID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[clanID])
}

// MatchEvent is the payload of every beef and arena event.
type MatchEvent struct {
	MatchID string `json:"match_id"`
	Source  string `json:"source"`
	Status  string `json:"status"`
	ActorID string `json:"actor_id,omitempty"`
	At      int64  `json:"at"`
}

func newMatchEvent(typ EventType, payload MatchEvent, clanIDs ...string) *Event {
	return &Event{Type: typ, Data: payload, ClanIDs: clanIDs}
}
