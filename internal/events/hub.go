// Package events fans revalidation notices out to an owner's open views.
package events

import (
	"log/slog"
	"sync"
	"time"
)

// Paths of the views a mutation can invalidate.
const (
	PathHome      = "/"
	PathDashboard = "/dashboard"
	PathSettings  = "/settings"
	PathProfile   = "/profile"
)

// TypeRevalidate tells a client to refetch the listed views.
const TypeRevalidate = "revalidate"

const defaultBuffer = 16

// Event is one message on the live feed.
type Event struct {
	Type      string    `json:"type"`
	Paths     []string  `json:"paths"`
	RoutineID string    `json:"routine_id,omitempty"`
	At        time.Time `json:"at"`
}

// Revalidate builds a revalidation event for paths.
func Revalidate(routineID string, paths ...string) Event {
	return Event{Type: TypeRevalidate, Paths: paths, RoutineID: routineID, At: time.Now()}
}

// Subscription receives events for one user session until it is unregistered
// or replaced, at which point C is closed.
type Subscription struct {
	C      <-chan Event
	ch     chan Event
	closed bool
}

// Hub tracks live subscriptions per user and session.
type Hub struct {
	mu     sync.RWMutex
	active map[string]map[string]*Subscription
	buffer int
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		active: make(map[string]map[string]*Subscription),
		buffer: defaultBuffer,
	}
}

// Register opens a subscription for a user session. An existing subscription
// for the same session is closed.
func (h *Hub) Register(userID, sessionID string) *Subscription {
	ch := make(chan Event, h.buffer)
	sub := &Subscription{C: ch, ch: ch}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.active[userID]; !exists {
		h.active[userID] = make(map[string]*Subscription)
	}
	if existing, exists := h.active[userID][sessionID]; exists {
		existing.close()
	}
	h.active[userID][sessionID] = sub
	slog.Debug("Live feed registered", "user_id", userID, "session_id", sessionID)
	return sub
}

// Unregister removes sub if it is still the current subscription for the session.
func (h *Hub) Unregister(userID, sessionID string, sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessions, ok := h.active[userID]
	if !ok {
		return
	}
	if current, exists := sessions[sessionID]; exists && current == sub {
		current.close()
		delete(sessions, sessionID)
		if len(sessions) == 0 {
			delete(h.active, userID)
		}
		slog.Debug("Live feed unregistered", "user_id", userID, "session_id", sessionID)
	}
}

// Publish delivers ev to every session of userID and returns how many
// received it. Sessions whose buffer is full miss the event.
func (h *Hub) Publish(userID string, ev Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sid, sub := range h.active[userID] {
		select {
		case sub.ch <- ev:
			delivered++
		default:
			slog.Warn("Live feed buffer full, dropping event", "user_id", userID, "session_id", sid)
		}
	}
	return delivered
}

// Count returns the number of live sessions for userID.
func (h *Hub) Count(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.active[userID])
}

// CloseUser ends every subscription for userID.
func (h *Hub) CloseUser(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.active[userID] {
		sub.close()
	}
	delete(h.active, userID)
}

// close must be called with the hub's write lock held.
func (s *Subscription) close() {
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
