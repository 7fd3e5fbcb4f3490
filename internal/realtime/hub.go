// Package realtime fans computed events out to per-user subscriber
// channels. Both the direct-insert notification path and the deadline
// sweep publish through the same Hub, so every delivery route is
// uniform.
package realtime

import (
	"sync"

	"github.com/nlechev/taskflow/internal/model"
)

// Event names pushed to clients.
const (
	EventWorkSessionUpdate = "workSessionUpdate"
	EventNewNotification   = "new_notification"
)

// Work session update types.
const (
	SessionStart = "start"
	SessionStop  = "stop"
)

// WorkSessionUpdate is the payload of a workSessionUpdate event.
type WorkSessionUpdate struct {
	UserID string `json:"userId"`
	TaskID string `json:"taskId,omitempty"`
	Type   string `json:"type"`
}

// Event is a single realtime message addressed to one recipient.
type Event struct {
	Name    string `json:"event"`
	Payload any    `json:"payload"`
}

// NewSessionEvent builds a workSessionUpdate event.
func NewSessionEvent(userID, taskID, updateType string) Event {
	return Event{
		Name: EventWorkSessionUpdate,
		Payload: WorkSessionUpdate{
			UserID: userID,
			TaskID: taskID,
			Type:   updateType,
		},
	}
}

// NewNotificationEvent builds a new_notification event carrying the
// full notification record.
func NewNotificationEvent(n model.Notification) Event {
	return Event{Name: EventNewNotification, Payload: n}
}

// subscriberBuffer is the per-subscriber channel depth. A subscriber
// that falls further behind than this drops events rather than blocking
// publishers.
const subscriberBuffer = 16

// Hub routes events to subscribers keyed by recipient user id.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan Event]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan Event]struct{})}
}

// Subscribe registers a new subscriber for the given user and returns
// its event channel together with an unsubscribe function. The channel
// is closed on unsubscribe.
func (h *Hub) Subscribe(userID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan Event]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[userID], ch)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}

	return ch, cancel
}

// Publish delivers an event to every subscriber of the given user
// without blocking; a full subscriber channel drops the event.
func (h *Hub) Publish(userID string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[userID] {
		select {
		case ch <- ev:
		default:
			// Drop if the subscriber is not keeping up
		}
	}
}

// SubscriberCount returns the number of live subscribers for a user.
func (h *Hub) SubscriberCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}
