// Package notify delivers per-user change events: record inserts and
// deletes, and session sign-in/sign-out.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Ram4lh0/Sleep-App/internal"
	"github.com/Ram4lh0/Sleep-App/internal/observability"
)

type EventType string

const (
	EventInsert    EventType = "INSERT"
	EventDelete    EventType = "DELETE"
	EventSignedIn  EventType = "SIGNED_IN"
	EventSignedOut EventType = "SIGNED_OUT"
)

// Event is one change visible to a single user.
type Event struct {
	Type       EventType             `json:"type"`
	UserID     string                `json:"user_id"`
	RecordID   string                `json:"record_id,omitempty"`
	Record     *internal.SleepRecord `json:"record,omitempty"`
	SessionID  string                `json:"session_id,omitempty"`
	OccurredAt time.Time             `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

const defaultBuffer = 16

// Hub fans events out to in-process subscribers filtered by user id. A
// subscriber whose buffer is full misses the event; the publisher never
// blocks.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*subscription]struct{}
	buffer int
	closed bool
}

type subscription struct {
	ch   chan Event
	once sync.Once
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*subscription]struct{}), buffer: defaultBuffer}
}

// Subscribe returns a channel of the user's events and a cancel func that
// must be called to release it. The channel is closed on cancel or when the
// hub closes.
func (h *Hub) Subscribe(userID string) (<-chan Event, func()) {
	sub := &subscription{ch: make(chan Event, h.buffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.ch)
		return sub.ch, func() {}
	}
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*subscription]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	h.mu.Unlock()
	observability.SubscriberAdded()

	cancel := func() {
		h.mu.Lock()
		set, ok := h.subs[userID]
		if ok {
			if _, present := set[sub]; present {
				delete(set, sub)
				if len(set) == 0 {
					delete(h.subs, userID)
				}
				observability.SubscriberRemoved()
			}
		}
		h.mu.Unlock()
		sub.once.Do(func() { close(sub.ch) })
	}
	return sub.ch, cancel
}

// Publish delivers ev to every subscriber of ev.UserID.
func (h *Hub) Publish(ctx context.Context, ev Event) error {
	if ev.UserID == "" {
		return errors.New("notify: event without user id")
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return errors.New("notify: hub closed")
	}
	for sub := range h.subs[ev.UserID] {
		select {
		case sub.ch <- ev:
		default:
			observability.EventDropped()
		}
	}
	return nil
}

// Subscribers reports how many subscriptions exist for userID.
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

// Close ends every subscription.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for userID, set := range h.subs {
		for sub := range set {
			sub.once.Do(func() { close(sub.ch) })
			observability.SubscriberRemoved()
		}
		delete(h.subs, userID)
	}
	return nil
}

// MultiPublisher hands each event to every publisher in order and returns
// the first error after trying them all.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, ev Event) error {
	var firstErr error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
