package realtime

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrHubClosed is returned when operations are attempted on a closed hub.
var ErrHubClosed = errors.New("realtime hub is closed")

// Subscription is one client's attachment to a named channel.
type Subscription struct {
	channel string
	events  chan Event
}

// Channel returns the subscribed channel name.
func (s *Subscription) Channel() string {
	return s.channel
}

// Events exposes the receive side of the subscription.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Hub fans events out to subscribers grouped by channel name. Delivery is
// fire-and-forget: a subscriber whose buffer is full misses the event and
// must self-heal from a fresh snapshot request.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
	closed bool
	logger *zap.Logger
}

// NewHub builds a hub with the given per-subscriber buffer size.
func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:   make(map[string]map[*Subscription]struct{}),
		buffer: buffer,
		logger: logger,
	}
}

// Subscribe attaches a new subscriber to the named channel.
func (h *Hub) Subscribe(channel string) (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}

	sub := &Subscription{channel: channel, events: make(chan Event, h.buffer)}
	if h.subs[channel] == nil {
		h.subs[channel] = make(map[*Subscription]struct{})
	}
	h.subs[channel][sub] = struct{}{}
	return sub, nil
}

// Unsubscribe detaches the subscriber and closes its event stream.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	group, ok := h.subs[sub.channel]
	if !ok {
		return
	}
	if _, ok := group[sub]; !ok {
		return
	}
	delete(group, sub)
	if len(group) == 0 {
		delete(h.subs, sub.channel)
	}
	close(sub.events)
}

// Publish delivers the event to every subscriber of its channel without
// blocking; slow subscribers are skipped. The sends happen under the read
// lock: Unsubscribe and Close close event channels under the write lock, so
// a send can never hit a closed channel. The sends are non-blocking, so the
// lock hold time stays bounded.
func (h *Hub) Publish(ctx context.Context, event Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return ErrHubClosed
	}
	for sub := range h.subs[event.Channel] {
		select {
		case sub.events <- event:
		default:
			h.logger.Warn("subscriber buffer full, event dropped",
				zap.String("channel", event.Channel),
				zap.String("type", event.Type),
			)
		}
	}
	return nil
}

// SubscriberCount reports attached subscribers for the named channel.
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[channel])
}

// Close detaches all subscribers and rejects further publishes.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for channel, group := range h.subs {
		for sub := range group {
			close(sub.events)
		}
		delete(h.subs, channel)
	}
}
