package messaging

import (
	"sync"

	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
)

var _ Broadcaster = (*EventBroadcaster)(nil)

// EventBroadcaster fans auth and entitlement events out to per-user
// subscriber channels. Instances are constructor-injected; delivery is
// non-blocking and drops events for subscribers that stopped draining.
type EventBroadcaster struct {
	subscribers map[string][]chan Event
	maxPerUser  int
	mu          sync.Mutex
	logger      *logging.ChanneledLogger
}

func NewEventBroadcaster(maxPerUser int, logger *logging.ChanneledLogger) *EventBroadcaster {
	return &EventBroadcaster{
		subscribers: make(map[string][]chan Event),
		maxPerUser:  maxPerUser,
		logger:      logger,
	}
}

// Subscribe registers a new channel for userID. Returns ok=false when the
// user is already at the connection cap.
func (b *EventBroadcaster) Subscribe(userID string) (chan Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.maxPerUser > 0 && len(b.subscribers[userID]) >= b.maxPerUser {
		b.logger.Subscribe().Warn("Subscriber cap reached", "userId", userID, "cap", b.maxPerUser)
		return nil, false
	}

	ch := make(chan Event, 16)
	b.subscribers[userID] = append(b.subscribers[userID], ch)
	b.logger.Subscribe().Debug("Subscriber registered", "userId", userID, "count", len(b.subscribers[userID]))
	return ch, true
}

// Unsubscribe removes and closes ch.
func (b *EventBroadcaster) Unsubscribe(userID string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	channels := b.subscribers[userID]
	for i, c := range channels {
		if c == ch {
			b.subscribers[userID] = append(channels[:i], channels[i+1:]...)
			close(c)
			break
		}
	}
	if len(b.subscribers[userID]) == 0 {
		delete(b.subscribers, userID)
	}
	b.logger.Subscribe().Debug("Subscriber removed", "userId", userID)
}

// Publish delivers event to every subscriber of userID without blocking.
func (b *EventBroadcaster) Publish(userID string, event Event) {
	b.mu.Lock()
	channels := make([]chan Event, len(b.subscribers[userID]))
	copy(channels, b.subscribers[userID])
	b.mu.Unlock()

	var dropped int
	for _, ch := range channels {
		select {
		case ch <- event:
		default:
			dropped++
		}
	}

	if dropped > 0 {
		b.logger.Subscribe().Warn("Dropped events for slow subscribers", "userId", userID, "type", event.Type, "dropped", dropped)
	} else if len(channels) > 0 {
		b.logger.Subscribe().Debug("Event published", "userId", userID, "type", event.Type, "subscribers", len(channels))
	}
}

func (b *EventBroadcaster) SubscriberCount(userID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers[userID])
}
