// Package messaging provides real-time push of auth and entitlement state
// changes to connected clients.
package messaging

// Event is a state-change notification pushed to subscribers.
type Event struct {
	Type   string `json:"type"`
	UserID string `json:"userId,omitempty"`
	Detail any    `json:"detail,omitempty"`
}

// Event types pushed over the subscription socket.
const (
	EventSignedIn      = "auth:signed-in"
	EventSignedOut     = "auth:signed-out"
	EventTokenRefresh  = "auth:token-refreshed"
	EventSessionLost   = "auth:session-lost"
	EventAccessChanged = "access:changed"
)

// Broadcaster manages per-user subscriber channels and delivers events.
type Broadcaster interface {
	Subscribe(userID string) (ch chan Event, ok bool)
	Unsubscribe(userID string, ch chan Event)
	Publish(userID string, event Event)
	SubscriberCount(userID string) int
}
