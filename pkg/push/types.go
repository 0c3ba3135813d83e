package push

import "context"

// Message is a rendered push notification: human-readable text, the
// structured data payload for the client, and the delivery channel the
// client groups it under.
type Message struct {
	Title   string            `json:"title"`
	Body    string            `json:"body"`
	Data    map[string]string `json:"data,omitempty"`
	Channel string            `json:"channel,omitempty"`
}

// Dispatcher delivers a message to a device token. Delivery is
// best-effort: a returned error carries no retry contract, the caller
// decides what a failed send means.
type Dispatcher interface {
	// Name returns the dispatcher identifier.
	Name() string

	// Send delivers a message to the given device token.
	// Implementations must be safe for concurrent use.
	Send(ctx context.Context, token string, msg Message) error
}
