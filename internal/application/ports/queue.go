package ports

import "context"

// ParkedEvent describes an event the projection gave up on.
type ParkedEvent struct {
	Subscription string `json:"subscription"`
	EventID      string `json:"event_id"`
	EventType    string `json:"event_type"`
	Stream       string `json:"stream"`
	Revision     uint64 `json:"revision"`
	Reason       string `json:"reason"`
}

// ParkedEventNotifier tells operators about parked events (async task queue).
type ParkedEventNotifier interface {
	NotifyParked(ctx context.Context, event ParkedEvent) error
}

// WebhookEmitter sends parked-event alerts to an external endpoint.
type WebhookEmitter interface {
	Emit(ctx context.Context, event ParkedEvent) error
}
