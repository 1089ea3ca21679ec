package queue

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/porti/internal/application/ports"
)

// LogNotifier only logs parked events. Used when Redis is not configured.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NotifyParked(_ context.Context, event ports.ParkedEvent) error {
	n.log.Warn().
		Str("subscription", event.Subscription).
		Str("event_id", event.EventID).
		Str("event_type", event.EventType).
		Str("stream", event.Stream).
		Msg("event parked (no alert queue configured)")
	return nil
}

var _ ports.ParkedEventNotifier = (*LogNotifier)(nil)
