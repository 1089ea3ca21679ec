package webhook

import (
	"context"

	"github.com/amirhosseinghanipour/porti/internal/application/ports"
)

// NoopEmitter discards alerts when WEBHOOK_URL is not set.
type NoopEmitter struct{}

func NewNoopEmitter() *NoopEmitter {
	return &NoopEmitter{}
}

// Emit implements ports.WebhookEmitter.
func (e *NoopEmitter) Emit(ctx context.Context, event ports.ParkedEvent) error {
	return nil
}

var _ ports.WebhookEmitter = (*NoopEmitter)(nil)
