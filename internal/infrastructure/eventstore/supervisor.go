package eventstore

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
)

// Supervisor restarts a worker function after it fails, waiting with exponential backoff.
type Supervisor struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	log          zerolog.Logger
}

// NewSupervisor returns a supervisor whose respawn delay grows from initialDelay up to maxDelay.
func NewSupervisor(initialDelay, maxDelay time.Duration, log zerolog.Logger) *Supervisor {
	if initialDelay <= 0 {
		initialDelay = 500 * time.Millisecond
	}
	if maxDelay < initialDelay {
		maxDelay = initialDelay
	}
	return &Supervisor{initialDelay: initialDelay, maxDelay: maxDelay, log: log}
}

// Run calls fn until ctx is cancelled. A run lasting longer than the max delay resets the backoff.
func (s *Supervisor) Run(ctx context.Context, name string, fn func(context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.initialDelay
	b.MaxInterval = s.maxDelay

	for {
		started := time.Now()
		err := fn(ctx)
		if ctx.Err() != nil {
			s.log.Info().Str("worker", name).Msg("worker stopped")
			return nil
		}
		if time.Since(started) > s.maxDelay {
			b.Reset()
		}
		delay := b.NextBackOff()
		s.log.Error().Err(err).Str("worker", name).Dur("respawn_in", delay).Msg("worker exited, respawning")

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}
