package eventstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/porti/internal/application/ports"
	"github.com/amirhosseinghanipour/porti/internal/infrastructure/projection"
)

// SubscriberConfig names the persistent subscription group and its client buffer.
type SubscriberConfig struct {
	Group      string
	BufferSize int
}

// OrganizationSubscriber feeds organization events from a persistent subscription to a projector.
// Several workers may run Run concurrently against the same group.
type OrganizationSubscriber struct {
	subs      ports.PersistentSubscriptions
	codec     *Codec
	projector ports.OrganizationProjector
	notifier  ports.ParkedEventNotifier
	metrics   *projection.Metrics
	cfg       SubscriberConfig
	log       zerolog.Logger
}

// NewOrganizationSubscriber wires a subscriber. notifier and metrics may be nil.
func NewOrganizationSubscriber(
	subs ports.PersistentSubscriptions,
	codec *Codec,
	projector ports.OrganizationProjector,
	notifier ports.ParkedEventNotifier,
	metrics *projection.Metrics,
	cfg SubscriberConfig,
	log zerolog.Logger,
) *OrganizationSubscriber {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 10
	}
	return &OrganizationSubscriber{
		subs:      subs,
		codec:     codec,
		projector: projector,
		notifier:  notifier,
		metrics:   metrics,
		cfg:       cfg,
		log:       log.With().Str("subscription", cfg.Group).Logger(),
	}
}

// PrepareSubscription creates the group over all organization streams. An existing group is fine.
func (s *OrganizationSubscriber) PrepareSubscription(ctx context.Context) error {
	err := s.subs.CreatePersistentSubscription(ctx, s.cfg.Group, s.codec.StreamPrefix())
	if errors.Is(err, ports.ErrSubscriptionExists) {
		s.log.Debug().Msg("persistent subscription already exists")
		return nil
	}
	if err != nil {
		return fmt.Errorf("create persistent subscription %s: %w", s.cfg.Group, err)
	}
	s.log.Info().Str("prefix", s.codec.StreamPrefix()).Msg("persistent subscription created")
	return nil
}

// ReplayParked asks the store to redeliver every parked event of the group.
func (s *OrganizationSubscriber) ReplayParked(ctx context.Context) error {
	if err := s.subs.ReplayParked(ctx, s.cfg.Group); err != nil {
		return fmt.Errorf("replay parked %s: %w", s.cfg.Group, err)
	}
	s.log.Info().Msg("parked events replayed")
	return nil
}

// Run consumes events until the subscription fails or ctx is cancelled.
// Every subscription error is returned; respawning is the caller's job.
func (s *OrganizationSubscriber) Run(ctx context.Context, workerID int) error {
	log := s.log.With().Int("worker_id", workerID).Logger()

	sub, err := s.subs.SubscribePersistent(ctx, s.cfg.Group, s.cfg.BufferSize)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", s.cfg.Group, err)
	}
	defer sub.Close()
	log.Info().Msg("projection worker subscribed")

	for {
		ev, err := sub.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("receive: %w", err)
		}
		if err := s.handle(ctx, sub, ev, log); err != nil {
			return err
		}
	}
}

func (s *OrganizationSubscriber) handle(ctx context.Context, sub ports.Subscription, ev *ports.DeliveredEvent, log zerolog.Logger) error {
	start := time.Now()
	s.metrics.Started(ev.EventType)
	evLog := log.With().
		Str("event_id", ev.EventID).
		Str("event_type", ev.EventType).
		Str("stream", ev.StreamID).
		Uint64("revision", ev.Revision).
		Int("retry_count", ev.RetryCount).
		Logger()

	var err error
	event, decodeErr := s.codec.Decode(ev.Data, ev.EventType)
	if decodeErr != nil {
		err = projection.Park(decodeErr)
	} else {
		err = s.projector.Project(ctx, event)
	}

	var outcome string
	switch {
	case err == nil:
		outcome = projection.OutcomeAcked
		if ackErr := sub.Ack(ev); ackErr != nil {
			s.metrics.Completed(ev.EventType, projection.OutcomeAckFailed, time.Since(start))
			return fmt.Errorf("ack %s: %w", ev.EventID, ackErr)
		}
		evLog.Debug().Str("outcome", outcome).Msg("event projected")

	case projection.IsRetryable(err):
		outcome = projection.OutcomeRetried
		if nackErr := sub.Nack(ev, ports.NackRetry, err.Error()); nackErr != nil {
			s.metrics.Completed(ev.EventType, projection.OutcomeNackFailed, time.Since(start))
			return fmt.Errorf("nack retry %s: %w", ev.EventID, nackErr)
		}
		evLog.Warn().Err(err).Str("outcome", outcome).Msg("projection failed, event will be retried")

	default:
		outcome = projection.OutcomeParked
		if nackErr := sub.Nack(ev, ports.NackPark, err.Error()); nackErr != nil {
			s.metrics.Completed(ev.EventType, projection.OutcomeNackFailed, time.Since(start))
			return fmt.Errorf("nack park %s: %w", ev.EventID, nackErr)
		}
		evLog.Error().Err(err).Str("outcome", outcome).Msg("projection failed, event parked")
		s.notifyParked(ctx, ev, err, evLog)
	}

	s.metrics.Completed(ev.EventType, outcome, time.Since(start))
	return nil
}

func (s *OrganizationSubscriber) notifyParked(ctx context.Context, ev *ports.DeliveredEvent, cause error, log zerolog.Logger) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.NotifyParked(ctx, ports.ParkedEvent{
		Subscription: s.cfg.Group,
		EventID:      ev.EventID,
		EventType:    ev.EventType,
		Stream:       ev.StreamID,
		Revision:     ev.Revision,
		Reason:       cause.Error(),
	})
	if err != nil {
		log.Warn().Err(err).Msg("parked event notification failed")
	}
}
