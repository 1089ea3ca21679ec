// Package esdb adapts the EventStoreDB gRPC client to the event store ports.
package esdb

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/EventStore/EventStore-Client-Go/v4/esdb"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/porti/internal/application/ports"
)

// Store implements ports.EventStore and ports.PersistentSubscriptions over EventStoreDB.
type Store struct {
	client *esdb.Client
	log    zerolog.Logger
}

// Open connects using an esdb:// connection string.
func Open(connectionString string, log zerolog.Logger) (*Store, error) {
	cfg, err := esdb.ParseConnectionString(connectionString)
	if err != nil {
		return nil, fmt.Errorf("parse eventstore connection string: %w", err)
	}
	client, err := esdb.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("eventstore client: %w", err)
	}
	return &Store{client: client, log: log}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// ReadStream implements ports.EventStore.
func (s *Store) ReadStream(ctx context.Context, stream string) ([]ports.RecordedEvent, error) {
	rs, err := s.client.ReadStream(ctx, stream, esdb.ReadStreamOptions{
		Direction: esdb.Forwards,
		From:      esdb.Start{},
	}, ^uint64(0))
	if err != nil {
		return nil, translate(err)
	}
	defer rs.Close()

	var out []ports.RecordedEvent
	for {
		ev, err := rs.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, translate(err)
		}
		out = append(out, recorded(ev))
	}
	if len(out) == 0 {
		return nil, ports.ErrStreamNotFound
	}
	return out, nil
}

// AppendToStream implements ports.EventStore.
func (s *Store) AppendToStream(ctx context.Context, stream string, expected ports.ExpectedRevision, events ...ports.EventData) (uint64, error) {
	opts := esdb.AppendToStreamOptions{ExpectedRevision: esdb.Revision(expected.Revision())}
	if expected.IsNoStream() {
		opts.ExpectedRevision = esdb.NoStream{}
	}
	data := make([]esdb.EventData, 0, len(events))
	for _, e := range events {
		data = append(data, esdb.EventData{
			ContentType: esdb.ContentTypeJson,
			EventType:   e.EventType,
			Data:        e.Data,
			Metadata:    e.Metadata,
		})
	}
	res, err := s.client.AppendToStream(ctx, stream, opts, data...)
	if err != nil {
		return 0, translate(err)
	}
	return res.NextExpectedVersion, nil
}

// CreatePersistentSubscription implements ports.PersistentSubscriptions.
func (s *Store) CreatePersistentSubscription(ctx context.Context, group, streamPrefix string) error {
	settings := esdb.SubscriptionSettingsDefault()
	settings.ConsumerStrategyName = esdb.ConsumerStrategyPinned
	err := s.client.CreatePersistentSubscriptionToAll(ctx, group, esdb.PersistentAllSubscriptionOptions{
		Settings:  &settings,
		StartFrom: esdb.Start{},
		Filter: &esdb.SubscriptionFilter{
			Type:     esdb.StreamFilterType,
			Prefixes: []string{streamPrefix},
		},
	})
	return translate(err)
}

// SubscribePersistent implements ports.PersistentSubscriptions.
func (s *Store) SubscribePersistent(ctx context.Context, group string, bufferSize int) (ports.Subscription, error) {
	sub, err := s.client.SubscribeToPersistentSubscriptionToAll(ctx, group, esdb.SubscribeToPersistentSubscriptionOptions{
		BufferSize: uint32(bufferSize),
	})
	if err != nil {
		return nil, translate(err)
	}
	return &subscription{sub: sub, log: s.log.With().Str("subscription", group).Logger()}, nil
}

// ReplayParked implements ports.PersistentSubscriptions.
func (s *Store) ReplayParked(ctx context.Context, group string) error {
	return translate(s.client.ReplayParkedMessagesToAll(ctx, group, esdb.ReplayParkedMessagesOptions{}))
}

type subscription struct {
	sub *esdb.PersistentSubscription
	log zerolog.Logger
}

func (s *subscription) Recv(ctx context.Context) (*ports.DeliveredEvent, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		msg := s.sub.Recv()
		switch {
		case msg.EventAppeared != nil:
			ev := msg.EventAppeared.Event
			return &ports.DeliveredEvent{
				RecordedEvent: recorded(ev),
				RetryCount:    msg.EventAppeared.RetryCount,
				Raw:           ev,
			}, nil
		case msg.SubscriptionDropped != nil:
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %w", ports.ErrSubscriptionDropped, translate(msg.SubscriptionDropped.Error))
		default:
			s.log.Trace().Msg("checkpoint reached")
		}
	}
}

func (s *subscription) Ack(ev *ports.DeliveredEvent) error {
	raw, err := resolved(ev)
	if err != nil {
		return err
	}
	return translate(s.sub.Ack(raw))
}

func (s *subscription) Nack(ev *ports.DeliveredEvent, action ports.NackAction, reason string) error {
	raw, err := resolved(ev)
	if err != nil {
		return err
	}
	nack := esdb.NackActionRetry
	if action == ports.NackPark {
		nack = esdb.NackActionPark
	}
	return translate(s.sub.Nack(reason, nack, raw))
}

func (s *subscription) Close() error {
	return s.sub.Close()
}

func resolved(ev *ports.DeliveredEvent) (*esdb.ResolvedEvent, error) {
	raw, ok := ev.Raw.(*esdb.ResolvedEvent)
	if !ok {
		return nil, fmt.Errorf("event %s was not delivered by eventstore", ev.EventID)
	}
	return raw, nil
}

func recorded(ev *esdb.ResolvedEvent) ports.RecordedEvent {
	rec := ev.OriginalEvent()
	return ports.RecordedEvent{
		EventID:   rec.EventID.String(),
		StreamID:  rec.StreamID,
		EventType: rec.EventType,
		Revision:  rec.EventNumber,
		Data:      rec.Data,
		Metadata:  rec.UserMetadata,
	}
}

// translate maps client error codes onto the port errors. The client error stays in the chain.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var esErr *esdb.Error
	if !errors.As(err, &esErr) {
		return err
	}
	switch esErr.Code() {
	case esdb.ErrorCodeResourceNotFound:
		return fmt.Errorf("%w: %w", ports.ErrStreamNotFound, err)
	case esdb.ErrorCodeWrongExpectedVersion:
		return fmt.Errorf("%w: %w", ports.ErrWrongExpectedRevision, err)
	case esdb.ErrorCodeResourceAlreadyExists:
		return fmt.Errorf("%w: %w", ports.ErrSubscriptionExists, err)
	case esdb.ErrorCodeConnectionClosed, esdb.ErrorCodeDeadlineExceeded:
		return fmt.Errorf("%w: %w", ports.ErrStoreUnavailable, err)
	}
	return err
}

var (
	_ ports.EventStore              = (*Store)(nil)
	_ ports.PersistentSubscriptions = (*Store)(nil)
)
