package eventstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/porti/internal/application/ports"
	"github.com/amirhosseinghanipour/porti/internal/domain"
	domerrors "github.com/amirhosseinghanipour/porti/internal/domain/errors"
)

// OrganizationRepository stores organization aggregates as event streams.
type OrganizationRepository struct {
	store ports.EventStore
	codec *Codec
	log   zerolog.Logger
}

// NewOrganizationRepository returns a repository over store.
func NewOrganizationRepository(store ports.EventStore, codec *Codec, log zerolog.Logger) *OrganizationRepository {
	return &OrganizationRepository{store: store, codec: codec, log: log}
}

// eventMetadata is written next to every appended event. Decoders ignore it.
type eventMetadata struct {
	CorrelationID string `json:"correlation_id"`
}

// Get replays the stream of id into an aggregate.
func (r *OrganizationRepository) Get(ctx context.Context, id domain.OrganizationID) (*domain.OrganizationAggregate, error) {
	events, revision, err := r.read(ctx, id)
	if err != nil {
		return nil, err
	}
	return domain.OrganizationAggregateFromEvents(events, revision), nil
}

// GetLog returns the decoded events of id in stream order without folding them.
func (r *OrganizationRepository) GetLog(ctx context.Context, id domain.OrganizationID) ([]domain.OrganizationEvent, error) {
	events, _, err := r.read(ctx, id)
	return events, err
}

// Create appends a Create event for name to a stream that must not exist yet.
// A second organization with the same name yields Conflict.
func (r *OrganizationRepository) Create(ctx context.Context, name string) (*domain.Organization, error) {
	agg := domain.NewOrganizationAggregate()
	if err := agg.Create(name); err != nil {
		return nil, err
	}
	if err := r.Save(ctx, agg); err != nil {
		return nil, err
	}
	org := agg.Root.Clone()
	return &org, nil
}

// Save appends the draft events of agg in one call, expecting the stream to be at
// agg.LatestRevision (or absent for a new aggregate). On success the drafts become source events.
func (r *OrganizationRepository) Save(ctx context.Context, agg *domain.OrganizationAggregate) error {
	if len(agg.DraftEvents) == 0 {
		return nil
	}
	stream := r.codec.StreamName(agg.Root.ID)

	metadata, err := json.Marshal(eventMetadata{CorrelationID: uuid.NewString()})
	if err != nil {
		return domerrors.Unexpected(err)
	}
	data := make([]ports.EventData, 0, len(agg.DraftEvents))
	for _, e := range agg.DraftEvents {
		typeName, payload, err := r.codec.Encode(e)
		if err != nil {
			r.log.Error().Err(err).Str("stream", stream).Msg("encode event failed")
			return domerrors.Unexpected(err)
		}
		data = append(data, ports.EventData{EventType: typeName, Data: payload, Metadata: metadata})
	}

	expected := ports.ExactRevision(agg.LatestRevision)
	if agg.IsNew() {
		expected = ports.NoStream()
	}
	revision, err := r.store.AppendToStream(ctx, stream, expected, data...)
	if err != nil {
		return r.classify(err, stream, "append")
	}
	agg.Commit(revision)
	return nil
}

func (r *OrganizationRepository) read(ctx context.Context, id domain.OrganizationID) ([]domain.OrganizationEvent, uint64, error) {
	stream := r.codec.StreamName(id)
	records, err := r.store.ReadStream(ctx, stream)
	if errors.Is(err, ports.ErrStreamNotFound) {
		return nil, 0, &domerrors.NotFoundError{ID: uint64(id)}
	}
	if err != nil {
		return nil, 0, r.classify(err, stream, "read")
	}
	if len(records) == 0 {
		return nil, 0, &domerrors.NotFoundError{ID: uint64(id)}
	}

	events := make([]domain.OrganizationEvent, 0, len(records))
	for _, rec := range records {
		event, err := r.codec.Decode(rec.Data, rec.EventType)
		if err != nil {
			r.log.Error().Err(err).
				Str("stream", stream).
				Str("event_id", rec.EventID).
				Uint64("revision", rec.Revision).
				Msg("decode stored event failed")
			return nil, 0, domerrors.Unexpected(err)
		}
		events = append(events, event)
	}
	return events, records[len(records)-1].Revision, nil
}

func (r *OrganizationRepository) classify(err error, stream, op string) error {
	cause := fmt.Errorf("%s %s: %w", op, stream, err)
	switch {
	case errors.Is(err, ports.ErrWrongExpectedRevision):
		return domerrors.Conflict(cause)
	case errors.Is(err, ports.ErrStoreUnavailable), errors.Is(err, context.DeadlineExceeded):
		r.log.Warn().Err(err).Str("stream", stream).Msg("event store unavailable")
		return domerrors.Connection(cause)
	default:
		r.log.Error().Err(err).Str("stream", stream).Msg("event store error")
		return domerrors.Unexpected(cause)
	}
}

var _ ports.OrganizationRepository = (*OrganizationRepository)(nil)
