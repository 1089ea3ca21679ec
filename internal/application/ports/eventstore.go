package ports

import (
	"context"
	"errors"
)

// Errors reported by event store adapters.
var (
	ErrStreamNotFound        = errors.New("stream not found")
	ErrWrongExpectedRevision = errors.New("wrong expected revision")
	ErrSubscriptionExists    = errors.New("persistent subscription already exists")
	ErrStoreUnavailable      = errors.New("event store unavailable")
	ErrSubscriptionDropped   = errors.New("subscription dropped")
)

// ExpectedRevision is the precondition of an append.
type ExpectedRevision struct {
	noStream bool
	revision uint64
}

// ExactRevision requires the last event of the stream to be at revision.
func ExactRevision(revision uint64) ExpectedRevision {
	return ExpectedRevision{revision: revision}
}

// NoStream requires the stream not to exist.
func NoStream() ExpectedRevision {
	return ExpectedRevision{noStream: true}
}

// IsNoStream reports whether the precondition is NoStream.
func (r ExpectedRevision) IsNoStream() bool { return r.noStream }

// Revision returns the exact revision. Meaningless when IsNoStream.
func (r ExpectedRevision) Revision() uint64 { return r.revision }

// EventData is an encoded event to append.
type EventData struct {
	EventType string
	Data      []byte
	Metadata  []byte
}

// RecordedEvent is an event as stored, tagged with its position in its stream.
type RecordedEvent struct {
	EventID   string
	StreamID  string
	EventType string
	Revision  uint64
	Data      []byte
	Metadata  []byte
}

// EventStore reads and appends streams.
type EventStore interface {
	// ReadStream returns every event of stream in order, or ErrStreamNotFound.
	ReadStream(ctx context.Context, stream string) ([]RecordedEvent, error)
	// AppendToStream appends events atomically under expected and returns the revision of the last one.
	AppendToStream(ctx context.Context, stream string, expected ExpectedRevision, events ...EventData) (uint64, error)
}

// NackAction tells the store what to do with a negatively acknowledged event.
type NackAction int

const (
	// NackRetry redelivers the event later.
	NackRetry NackAction = iota + 1
	// NackPark moves the event out of the retry queue until replayed by an operator.
	NackPark
)

func (a NackAction) String() string {
	switch a {
	case NackRetry:
		return "retry"
	case NackPark:
		return "park"
	default:
		return "unknown"
	}
}

// DeliveredEvent is an event handed to a persistent subscription consumer.
type DeliveredEvent struct {
	RecordedEvent
	RetryCount int
	// Raw is owned by the adapter that produced the event.
	Raw any
}

// Subscription is one consumer connection to a persistent subscription group.
type Subscription interface {
	// Recv blocks until an event is delivered. Any error is fatal for the consumer.
	Recv(ctx context.Context) (*DeliveredEvent, error)
	Ack(event *DeliveredEvent) error
	Nack(event *DeliveredEvent, action NackAction, reason string) error
	Close() error
}

// PersistentSubscriptions manages server-side persistent subscriptions over all streams.
type PersistentSubscriptions interface {
	// CreatePersistentSubscription creates group filtered to streams starting with streamPrefix,
	// starting from the beginning of history with pinned consumers. Returns ErrSubscriptionExists
	// if the group already exists.
	CreatePersistentSubscription(ctx context.Context, group, streamPrefix string) error
	SubscribePersistent(ctx context.Context, group string, bufferSize int) (Subscription, error)
	// ReplayParked moves parked events of group back into delivery.
	ReplayParked(ctx context.Context, group string) error
}
