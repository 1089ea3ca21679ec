// Package memory is an in-process event store with persistent subscriptions.
// It backs tests and local runs without EventStoreDB.
package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amirhosseinghanipour/porti/internal/application/ports"
)

// ErrUnknownGroup is returned when subscribing to a group that was never created.
var ErrUnknownGroup = errors.New("persistent subscription group not found")

// DefaultRetryDelay is how long a retried event waits before redelivery.
const DefaultRetryDelay = 50 * time.Millisecond

type entry struct {
	event      ports.RecordedEvent
	retryCount int
	// notBefore delays redelivery of a retried event. Zero means deliverable now.
	notBefore time.Time
}

type group struct {
	prefix string
	// cursor is the next index into Store.all not yet considered.
	cursor int
	queue  []*entry
	parked []*entry
	// busy holds streams with an event in flight; later events of the stream wait.
	busy map[string]bool
}

// Store keeps streams and persistent subscription groups in memory. Safe for concurrent use.
type Store struct {
	mu         sync.Mutex
	streams    map[string][]ports.RecordedEvent
	all        []ports.RecordedEvent
	groups     map[string]*group
	changed    chan struct{}
	failure    error
	retryDelay time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithRetryDelay sets the redelivery delay of retried events.
func WithRetryDelay(d time.Duration) Option {
	return func(s *Store) { s.retryDelay = d }
}

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		streams:    make(map[string][]ports.RecordedEvent),
		groups:     make(map[string]*group),
		changed:    make(chan struct{}),
		retryDelay: DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FailNext makes the next read or append return err.
func (s *Store) FailNext(err error) {
	s.mu.Lock()
	s.failure = err
	s.mu.Unlock()
}

func (s *Store) takeFailure() error {
	err := s.failure
	s.failure = nil
	return err
}

// broadcast wakes every waiting Recv. Callers hold mu.
func (s *Store) broadcast() {
	close(s.changed)
	s.changed = make(chan struct{})
}

// ReadStream implements ports.EventStore.
func (s *Store) ReadStream(ctx context.Context, stream string) ([]ports.RecordedEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return nil, err
	}
	events, ok := s.streams[stream]
	if !ok {
		return nil, ports.ErrStreamNotFound
	}
	return slices.Clone(events), nil
}

// AppendToStream implements ports.EventStore.
func (s *Store) AppendToStream(ctx context.Context, stream string, expected ports.ExpectedRevision, events ...ports.EventData) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, errors.New("append: no events")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return 0, err
	}

	existing, exists := s.streams[stream]
	switch {
	case expected.IsNoStream() && exists:
		return 0, fmt.Errorf("%w: stream %s exists", ports.ErrWrongExpectedRevision, stream)
	case !expected.IsNoStream() && !exists:
		return 0, fmt.Errorf("%w: stream %s does not exist", ports.ErrWrongExpectedRevision, stream)
	case !expected.IsNoStream() && existing[len(existing)-1].Revision != expected.Revision():
		return 0, fmt.Errorf("%w: stream %s is at %d, expected %d", ports.ErrWrongExpectedRevision,
			stream, existing[len(existing)-1].Revision, expected.Revision())
	}

	next := uint64(len(existing))
	for _, e := range events {
		rec := ports.RecordedEvent{
			EventID:   uuid.NewString(),
			StreamID:  stream,
			EventType: e.EventType,
			Revision:  next,
			Data:      slices.Clone(e.Data),
			Metadata:  slices.Clone(e.Metadata),
		}
		existing = append(existing, rec)
		s.all = append(s.all, rec)
		next++
	}
	s.streams[stream] = existing
	s.broadcast()
	return next - 1, nil
}

// CreatePersistentSubscription implements ports.PersistentSubscriptions.
func (s *Store) CreatePersistentSubscription(ctx context.Context, name, streamPrefix string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[name]; ok {
		return ports.ErrSubscriptionExists
	}
	s.groups[name] = &group{prefix: streamPrefix, busy: make(map[string]bool)}
	return nil
}

// SubscribePersistent implements ports.PersistentSubscriptions.
func (s *Store) SubscribePersistent(ctx context.Context, name string, _ int) (ports.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGroup, name)
	}
	return &subscription{store: s, group: g, inFlight: make(map[string]*entry)}, nil
}

// ReplayParked implements ports.PersistentSubscriptions.
func (s *Store) ReplayParked(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownGroup, name)
	}
	for _, e := range g.parked {
		e.retryCount = 0
		e.notBefore = time.Time{}
	}
	g.queue = append(g.parked, g.queue...)
	g.parked = nil
	s.broadcast()
	return nil
}

// Parked returns the events currently parked in group name.
func (s *Store) Parked(name string) []ports.RecordedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[name]
	if !ok {
		return nil
	}
	out := make([]ports.RecordedEvent, 0, len(g.parked))
	for _, e := range g.parked {
		out = append(out, e.event)
	}
	return out
}

// next pops the first deliverable entry of g. When nothing is deliverable it returns the
// earliest time a delayed entry becomes due, or the zero time. Callers hold mu.
func (s *Store) next(g *group, now time.Time) (*entry, time.Time) {
	for ; g.cursor < len(s.all); g.cursor++ {
		if ev := s.all[g.cursor]; strings.HasPrefix(ev.StreamID, g.prefix) {
			g.queue = append(g.queue, &entry{event: ev})
		}
	}
	var (
		wakeAt  time.Time
		delayed map[string]bool
	)
	for i, e := range g.queue {
		stream := e.event.StreamID
		if g.busy[stream] || delayed[stream] {
			continue
		}
		if now.Before(e.notBefore) {
			// Later events of the stream wait behind the delayed one.
			if delayed == nil {
				delayed = make(map[string]bool)
			}
			delayed[stream] = true
			if wakeAt.IsZero() || e.notBefore.Before(wakeAt) {
				wakeAt = e.notBefore
			}
			continue
		}
		g.queue = slices.Delete(g.queue, i, i+1)
		g.busy[stream] = true
		return e, time.Time{}
	}
	return nil, wakeAt
}

type subscription struct {
	store    *Store
	group    *group
	inFlight map[string]*entry
	closed   bool
}

func (sub *subscription) Recv(ctx context.Context) (*ports.DeliveredEvent, error) {
	s := sub.store
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.mu.Lock()
		if sub.closed {
			s.mu.Unlock()
			return nil, ports.ErrSubscriptionDropped
		}
		e, wakeAt := s.next(sub.group, time.Now())
		if e != nil {
			sub.inFlight[e.event.EventID] = e
			s.mu.Unlock()
			return &ports.DeliveredEvent{RecordedEvent: e.event, RetryCount: e.retryCount}, nil
		}
		wait := s.changed
		s.mu.Unlock()

		var (
			timer *time.Timer
			due   <-chan time.Time
		)
		if !wakeAt.IsZero() {
			timer = time.NewTimer(time.Until(wakeAt))
			due = timer.C
		}
		select {
		case <-ctx.Done():
		case <-wait:
		case <-due:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

// settle removes ev from the in-flight set and frees its stream. Callers hold mu.
func (sub *subscription) settle(ev *ports.DeliveredEvent) (*entry, error) {
	if sub.closed {
		return nil, ports.ErrSubscriptionDropped
	}
	e, ok := sub.inFlight[ev.EventID]
	if !ok {
		return nil, fmt.Errorf("event %s is not in flight", ev.EventID)
	}
	delete(sub.inFlight, ev.EventID)
	delete(sub.group.busy, e.event.StreamID)
	return e, nil
}

func (sub *subscription) Ack(ev *ports.DeliveredEvent) error {
	s := sub.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := sub.settle(ev); err != nil {
		return err
	}
	s.broadcast()
	return nil
}

func (sub *subscription) Nack(ev *ports.DeliveredEvent, action ports.NackAction, _ string) error {
	s := sub.store
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := sub.settle(ev)
	if err != nil {
		return err
	}
	switch action {
	case ports.NackPark:
		sub.group.parked = append(sub.group.parked, e)
	default:
		e.retryCount++
		e.notBefore = time.Now().Add(s.retryDelay)
		sub.group.queue = slices.Insert(sub.group.queue, 0, e)
	}
	s.broadcast()
	return nil
}

// Close returns unsettled events to the group for redelivery.
func (sub *subscription) Close() error {
	s := sub.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.closed {
		return nil
	}
	sub.closed = true
	pending := make([]*entry, 0, len(sub.inFlight))
	for _, e := range sub.inFlight {
		pending = append(pending, e)
		delete(sub.group.busy, e.event.StreamID)
	}
	slices.SortFunc(pending, func(a, b *entry) int {
		return strings.Compare(a.event.StreamID, b.event.StreamID)
	})
	sub.group.queue = append(pending, sub.group.queue...)
	sub.inFlight = nil
	s.broadcast()
	return nil
}

var (
	_ ports.EventStore              = (*Store)(nil)
	_ ports.PersistentSubscriptions = (*Store)(nil)
)
