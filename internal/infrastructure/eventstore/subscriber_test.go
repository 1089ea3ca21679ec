package eventstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/porti/internal/application/ports"
	"github.com/amirhosseinghanipour/porti/internal/domain"
	"github.com/amirhosseinghanipour/porti/internal/infrastructure/eventstore/memory"
	"github.com/amirhosseinghanipour/porti/internal/infrastructure/projection"
)

type scriptedProjector struct {
	mu     sync.Mutex
	calls  map[string]int
	script func(name string, attempt int) error
}

func (p *scriptedProjector) Project(_ context.Context, event domain.OrganizationEvent) error {
	created, ok := event.(domain.OrganizationCreated)
	if !ok {
		return nil
	}
	p.mu.Lock()
	p.calls[created.Name]++
	attempt := p.calls[created.Name]
	p.mu.Unlock()
	return p.script(created.Name, attempt)
}

func (p *scriptedProjector) count(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[name]
}

type recordingNotifier struct {
	mu     sync.Mutex
	parked []ports.ParkedEvent
}

func (n *recordingNotifier) NotifyParked(_ context.Context, ev ports.ParkedEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.parked = append(n.parked, ev)
	return nil
}

func (n *recordingNotifier) len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.parked)
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	var total float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	metrics:
		for _, m := range f.GetMetric() {
			got := make(map[string]string)
			for _, lp := range m.GetLabel() {
				got[lp.GetName()] = lp.GetValue()
			}
			for k, v := range labels {
				if got[k] != v {
					continue metrics
				}
			}
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestPrepareSubscriptionIsIdempotent(t *testing.T) {
	store := memory.NewStore()
	sub := NewOrganizationSubscriber(store, NewCodec(""), &scriptedProjector{}, nil, nil,
		SubscriberConfig{Group: "g"}, zerolog.Nop())
	for i := 0; i < 2; i++ {
		if err := sub.PrepareSubscription(context.Background()); err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}
}

func TestSubscriberAcksRetriesAndParks(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	codec := NewCodec("")
	repo := NewOrganizationRepository(store, codec, zerolog.Nop())
	errDuplicate := errors.New("duplicate key")

	projector := &scriptedProjector{
		calls: make(map[string]int),
		script: func(name string, attempt int) error {
			switch {
			case name == "flaky" && attempt == 1:
				return projection.Retry(errors.New("connection reset"))
			case name == "dup":
				return projection.Park(errDuplicate)
			}
			return nil
		},
	}
	notifier := &recordingNotifier{}
	reg := prometheus.NewRegistry()
	subscriber := NewOrganizationSubscriber(store, codec, projector, notifier, projection.NewMetrics(reg),
		SubscriberConfig{Group: "projection", BufferSize: 4}, zerolog.Nop())
	if err := subscriber.PrepareSubscription(ctx); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"ok", "flaky", "dup"} {
		if _, err := repo.Create(ctx, name); err != nil {
			t.Fatal(err)
		}
	}
	// An event of a type no codec version knows.
	if _, err := store.AppendToStream(ctx, codec.StreamName(1), ports.NoStream(),
		ports.EventData{EventType: codec.StreamPrefix() + "Rename/1", Data: []byte(`{}`)}); err != nil {
		t.Fatal(err)
	}
	// Outside the subscription prefix.
	if _, err := store.AppendToStream(ctx, "Other/1", ports.NoStream(),
		ports.EventData{EventType: "X", Data: []byte(`{}`)}); err != nil {
		t.Fatal(err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- subscriber.Run(runCtx, 1) }()

	eventually(t, func() bool {
		return projector.count("ok") == 1 && projector.count("flaky") == 2 &&
			projector.count("dup") == 1 && notifier.len() == 2
	})
	eventually(t, func() bool {
		return counterValue(t, reg, "porti_projection_completed_total", nil) == 5
	})
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("run returned %v", err)
	}

	if got := counterValue(t, reg, "porti_projection_completed_total", map[string]string{"outcome": projection.OutcomeAcked}); got != 2 {
		t.Fatalf("acked = %v", got)
	}
	if got := counterValue(t, reg, "porti_projection_completed_total", map[string]string{"outcome": projection.OutcomeRetried}); got != 1 {
		t.Fatalf("retried = %v", got)
	}
	if got := counterValue(t, reg, "porti_projection_completed_total", map[string]string{"outcome": projection.OutcomeParked}); got != 2 {
		t.Fatalf("parked = %v", got)
	}
	if got := counterValue(t, reg, "porti_projection_started_total", nil); got != 5 {
		t.Fatalf("started = %v", got)
	}

	parked := store.Parked("projection")
	if len(parked) != 2 {
		t.Fatalf("parked = %+v", parked)
	}
	for _, n := range notifier.parked {
		if n.Subscription != "projection" || n.EventID == "" || n.Reason == "" {
			t.Fatalf("notification = %+v", n)
		}
	}
}

func TestReplayParkedRedelivers(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	codec := NewCodec("")
	repo := NewOrganizationRepository(store, codec, zerolog.Nop())
	projector := &scriptedProjector{
		calls: make(map[string]int),
		script: func(_ string, attempt int) error {
			if attempt == 1 {
				return projection.Park(errors.New("bad row"))
			}
			return nil
		},
	}
	subscriber := NewOrganizationSubscriber(store, codec, projector, nil, nil,
		SubscriberConfig{Group: "g"}, zerolog.Nop())
	if err := subscriber.PrepareSubscription(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Create(ctx, "Acme"); err != nil {
		t.Fatal(err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = subscriber.Run(runCtx, 1) }()

	eventually(t, func() bool { return len(store.Parked("g")) == 1 })
	if err := subscriber.ReplayParked(ctx); err != nil {
		t.Fatal(err)
	}
	eventually(t, func() bool { return projector.count("Acme") == 2 && len(store.Parked("g")) == 0 })
}

func TestRunFailsWithoutGroup(t *testing.T) {
	subscriber := NewOrganizationSubscriber(memory.NewStore(), NewCodec(""), &scriptedProjector{}, nil, nil,
		SubscriberConfig{Group: "missing"}, zerolog.Nop())
	if err := subscriber.Run(context.Background(), 1); !errors.Is(err, memory.ErrUnknownGroup) {
		t.Fatalf("err = %v", err)
	}
}

func TestRunStopsOnCancelWhileProjectionKeepsRetrying(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(memory.WithRetryDelay(10 * time.Millisecond))
	codec := NewCodec("")
	repo := NewOrganizationRepository(store, codec, zerolog.Nop())
	projector := &scriptedProjector{
		calls: make(map[string]int),
		script: func(string, int) error {
			return projection.Retry(errors.New("db down"))
		},
	}
	subscriber := NewOrganizationSubscriber(store, codec, projector, nil, nil,
		SubscriberConfig{Group: "g"}, zerolog.Nop())
	if err := subscriber.PrepareSubscription(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Create(ctx, "Acme"); err != nil {
		t.Fatal(err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- subscriber.Run(runCtx, 1) }()

	eventually(t, func() bool { return projector.count("Acme") >= 2 })
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("run did not return after cancel")
	}
	// A 10ms delay over the test's lifetime allows a handful of attempts, not a spin.
	if n := projector.count("Acme"); n > 200 {
		t.Fatalf("projected %d times", n)
	}
}

type failingAckSubscription struct {
	event     *ports.DeliveredEvent
	delivered bool
}

func (s *failingAckSubscription) Recv(ctx context.Context) (*ports.DeliveredEvent, error) {
	if s.delivered {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	s.delivered = true
	return s.event, nil
}

func (s *failingAckSubscription) Ack(*ports.DeliveredEvent) error {
	return ports.ErrSubscriptionDropped
}

func (s *failingAckSubscription) Nack(*ports.DeliveredEvent, ports.NackAction, string) error {
	return ports.ErrSubscriptionDropped
}

func (s *failingAckSubscription) Close() error { return nil }

type singleSubscription struct {
	sub ports.Subscription
}

func (s singleSubscription) CreatePersistentSubscription(context.Context, string, string) error {
	return nil
}

func (s singleSubscription) SubscribePersistent(context.Context, string, int) (ports.Subscription, error) {
	return s.sub, nil
}

func (s singleSubscription) ReplayParked(context.Context, string) error { return nil }

func TestSettleFailureIsCounted(t *testing.T) {
	codec := NewCodec("")
	eventType, data, err := codec.Encode(domain.OrganizationCreated{OrganizationID: 1, Name: "Acme"})
	if err != nil {
		t.Fatal(err)
	}
	delivered := &ports.DeliveredEvent{RecordedEvent: ports.RecordedEvent{
		EventID:   "e-1",
		StreamID:  codec.StreamName(1),
		EventType: eventType,
		Data:      data,
	}}

	tests := []struct {
		name    string
		script  func(string, int) error
		outcome string
	}{
		{"ack", func(string, int) error { return nil }, projection.OutcomeAckFailed},
		{"nack retry", func(string, int) error { return projection.Retry(errors.New("timeout")) }, projection.OutcomeNackFailed},
		{"nack park", func(string, int) error { return projection.Park(errors.New("bad row")) }, projection.OutcomeNackFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := prometheus.NewRegistry()
			projector := &scriptedProjector{calls: make(map[string]int), script: tt.script}
			subscriber := NewOrganizationSubscriber(
				singleSubscription{sub: &failingAckSubscription{event: delivered}},
				codec, projector, nil, projection.NewMetrics(reg),
				SubscriberConfig{Group: "g"}, zerolog.Nop())

			err := subscriber.Run(context.Background(), 1)
			if !errors.Is(err, ports.ErrSubscriptionDropped) {
				t.Fatalf("run returned %v", err)
			}
			if got := counterValue(t, reg, "porti_projection_completed_total", map[string]string{"outcome": tt.outcome}); got != 1 {
				t.Fatalf("%s = %v", tt.outcome, got)
			}
			if started := counterValue(t, reg, "porti_projection_started_total", nil); started != 1 {
				t.Fatalf("started = %v", started)
			}
		})
	}
}
