package eventstore

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/porti/internal/application/ports"
	"github.com/amirhosseinghanipour/porti/internal/domain"
	domerrors "github.com/amirhosseinghanipour/porti/internal/domain/errors"
	"github.com/amirhosseinghanipour/porti/internal/infrastructure/eventstore/memory"
)

func newTestRepository() (*OrganizationRepository, *memory.Store) {
	store := memory.NewStore()
	return NewOrganizationRepository(store, NewCodec(""), zerolog.Nop()), store
}

func TestCreateThenGet(t *testing.T) {
	repo, _ := newTestRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, "Acme")
	if err != nil {
		t.Fatal(err)
	}
	if created.ID != domain.NewOrganizationID("Acme") || created.Name != "Acme" {
		t.Fatalf("created = %+v", created)
	}

	agg, err := repo.Get(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if agg.Root.ID != created.ID || agg.Root.Name != "Acme" || len(agg.Root.PlatformAccounts) != 0 {
		t.Fatalf("root = %+v", agg.Root)
	}
	if agg.LatestRevision != 0 || len(agg.SourceEvents) != 1 || len(agg.DraftEvents) != 0 {
		t.Fatalf("aggregate = %+v", agg)
	}
}

func TestAddAccountThenGet(t *testing.T) {
	repo, _ := newTestRepository()
	ctx := context.Background()
	org, err := repo.Create(ctx, "Acme")
	if err != nil {
		t.Fatal(err)
	}

	agg, err := repo.Get(ctx, org.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := agg.AddPlatformAccount(domain.NewPlatformAccount("bot", "Github", org.ID)); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, agg); err != nil {
		t.Fatal(err)
	}
	if agg.LatestRevision != 1 || len(agg.DraftEvents) != 0 {
		t.Fatalf("not committed: %+v", agg)
	}

	reloaded, err := repo.Get(ctx, org.ID)
	if err != nil {
		t.Fatal(err)
	}
	accounts := reloaded.Root.PlatformAccounts
	want := domain.NewPlatformAccountID("bot", domain.NewOrganizationID("Acme"))
	if len(accounts) != 1 || accounts[0].ID != want || accounts[0].Platform.Name != "Github" {
		t.Fatalf("accounts = %+v", accounts)
	}
}

func TestAddSameAccountTwice(t *testing.T) {
	repo, _ := newTestRepository()
	ctx := context.Background()
	org, _ := repo.Create(ctx, "Acme")
	account := domain.NewPlatformAccount("bot", "Github", org.ID)

	agg, _ := repo.Get(ctx, org.ID)
	if err := agg.AddPlatformAccount(account); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, agg); err != nil {
		t.Fatal(err)
	}

	agg, _ = repo.Get(ctx, org.ID)
	err := agg.AddPlatformAccount(account)
	if !errors.Is(err, domerrors.ErrAccountAlreadyAdded) {
		t.Fatalf("err = %v", err)
	}
}

func TestSaveStaleRevisionConflicts(t *testing.T) {
	repo, _ := newTestRepository()
	ctx := context.Background()
	org, _ := repo.Create(ctx, "Acme")

	first, _ := repo.Get(ctx, org.ID)
	second, _ := repo.Get(ctx, org.ID)

	if err := first.AddPlatformAccount(domain.NewPlatformAccount("a", "Github", org.ID)); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := second.AddPlatformAccount(domain.NewPlatformAccount("b", "Github", org.ID)); err != nil {
		t.Fatal(err)
	}
	err := repo.Save(ctx, second)
	if !errors.Is(err, domerrors.ErrConflict) {
		t.Fatalf("err = %v", err)
	}
	if len(second.DraftEvents) != 1 {
		t.Fatal("drafts must survive a failed save")
	}
}

func TestCreateSameNameConflicts(t *testing.T) {
	repo, _ := newTestRepository()
	ctx := context.Background()
	if _, err := repo.Create(ctx, "Acme"); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Create(ctx, "Acme"); !errors.Is(err, domerrors.ErrConflict) {
		t.Fatalf("err = %v", err)
	}
}

func TestGetMissing(t *testing.T) {
	repo, _ := newTestRepository()
	_, err := repo.Get(context.Background(), 99)
	var nf *domerrors.NotFoundError
	if !errors.As(err, &nf) || nf.ID != 99 {
		t.Fatalf("err = %v", err)
	}
	if _, err := repo.GetLog(context.Background(), 99); !errors.Is(err, domerrors.ErrNotFound) {
		t.Fatalf("log err = %v", err)
	}
}

func TestStoreErrorsAreClassified(t *testing.T) {
	tests := []struct {
		name  string
		cause error
		want  error
	}{
		{"unavailable", ports.ErrStoreUnavailable, domerrors.ErrConnection},
		{"deadline", context.DeadlineExceeded, domerrors.ErrConnection},
		{"other", errors.New("malformed response"), domerrors.ErrUnexpected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, store := newTestRepository()
			store.FailNext(tt.cause)
			if _, err := repo.Get(context.Background(), 1); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUndecodableHistoryIsUnexpected(t *testing.T) {
	repo, store := newTestRepository()
	codec := NewCodec("")
	_, err := store.AppendToStream(context.Background(), codec.StreamName(5), ports.NoStream(),
		ports.EventData{EventType: codec.StreamPrefix() + "Rename/1", Data: []byte(`{}`)})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Get(context.Background(), 5); !errors.Is(err, domerrors.ErrUnexpected) {
		t.Fatalf("err = %v", err)
	}
}

func TestGetLogAndMetadata(t *testing.T) {
	repo, store := newTestRepository()
	ctx := context.Background()
	org, _ := repo.Create(ctx, "Acme")
	agg, _ := repo.Get(ctx, org.ID)
	account := domain.NewPlatformAccount("bot", "Github", org.ID)
	_ = agg.AddPlatformAccount(account)
	_ = agg.RemovePlatformAccount(account.ID)
	if err := repo.Save(ctx, agg); err != nil {
		t.Fatal(err)
	}

	log, err := repo.GetLog(ctx, org.ID)
	if err != nil {
		t.Fatal(err)
	}
	wantTypes := []string{
		domain.EventTypeOrganizationCreated,
		domain.EventTypePlatformAccountAdded,
		domain.EventTypePlatformAccountRemoved,
	}
	if len(log) != len(wantTypes) {
		t.Fatalf("log = %+v", log)
	}
	for i, e := range log {
		if e.EventType() != wantTypes[i] {
			t.Fatalf("log[%d] = %s, want %s", i, e.EventType(), wantTypes[i])
		}
	}

	records, _ := store.ReadStream(ctx, NewCodec("").StreamName(org.ID))
	var meta eventMetadata
	if err := json.Unmarshal(records[1].Metadata, &meta); err != nil || meta.CorrelationID == "" {
		t.Fatalf("metadata = %s (%v)", records[1].Metadata, err)
	}
	var meta2 eventMetadata
	_ = json.Unmarshal(records[2].Metadata, &meta2)
	if meta2.CorrelationID != meta.CorrelationID {
		t.Fatal("events saved together must share a correlation id")
	}
}

func TestSaveWithoutDraftsIsNoop(t *testing.T) {
	repo, _ := newTestRepository()
	if err := repo.Save(context.Background(), domain.NewOrganizationAggregate()); err != nil {
		t.Fatal(err)
	}
}
