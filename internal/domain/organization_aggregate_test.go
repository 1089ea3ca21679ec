package domain

import (
	"errors"
	"reflect"
	"testing"

	domerrors "github.com/amirhosseinghanipour/porti/internal/domain/errors"
)

func createdAcme(t *testing.T) *OrganizationAggregate {
	t.Helper()
	agg := NewOrganizationAggregate()
	if err := agg.Create("Acme"); err != nil {
		t.Fatal(err)
	}
	agg.Commit(0)
	return agg
}

func TestCreate(t *testing.T) {
	agg := NewOrganizationAggregate()
	if err := agg.Create("Acme"); err != nil {
		t.Fatal(err)
	}
	want := Organization{ID: NewOrganizationID("Acme"), Name: "Acme"}
	if !reflect.DeepEqual(agg.Root, want) {
		t.Fatalf("root = %+v", agg.Root)
	}
	if err := agg.Create("Acme"); !errors.Is(err, domerrors.ErrAlreadyCreated) {
		t.Fatalf("second create err = %v", err)
	}
}

func TestAddPlatformAccount(t *testing.T) {
	agg := createdAcme(t)
	account := NewPlatformAccount("bot", "Github", agg.Root.ID)
	if err := agg.AddPlatformAccount(account); err != nil {
		t.Fatal(err)
	}
	if len(agg.Root.PlatformAccounts) != 1 || agg.Root.PlatformAccounts[0].ID != NewPlatformAccountID("bot", NewOrganizationID("Acme")) {
		t.Fatalf("accounts = %+v", agg.Root.PlatformAccounts)
	}
	if len(agg.DraftEvents) != 1 {
		t.Fatalf("drafts = %d", len(agg.DraftEvents))
	}

	err := agg.AddPlatformAccount(account)
	if !errors.Is(err, domerrors.ErrAccountAlreadyAdded) {
		t.Fatalf("duplicate add err = %v", err)
	}
	var typed *domerrors.AccountAlreadyAddedError
	if !errors.As(err, &typed) || typed.AccountID != uint64(account.ID) {
		t.Fatalf("typed err = %+v", typed)
	}
	if len(agg.DraftEvents) != 1 {
		t.Fatal("rejected add must not stage an event")
	}
}

func TestRemovePlatformAccount(t *testing.T) {
	agg := createdAcme(t)
	account := NewPlatformAccount("bot", "Github", agg.Root.ID)

	if err := agg.RemovePlatformAccount(account.ID); !errors.Is(err, domerrors.ErrAccountNotLinked) {
		t.Fatalf("remove of unlinked account err = %v", err)
	}

	if err := agg.AddPlatformAccount(account); err != nil {
		t.Fatal(err)
	}
	if err := agg.RemovePlatformAccount(account.ID); err != nil {
		t.Fatal(err)
	}
	if len(agg.Root.PlatformAccounts) != 0 {
		t.Fatalf("accounts = %+v", agg.Root.PlatformAccounts)
	}
	if err := agg.AddPlatformAccount(account); err != nil {
		t.Fatalf("re-add after remove: %v", err)
	}
}

func TestReplayMatchesStagedState(t *testing.T) {
	agg := createdAcme(t)
	for _, name := range []string{"bot", "ci", "release"} {
		if err := agg.AddPlatformAccount(NewPlatformAccount(name, "Github", agg.Root.ID)); err != nil {
			t.Fatal(err)
		}
	}
	if err := agg.RemovePlatformAccount(NewPlatformAccountID("ci", agg.Root.ID)); err != nil {
		t.Fatal(err)
	}
	agg.Commit(4)

	rebuilt := OrganizationAggregateFromEvents(agg.SourceEvents, 4)
	if !reflect.DeepEqual(rebuilt.Root, agg.Root) {
		t.Fatalf("replayed root %+v differs from staged root %+v", rebuilt.Root, agg.Root)
	}
	if rebuilt.LatestRevision != 4 {
		t.Fatalf("revision = %d", rebuilt.LatestRevision)
	}
}
