package domain

import (
	domerrors "github.com/amirhosseinghanipour/porti/internal/domain/errors"
)

// Variant names of organization events.
const (
	EventTypeOrganizationCreated    = "Create"
	EventTypePlatformAccountAdded   = "AddPlatformAccount"
	EventTypePlatformAccountRemoved = "RemovePlatformAccount"
)

// OrganizationEvent is the closed set of events of the organization aggregate:
// OrganizationCreated, PlatformAccountAdded and PlatformAccountRemoved.
type OrganizationEvent interface {
	Event[Organization]
	AggregateID() OrganizationID
	organizationEvent()
}

// OrganizationCreated starts the life of an organization.
type OrganizationCreated struct {
	OrganizationID OrganizationID
	Name           string
}

func (OrganizationCreated) EventType() string             { return EventTypeOrganizationCreated }
func (e OrganizationCreated) AggregateID() OrganizationID { return e.OrganizationID }
func (OrganizationCreated) organizationEvent()            {}

func (e OrganizationCreated) Apply(root *Organization) {
	root.ID = e.OrganizationID
	root.Name = e.Name
}

// PlatformAccountAdded links an account to an organization.
type PlatformAccountAdded struct {
	OrganizationID OrganizationID
	Account        PlatformAccount
}

func (PlatformAccountAdded) EventType() string             { return EventTypePlatformAccountAdded }
func (e PlatformAccountAdded) AggregateID() OrganizationID { return e.OrganizationID }
func (PlatformAccountAdded) organizationEvent()            {}

func (e PlatformAccountAdded) Apply(root *Organization) {
	root.PlatformAccounts = append(root.PlatformAccounts, e.Account)
}

// PlatformAccountRemoved unlinks an account from an organization.
type PlatformAccountRemoved struct {
	OrganizationID OrganizationID
	AccountID      PlatformAccountID
}

func (PlatformAccountRemoved) EventType() string             { return EventTypePlatformAccountRemoved }
func (e PlatformAccountRemoved) AggregateID() OrganizationID { return e.OrganizationID }
func (PlatformAccountRemoved) organizationEvent()            {}

func (e PlatformAccountRemoved) Apply(root *Organization) {
	kept := root.PlatformAccounts[:0:0]
	for _, a := range root.PlatformAccounts {
		if a.ID != e.AccountID {
			kept = append(kept, a)
		}
	}
	root.PlatformAccounts = kept
}

// OrganizationAggregate layers the organization business rules on the generic aggregate.
type OrganizationAggregate struct {
	Aggregate[OrganizationEvent, Organization]
}

// NewOrganizationAggregate returns an aggregate with no history, ready for Create.
func NewOrganizationAggregate() *OrganizationAggregate {
	return &OrganizationAggregate{}
}

// OrganizationAggregateFromEvents rebuilds an organization from its stream.
func OrganizationAggregateFromEvents(events []OrganizationEvent, latestRevision uint64) *OrganizationAggregate {
	return &OrganizationAggregate{
		Aggregate: FromEvents[OrganizationEvent, Organization](events, latestRevision),
	}
}

// Create stages the creation of an organization named name. It is only valid on an aggregate without events.
func (a *OrganizationAggregate) Create(name string) error {
	if !a.IsNew() || len(a.DraftEvents) > 0 {
		return domerrors.ErrAlreadyCreated
	}
	a.Stage(OrganizationCreated{
		OrganizationID: NewOrganizationID(name),
		Name:           name,
	})
	return nil
}

// AddPlatformAccount links account unless an account with the same id is already linked.
func (a *OrganizationAggregate) AddPlatformAccount(account PlatformAccount) error {
	if a.Root.HasAccount(account.ID) {
		return &domerrors.AccountAlreadyAddedError{
			AccountID:      uint64(account.ID),
			OrganizationID: uint64(a.Root.ID),
		}
	}
	a.Stage(PlatformAccountAdded{
		OrganizationID: a.Root.ID,
		Account:        account,
	})
	return nil
}

// RemovePlatformAccount unlinks the account with id accountID, which must currently be linked.
func (a *OrganizationAggregate) RemovePlatformAccount(accountID PlatformAccountID) error {
	if !a.Root.HasAccount(accountID) {
		return &domerrors.AccountNotLinkedError{
			AccountID:      uint64(accountID),
			OrganizationID: uint64(a.Root.ID),
		}
	}
	a.Stage(PlatformAccountRemoved{
		OrganizationID: a.Root.ID,
		AccountID:      accountID,
	})
	return nil
}
