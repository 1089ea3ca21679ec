package ports

import (
	"context"

	"github.com/amirhosseinghanipour/porti/internal/domain"
)

// OrganizationRepository loads and saves organization aggregates from the event store.
// Errors are classified with internal/domain/errors: NotFound, Conflict, Connection, Unexpected.
type OrganizationRepository interface {
	Get(ctx context.Context, id domain.OrganizationID) (*domain.OrganizationAggregate, error)
	Save(ctx context.Context, aggregate *domain.OrganizationAggregate) error
	Create(ctx context.Context, name string) (*domain.Organization, error)
	GetLog(ctx context.Context, id domain.OrganizationID) ([]domain.OrganizationEvent, error)
}

// OrganizationReadModel answers queries from the projected relational store.
type OrganizationReadModel interface {
	GetByID(ctx context.Context, id domain.OrganizationID) (*domain.Organization, error)
	List(ctx context.Context, page domain.PageRequest) ([]domain.OrganizationSummary, error)
}

// OrganizationProjector applies one organization event to the read model.
// Failures are reported as projection errors marked retryable or parkable.
type OrganizationProjector interface {
	Project(ctx context.Context, event domain.OrganizationEvent) error
}
