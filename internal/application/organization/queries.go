package organization

import (
	"context"

	"github.com/amirhosseinghanipour/porti/internal/application/ports"
	"github.com/amirhosseinghanipour/porti/internal/domain"
)

// GetOrganization reads one organization from the read model. It may lag behind recent commands.
type GetOrganization struct {
	readModel ports.OrganizationReadModel
}

func NewGetOrganization(readModel ports.OrganizationReadModel) *GetOrganization {
	return &GetOrganization{readModel: readModel}
}

func (uc *GetOrganization) Execute(ctx context.Context, id domain.OrganizationID) (*domain.Organization, error) {
	return uc.readModel.GetByID(ctx, id)
}

// GetOrganizationLog returns the event history of one organization from the event store.
type GetOrganizationLog struct {
	repo ports.OrganizationRepository
}

func NewGetOrganizationLog(repo ports.OrganizationRepository) *GetOrganizationLog {
	return &GetOrganizationLog{repo: repo}
}

func (uc *GetOrganizationLog) Execute(ctx context.Context, id domain.OrganizationID) ([]domain.OrganizationEvent, error) {
	return uc.repo.GetLog(ctx, id)
}

// ListOrganizationsResult is one page plus the cursors of its neighbours, nil when there is none.
type ListOrganizationsResult struct {
	Items    []domain.OrganizationSummary
	Next     *domain.OrganizationID
	Previous *domain.OrganizationID
}

// ListOrganizations pages through the read model by id.
type ListOrganizations struct {
	readModel ports.OrganizationReadModel
	pageSize  int
}

// NewListOrganizations needs the page size the read model uses to tell a full page from the last one.
func NewListOrganizations(readModel ports.OrganizationReadModel, pageSize int) *ListOrganizations {
	return &ListOrganizations{readModel: readModel, pageSize: pageSize}
}

func (uc *ListOrganizations) Execute(ctx context.Context, page domain.PageRequest) (*ListOrganizationsResult, error) {
	items, err := uc.readModel.List(ctx, page)
	if err != nil {
		return nil, err
	}
	res := &ListOrganizationsResult{Items: items}
	if len(items) == 0 {
		return res, nil
	}
	first, last := items[0].ID, items[len(items)-1].ID
	full := len(items) >= uc.pageSize

	switch {
	case page.Before != nil:
		res.Next = &last
		if full {
			res.Previous = &first
		}
	case page.After != nil:
		res.Previous = &first
		if full {
			res.Next = &last
		}
	default:
		if full {
			res.Next = &last
		}
	}
	return res, nil
}
