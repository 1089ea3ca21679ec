package organization

import (
	"context"

	"github.com/amirhosseinghanipour/porti/internal/application/ports"
	"github.com/amirhosseinghanipour/porti/internal/domain"
)

// CreateOrganizationInput is the name of the new organization.
type CreateOrganizationInput struct {
	Name string
}

// CreateOrganization starts a new organization stream. Names are unique: the id is derived from it.
type CreateOrganization struct {
	repo ports.OrganizationRepository
}

func NewCreateOrganization(repo ports.OrganizationRepository) *CreateOrganization {
	return &CreateOrganization{repo: repo}
}

// Execute returns the created organization, or Conflict when the name is taken.
func (uc *CreateOrganization) Execute(ctx context.Context, input CreateOrganizationInput) (*domain.Organization, error) {
	return uc.repo.Create(ctx, input.Name)
}
