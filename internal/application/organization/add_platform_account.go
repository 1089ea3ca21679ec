package organization

import (
	"context"

	"github.com/amirhosseinghanipour/porti/internal/application/ports"
	"github.com/amirhosseinghanipour/porti/internal/domain"
)

type AddPlatformAccountInput struct {
	OrganizationID domain.OrganizationID
	Name           string
	PlatformName   string
}

// AddPlatformAccount links a platform account to an existing organization.
type AddPlatformAccount struct {
	repo ports.OrganizationRepository
}

func NewAddPlatformAccount(repo ports.OrganizationRepository) *AddPlatformAccount {
	return &AddPlatformAccount{repo: repo}
}

// Execute returns the organization after the account was linked.
// A concurrent writer surfaces as Conflict; callers re-read and retry.
func (uc *AddPlatformAccount) Execute(ctx context.Context, input AddPlatformAccountInput) (*domain.Organization, error) {
	agg, err := uc.repo.Get(ctx, input.OrganizationID)
	if err != nil {
		return nil, err
	}
	account := domain.NewPlatformAccount(input.Name, input.PlatformName, agg.Root.ID)
	if err := agg.AddPlatformAccount(account); err != nil {
		return nil, err
	}
	if err := uc.repo.Save(ctx, agg); err != nil {
		return nil, err
	}
	org := agg.Root.Clone()
	return &org, nil
}
