package organization

import (
	"context"

	"github.com/amirhosseinghanipour/porti/internal/application/ports"
	"github.com/amirhosseinghanipour/porti/internal/domain"
)

type RemovePlatformAccountInput struct {
	OrganizationID domain.OrganizationID
	AccountID      domain.PlatformAccountID
}

// RemovePlatformAccount unlinks a platform account from an organization.
type RemovePlatformAccount struct {
	repo ports.OrganizationRepository
}

func NewRemovePlatformAccount(repo ports.OrganizationRepository) *RemovePlatformAccount {
	return &RemovePlatformAccount{repo: repo}
}

func (uc *RemovePlatformAccount) Execute(ctx context.Context, input RemovePlatformAccountInput) (*domain.Organization, error) {
	agg, err := uc.repo.Get(ctx, input.OrganizationID)
	if err != nil {
		return nil, err
	}
	if err := agg.RemovePlatformAccount(input.AccountID); err != nil {
		return nil, err
	}
	if err := uc.repo.Save(ctx, agg); err != nil {
		return nil, err
	}
	org := agg.Root.Clone()
	return &org, nil
}
