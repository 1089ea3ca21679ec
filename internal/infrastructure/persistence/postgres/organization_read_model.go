package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/porti/internal/application/ports"
	"github.com/amirhosseinghanipour/porti/internal/domain"
	domerrors "github.com/amirhosseinghanipour/porti/internal/domain/errors"
	"github.com/amirhosseinghanipour/porti/internal/infrastructure/persistence/db"
)

// DefaultPageSize is the number of organizations per listing page.
const DefaultPageSize = 100

// OrganizationReadModel answers organization queries from the projected tables.
type OrganizationReadModel struct {
	q        *db.Queries
	pageSize int32
	log      zerolog.Logger
}

func NewOrganizationReadModel(q *db.Queries, pageSize int, log zerolog.Logger) *OrganizationReadModel {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &OrganizationReadModel{q: q, pageSize: int32(pageSize), log: log}
}

func (r *OrganizationReadModel) GetByID(ctx context.Context, id domain.OrganizationID) (*domain.Organization, error) {
	o, err := r.q.GetOrganization(ctx, organizationKey(id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domerrors.NotFoundError{ID: uint64(id)}
		}
		return nil, r.queryError(err, "get organization")
	}
	rows, err := r.q.ListPlatformAccountsByOrganization(ctx, o.ID)
	if err != nil {
		return nil, r.queryError(err, "list platform accounts")
	}

	org := &domain.Organization{
		ID:               organizationID(o.ID),
		Name:             o.Name,
		PlatformAccounts: make([]domain.PlatformAccount, 0, len(rows)),
	}
	for _, a := range rows {
		org.PlatformAccounts = append(org.PlatformAccounts, domain.PlatformAccount{
			ID:       accountID(a.ID),
			Name:     a.Name,
			Platform: domain.Platform{Name: a.PlatformName},
		})
	}
	return org, nil
}

// List returns one keyset page ordered by ascending id.
func (r *OrganizationReadModel) List(ctx context.Context, page domain.PageRequest) ([]domain.OrganizationSummary, error) {
	var (
		rows []db.ListOrganizationsRow
		err  error
	)
	switch {
	case page.After != nil:
		rows, err = r.q.ListOrganizationsAfter(ctx, db.ListOrganizationsAfterParams{
			After: organizationKey(*page.After),
			Limit: r.pageSize,
		})
	case page.Before != nil:
		rows, err = r.q.ListOrganizationsBefore(ctx, db.ListOrganizationsBeforeParams{
			Before: organizationKey(*page.Before),
			Limit:  r.pageSize,
		})
		slices.Reverse(rows)
	default:
		rows, err = r.q.ListOrganizations(ctx, r.pageSize)
	}
	if err != nil {
		return nil, r.queryError(err, "list organizations")
	}

	out := make([]domain.OrganizationSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.OrganizationSummary{
			ID:                   organizationID(row.ID),
			Name:                 row.Name,
			PlatformAccountCount: row.PlatformAccountCount,
		})
	}
	return out, nil
}

// PageSize is the maximum number of rows List returns.
func (r *OrganizationReadModel) PageSize() int { return int(r.pageSize) }

func (r *OrganizationReadModel) queryError(err error, op string) error {
	cause := fmt.Errorf("%s: %w", op, err)
	var connErr *pgconn.ConnectError
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) || errors.As(err, &connErr) {
		r.log.Warn().Err(err).Msg("read model unavailable")
		return domerrors.Connection(cause)
	}
	r.log.Error().Err(err).Msg("read model query failed")
	return domerrors.Unexpected(cause)
}

var _ ports.OrganizationReadModel = (*OrganizationReadModel)(nil)
