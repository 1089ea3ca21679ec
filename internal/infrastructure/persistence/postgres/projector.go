package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/porti/internal/application/ports"
	"github.com/amirhosseinghanipour/porti/internal/domain"
	"github.com/amirhosseinghanipour/porti/internal/infrastructure/persistence/db"
	"github.com/amirhosseinghanipour/porti/internal/infrastructure/projection"
)

// OrganizationProjector writes organization events into the read-model tables, one statement per event.
type OrganizationProjector struct {
	q   *db.Queries
	log zerolog.Logger
}

func NewOrganizationProjector(q *db.Queries, log zerolog.Logger) *OrganizationProjector {
	return &OrganizationProjector{q: q, log: log}
}

// Project applies event. Constraint violations and bad data are parked, everything else is retried.
func (p *OrganizationProjector) Project(ctx context.Context, event domain.OrganizationEvent) error {
	var err error
	switch e := event.(type) {
	case domain.OrganizationCreated:
		err = p.q.InsertOrganization(ctx, db.InsertOrganizationParams{
			ID:   organizationKey(e.OrganizationID),
			Name: e.Name,
		})

	case domain.PlatformAccountAdded:
		err = p.q.InsertPlatformAccount(ctx, db.InsertPlatformAccountParams{
			ID:             accountKey(e.Account.ID),
			OrganizationID: organizationKey(e.OrganizationID),
			Name:           e.Account.Name,
			PlatformName:   e.Account.Platform.Name,
		})

	case domain.PlatformAccountRemoved:
		var n int64
		n, err = p.q.DeletePlatformAccount(ctx, accountKey(e.AccountID))
		if err == nil && n == 0 {
			p.log.Debug().
				Stringer("organization_id", e.OrganizationID).
				Stringer("account_id", e.AccountID).
				Msg("platform account already absent")
		}

	default:
		return projection.Park(fmt.Errorf("no projection for %T", event))
	}
	if err != nil {
		return classify(fmt.Errorf("project %s: %w", event.EventType(), err))
	}
	return nil
}

// classify parks integrity constraint violations (duplicate delivery of an applied insert,
// missing parent row) and data exceptions. Those cannot succeed on redelivery.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) &&
		(pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) || pgerrcode.IsDataException(pgErr.Code)) {
		return projection.Park(err)
	}
	return projection.Retry(err)
}

var _ ports.OrganizationProjector = (*OrganizationProjector)(nil)
