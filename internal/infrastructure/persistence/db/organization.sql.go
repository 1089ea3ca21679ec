package db

import (
	"context"
)

const insertOrganization = `-- name: InsertOrganization :exec
INSERT INTO "Organization" (id, name) VALUES ($1, $2)
`

type InsertOrganizationParams struct {
	ID   int64
	Name string
}

func (q *Queries) InsertOrganization(ctx context.Context, arg InsertOrganizationParams) error {
	_, err := q.db.Exec(ctx, insertOrganization, arg.ID, arg.Name)
	return err
}

const insertPlatformAccount = `-- name: InsertPlatformAccount :exec
INSERT INTO "PlatformAccount" (id, organization_id, name, platform_name) VALUES ($1, $2, $3, $4)
`

type InsertPlatformAccountParams struct {
	ID             int64
	OrganizationID int64
	Name           string
	PlatformName   string
}

func (q *Queries) InsertPlatformAccount(ctx context.Context, arg InsertPlatformAccountParams) error {
	_, err := q.db.Exec(ctx, insertPlatformAccount,
		arg.ID,
		arg.OrganizationID,
		arg.Name,
		arg.PlatformName,
	)
	return err
}

const deletePlatformAccount = `-- name: DeletePlatformAccount :execrows
DELETE FROM "PlatformAccount" WHERE id = $1
`

func (q *Queries) DeletePlatformAccount(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.Exec(ctx, deletePlatformAccount, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const getOrganization = `-- name: GetOrganization :one
SELECT id, name FROM "Organization" WHERE id = $1
`

func (q *Queries) GetOrganization(ctx context.Context, id int64) (Organization, error) {
	row := q.db.QueryRow(ctx, getOrganization, id)
	var i Organization
	err := row.Scan(&i.ID, &i.Name)
	return i, err
}

const listPlatformAccountsByOrganization = `-- name: ListPlatformAccountsByOrganization :many
SELECT id, organization_id, name, platform_name FROM "PlatformAccount"
WHERE organization_id = $1
ORDER BY name, id
`

func (q *Queries) ListPlatformAccountsByOrganization(ctx context.Context, organizationID int64) ([]PlatformAccount, error) {
	rows, err := q.db.Query(ctx, listPlatformAccountsByOrganization, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PlatformAccount
	for rows.Next() {
		var i PlatformAccount
		if err := rows.Scan(&i.ID, &i.OrganizationID, &i.Name, &i.PlatformName); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type ListOrganizationsRow struct {
	ID                   int64
	Name                 string
	PlatformAccountCount int64
}

const listOrganizations = `-- name: ListOrganizations :many
SELECT o.id, o.name, COUNT(p.id) AS platform_account_count
FROM "Organization" o
LEFT JOIN "PlatformAccount" p ON p.organization_id = o.id
GROUP BY o.id, o.name
ORDER BY o.id ASC
LIMIT $1
`

func (q *Queries) ListOrganizations(ctx context.Context, limit int32) ([]ListOrganizationsRow, error) {
	return q.listOrganizations(ctx, listOrganizations, limit)
}

const listOrganizationsAfter = `-- name: ListOrganizationsAfter :many
SELECT o.id, o.name, COUNT(p.id) AS platform_account_count
FROM "Organization" o
LEFT JOIN "PlatformAccount" p ON p.organization_id = o.id
WHERE o.id > $1
GROUP BY o.id, o.name
ORDER BY o.id ASC
LIMIT $2
`

type ListOrganizationsAfterParams struct {
	After int64
	Limit int32
}

func (q *Queries) ListOrganizationsAfter(ctx context.Context, arg ListOrganizationsAfterParams) ([]ListOrganizationsRow, error) {
	return q.listOrganizations(ctx, listOrganizationsAfter, arg.After, arg.Limit)
}

// Rows come back in descending id order.
const listOrganizationsBefore = `-- name: ListOrganizationsBefore :many
SELECT o.id, o.name, COUNT(p.id) AS platform_account_count
FROM "Organization" o
LEFT JOIN "PlatformAccount" p ON p.organization_id = o.id
WHERE o.id < $1
GROUP BY o.id, o.name
ORDER BY o.id DESC
LIMIT $2
`

type ListOrganizationsBeforeParams struct {
	Before int64
	Limit  int32
}

func (q *Queries) ListOrganizationsBefore(ctx context.Context, arg ListOrganizationsBeforeParams) ([]ListOrganizationsRow, error) {
	return q.listOrganizations(ctx, listOrganizationsBefore, arg.Before, arg.Limit)
}

func (q *Queries) listOrganizations(ctx context.Context, query string, args ...interface{}) ([]ListOrganizationsRow, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListOrganizationsRow
	for rows.Next() {
		var i ListOrganizationsRow
		if err := rows.Scan(&i.ID, &i.Name, &i.PlatformAccountCount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
