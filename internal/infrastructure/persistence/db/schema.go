package db

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS "Organization" (
	id   BIGINT PRIMARY KEY,
	name TEXT   NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS "PlatformAccount" (
	id              BIGINT PRIMARY KEY,
	organization_id BIGINT NOT NULL REFERENCES "Organization" (id),
	name            TEXT   NOT NULL,
	platform_name   TEXT   NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS "PlatformAccount_organization_id_idx" ON "PlatformAccount" (organization_id)`,
}

// EnsureSchema creates the read-model tables when they are missing.
func EnsureSchema(ctx context.Context, db DBTX) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
