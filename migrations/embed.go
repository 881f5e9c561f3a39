// Package migrations embeds the SQL schema applied by cmd/migrate.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
)

//go:embed *.sql
var FS embed.FS

// Version is the schema state recorded by golang-migrate.
type Version struct {
	Version uint
	Dirty   bool
	Applied bool
}

// Status reads schema_migrations. A missing or empty table reports Applied=false.
func Status(ctx context.Context, db *sql.DB) (Version, error) {
	var exists bool
	if err := db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'schema_migrations')`,
	).Scan(&exists); err != nil {
		return Version{}, fmt.Errorf("migrations: check table: %w", err)
	}
	if !exists {
		return Version{}, nil
	}

	var v Version
	err := db.QueryRowContext(ctx, `SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&v.Version, &v.Dirty)
	if errors.Is(err, sql.ErrNoRows) {
		return Version{}, nil
	}
	if err != nil {
		return Version{}, fmt.Errorf("migrations: read version: %w", err)
	}
	v.Applied = true
	return v, nil
}
