package db

import (
	"context"
	"fmt"
	"io/fs"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ValidSchema rejects schema names that would need quoting.
func ValidSchema(schema string) error {
	if !schemaPattern.MatchString(schema) {
		return fmt.Errorf("invalid schema name %q", schema)
	}
	return nil
}

// QuoteSchema returns schema as a sanitized SQL identifier.
func QuoteSchema(schema string) string {
	return pgx.Identifier{schema}.Sanitize()
}

// EnsureSchema creates schema if needed and applies every pending migration
// from migrations. A nil migrations skips the migration step.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, schema string, migrations fs.FS) error {
	if err := ValidSchema(schema); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+QuoteSchema(schema)); err != nil {
		return fmt.Errorf("create schema %s: %w", schema, err)
	}

	if migrations != nil {
		if _, err := NewMigrator(pool, migrations).Up(ctx, schema); err != nil {
			return fmt.Errorf("run migrations for %s: %w", schema, err)
		}
	}
	return nil
}
