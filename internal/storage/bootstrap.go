package storage

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

// Bootstrap applies the base schema. Every statement is idempotent, so
// running it against an already-initialized database is a no-op.
func Bootstrap(ctx context.Context, pg *pgxpool.Pool) error {
	if _, err := pg.Exec(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}

	return nil
}
