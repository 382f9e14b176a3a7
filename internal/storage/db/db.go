// Package db holds the few pieces shared by every repository: the query
// interface satisfied by both a pool and a transaction, and the mapping
// of unique-constraint violations onto a sentinel the service layer can
// test for without knowing pgx.
package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx used by repositories. *pgxpool.Pool and
// pgx.Tx both satisfy it, so the same repository code runs standalone or
// inside a scoped transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ErrConflict marks a unique-constraint violation (duplicate (title, year)
// on manual insert, duplicate (user, book) review, and the like).
var ErrConflict = errors.New("storage conflict")

const uniqueViolation = "23505"

// WrapConflict converts a unique-violation error into one matching
// ErrConflict; all other errors pass through unchanged.
func WrapConflict(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return errors.Join(ErrConflict, err)
	}

	return err
}
