package storage

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookshelf/internal/catalog"
	"bookshelf/internal/storage/authors"
	"bookshelf/internal/storage/books"
	"bookshelf/internal/storage/db"
	"bookshelf/internal/storage/reviews"
	"bookshelf/internal/storage/subjects"
	"bookshelf/internal/storage/users"
)

func NewPGXStore(pg *pgxpool.Pool, l *slog.Logger) *PGXStore {
	return &PGXStore{pg: pg, l: l}
}

// PGXStore bundles the pgx repositories and scopes units of work to one
// transaction each.
type PGXStore struct {
	pg *pgxpool.Pool
	l  *slog.Logger
}

func (s *PGXStore) repos(q db.Querier) catalog.Repos {
	return catalog.Repos{
		Books:    books.NewPGXRepository(q, s.l),
		Authors:  authors.NewPGXRepository(q, s.l),
		Subjects: subjects.NewPGXRepository(q, s.l),
		Users:    users.NewPGXRepository(q, s.l),
		Reviews:  reviews.NewPGXRepository(q, s.l),
	}
}

// Repos returns repositories bound to the pool, for plain reads.
func (s *PGXStore) Repos() catalog.Repos {
	return s.repos(s.pg)
}

// InTx runs fn with repositories bound to a single transaction,
// committing on success and rolling back entirely on any error.
func (s *PGXStore) InTx(ctx context.Context, fn func(r catalog.Repos) error) error {
	tx, err := s.pg.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(s.repos(tx)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
