package authors

import (
	"context"

	"bookshelf/internal/types"
)

type Repository interface {
	// GetByIds batches a lookup by id; unknown ids are absent from the map
	// and present values are never nil.
	GetByIds(ctx context.Context, ids ...int64) (map[int64]*types.Author, error)

	// FindByName matches the trimmed name case-insensitively and returns
	// (nil, nil) on miss.
	FindByName(ctx context.Context, name string) (*types.Author, error)

	// GetOrCreate resolves a name to an author row, inserting it on first
	// encounter. Safe against duplicate-insert races: a conflicting insert
	// falls back to re-fetching the winner.
	GetOrCreate(ctx context.Context, name string) (*types.Author, error)
}
