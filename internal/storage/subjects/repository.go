package subjects

import (
	"context"

	"bookshelf/internal/types"
)

type Repository interface {
	// GetIdByNames maps lower-cased trimmed names to ids; unknown names are
	// simply absent.
	GetIdByNames(ctx context.Context, names ...string) (map[string]int64, error)

	// Insert resolves every name to an id, creating missing subjects.
	// Conflicting concurrent inserts are reconciled by a re-fetch, so the
	// returned map (keyed by lower-cased trimmed name) is always complete.
	Insert(ctx context.Context, names ...string) (map[string]int64, error)

	GetAll(ctx context.Context) ([]types.Subject, error)
}
