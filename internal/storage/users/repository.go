package users

import (
	"context"

	"bookshelf/internal/types"
)

type Repository interface {
	// GetById returns (nil, nil) when no such user exists.
	GetById(ctx context.Context, id int64) (*types.User, error)

	// GetOrCreate signs a self-asserted username in, creating the row on
	// first encounter.
	GetOrCreate(ctx context.Context, username string) (*types.User, error)
}
