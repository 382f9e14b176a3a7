package reviews

import (
	"context"

	"bookshelf/internal/types"
)

type Repository interface {
	// Upsert saves a user's review of a book; a second save for the same
	// (user, book) pair overwrites rating and text instead of inserting.
	Upsert(ctx context.Context, userId, bookId int64, rating int, text string) (*types.Review, error)

	// Delete removes a user's review of a book, returning the number of rows
	// deleted (0 or 1).
	Delete(ctx context.Context, userId, bookId int64) (int64, error)
	DeleteByBook(ctx context.Context, bookId int64) (int64, error)

	// ListByUser returns a user's reviews newest first, with book titles
	// attached.
	ListByUser(ctx context.Context, userId int64) ([]*types.Review, error)
	Recent(ctx context.Context, limit int) ([]*types.Review, error)

	// Summaries aggregates (average, count) per book in a single pass;
	// books without reviews are absent from the map.
	Summaries(ctx context.Context, bookIds ...int64) (map[int64]types.RatingSummary, error)
}
