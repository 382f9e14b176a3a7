package books

import (
	"context"

	"bookshelf/internal/types"
)

// DimensionsPatch carries a partial update of the physical fields; nil
// members are left untouched.
type DimensionsPatch struct {
	HeightCm    *int
	WidthCm     *int
	ThicknessCm *int
	Pages       *int
	Format      *string
}

type Repository interface {
	// GetById returns (nil, nil) when no such book exists.
	GetById(ctx context.Context, id int64) (*types.Book, error)
	// GetByIds batches a lookup by id; unknown ids are absent from the map
	// and present values are never nil.
	GetByIds(ctx context.Context, ids ...int64) (map[int64]*types.Book, error)

	// FindByExternalId returns (nil, nil) on miss or empty id.
	FindByExternalId(ctx context.Context, externalId string) (*types.Book, error)
	// FindByTitleYear matches the exact (title, year) pair, year 0 meaning
	// "no year recorded". Returns (nil, nil) on miss.
	FindByTitleYear(ctx context.Context, title string, year int) (*types.Book, error)

	Insert(ctx context.Context, book *types.Book) (int64, error)
	UpdateDimensions(ctx context.Context, id int64, patch DimensionsPatch) (*types.Book, error)

	// Delete removes the book row only; association and review rows are the
	// caller's responsibility. Returns the number of rows deleted (0 or 1).
	Delete(ctx context.Context, id int64) (int64, error)
	// Unlink removes the book's author and subject association rows.
	Unlink(ctx context.Context, bookId int64) error

	LinkBookAndAuthors(ctx context.Context, bookId int64, authorIds ...int64) error
	LinkBookAndSubjects(ctx context.Context, bookId int64, subjectIds ...int64) error

	// List returns one page of books matched by a case-insensitive title
	// substring and an optional subject filter, plus the total match count.
	List(ctx context.Context, query string, subjectIds []int64, limit, offset int) ([]*types.Book, int, error)
}
