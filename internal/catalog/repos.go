package catalog

import (
	"context"

	"bookshelf/internal/storage/authors"
	"bookshelf/internal/storage/books"
	"bookshelf/internal/storage/reviews"
	"bookshelf/internal/storage/subjects"
	"bookshelf/internal/storage/users"
)

// Repos bundles the repositories one unit of work operates on. Inside
// InTx they are all bound to the same transaction.
type Repos struct {
	Books    books.Repository
	Authors  authors.Repository
	Subjects subjects.Repository
	Users    users.Repository
	Reviews  reviews.Repository
}

type Store interface {
	// Repos returns repositories for plain reads.
	Repos() Repos

	// InTx runs fn as one unit of work: commit on success, full rollback on
	// any error.
	InTx(ctx context.Context, fn func(r Repos) error) error
}
