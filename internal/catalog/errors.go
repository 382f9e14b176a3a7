package catalog

import (
	"errors"

	"bookshelf/internal/storage/db"
)

// ErrValidation marks input rejected before any persistence attempt.
var ErrValidation = errors.New("invalid input")

// ErrConflict re-exports the storage conflict sentinel so callers need
// not know the storage layer's error vocabulary.
var ErrConflict = db.ErrConflict
