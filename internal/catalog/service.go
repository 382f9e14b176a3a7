// Package catalog implements the write side of the book catalog: the
// deduplicating upsert of imported payloads, manual entry, dimension
// edits, deletes and review bookkeeping. Every mutating operation runs
// as one transaction.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"bookshelf/internal/openlibrary"
	"bookshelf/internal/storage/books"
	"bookshelf/internal/types"
)

// PageSize is the number of books per listing page.
const PageSize = 12

func NewService(store Store, ol *openlibrary.Client, l *slog.Logger) *Service {
	return &Service{store: store, ol: ol, l: l}
}

type Service struct {
	store Store
	ol    *openlibrary.Client
	l     *slog.Logger
}

// ManualEntry is the field set of the manual "add book" form.
type ManualEntry struct {
	Title       string
	Year        int
	Description string
	CoverUrl    string
	Language    string
	Authors     []string
	Subjects    []string
	HeightCm    int
	WidthCm     int
	ThicknessCm int
	Pages       int
	Format      string
}

func validFormat(format string) bool {
	switch format {
	case "", types.FormatPaperback, types.FormatHardcover, types.FormatEbook, types.FormatOther:
		return true
	}

	return false
}

// SignIn resolves a self-asserted username to a user, creating it on
// first sight. There is no authentication.
func (s *Service) SignIn(ctx context.Context, username string) (*types.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}

	var user *types.User
	err := s.store.InTx(ctx, func(r Repos) error {
		var err error
		user, err = r.Users.GetOrCreate(ctx, username)
		return err
	})

	return user, err
}

// GetUser returns (nil, nil) for an unknown id.
func (s *Service) GetUser(ctx context.Context, id int64) (*types.User, error) {
	return s.store.Repos().Users.GetById(ctx, id)
}

// Search proxies a title search to the external catalog.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]types.SearchHit, error) {
	return s.ol.SearchByTitle(ctx, query, limit)
}

// ImportFromHit builds a normalized payload for one chosen search hit
// (one editions call, dimension parsing, thickness estimate) and upserts
// it into the catalog.
func (s *Service) ImportFromHit(ctx context.Context, hit types.SearchHit) (*types.Book, bool, error) {
	return s.UpsertFromPayload(ctx, s.ol.BuildImportPayload(ctx, hit))
}

// UpsertFromPayload reconciles a normalized payload against the catalog:
// a book already known under the payload's external id, or under the
// exact (title, year) pair, is returned untouched (first write wins);
// otherwise a new book is created with its authors and subjects resolved
// or lazily created.
func (s *Service) UpsertFromPayload(ctx context.Context, payload types.ImportPayload) (*types.Book, bool, error) {
	title := strings.TrimSpace(payload.Title)
	if title == "" {
		return nil, false, fmt.Errorf("%w: title is required", ErrValidation)
	}

	var (
		book    *types.Book
		created bool
	)

	err := s.store.InTx(ctx, func(r Repos) error {
		if payload.ExternalId != "" {
			existing, err := r.Books.FindByExternalId(ctx, payload.ExternalId)
			if err != nil {
				return err
			}
			if existing != nil {
				book = existing
				return nil
			}
		}

		existing, err := r.Books.FindByTitleYear(ctx, title, payload.Year)
		if err != nil {
			return err
		}
		if existing != nil {
			if payload.HeightCm > 0 && existing.HeightCm == 0 {
				// Known behavior: a richer import never backfills a book that
				// was matched by title and year only.
				s.l.WarnContext(ctx, "Dropping fetched dimensions for already-known book",
					slog.Int64("book_id", existing.Id),
					slog.String("external_id", payload.ExternalId))
			}
			book = existing
			return nil
		}

		id, err := r.Books.Insert(ctx, &types.Book{
			ExternalId:  payload.ExternalId,
			Title:       title,
			Year:        payload.Year,
			Description: payload.Description,
			CoverUrl:    payload.CoverUrl,
			Language:    payload.Language,
			HeightCm:    payload.HeightCm,
			WidthCm:     payload.WidthCm,
			ThicknessCm: payload.ThicknessCm,
			Pages:       payload.Pages,
		})
		if err != nil {
			return err
		}

		if err := s.attach(ctx, r, id, payload.Authors, payload.Subjects); err != nil {
			return err
		}

		book, err = r.Books.GetById(ctx, id)
		created = true
		return err
	})

	return book, created, err
}

// CreateManual inserts a book from the manual entry form. Unlike the
// import path it never dedupes: a duplicate (title, year) surfaces as
// ErrConflict from the storage constraint.
func (s *Service) CreateManual(ctx context.Context, entry ManualEntry) (*types.Book, error) {
	title := strings.TrimSpace(entry.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}

	if !validFormat(entry.Format) {
		return nil, fmt.Errorf("%w: unknown format %q", ErrValidation, entry.Format)
	}

	var book *types.Book
	err := s.store.InTx(ctx, func(r Repos) error {
		id, err := r.Books.Insert(ctx, &types.Book{
			Title:       title,
			Year:        entry.Year,
			Description: strings.TrimSpace(entry.Description),
			CoverUrl:    strings.TrimSpace(entry.CoverUrl),
			Language:    strings.TrimSpace(entry.Language),
			HeightCm:    entry.HeightCm,
			WidthCm:     entry.WidthCm,
			ThicknessCm: entry.ThicknessCm,
			Pages:       entry.Pages,
			Format:      entry.Format,
		})
		if err != nil {
			return err
		}

		if err := s.attach(ctx, r, id, entry.Authors, entry.Subjects); err != nil {
			return err
		}

		book, err = r.Books.GetById(ctx, id)
		return err
	})

	return book, err
}

// attach resolves author names and subject names (creating rows as
// needed) and links them to the book.
func (s *Service) attach(ctx context.Context, r Repos, bookId int64, authorNames, subjectNames []string) error {
	var authorIds []int64
	seen := make(map[int64]struct{})

	for _, name := range authorNames {
		author, err := r.Authors.GetOrCreate(ctx, name)
		if err != nil {
			return err
		}
		if author == nil {
			continue
		}
		if _, ok := seen[author.Id]; ok {
			continue
		}
		seen[author.Id] = struct{}{}
		authorIds = append(authorIds, author.Id)
	}

	if err := r.Books.LinkBookAndAuthors(ctx, bookId, authorIds...); err != nil {
		return err
	}

	subjectIds, err := r.Subjects.Insert(ctx, subjectNames...)
	if err != nil {
		return err
	}

	ids := make([]int64, 0, len(subjectIds))
	for _, id := range subjectIds {
		ids = append(ids, id)
	}

	return r.Books.LinkBookAndSubjects(ctx, bookId, ids...)
}

// GetBook returns (nil, nil) for an unknown id.
func (s *Service) GetBook(ctx context.Context, id int64) (*types.Book, error) {
	return s.store.Repos().Books.GetById(ctx, id)
}

// UpdateDimensions patches the physical fields of a book. Returns
// (nil, nil) when the book does not exist.
func (s *Service) UpdateDimensions(ctx context.Context, id int64, patch books.DimensionsPatch) (*types.Book, error) {
	if patch.Format != nil && !validFormat(*patch.Format) {
		return nil, fmt.Errorf("%w: unknown format %q", ErrValidation, *patch.Format)
	}

	var book *types.Book
	err := s.store.InTx(ctx, func(r Repos) error {
		var err error
		book, err = r.Books.UpdateDimensions(ctx, id, patch)
		return err
	})

	return book, err
}

// DeleteBook removes a book with its reviews and association rows in one
// transaction; the FKs carry no cascade. Returns the number of book rows
// deleted (0 or 1).
func (s *Service) DeleteBook(ctx context.Context, id int64) (int64, error) {
	var deleted int64
	err := s.store.InTx(ctx, func(r Repos) error {
		if _, err := r.Reviews.DeleteByBook(ctx, id); err != nil {
			return err
		}

		if err := r.Books.Unlink(ctx, id); err != nil {
			return err
		}

		var err error
		deleted, err = r.Books.Delete(ctx, id)
		return err
	})

	return deleted, err
}

// SaveReview upserts a user's review of a book; rating must be 1..5.
func (s *Service) SaveReview(ctx context.Context, userId, bookId int64, rating int, text string) (*types.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be in 1..5", ErrValidation)
	}

	var review *types.Review
	err := s.store.InTx(ctx, func(r Repos) error {
		var err error
		review, err = r.Reviews.Upsert(ctx, userId, bookId, rating, strings.TrimSpace(text))
		return err
	})

	return review, err
}

// DeleteReview removes a user's review of a book, returning the number
// of rows deleted (0 or 1).
func (s *Service) DeleteReview(ctx context.Context, userId, bookId int64) (int64, error) {
	var deleted int64
	err := s.store.InTx(ctx, func(r Repos) error {
		var err error
		deleted, err = r.Reviews.Delete(ctx, userId, bookId)
		return err
	})

	return deleted, err
}

// ReviewsPage lists reviews with the reviewed books batched into one
// lookup, the way the browse view batches authors.
type ReviewsPage struct {
	Reviews []*types.Review       `json:"reviews"`
	Books   map[int64]*types.Book `json:"books"`
}

func (s *Service) reviewsPage(ctx context.Context, r Repos, rows []*types.Review) (*ReviewsPage, error) {
	var bookIds []int64
	seen := make(map[int64]struct{})

	for _, review := range rows {
		if _, ok := seen[review.BookId]; !ok {
			seen[review.BookId] = struct{}{}
			bookIds = append(bookIds, review.BookId)
		}
	}

	bs, err := r.Books.GetByIds(ctx, bookIds...)
	if err != nil {
		return nil, err
	}

	return &ReviewsPage{Reviews: rows, Books: bs}, nil
}

func (s *Service) UserReviews(ctx context.Context, userId int64) (*ReviewsPage, error) {
	r := s.store.Repos()

	rows, err := r.Reviews.ListByUser(ctx, userId)
	if err != nil {
		return nil, err
	}

	return s.reviewsPage(ctx, r, rows)
}

func (s *Service) RecentReviews(ctx context.Context, limit int) (*ReviewsPage, error) {
	if limit <= 0 {
		limit = 10
	}

	r := s.store.Repos()

	rows, err := r.Reviews.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}

	return s.reviewsPage(ctx, r, rows)
}

// ListPage is one page of the browse view: books, their authors and
// rating summaries batched into two lookups instead of one per book.
type ListPage struct {
	Books   []*types.Book                 `json:"books"`
	Total   int                           `json:"total"`
	Page    int                           `json:"page"`
	Authors map[int64]*types.Author       `json:"authors"`
	Ratings map[int64]types.RatingSummary `json:"ratings"`
}

// ListBooks returns one page of books filtered by a title substring and
// optional subject names. Books without reviews are absent from Ratings.
func (s *Service) ListBooks(ctx context.Context, query string, subjectNames []string, page int) (*ListPage, error) {
	if page < 1 {
		page = 1
	}

	r := s.store.Repos()

	var subjectIds []int64
	if len(subjectNames) > 0 {
		ids, err := r.Subjects.GetIdByNames(ctx, subjectNames...)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			subjectIds = append(subjectIds, id)
		}
		if len(subjectIds) == 0 {
			// None of the requested subjects exist.
			return &ListPage{
				Books:   make([]*types.Book, 0),
				Page:    page,
				Authors: make(map[int64]*types.Author),
				Ratings: make(map[int64]types.RatingSummary),
			}, nil
		}
	}

	rows, total, err := r.Books.List(ctx, query, subjectIds, PageSize, (page-1)*PageSize)
	if err != nil {
		return nil, err
	}

	var authorIds []int64
	seenAuthor := make(map[int64]struct{})
	bookIds := make([]int64, 0, len(rows))

	for _, book := range rows {
		bookIds = append(bookIds, book.Id)
		for _, authorId := range book.Authors {
			if _, ok := seenAuthor[authorId]; !ok {
				seenAuthor[authorId] = struct{}{}
				authorIds = append(authorIds, authorId)
			}
		}
	}

	as, err := r.Authors.GetByIds(ctx, authorIds...)
	if err != nil {
		return nil, err
	}

	ratings, err := r.Reviews.Summaries(ctx, bookIds...)
	if err != nil {
		return nil, err
	}

	return &ListPage{
		Books:   rows,
		Total:   total,
		Page:    page,
		Authors: as,
		Ratings: ratings,
	}, nil
}

// Subjects lists every subject, for filter widgets.
func (s *Service) Subjects(ctx context.Context) ([]types.Subject, error) {
	return s.store.Repos().Subjects.GetAll(ctx)
}
