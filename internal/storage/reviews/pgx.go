package reviews

import (
	"context"
	"log/slog"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/georgysavva/scany/v2/pgxscan"

	"bookshelf/internal/storage/db"
	"bookshelf/internal/types"
)

func NewPGXRepository(q db.Querier, l *slog.Logger) Repository {
	return &pgxRepo{db: q, g: goqu.Dialect("postgres"), l: l}
}

type pgxRepo struct {
	db db.Querier
	g  goqu.DialectWrapper
	l  *slog.Logger
}

type pgxReview struct {
	Id        int64     `db:"id"`
	UserId    int64     `db:"user_id"`
	BookId    int64     `db:"book_id"`
	Rating    int       `db:"rating"`
	Text      string    `db:"text"`
	CreatedAt time.Time `db:"created_at"`
}

type pgxReviewWithTitle struct {
	Base      pgxReview `db:""` // follow
	BookTitle string    `db:"book_title"`
}

func (r *pgxReview) intoCommon(bookTitle string) *types.Review {
	return &types.Review{
		Id:        r.Id,
		UserId:    r.UserId,
		BookId:    r.BookId,
		Rating:    r.Rating,
		Text:      r.Text,
		CreatedAt: r.CreatedAt,
		BookTitle: bookTitle,
	}
}

func (p *pgxRepo) Upsert(ctx context.Context, userId, bookId int64, rating int, text string) (*types.Review, error) {
	sql, params, err := p.g.Insert("review").
		Cols("user_id", "book_id", "rating", "text").
		Vals([]any{userId, bookId, rating, text}).
		OnConflict(goqu.DoUpdate("user_id, book_id", map[string]any{
			"rating": goqu.L("excluded.rating"),
			"text":   goqu.L("excluded.text"),
		})).
		Returning("id", "user_id", "book_id", "rating", "text", "created_at").
		ToSQL()
	if err != nil {
		return nil, err
	}

	var row pgxReview

	err = pgxscan.Get(ctx, p.db, &row, sql, params...)
	if err != nil {
		return nil, db.WrapConflict(err)
	}

	return row.intoCommon(""), nil
}

func (p *pgxRepo) Delete(ctx context.Context, userId, bookId int64) (int64, error) {
	sql, params, err := p.g.Delete("review").
		Where(goqu.C("user_id").Eq(userId), goqu.C("book_id").Eq(bookId)).
		ToSQL()
	if err != nil {
		return 0, err
	}

	tag, err := p.db.Exec(ctx, sql, params...)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

func (p *pgxRepo) DeleteByBook(ctx context.Context, bookId int64) (int64, error) {
	sql, params, err := p.g.Delete("review").
		Where(goqu.C("book_id").Eq(bookId)).
		ToSQL()
	if err != nil {
		return 0, err
	}

	tag, err := p.db.Exec(ctx, sql, params...)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

func (p *pgxRepo) withTitles(qb *goqu.SelectDataset) *goqu.SelectDataset {
	return qb.
		Select("review.*", goqu.C("title").Table("book").As("book_title")).
		Join(goqu.T("book"), goqu.On(
			goqu.C("id").Table("book").
				Eq(goqu.C("book_id").Table("review")),
		))
}

func (p *pgxRepo) selectReviews(ctx context.Context, qb *goqu.SelectDataset) ([]*types.Review, error) {
	sql, params, err := qb.ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []pgxReviewWithTitle

	err = pgxscan.Select(ctx, p.db, &rows, sql, params...)
	if err != nil {
		return nil, err
	}

	ret := make([]*types.Review, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, row.Base.intoCommon(row.BookTitle))
	}

	return ret, nil
}

func (p *pgxRepo) ListByUser(ctx context.Context, userId int64) ([]*types.Review, error) {
	return p.selectReviews(ctx, p.withTitles(p.g.From("review")).
		Where(goqu.C("user_id").Eq(userId)).
		Order(goqu.C("created_at").Table("review").Desc()))
}

func (p *pgxRepo) Recent(ctx context.Context, limit int) ([]*types.Review, error) {
	return p.selectReviews(ctx, p.withTitles(p.g.From("review")).
		Order(goqu.C("created_at").Table("review").Desc()).
		Limit(uint(limit)))
}

func (p *pgxRepo) summariesQuery(bookIds []int64) *goqu.SelectDataset {
	return p.g.From("review").
		Select(goqu.C("book_id"),
			goqu.L("avg(rating)::double precision").As("average"),
			goqu.COUNT(goqu.Star()).As("count")).
		Where(goqu.C("book_id").In(bookIds)).
		GroupBy(goqu.C("book_id"))
}

func (p *pgxRepo) Summaries(ctx context.Context, bookIds ...int64) (map[int64]types.RatingSummary, error) {
	if len(bookIds) == 0 {
		return make(map[int64]types.RatingSummary), nil
	}

	sql, params, err := p.summariesQuery(bookIds).ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []struct {
		BookId  int64   `db:"book_id"`
		Average float64 `db:"average"`
		Count   int     `db:"count"`
	}

	err = pgxscan.Select(ctx, p.db, &rows, sql, params...)
	if err != nil {
		return nil, err
	}

	ret := make(map[int64]types.RatingSummary, len(rows))
	for _, row := range rows {
		ret[row.BookId] = types.RatingSummary{Average: row.Average, Count: row.Count}
	}

	return ret, nil
}
