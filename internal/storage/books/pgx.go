package books

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"bookshelf/internal/storage/db"
	"bookshelf/internal/types"
)

var (
	subAuthors = goqu.Select(goqu.L("array_agg(author_id order by author_order)")).
			From("book_author").
			Where(goqu.C("book_id").Eq(goqu.C("id").Table("book")))
	subSubjects = goqu.Select(goqu.L("array_agg(subject.name order by subject.name)")).
			From("book_subject").
			Join(goqu.T("subject"), goqu.On(
			goqu.C("id").Table("subject").
				Eq(goqu.C("subject_id")),
		)).
		Where(goqu.C("book_id").Eq(goqu.C("id").Table("book")))
)

func NewPGXRepository(q db.Querier, l *slog.Logger) Repository {
	return &pgxRepo{db: q, g: goqu.Dialect("postgres"), l: l}
}

type pgxRepo struct {
	db db.Querier
	g  goqu.DialectWrapper
	l  *slog.Logger
}

type pgxBook struct {
	Id          int64  `db:"id"`
	ExternalId  string `db:"external_id"`
	Title       string `db:"title"`
	Year        int    `db:"year"`
	Description string `db:"description"`
	CoverUrl    string `db:"cover_url"`
	Language    string `db:"language"`
	HeightCm    int    `db:"height_cm"`
	WidthCm     int    `db:"width_cm"`
	ThicknessCm int    `db:"thickness_cm"`
	Pages       int    `db:"pages"`
	Format      string `db:"format"`
}

type pgxBookFull struct {
	Base      pgxBook  `db:""` // follow
	AuthorIds []int64  `db:"authors"`
	Subjects  []string `db:"subjects"`
}

func (b *pgxBook) intoCommon(authorIds []int64, subjects []string) *types.Book {
	if authorIds == nil {
		authorIds = make([]int64, 0)
	}
	if subjects == nil {
		subjects = make([]string, 0)
	}

	return &types.Book{
		Id:          b.Id,
		ExternalId:  b.ExternalId,
		Title:       b.Title,
		Year:        b.Year,
		Description: b.Description,
		CoverUrl:    b.CoverUrl,
		Language:    b.Language,
		HeightCm:    b.HeightCm,
		WidthCm:     b.WidthCm,
		ThicknessCm: b.ThicknessCm,
		Pages:       b.Pages,
		Format:      b.Format,
		Authors:     authorIds,
		Subjects:    subjects,
	}
}

func (p *pgxRepo) fullSelect() *goqu.SelectDataset {
	return p.g.From("book").
		Select("book.*",
			subAuthors.As("authors"),
			subSubjects.As("subjects"))
}

func (p *pgxRepo) getOne(ctx context.Context, qb *goqu.SelectDataset) (*types.Book, error) {
	sql, params, err := qb.ToSQL()
	if err != nil {
		return nil, err
	}

	var row pgxBookFull

	err = pgxscan.Get(ctx, p.db, &row, sql, params...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = nil
		}
		return nil, err
	}

	return row.Base.intoCommon(row.AuthorIds, row.Subjects), nil
}

func (p *pgxRepo) GetById(ctx context.Context, id int64) (*types.Book, error) {
	return p.getOne(ctx, p.fullSelect().Where(goqu.C("id").Table("book").Eq(id)))
}

func (p *pgxRepo) GetByIds(ctx context.Context, ids ...int64) (map[int64]*types.Book, error) {
	if len(ids) == 0 {
		return make(map[int64]*types.Book), nil
	}

	sql, params, err := p.fullSelect().
		Where(goqu.C("id").Table("book").In(ids)).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []pgxBookFull

	err = pgxscan.Select(ctx, p.db, &rows, sql, params...)
	if err != nil {
		return nil, err
	}

	ret := make(map[int64]*types.Book, len(rows))
	for _, row := range rows {
		ret[row.Base.Id] = row.Base.intoCommon(row.AuthorIds, row.Subjects)
	}

	return ret, nil
}

func (p *pgxRepo) FindByExternalId(ctx context.Context, externalId string) (*types.Book, error) {
	externalId = strings.TrimSpace(externalId)
	if externalId == "" {
		return nil, nil
	}

	return p.getOne(ctx, p.fullSelect().Where(goqu.C("external_id").Eq(externalId)))
}

func (p *pgxRepo) FindByTitleYear(ctx context.Context, title string, year int) (*types.Book, error) {
	return p.getOne(ctx, p.fullSelect().
		Where(goqu.C("title").Eq(title), goqu.C("year").Eq(year)))
}

// pgxBookInsert mirrors pgxBook without the id column; the sequence
// assigns ids.
type pgxBookInsert struct {
	ExternalId  string `db:"external_id"`
	Title       string `db:"title"`
	Year        int    `db:"year"`
	Description string `db:"description"`
	CoverUrl    string `db:"cover_url"`
	Language    string `db:"language"`
	HeightCm    int    `db:"height_cm"`
	WidthCm     int    `db:"width_cm"`
	ThicknessCm int    `db:"thickness_cm"`
	Pages       int    `db:"pages"`
	Format      string `db:"format"`
}

func (p *pgxRepo) Insert(ctx context.Context, book *types.Book) (int64, error) {
	sql, params, err := p.g.Insert("book").
		Rows(pgxBookInsert{
			ExternalId:  book.ExternalId,
			Title:       book.Title,
			Year:        book.Year,
			Description: book.Description,
			CoverUrl:    book.CoverUrl,
			Language:    book.Language,
			HeightCm:    book.HeightCm,
			WidthCm:     book.WidthCm,
			ThicknessCm: book.ThicknessCm,
			Pages:       book.Pages,
			Format:      book.Format,
		}).
		Returning("id").
		ToSQL()
	if err != nil {
		return 0, err
	}

	var id int64
	err = pgxscan.Get(ctx, p.db, &id, sql, params...)
	if err != nil {
		return 0, db.WrapConflict(err)
	}

	return id, nil
}

func (p *pgxRepo) UpdateDimensions(ctx context.Context, id int64, patch DimensionsPatch) (*types.Book, error) {
	fields := make(map[string]any, 5)
	if patch.HeightCm != nil {
		fields["height_cm"] = *patch.HeightCm
	}
	if patch.WidthCm != nil {
		fields["width_cm"] = *patch.WidthCm
	}
	if patch.ThicknessCm != nil {
		fields["thickness_cm"] = *patch.ThicknessCm
	}
	if patch.Pages != nil {
		fields["pages"] = *patch.Pages
	}
	if patch.Format != nil {
		fields["format"] = *patch.Format
	}

	if len(fields) == 0 {
		return p.GetById(ctx, id)
	}

	sql, params, err := p.g.Update("book").
		Set(fields).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, err
	}

	tag, err := p.db.Exec(ctx, sql, params...)
	if err != nil {
		return nil, err
	}

	if tag.RowsAffected() == 0 {
		return nil, nil
	}

	return p.GetById(ctx, id)
}

func (p *pgxRepo) Delete(ctx context.Context, id int64) (int64, error) {
	sql, params, err := p.g.Delete("book").
		Where(goqu.C("id").Eq(id)).
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

func (p *pgxRepo) Unlink(ctx context.Context, bookId int64) error {
	for _, table := range []string{"book_author", "book_subject"} {
		sql, params, err := p.g.Delete(table).
			Where(goqu.C("book_id").Eq(bookId)).
			ToSQL()
		if err != nil {
			return err
		}

		_, err = p.db.Exec(ctx, sql, params...)
		if err != nil {
			return err
		}
	}

	return nil
}

func (p *pgxRepo) LinkBookAndAuthors(ctx context.Context, bookId int64, authorIds ...int64) error {
	sql, params, err := p.g.Delete("book_author").
		Where(goqu.C("book_id").Eq(bookId)).
		ToSQL()
	if err != nil {
		return err
	}

	_, err = p.db.Exec(ctx, sql, params...)
	if err != nil {
		return err
	}

	if len(authorIds) == 0 {
		return nil
	}

	type row struct {
		BookId      int64 `db:"book_id"`
		AuthorId    int64 `db:"author_id"`
		AuthorOrder int16 `db:"author_order"`
	}

	rows := make([]any, 0, len(authorIds))

	for ix, authorId := range authorIds {
		rows = append(rows, row{
			BookId:      bookId,
			AuthorId:    authorId,
			AuthorOrder: int16(ix + 1),
		})
	}

	sql, params, err = p.g.Insert("book_author").
		Rows(rows...).
		ToSQL()
	if err != nil {
		return err
	}

	_, err = p.db.Exec(ctx, sql, params...)
	return err
}

func (p *pgxRepo) LinkBookAndSubjects(ctx context.Context, bookId int64, subjectIds ...int64) error {
	sql, params, err := p.g.Delete("book_subject").
		Where(goqu.C("book_id").Eq(bookId)).
		ToSQL()
	if err != nil {
		return err
	}

	_, err = p.db.Exec(ctx, sql, params...)
	if err != nil {
		return err
	}

	if len(subjectIds) == 0 {
		return nil
	}

	type row struct {
		BookId    int64 `db:"book_id"`
		SubjectId int64 `db:"subject_id"`
	}

	rows := make([]any, 0, len(subjectIds))

	for _, subjectId := range subjectIds {
		rows = append(rows, row{
			BookId:    bookId,
			SubjectId: subjectId,
		})
	}

	sql, params, err = p.g.Insert("book_subject").
		Rows(rows...).
		ToSQL()
	if err != nil {
		return err
	}

	_, err = p.db.Exec(ctx, sql, params...)
	return err
}

// escapeLike neutralizes the LIKE metacharacters so a user query only
// ever matches literally.
func escapeLike(query string) string {
	return strings.ReplaceAll(strings.ReplaceAll(strings.ReplaceAll(query,
		"\\", "\\\\"),
		"_", "\\_"),
		"%", "\\%")
}

func (p *pgxRepo) listBase(query string, subjectIds []int64) *goqu.SelectDataset {
	base := p.g.From("book")

	if query := escapeLike(strings.TrimSpace(query)); query != "" {
		base = base.Where(goqu.C("title").ILike("%" + query + "%"))
	}

	if len(subjectIds) > 0 {
		base = base.Where(goqu.C("id").In(
			goqu.Select("book_id").
				From("book_subject").
				Where(goqu.C("subject_id").In(subjectIds)),
		))
	}

	return base
}

func (p *pgxRepo) List(ctx context.Context, query string, subjectIds []int64, limit, offset int) ([]*types.Book, int, error) {
	base := p.listBase(query, subjectIds)

	sql, params, err := base.
		Select(goqu.COUNT(goqu.Star())).
		ToSQL()
	if err != nil {
		return nil, 0, err
	}

	var total int
	err = pgxscan.Get(ctx, p.db, &total, sql, params...)
	if err != nil {
		return nil, 0, err
	}

	qb := base.
		Select("book.*",
			subAuthors.As("authors"),
			subSubjects.As("subjects")).
		Order(goqu.C("title").Asc()).
		Limit(uint(limit))

	if offset != 0 {
		qb = qb.Offset(uint(offset))
	}

	sql, params, err = qb.ToSQL()
	if err != nil {
		return nil, 0, err
	}

	var rows []pgxBookFull

	err = pgxscan.Select(ctx, p.db, &rows, sql, params...)
	if err != nil {
		return nil, 0, err
	}

	ret := make([]*types.Book, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, row.Base.intoCommon(row.AuthorIds, row.Subjects))
	}

	return ret, total, nil
}
