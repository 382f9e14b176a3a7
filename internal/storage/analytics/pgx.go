package analytics

import (
	"context"
	"log/slog"

	"github.com/doug-martin/goqu/v9"
	"github.com/georgysavva/scany/v2/pgxscan"

	"bookshelf/internal/storage/db"
)

func NewPGXRepository(q db.Querier, l *slog.Logger) Repository {
	return &pgxRepo{db: q, g: goqu.Dialect("postgres"), l: l}
}

type pgxRepo struct {
	db db.Querier
	g  goqu.DialectWrapper
	l  *slog.Logger
}

var (
	volumeExpr = goqu.L("(height_cm * width_cm * thickness_cm)::double precision")

	hasDimensions = goqu.And(
		goqu.C("height_cm").Gt(0),
		goqu.C("width_cm").Gt(0),
		goqu.C("thickness_cm").Gt(0),
	)
)

func (p *pgxRepo) LargestVolumes(ctx context.Context, limit int) ([]VolumeRow, error) {
	sql, params, err := p.g.From("book").
		Select(goqu.C("id").As("book_id"),
			goqu.C("title"),
			volumeExpr.As("volume_cm3")).
		Where(hasDimensions).
		Order(goqu.C("volume_cm3").Desc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []struct {
		BookId    int64   `db:"book_id"`
		Title     string  `db:"title"`
		VolumeCm3 float64 `db:"volume_cm3"`
	}

	err = pgxscan.Select(ctx, p.db, &rows, sql, params...)
	if err != nil {
		return nil, err
	}

	ret := make([]VolumeRow, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, VolumeRow(row))
	}

	return ret, nil
}

func (p *pgxRepo) ShelfSpaceByUser(ctx context.Context) ([]ShelfSpaceRow, error) {
	sql, params, err := p.g.From("review").
		Select(goqu.C("username").Table("users"),
			goqu.C("id").Table("book").As("book_id"),
			goqu.C("title").Table("book"),
			goqu.L("(book.height_cm * book.width_cm * book.thickness_cm)::double precision").
				As("volume_cm3")).
		Join(goqu.T("users"), goqu.On(
			goqu.C("id").Table("users").
				Eq(goqu.C("user_id").Table("review")),
		)).
		Join(goqu.T("book"), goqu.On(
			goqu.C("id").Table("book").
				Eq(goqu.C("book_id").Table("review")),
		)).
		Where(goqu.And(
			goqu.C("height_cm").Table("book").Gt(0),
			goqu.C("width_cm").Table("book").Gt(0),
			goqu.C("thickness_cm").Table("book").Gt(0),
		)).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Username  string  `db:"username"`
		BookId    int64   `db:"book_id"`
		Title     string  `db:"title"`
		VolumeCm3 float64 `db:"volume_cm3"`
	}

	err = pgxscan.Select(ctx, p.db, &rows, sql, params...)
	if err != nil {
		return nil, err
	}

	ret := make([]ShelfSpaceRow, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, ShelfSpaceRow(row))
	}

	return ret, nil
}
