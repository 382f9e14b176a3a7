package authors

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

func NewPGXRepository(q db.Querier, l *slog.Logger) Repository {
	return &pgxRepo{db: q, g: goqu.Dialect("postgres"), l: l}
}

type pgxRepo struct {
	db db.Querier
	g  goqu.DialectWrapper
	l  *slog.Logger
}

type pgxAuthor struct {
	Id   int64  `db:"id"`
	Name string `db:"name"`
}

func (a *pgxAuthor) intoCommon() *types.Author {
	return &types.Author{
		Id:   a.Id,
		Name: a.Name,
	}
}

func (p *pgxRepo) GetByIds(ctx context.Context, ids ...int64) (map[int64]*types.Author, error) {
	if len(ids) == 0 {
		return make(map[int64]*types.Author), nil
	}

	sql, params, err := p.g.From("author").
		Where(goqu.C("id").In(ids)).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []pgxAuthor

	err = pgxscan.Select(ctx, p.db, &rows, sql, params...)
	if err != nil {
		return nil, err
	}

	ret := make(map[int64]*types.Author, len(rows))
	for _, row := range rows {
		ret[row.Id] = row.intoCommon()
	}

	return ret, nil
}

func (p *pgxRepo) FindByName(ctx context.Context, name string) (*types.Author, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	sql, params, err := p.g.From("author").
		Where(goqu.L("lower(name)").Eq(strings.ToLower(name))).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var row pgxAuthor

	err = pgxscan.Get(ctx, p.db, &row, sql, params...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = nil
		}
		return nil, err
	}

	return row.intoCommon(), nil
}

func (p *pgxRepo) GetOrCreate(ctx context.Context, name string) (*types.Author, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	author, err := p.FindByName(ctx, name)
	if err != nil || author != nil {
		return author, err
	}

	sql, params, err := p.g.Insert("author").
		Cols("name").
		Vals([]any{name}).
		OnConflict(goqu.DoNothing()).
		Returning("id", "name").
		ToSQL()
	if err != nil {
		return nil, err
	}

	var row pgxAuthor

	err = pgxscan.Get(ctx, p.db, &row, sql, params...)
	if err == nil {
		return row.intoCommon(), nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// Lost the insert race; the winner's row must exist now.
	return p.FindByName(ctx, name)
}
