package subjects

import (
	"context"
	"log/slog"
	"strings"

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

type pgxSubject struct {
	Id   int64  `db:"id"`
	Name string `db:"name"`
}

func normalize(names []string) []string {
	ret := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name != "" {
			ret = append(ret, name)
		}
	}

	return ret
}

func (p *pgxRepo) GetIdByNames(ctx context.Context, names ...string) (map[string]int64, error) {
	names = normalize(names)
	if len(names) == 0 {
		return nil, nil
	}

	lowerNames := make([]string, 0, len(names))
	for _, name := range names {
		lowerNames = append(lowerNames, strings.ToLower(name))
	}

	sql, params, err := p.g.From("subject").
		Where(goqu.L("lower(name)").In(lowerNames)).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []pgxSubject

	err = pgxscan.Select(ctx, p.db, &rows, sql, params...)
	if err != nil {
		return nil, err
	}

	ret := make(map[string]int64, len(rows))
	for _, row := range rows {
		ret[strings.ToLower(row.Name)] = row.Id
	}

	return ret, nil
}

func (p *pgxRepo) Insert(ctx context.Context, names ...string) (map[string]int64, error) {
	names = normalize(names)
	if len(names) == 0 {
		return nil, nil
	}

	vals := make([][]any, 0, len(names))
	for _, name := range names {
		vals = append(vals, []any{name})
	}

	sql, params, err := p.g.Insert("subject").
		Cols("name").
		Vals(vals...).
		OnConflict(goqu.DoNothing()).
		Returning("id", "name").
		ToSQL()
	if err != nil {
		return nil, err
	}

	rows := make([]pgxSubject, 0, len(names))

	err = pgxscan.Select(ctx, p.db, &rows, sql, params...)
	if err != nil {
		return nil, err
	}

	ret := make(map[string]int64, len(names))
	for _, row := range rows {
		ret[strings.ToLower(row.Name)] = row.Id
	}

	var missingNames []string
	for _, name := range names {
		if _, ok := ret[strings.ToLower(name)]; !ok {
			missingNames = append(missingNames, name)
		}
	}

	if len(missingNames) > 0 {
		moreIds, err := p.GetIdByNames(ctx, missingNames...)
		if err != nil {
			return nil, err
		}

		for name, id := range moreIds {
			ret[name] = id
		}
	}

	return ret, nil
}

func (p *pgxRepo) GetAll(ctx context.Context) ([]types.Subject, error) {
	sql, params, err := p.g.From("subject").
		Order(goqu.C("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []pgxSubject

	err = pgxscan.Select(ctx, p.db, &rows, sql, params...)
	if err != nil {
		return nil, err
	}

	ret := make([]types.Subject, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, types.Subject{Id: row.Id, Name: row.Name})
	}

	return ret, nil
}
