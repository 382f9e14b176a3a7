package users

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

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

type pgxUser struct {
	Id        int64     `db:"id"`
	Username  string    `db:"username"`
	CreatedAt time.Time `db:"created_at"`
}

func (u *pgxUser) intoCommon() *types.User {
	return &types.User{
		Id:        u.Id,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	}
}

func (p *pgxRepo) GetById(ctx context.Context, id int64) (*types.User, error) {
	sql, params, err := p.g.From("users").
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var row pgxUser

	err = pgxscan.Get(ctx, p.db, &row, sql, params...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = nil
		}
		return nil, err
	}

	return row.intoCommon(), nil
}

func (p *pgxRepo) getByUsername(ctx context.Context, username string) (*types.User, error) {
	sql, params, err := p.g.From("users").
		Where(goqu.C("username").Eq(username)).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var row pgxUser

	err = pgxscan.Get(ctx, p.db, &row, sql, params...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = nil
		}
		return nil, err
	}

	return row.intoCommon(), nil
}

func (p *pgxRepo) GetOrCreate(ctx context.Context, username string) (*types.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, nil
	}

	user, err := p.getByUsername(ctx, username)
	if err != nil || user != nil {
		return user, err
	}

	sql, params, err := p.g.Insert("users").
		Cols("username").
		Vals([]any{username}).
		OnConflict(goqu.DoNothing()).
		Returning("id", "username", "created_at").
		ToSQL()
	if err != nil {
		return nil, err
	}

	var row pgxUser

	err = pgxscan.Get(ctx, p.db, &row, sql, params...)
	if err == nil {
		return row.intoCommon(), nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// Lost the insert race; the winner's row must exist now.
	return p.getByUsername(ctx, username)
}
