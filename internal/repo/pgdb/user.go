package pgdb

import (
	"context"

	"github.com/Egor213/AuditTrack/internal/domain"
	errorsUtils "github.com/Egor213/AuditTrack/pkg/errors"
	"github.com/Egor213/AuditTrack/pkg/postgres"
	"github.com/jackc/pgx/v5"
)

type UserRepo struct {
	*postgres.Postgres
}

func NewUserRepo(pg *postgres.Postgres) *UserRepo {
	return &UserRepo{pg}
}

func (r *UserRepo) ListUsers(ctx context.Context) ([]domain.ActorSummary, error) {
	sql, args, err := r.Builder.
		Select(
			"id::text AS id",
			"name",
			"COALESCE(last_name, '') AS last_name",
			"COALESCE(department, '') AS department",
		).
		From("users").
		OrderBy("name", "last_name").
		ToSql()
	if err != nil {
		return nil, errorsUtils.WrapPathErr(err)
	}

	rows, err := r.CtxGetter.DefaultTrOrDB(ctx, r.Pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, errorsUtils.WrapPathErr(err)
	}
	defer rows.Close()

	users, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.ActorSummary])
	if err != nil {
		return nil, errorsUtils.WrapPathErr(err)
	}

	return users, nil
}
