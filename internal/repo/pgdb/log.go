package pgdb

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Egor213/AuditTrack/internal/domain"
	"github.com/Egor213/AuditTrack/internal/repo/repoerrs"
	"github.com/Egor213/AuditTrack/internal/repo/repotypes"
	errorsUtils "github.com/Egor213/AuditTrack/pkg/errors"
	"github.com/Egor213/AuditTrack/pkg/postgres"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

var logColumns = []string{
	"l.id::text AS id",
	"l.user_id::text AS user_id",
	"l.action_type",
	"l.entity_type",
	"l.entity_id",
	"l.details",
	"l.ip_address",
	"l.user_agent",
	"l.status",
	"l.created_at",
}

var actorColumns = []string{
	"u.name AS actor_name",
	"u.last_name AS actor_last_name",
	"u.department AS actor_department",
}

var nullActorColumns = []string{
	"NULL::text AS actor_name",
	"NULL::text AS actor_last_name",
	"NULL::text AS actor_department",
}

type logRow struct {
	ID              string    `db:"id"`
	UserID          *string   `db:"user_id"`
	ActionType      string    `db:"action_type"`
	EntityType      string    `db:"entity_type"`
	EntityID        *string   `db:"entity_id"`
	Details         []byte    `db:"details"`
	IPAddress       *string   `db:"ip_address"`
	UserAgent       *string   `db:"user_agent"`
	Status          string    `db:"status"`
	CreatedAt       time.Time `db:"created_at"`
	ActorName       *string   `db:"actor_name"`
	ActorLastName   *string   `db:"actor_last_name"`
	ActorDepartment *string   `db:"actor_department"`
}

type LogRepo struct {
	*postgres.Postgres
}

func NewLogRepo(pg *postgres.Postgres) *LogRepo {
	return &LogRepo{pg}
}

// BuildLogStatements returns the count and the page statements for q.
func (r *LogRepo) BuildLogStatements(q repotypes.LogQuery) (sq.SelectBuilder, sq.SelectBuilder) {
	conds := BuildLogQueryFilters(q)

	columns := append(append([]string{}, logColumns...), nullActorColumns...)
	if q.JoinActors {
		columns = append(append([]string{}, logColumns...), actorColumns...)
	}

	countQuery := r.Builder.Select("COUNT(*)").From(logsTable)
	pageQuery := r.Builder.Select(columns...).From(logsTable)

	if q.JoinActors {
		countQuery = countQuery.LeftJoin(actorsJoin)
		pageQuery = pageQuery.LeftJoin(actorsJoin)
	}

	if len(conds) > 0 {
		countQuery = countQuery.Where(sq.And(conds))
		pageQuery = pageQuery.Where(sq.And(conds))
	}

	pageQuery = pageQuery.
		OrderBy(BuildOrderBy(q.Order)...).
		Limit(q.Limit).
		Offset(q.Offset)

	return countQuery, pageQuery
}

func (r *LogRepo) GetLogs(ctx context.Context, q repotypes.LogQuery) (repotypes.LogPage, error) {
	countQuery, pageQuery := r.BuildLogStatements(q)

	countSQL, countArgs, err := countQuery.ToSql()
	if err != nil {
		return repotypes.LogPage{}, errorsUtils.WrapPathErr(err)
	}
	pageSQL, pageArgs, err := pageQuery.ToSql()
	if err != nil {
		return repotypes.LogPage{}, errorsUtils.WrapPathErr(err)
	}

	var (
		total int
		rows  []logRow
	)

	// count and page are read in one transaction so the total matches the page.
	err = r.TrManager.Do(ctx, func(ctx context.Context) error {
		db := r.CtxGetter.DefaultTrOrDB(ctx, r.Pool)

		if err := db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
			return err
		}

		pgRows, err := db.Query(ctx, pageSQL, pageArgs...)
		if err != nil {
			return err
		}
		defer pgRows.Close()

		rows, err = pgx.CollectRows(pgRows, pgx.RowToStructByName[logRow])
		return err
	})
	if err != nil {
		if errorsUtils.IsInvalidTextRepr(err) {
			return repotypes.LogPage{}, errorsUtils.WrapPathErr(repoerrs.ErrInvalidFilter)
		}
		return repotypes.LogPage{}, errorsUtils.WrapPathErr(err)
	}

	entries := make([]domain.LogEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := row.toDomain()
		if err != nil {
			return repotypes.LogPage{}, errorsUtils.WrapPathErr(err)
		}
		entries = append(entries, entry)
	}

	return repotypes.LogPage{Entries: entries, Total: total}, nil
}

func (r *LogRepo) InsertLog(ctx context.Context, id string, action domain.AuditAction) error {
	var details []byte
	if !action.Details.IsZero() {
		raw, err := json.Marshal(action.Details)
		if err != nil {
			return errorsUtils.WrapPathErr(err)
		}
		details = raw
	}

	sql, args, err := r.Builder.
		Insert("admin_logs").
		Columns("id", "user_id", "action_type", "entity_type", "entity_id", "details", "ip_address", "user_agent", "status").
		Values(
			id,
			action.ActorID,
			string(action.ActionKind),
			action.EntityKind,
			nullIfEmpty(action.EntityID),
			details,
			nullIfEmpty(action.SourceAddress),
			nullIfEmpty(action.ClientAgent),
			string(action.Outcome),
		).
		ToSql()
	if err != nil {
		return errorsUtils.WrapPathErr(err)
	}

	_, err = r.CtxGetter.DefaultTrOrDB(ctx, r.Pool).Exec(ctx, sql, args...)
	if err != nil {
		if errorsUtils.IsUniqueViolation(err) {
			return errorsUtils.WrapPathErr(repoerrs.ErrAlreadyExists)
		}
		return errorsUtils.WrapPathErr(err)
	}
	return nil
}

func (r *LogRepo) BuildActivityStatsStatement(since time.Time) sq.SelectBuilder {
	return r.Builder.
		Select(
			"date_trunc('day', created_at) AS bucket",
			"action_type",
			"COUNT(*) AS total",
			"COUNT(*) FILTER (WHERE status <> 'success') AS errors",
		).
		From("admin_logs").
		Where(sq.GtOrEq{"created_at": since}).
		GroupBy("bucket", "action_type").
		OrderBy("bucket DESC", "action_type")
}

// GetActivityStats returns at most buckets daily buckets, newest first.
func (r *LogRepo) GetActivityStats(ctx context.Context, since time.Time, buckets int) ([]domain.ActivityStat, error) {
	sql, args, err := r.BuildActivityStatsStatement(since).ToSql()
	if err != nil {
		return nil, errorsUtils.WrapPathErr(err)
	}

	rows, err := r.CtxGetter.DefaultTrOrDB(ctx, r.Pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, errorsUtils.WrapPathErr(err)
	}
	defer rows.Close()

	stats := []domain.ActivityStat{}
	for rows.Next() {
		var (
			bucket time.Time
			action string
			totals domain.ActionTotals
		)
		if err := rows.Scan(&bucket, &action, &totals.Total, &totals.Errors); err != nil {
			return nil, errorsUtils.WrapPathErr(err)
		}

		n := len(stats)
		if n == 0 || !stats[n-1].Bucket.Equal(bucket) {
			if n == buckets {
				break
			}
			stats = append(stats, domain.ActivityStat{
				Bucket:  bucket,
				Actions: map[domain.ActionKind]domain.ActionTotals{},
			})
			n++
		}
		stats[n-1].Actions[domain.ActionKind(action)] = totals
	}

	if err := rows.Err(); err != nil {
		return nil, errorsUtils.WrapPathErr(err)
	}

	return stats, nil
}

func (row logRow) toDomain() (domain.LogEntry, error) {
	entry := domain.LogEntry{
		ID:            row.ID,
		ActorID:       row.UserID,
		ActionKind:    domain.ActionKind(row.ActionType),
		EntityKind:    row.EntityType,
		EntityID:      deref(row.EntityID),
		SourceAddress: deref(row.IPAddress),
		ClientAgent:   deref(row.UserAgent),
		Outcome:       domain.Outcome(row.Status),
		OccurredAt:    row.CreatedAt,
	}

	if len(row.Details) > 0 {
		if err := json.Unmarshal(row.Details, &entry.Details); err != nil {
			return domain.LogEntry{}, err
		}
	}

	if row.UserID != nil && row.ActorName != nil {
		entry.Actor = &domain.ActorSummary{
			ID:         *row.UserID,
			Name:       deref(row.ActorName),
			LastName:   deref(row.ActorLastName),
			Department: deref(row.ActorDepartment),
		}
	}

	return entry, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
