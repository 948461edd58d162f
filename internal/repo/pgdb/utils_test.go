package pgdb_test

import (
	"testing"
	"time"

	"github.com/Egor213/AuditTrack/internal/repo/pgdb"
	"github.com/Egor213/AuditTrack/internal/repo/repotypes"
	"github.com/Egor213/AuditTrack/pkg/postgres"
	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo() *pgdb.LogRepo {
	return pgdb.NewLogRepo(&postgres.Postgres{
		Builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	})
}

func TestBuildLogQueryFilters(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		query    repotypes.LogQuery
		wantSQL  string
		wantArgs []any
	}{
		{
			name:  "no constraints",
			query: repotypes.LogQuery{},
		},
		{
			name: "equality and range",
			query: repotypes.LogQuery{
				Constraints: []repotypes.Constraint{
					{Field: repotypes.FieldActionKind, Op: repotypes.OpEq, Value: "export"},
					{Field: repotypes.FieldOccurredAt, Op: repotypes.OpGte, Value: from},
				},
			},
			wantSQL:  "(l.action_type = ? AND l.created_at >= ?)",
			wantArgs: []any{"export", from},
		},
		{
			name: "department with join",
			query: repotypes.LogQuery{
				JoinActors: true,
				Constraints: []repotypes.Constraint{
					{Field: repotypes.FieldDepartment, Op: repotypes.OpEq, Value: "HR"},
				},
			},
			wantSQL:  "(u.department = ?)",
			wantArgs: []any{"HR"},
		},
		{
			name: "department without join is dropped",
			query: repotypes.LogQuery{
				Constraints: []repotypes.Constraint{
					{Field: repotypes.FieldDepartment, Op: repotypes.OpEq, Value: "HR"},
				},
			},
		},
		{
			name:     "search escapes pattern characters",
			query:    repotypes.LogQuery{Search: "50%_off"},
			wantSQL:  "((l.entity_id ILIKE ? OR l.details::text ILIKE ?))",
			wantArgs: []any{`%50\%\_off%`, `%50\%\_off%`},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conds := pgdb.BuildLogQueryFilters(tc.query)
			if tc.wantSQL == "" {
				assert.Empty(t, conds)
				return
			}

			sql, args, err := sq.And(conds).ToSql()
			require.NoError(t, err)
			assert.Equal(t, tc.wantSQL, sql)
			assert.Equal(t, tc.wantArgs, args)
		})
	}
}

func TestBuildOrderBy(t *testing.T) {
	testCases := []struct {
		name  string
		order repotypes.Order
		want  []string
	}{
		{
			name:  "occurred at desc",
			order: repotypes.Order{Field: repotypes.FieldOccurredAt, Descending: true},
			want:  []string{"l.created_at DESC", "l.id DESC"},
		},
		{
			name:  "actor asc keeps newest first within actor",
			order: repotypes.Order{Field: repotypes.FieldActorID},
			want:  []string{"l.user_id ASC", "l.created_at DESC", "l.id ASC"},
		},
		{
			name:  "unknown field falls back to occurred at",
			order: repotypes.Order{Field: "nope", Descending: true},
			want:  []string{"l.created_at DESC", "l.id DESC"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, pgdb.BuildOrderBy(tc.order))
		})
	}
}

func TestLogRepo_BuildLogStatements(t *testing.T) {
	repo := newTestRepo()

	countQuery, pageQuery := repo.BuildLogStatements(repotypes.LogQuery{
		JoinActors: true,
		Constraints: []repotypes.Constraint{
			{Field: repotypes.FieldActorID, Op: repotypes.OpEq, Value: "u-1"},
		},
		Order:  repotypes.Order{Field: repotypes.FieldOccurredAt, Descending: true},
		Limit:  20,
		Offset: 40,
	})

	countSQL, countArgs, err := countQuery.ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT COUNT(*) FROM admin_logs l LEFT JOIN users u ON u.id = l.user_id WHERE (l.user_id = $1)",
		countSQL)
	assert.Equal(t, []any{"u-1"}, countArgs)

	pageSQL, pageArgs, err := pageQuery.ToSql()
	require.NoError(t, err)
	assert.Contains(t, pageSQL, "u.name AS actor_name")
	assert.Contains(t, pageSQL, "LEFT JOIN users u ON u.id = l.user_id")
	assert.Contains(t, pageSQL, "ORDER BY l.created_at DESC, l.id DESC LIMIT 20 OFFSET 40")
	assert.Equal(t, []any{"u-1"}, pageArgs)
}

func TestLogRepo_BuildLogStatements_NoJoin(t *testing.T) {
	repo := newTestRepo()

	countQuery, pageQuery := repo.BuildLogStatements(repotypes.LogQuery{Limit: 20})

	countSQL, _, err := countQuery.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM admin_logs l", countSQL)

	pageSQL, _, err := pageQuery.ToSql()
	require.NoError(t, err)
	assert.NotContains(t, pageSQL, "JOIN")
	assert.Contains(t, pageSQL, "NULL::text AS actor_name")
}

func TestLogRepo_BuildActivityStatsStatement(t *testing.T) {
	repo := newTestRepo()
	since := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	sql, args, err := repo.BuildActivityStatsStatement(since).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "FILTER (WHERE status <> 'success') AS errors")
	assert.Contains(t, sql, "WHERE created_at >= $1 GROUP BY bucket, action_type ORDER BY bucket DESC, action_type")
	assert.Equal(t, []any{since}, args)
}
