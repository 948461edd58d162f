package pgdb

import (
	"strings"

	"github.com/Egor213/AuditTrack/internal/repo/repotypes"
	sq "github.com/Masterminds/squirrel"
)

const (
	logsTable  = "admin_logs l"
	actorsJoin = "users u ON u.id = l.user_id"
)

var fieldColumns = map[repotypes.Field]string{
	repotypes.FieldOccurredAt: "l.created_at",
	repotypes.FieldActorID:    "l.user_id",
	repotypes.FieldActionKind: "l.action_type",
	repotypes.FieldDepartment: "u.department",
}

// BuildLogQueryFilters turns the query constraints into squirrel conditions.
// Department lives on the users join and is skipped when the join is off.
func BuildLogQueryFilters(q repotypes.LogQuery) []sq.Sqlizer {
	conds := []sq.Sqlizer{}

	for _, c := range q.Constraints {
		if c.Field == repotypes.FieldDepartment && !q.JoinActors {
			continue
		}
		col, ok := fieldColumns[c.Field]
		if !ok {
			continue
		}
		switch c.Op {
		case repotypes.OpEq:
			conds = append(conds, sq.Eq{col: c.Value})
		case repotypes.OpGte:
			conds = append(conds, sq.GtOrEq{col: c.Value})
		case repotypes.OpLte:
			conds = append(conds, sq.LtOrEq{col: c.Value})
		}
	}

	if search := strings.TrimSpace(q.Search); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		conds = append(conds, sq.Or{
			sq.ILike{"l.entity_id": pattern},
			sq.Expr("l.details::text ILIKE ?", pattern),
		})
	}

	return conds
}

// BuildOrderBy returns the ORDER BY clauses with tie-breakers for stable paging.
func BuildOrderBy(o repotypes.Order) []string {
	dir := " ASC"
	if o.Descending {
		dir = " DESC"
	}

	col, ok := fieldColumns[o.Field]
	if !ok || o.Field == repotypes.FieldDepartment {
		col = fieldColumns[repotypes.FieldOccurredAt]
	}

	clauses := []string{col + dir}
	if col != fieldColumns[repotypes.FieldOccurredAt] {
		clauses = append(clauses, "l.created_at DESC")
	}
	return append(clauses, "l.id"+dir)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
