package viewer

import "github.com/Egor213/AuditTrack/internal/repo/repotypes"

// QueryBuilder turns viewer state into a backend query. It is pure.
type QueryBuilder struct {
	actorJoin bool
}

// NewQueryBuilder configures whether actors can be joined. Without the join
// a department constraint is dropped silently.
func NewQueryBuilder(actorJoin bool) QueryBuilder {
	return QueryBuilder{actorJoin: actorJoin}
}

func (b QueryBuilder) ActorJoin() bool {
	return b.actorJoin
}

func (b QueryBuilder) Build(f FilterState, s Sorter, p Pager) repotypes.LogQuery {
	q := repotypes.LogQuery{
		JoinActors: b.actorJoin,
		Search:     f.FreeText,
		Order: repotypes.Order{
			Field:      sortColumn(s.Field),
			Descending: s.Direction != Ascending,
		},
		Limit:  uint64(p.Size),
		Offset: p.Offset(),
	}

	if f.DateFrom != nil {
		q.Constraints = append(q.Constraints, repotypes.Constraint{
			Field: repotypes.FieldOccurredAt, Op: repotypes.OpGte, Value: *f.DateFrom,
		})
	}
	if f.DateTo != nil {
		q.Constraints = append(q.Constraints, repotypes.Constraint{
			Field: repotypes.FieldOccurredAt, Op: repotypes.OpLte, Value: *f.DateTo,
		})
	}
	if f.ActorID != "" {
		q.Constraints = append(q.Constraints, repotypes.Constraint{
			Field: repotypes.FieldActorID, Op: repotypes.OpEq, Value: f.ActorID,
		})
	}
	if f.ActionKind != "" {
		q.Constraints = append(q.Constraints, repotypes.Constraint{
			Field: repotypes.FieldActionKind, Op: repotypes.OpEq, Value: string(f.ActionKind),
		})
	}
	if f.Department != "" && b.actorJoin {
		q.Constraints = append(q.Constraints, repotypes.Constraint{
			Field: repotypes.FieldDepartment, Op: repotypes.OpEq, Value: f.Department,
		})
	}

	return q
}

func sortColumn(f SortField) repotypes.Field {
	if f == SortActorID {
		return repotypes.FieldActorID
	}
	return repotypes.FieldOccurredAt
}
