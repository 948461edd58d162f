package repotypes

import "github.com/Egor213/AuditTrack/internal/domain"

type Field string

const (
	FieldOccurredAt Field = "occurred_at"
	FieldActorID    Field = "actor_id"
	FieldActionKind Field = "action_kind"
	FieldDepartment Field = "department"
)

type Op string

const (
	OpEq  Op = "eq"
	OpGte Op = "gte"
	OpLte Op = "lte"
)

type Constraint struct {
	Field Field
	Op    Op
	Value any
}

type Order struct {
	Field      Field
	Descending bool
}

// LogQuery is a backend neutral request for one page of audit entries.
// Constraints compose with AND; Search is a substring over entity id and details.
type LogQuery struct {
	Constraints []Constraint
	Search      string
	JoinActors  bool
	Order       Order
	Limit       uint64
	Offset      uint64
}

func (q LogQuery) HasConstraint(f Field) bool {
	for _, c := range q.Constraints {
		if c.Field == f {
			return true
		}
	}
	return false
}

type LogPage struct {
	Entries []domain.LogEntry
	Total   int
}
