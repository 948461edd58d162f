package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type ActionKind string

const (
	ActionCreate ActionKind = "create"
	ActionUpdate ActionKind = "update"
	ActionDelete ActionKind = "delete"
	ActionView   ActionKind = "view"
	ActionExport ActionKind = "export"
	ActionLogin  ActionKind = "login"
	ActionLogout ActionKind = "logout"
)

// ActionKinds lists every kind in display order.
var ActionKinds = []ActionKind{
	ActionCreate,
	ActionUpdate,
	ActionDelete,
	ActionView,
	ActionExport,
	ActionLogin,
	ActionLogout,
}

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

const SystemActorName = "System"

var (
	ErrInvalidActionKind = errors.New("invalid action kind")
	ErrInvalidOutcome    = errors.New("invalid outcome")
)

func ParseActionKind(s string) (ActionKind, error) {
	k := ActionKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ActionKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidActionKind, s)
}

func ParseOutcome(s string) (Outcome, error) {
	switch o := Outcome(strings.ToLower(strings.TrimSpace(s))); o {
	case OutcomeSuccess, OutcomeFailure:
		return o, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOutcome, s)
}

type ActorSummary struct {
	ID         string `json:"id" db:"id"`
	Name       string `json:"name" db:"name"`
	LastName   string `json:"last_name" db:"last_name"`
	Department string `json:"department" db:"department"`
}

func (a ActorSummary) FullName() string {
	return strings.TrimSpace(a.Name + " " + a.LastName)
}

// LogEntry is one row of the append-only audit trail. Values are never mutated after load.
type LogEntry struct {
	ID            string
	ActorID       *string
	Actor         *ActorSummary
	ActionKind    ActionKind
	EntityKind    string
	EntityID      string
	Details       Details
	SourceAddress string
	ClientAgent   string
	Outcome       Outcome
	OccurredAt    time.Time
}

func (e LogEntry) IsSystem() bool {
	return e.ActorID == nil
}

// ActorDisplayName falls back to the raw actor id when the actor could not be resolved.
func (e LogEntry) ActorDisplayName() string {
	if e.ActorID == nil {
		return SystemActorName
	}
	if e.Actor != nil {
		if name := e.Actor.FullName(); name != "" {
			return name
		}
	}
	return *e.ActorID
}

func (e LogEntry) Department() string {
	if e.Actor == nil {
		return ""
	}
	return e.Actor.Department
}

// AuditAction is the write model for a new audit record.
type AuditAction struct {
	ActorID       *string
	ActionKind    ActionKind
	EntityKind    string
	EntityID      string
	Details       Details
	SourceAddress string
	ClientAgent   string
	Outcome       Outcome
}
