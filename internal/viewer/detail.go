package viewer

import (
	"encoding/json"
	"time"

	"github.com/Egor213/AuditTrack/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DetailView is the full projection of one entry.
type DetailView struct {
	ID            string
	ActorID       string
	ActorDisplay  string
	Actor         *domain.ActorSummary
	Department    string
	IsSystem      bool
	ActionKind    domain.ActionKind
	ActionLabel   string
	EntityKind    string
	EntityID      string
	Details       string
	RawDetails    json.RawMessage
	SourceAddress string
	ClientAgent   string
	Outcome       domain.Outcome
	OccurredAt    time.Time
}

func Present(e domain.LogEntry) DetailView {
	v := DetailView{
		ID:            e.ID,
		ActorDisplay:  e.ActorDisplayName(),
		Department:    e.Department(),
		IsSystem:      e.IsSystem(),
		ActionKind:    e.ActionKind,
		ActionLabel:   cases.Title(language.English).String(string(e.ActionKind)),
		EntityKind:    e.EntityKind,
		EntityID:      e.EntityID,
		Details:       e.Details.Pretty(),
		SourceAddress: e.SourceAddress,
		ClientAgent:   e.ClientAgent,
		Outcome:       e.Outcome,
		OccurredAt:    e.OccurredAt,
	}
	if e.ActorID != nil {
		v.ActorID = *e.ActorID
	}
	if e.Actor != nil {
		actor := *e.Actor
		v.Actor = &actor
	}
	if !e.Details.IsZero() {
		if raw, err := json.Marshal(e.Details); err == nil {
			v.RawDetails = raw
		}
	}
	return v
}
