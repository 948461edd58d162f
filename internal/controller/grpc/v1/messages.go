package grpcv1

import (
	"time"

	"github.com/Egor213/AuditTrack/internal/domain"
)

// Messages travel with the JSON codec registered by pkg/grpcserver.

type Filter struct {
	DateFrom   string `json:"date_from,omitempty"`
	DateTo     string `json:"date_to,omitempty"`
	ActorID    string `json:"actor_id,omitempty"`
	ActionKind string `json:"action_kind,omitempty"`
	Department string `json:"department,omitempty"`
	Search     string `json:"search,omitempty"`
}

type Sort struct {
	Field     string `json:"field,omitempty"`
	Direction string `json:"direction,omitempty"`
}

type ListLogsRequest struct {
	Filter   Filter `json:"filter"`
	Sort     Sort   `json:"sort"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"page_size,omitempty"`
}

type Actor struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	LastName   string `json:"last_name"`
	Department string `json:"department"`
}

type LogEntry struct {
	ID            string         `json:"id"`
	ActorID       *string        `json:"actor_id"`
	Actor         *Actor         `json:"actor,omitempty"`
	ActorDisplay  string         `json:"actor_display"`
	ActionKind    string         `json:"action_kind"`
	EntityKind    string         `json:"entity_kind"`
	EntityID      string         `json:"entity_id"`
	Details       domain.Details `json:"details"`
	SourceAddress string         `json:"source_address"`
	ClientAgent   string         `json:"client_agent"`
	Outcome       string         `json:"outcome"`
	OccurredAt    time.Time      `json:"occurred_at"`
}

type ListLogsResponse struct {
	Entries []LogEntry `json:"entries"`
	Total   int        `json:"total"`
	Page    int        `json:"page"`
	MaxPage int        `json:"max_page"`
}

type GetStatsRequest struct{}

type ActionStat struct {
	ActionKind string `json:"action_kind"`
	Total      int    `json:"total"`
	Errors     int    `json:"errors"`
}

type GetStatsResponse struct {
	Bucket  *time.Time   `json:"bucket"`
	Actions []ActionStat `json:"actions"`
}
