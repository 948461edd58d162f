package httpv1

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/Egor213/AuditTrack/internal/domain"
	"github.com/Egor213/AuditTrack/internal/viewer"
	"github.com/google/uuid"
)

type openViewerRequest struct {
	PageSize int `json:"page_size" validate:"omitempty,min=1,max=200"`
}

// filterRequest is a partial filter: an absent field is kept, an empty string clears it.
type filterRequest struct {
	DateFrom   *string `json:"date_from"`
	DateTo     *string `json:"date_to"`
	ActorID    *string `json:"actor_id"`
	ActionKind *string `json:"action_kind"`
	Department *string `json:"department"`
	Search     *string `json:"search"`
}

type sortRequest struct {
	Field string `json:"field" validate:"required"`
}

type pageRequest struct {
	Page int `json:"page"`
}

type selectionRequest struct {
	EntryID string `json:"entry_id" validate:"required"`
}

type exportRequest struct {
	Format string `query:"format" validate:"required"`
}

func (r filterRequest) toPatch() (viewer.FilterPatch, error) {
	var p viewer.FilterPatch
	var err error

	if p.DateFrom, err = parseDate(r.DateFrom, false); err != nil {
		return p, err
	}
	if p.DateTo, err = parseDate(r.DateTo, true); err != nil {
		return p, err
	}

	if r.ActorID != nil {
		id := strings.TrimSpace(*r.ActorID)
		if id != "" {
			if _, err := uuid.Parse(id); err != nil {
				return p, joinInvalid("actor_id", err)
			}
		}
		p.ActorID = &id
	}

	if r.ActionKind != nil {
		var kind domain.ActionKind
		if s := strings.TrimSpace(*r.ActionKind); s != "" {
			if kind, err = domain.ParseActionKind(s); err != nil {
				return p, err
			}
		}
		p.ActionKind = &kind
	}

	p.Department = r.Department
	p.FreeText = r.Search
	return p, nil
}

// parseDate accepts a bare day or an RFC3339 instant, kept in UTC. An empty
// string clears. A bare day used as a range end covers the whole day.
func parseDate(s *string, rangeEnd bool) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return &time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		if rangeEnd {
			t = viewer.EndOfDay(t)
		}
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, joinInvalid("date", err)
	}
	t = t.UTC()
	return &t, nil
}

func joinInvalid(field string, err error) error {
	return &invalidFieldError{field: field, err: err}
}

type invalidFieldError struct {
	field string
	err   error
}

func (e *invalidFieldError) Error() string {
	return ErrInvalidFilter.Error() + ": " + e.field + ": " + e.err.Error()
}

func (e *invalidFieldError) Unwrap() []error {
	return []error{ErrInvalidFilter, e.err}
}

type actorResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	LastName   string `json:"last_name"`
	Department string `json:"department"`
}

func newActorsResponse(users []domain.ActorSummary) []actorResponse {
	out := make([]actorResponse, 0, len(users))
	for _, u := range users {
		out = append(out, actorResponse(u))
	}
	return out
}

type logEntryResponse struct {
	ID            string         `json:"id"`
	ActorID       *string        `json:"actor_id"`
	Actor         string         `json:"actor"`
	Department    string         `json:"department,omitempty"`
	ActionKind    string         `json:"action_kind"`
	EntityKind    string         `json:"entity_kind"`
	EntityID      string         `json:"entity_id"`
	Details       domain.Details `json:"details"`
	SourceAddress string         `json:"ip_address"`
	ClientAgent   string         `json:"user_agent"`
	Outcome       string         `json:"status"`
	OccurredAt    time.Time      `json:"created_at"`
}

func newLogEntryResponse(e domain.LogEntry) logEntryResponse {
	return logEntryResponse{
		ID:            e.ID,
		ActorID:       e.ActorID,
		Actor:         e.ActorDisplayName(),
		Department:    e.Department(),
		ActionKind:    string(e.ActionKind),
		EntityKind:    e.EntityKind,
		EntityID:      e.EntityID,
		Details:       e.Details,
		SourceAddress: e.SourceAddress,
		ClientAgent:   e.ClientAgent,
		Outcome:       string(e.Outcome),
		OccurredAt:    e.OccurredAt,
	}
}

type statsRowResponse struct {
	Action string `json:"action"`
	Total  int    `json:"total"`
	Errors int    `json:"errors"`
}

type statsResponse struct {
	Bucket  *time.Time         `json:"bucket"`
	Actions []statsRowResponse `json:"actions"`
}

func newStatsResponse(s viewer.StatsSummary) statsResponse {
	resp := statsResponse{Actions: make([]statsRowResponse, 0, len(domain.ActionKinds))}
	if !s.IsEmpty() {
		b := s.Bucket
		resp.Bucket = &b
	}
	for _, r := range s.Rows() {
		resp.Actions = append(resp.Actions, statsRowResponse{Action: string(r.Kind), Total: r.Total, Errors: r.Errors})
	}
	return resp
}

type detailResponse struct {
	ID            string          `json:"id"`
	ActorID       string          `json:"actor_id,omitempty"`
	Actor         string          `json:"actor"`
	ActorName     string          `json:"actor_name,omitempty"`
	ActorLastName string          `json:"actor_last_name,omitempty"`
	Department    string          `json:"department,omitempty"`
	System        bool            `json:"system"`
	ActionKind    string          `json:"action_kind"`
	ActionLabel   string          `json:"action_label"`
	EntityKind    string          `json:"entity_kind"`
	EntityID      string          `json:"entity_id"`
	Details       string          `json:"details_pretty"`
	RawDetails    json.RawMessage `json:"details,omitempty"`
	SourceAddress string          `json:"ip_address"`
	ClientAgent   string          `json:"user_agent"`
	Outcome       string          `json:"status"`
	OccurredAt    time.Time       `json:"created_at"`
}

func newDetailResponse(v viewer.DetailView) detailResponse {
	resp := detailResponse{
		ID:            v.ID,
		ActorID:       v.ActorID,
		Actor:         v.ActorDisplay,
		Department:    v.Department,
		System:        v.IsSystem,
		ActionKind:    string(v.ActionKind),
		ActionLabel:   v.ActionLabel,
		EntityKind:    v.EntityKind,
		EntityID:      v.EntityID,
		Details:       v.Details,
		RawDetails:    v.RawDetails,
		SourceAddress: v.SourceAddress,
		ClientAgent:   v.ClientAgent,
		Outcome:       string(v.Outcome),
		OccurredAt:    v.OccurredAt,
	}
	if v.Actor != nil {
		resp.ActorName = v.Actor.Name
		resp.ActorLastName = v.Actor.LastName
	}
	return resp
}

type filterResponse struct {
	DateFrom   *time.Time `json:"date_from,omitempty"`
	DateTo     *time.Time `json:"date_to,omitempty"`
	ActorID    string     `json:"actor_id,omitempty"`
	ActionKind string     `json:"action_kind,omitempty"`
	Department string     `json:"department,omitempty"`
	Search     string     `json:"search,omitempty"`
}

type sortResponse struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

type pageResponse struct {
	Index   int `json:"index"`
	Size    int `json:"size"`
	Total   int `json:"total"`
	MaxPage int `json:"max_page"`
}

type viewerResponse struct {
	ID          string             `json:"id"`
	Status      string             `json:"status"`
	Filter      filterResponse     `json:"filter"`
	Sort        sortResponse       `json:"sort"`
	Page        pageResponse       `json:"page"`
	Entries     []logEntryResponse `json:"entries"`
	Error       string             `json:"error,omitempty"`
	LookupError string             `json:"lookup_error,omitempty"`
	Users       []actorResponse    `json:"users"`
	Departments []string           `json:"departments"`
	Stats       statsResponse      `json:"stats"`
	Selected    *detailResponse    `json:"selected,omitempty"`
	ActorJoin   bool               `json:"actor_join"`
}

func newViewerResponse(s viewer.Snapshot) viewerResponse {
	resp := viewerResponse{
		ID:     s.ID,
		Status: string(s.Status),
		Filter: filterResponse{
			DateFrom:   s.Filter.DateFrom,
			DateTo:     s.Filter.DateTo,
			ActorID:    s.Filter.ActorID,
			ActionKind: string(s.Filter.ActionKind),
			Department: s.Filter.Department,
			Search:     s.Filter.FreeText,
		},
		Sort: sortResponse{Field: string(s.Sort.Field), Direction: string(s.Sort.Direction)},
		Page: pageResponse{
			Index:   s.Page.Index,
			Size:    s.Page.Size,
			Total:   s.Page.Total,
			MaxPage: s.MaxPage,
		},
		Entries:     make([]logEntryResponse, 0, len(s.Entries)),
		Users:       newActorsResponse(s.Users),
		Departments: s.Departments,
		Stats:       newStatsResponse(s.Stats),
		ActorJoin:   s.ActorJoin,
	}
	if resp.Departments == nil {
		resp.Departments = []string{}
	}
	for _, e := range s.Entries {
		resp.Entries = append(resp.Entries, newLogEntryResponse(e))
	}
	if s.Err != nil {
		resp.Error = s.Err.Error()
	}
	if s.LookupErr != nil {
		resp.LookupError = s.LookupErr.Error()
	}
	if s.Selected != nil {
		d := newDetailResponse(*s.Selected)
		resp.Selected = &d
	}
	return resp
}
