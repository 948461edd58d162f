package grpcv1

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Egor213/AuditTrack/internal/domain"
	"github.com/Egor213/AuditTrack/internal/viewer"
	"github.com/google/uuid"
)

var ErrInvalidArgument = errors.New("invalid argument")

func filterFromRequest(f Filter) (viewer.FilterState, error) {
	var (
		state viewer.FilterState
		err   error
	)

	if state.DateFrom, err = parseDate("date_from", f.DateFrom, false); err != nil {
		return state, err
	}
	if state.DateTo, err = parseDate("date_to", f.DateTo, true); err != nil {
		return state, err
	}

	if id := strings.TrimSpace(f.ActorID); id != "" {
		if _, err := uuid.Parse(id); err != nil {
			return state, fmt.Errorf("%w: actor_id: %v", ErrInvalidArgument, err)
		}
		state.ActorID = id
	}

	if kind := strings.TrimSpace(f.ActionKind); kind != "" {
		k, err := domain.ParseActionKind(kind)
		if err != nil {
			return state, err
		}
		state.ActionKind = k
	}

	state.Department = strings.TrimSpace(f.Department)
	state.FreeText = strings.TrimSpace(f.Search)
	return state, nil
}

// parseDate reads a bare day or an RFC3339 instant. A bare day used as a
// range end is extended to cover the whole day.
func parseDate(field, raw string, rangeEnd bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		if rangeEnd {
			t = viewer.EndOfDay(t)
		}
		return &t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	return nil, fmt.Errorf("%w: %s: %q is neither a date nor an RFC3339 timestamp", ErrInvalidArgument, field, raw)
}

func sorterFromRequest(s Sort) (viewer.Sorter, error) {
	sorter := viewer.DefaultSorter()
	if strings.TrimSpace(s.Field) != "" {
		field, err := viewer.ParseSortField(s.Field)
		if err != nil {
			return sorter, err
		}
		sorter.Field = field
	}

	switch viewer.Direction(strings.ToLower(strings.TrimSpace(s.Direction))) {
	case "", viewer.Descending:
		sorter.Direction = viewer.Descending
	case viewer.Ascending:
		sorter.Direction = viewer.Ascending
	default:
		return sorter, fmt.Errorf("%w: direction: %q", ErrInvalidArgument, s.Direction)
	}
	return sorter, nil
}

func toLogEntry(e domain.LogEntry) LogEntry {
	out := LogEntry{
		ID:            e.ID,
		ActorID:       e.ActorID,
		ActorDisplay:  e.ActorDisplayName(),
		ActionKind:    string(e.ActionKind),
		EntityKind:    e.EntityKind,
		EntityID:      e.EntityID,
		Details:       e.Details,
		SourceAddress: e.SourceAddress,
		ClientAgent:   e.ClientAgent,
		Outcome:       string(e.Outcome),
		OccurredAt:    e.OccurredAt,
	}
	if e.Actor != nil {
		out.Actor = &Actor{
			ID:         e.Actor.ID,
			Name:       e.Actor.Name,
			LastName:   e.Actor.LastName,
			Department: e.Actor.Department,
		}
	}
	return out
}

func toStatsResponse(s viewer.StatsSummary) *GetStatsResponse {
	resp := &GetStatsResponse{}
	if !s.IsEmpty() {
		bucket := s.Bucket
		resp.Bucket = &bucket
	}
	for _, row := range s.Rows() {
		resp.Actions = append(resp.Actions, ActionStat{
			ActionKind: string(row.Kind),
			Total:      row.Total,
			Errors:     row.Errors,
		})
	}
	return resp
}
