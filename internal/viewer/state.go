package viewer

import (
	"fmt"
	"strings"
	"time"

	"github.com/Egor213/AuditTrack/internal/domain"
)

const DefaultPageSize = 20

// FilterState holds the user controlled constraints. Empty fields do not constrain.
type FilterState struct {
	DateFrom   *time.Time
	DateTo     *time.Time
	ActorID    string
	ActionKind domain.ActionKind
	Department string
	FreeText   string
}

func (f FilterState) IsEmpty() bool {
	return f.DateFrom == nil && f.DateTo == nil &&
		f.ActorID == "" && f.ActionKind == "" &&
		f.Department == "" && f.FreeText == ""
}

// Validate rejects a range whose start is after its end.
func (f FilterState) Validate() error {
	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		return ErrInvalidDateRange
	}
	return nil
}

// EndOfDay is the last instant of t's calendar day. Transports apply it to a
// range end given as a bare day so the whole day is included.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).Add(24*time.Hour - time.Nanosecond)
}

// FilterPatch is a partial filter update. A nil field is left as is,
// a pointer to the zero value clears the constraint.
type FilterPatch struct {
	DateFrom   *time.Time
	DateTo     *time.Time
	ActorID    *string
	ActionKind *domain.ActionKind
	Department *string
	FreeText   *string
}

func (p FilterPatch) Apply(f FilterState) FilterState {
	f.DateFrom = patchTime(f.DateFrom, p.DateFrom)
	f.DateTo = patchTime(f.DateTo, p.DateTo)
	if p.ActorID != nil {
		f.ActorID = strings.TrimSpace(*p.ActorID)
	}
	if p.ActionKind != nil {
		f.ActionKind = *p.ActionKind
	}
	if p.Department != nil {
		f.Department = strings.TrimSpace(*p.Department)
	}
	if p.FreeText != nil {
		f.FreeText = strings.TrimSpace(*p.FreeText)
	}
	return f
}

func patchTime(cur, patch *time.Time) *time.Time {
	if patch == nil {
		return cur
	}
	if patch.IsZero() {
		return nil
	}
	v := *patch
	return &v
}

type SortField string

const (
	SortOccurredAt SortField = "occurred_at"
	SortActorID    SortField = "actor_id"
)

func ParseSortField(s string) (SortField, error) {
	switch f := SortField(strings.ToLower(strings.TrimSpace(s))); f {
	case SortOccurredAt, SortActorID:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSortField, s)
}

type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Sorter has exactly one active field.
type Sorter struct {
	Field     SortField
	Direction Direction
}

func DefaultSorter() Sorter {
	return Sorter{Field: SortOccurredAt, Direction: Descending}
}

// Toggle flips the direction of the active field; any other field starts descending.
func (s Sorter) Toggle(field SortField) Sorter {
	if field == s.Field {
		if s.Direction == Descending {
			s.Direction = Ascending
		} else {
			s.Direction = Descending
		}
		return s
	}
	return Sorter{Field: field, Direction: Descending}
}

// Pager is 1-based. Total is the count last reported by the backend.
type Pager struct {
	Index int
	Size  int
	Total int
}

func NewPager(size int) Pager {
	if size <= 0 {
		size = DefaultPageSize
	}
	return Pager{Index: 1, Size: size}
}

// MaxPage is never below 1, even for an empty result.
func (p Pager) MaxPage() int {
	if p.Total <= 0 || p.Size <= 0 {
		return 1
	}
	return (p.Total + p.Size - 1) / p.Size
}

func (p Pager) GoTo(n int) Pager {
	p.Index = min(max(n, 1), p.MaxPage())
	return p
}

func (p Pager) Next() Pager {
	return p.GoTo(p.Index + 1)
}

func (p Pager) Previous() Pager {
	return p.GoTo(p.Index - 1)
}

func (p Pager) First() Pager {
	p.Index = 1
	return p
}

func (p Pager) WithTotal(total int) Pager {
	p.Total = max(total, 0)
	return p
}

func (p Pager) Offset() uint64 {
	return uint64(max(p.Index-1, 0)) * uint64(p.Size)
}
