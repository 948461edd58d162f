package viewer

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/Egor213/AuditTrack/internal/domain"
	"github.com/Egor213/AuditTrack/internal/metrics"
	"github.com/Egor213/AuditTrack/internal/repo/repotypes"
)

// Source is the backend the store reads from.
type Source interface {
	FetchLogs(ctx context.Context, q repotypes.LogQuery) (repotypes.LogPage, error)
	ListUsers(ctx context.Context) ([]domain.ActorSummary, error)
	ActivityStats(ctx context.Context) ([]domain.ActivityStat, error)
}

// LogStore holds the loaded page and the lookup tables of one viewer.
// Only the response to the most recently issued load is ever applied.
type LogStore struct {
	source  Source
	timeout time.Duration
	stale   metrics.Counter

	mu          sync.RWMutex
	generation  uint64
	cancel      context.CancelFunc
	entries     []domain.LogEntry
	total       int
	err         error
	users       []domain.ActorSummary
	departments []string
}

type StoreOption func(*LogStore)

// WithFetchTimeout bounds every backend call. A timeout is a FetchError.
func WithFetchTimeout(d time.Duration) StoreOption {
	return func(s *LogStore) {
		s.timeout = d
	}
}

// WithQueryCounter counts discarded stale responses.
func WithQueryCounter(c metrics.Counter) StoreOption {
	return func(s *LogStore) {
		s.stale = c
	}
}

func NewLogStore(source Source, opts ...StoreOption) *LogStore {
	s := &LogStore{source: source}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type ticket struct {
	generation uint64
	ctx        context.Context
	cancel     context.CancelFunc
}

// begin issues a new generation and cancels the fetch it supersedes.
func (s *LogStore) begin(ctx context.Context) ticket {
	fetchCtx, cancel := s.withTimeout(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	s.cancel = cancel

	return ticket{generation: s.generation, ctx: fetchCtx, cancel: cancel}
}

func (s *LogStore) fetch(t ticket, q repotypes.LogQuery) (repotypes.LogPage, error) {
	defer t.cancel()
	return s.source.FetchLogs(t.ctx, q)
}

// finish applies a result if its ticket is still the latest.
func (s *LogStore) finish(t ticket, page repotypes.LogPage, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.generation != s.generation {
		if s.stale != nil {
			s.stale.Inc("stale")
		}
		return ErrStaleResponse
	}
	s.cancel = nil

	if err != nil {
		s.err = &FetchError{Op: "logs", Err: err}
		return s.err
	}

	s.entries = slices.Clone(page.Entries)
	s.total = page.Total
	s.err = nil
	return nil
}

// Load fetches one page and replaces the entries and total together. A failed
// load keeps the previous entries. A superseded load returns ErrStaleResponse
// and changes nothing.
func (s *LogStore) Load(ctx context.Context, q repotypes.LogQuery) (repotypes.LogPage, error) {
	t := s.begin(ctx)
	page, err := s.fetch(t, q)
	if err := s.finish(t, page, err); err != nil {
		return repotypes.LogPage{}, err
	}
	return page, nil
}

// Reset cancels any in-flight load and forgets everything loaded.
func (s *LogStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
	s.entries = nil
	s.total = 0
	s.err = nil
	s.users = nil
	s.departments = nil
}

func (s *LogStore) Entries() []domain.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entries)
}

func (s *LogStore) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

// Err is the error of the last applied load, nil after a success.
func (s *LogStore) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *LogStore) Entry(id string) (domain.LogEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e, true
		}
	}
	return domain.LogEntry{}, false
}

// LookupUsers reads the users lookup and refreshes the derived departments.
func (s *LogStore) LookupUsers(ctx context.Context) ([]domain.ActorSummary, error) {
	users, err := s.fetchUsers(ctx)
	if err != nil {
		return nil, err
	}
	s.setUsers(users)
	return users, nil
}

func (s *LogStore) fetchUsers(ctx context.Context) ([]domain.ActorSummary, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	users, err := s.source.ListUsers(ctx)
	if err != nil {
		return nil, &FetchError{Op: "users", Err: err}
	}
	return users, nil
}

func (s *LogStore) setUsers(users []domain.ActorSummary) {
	departments := Departments(users)

	s.mu.Lock()
	s.users = slices.Clone(users)
	s.departments = departments
	s.mu.Unlock()
}

func (s *LogStore) LookupDepartments(ctx context.Context) ([]string, error) {
	users, err := s.LookupUsers(ctx)
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			fe.Op = "departments"
		}
		return nil, err
	}
	return Departments(users), nil
}

func (s *LogStore) ActivityStats(ctx context.Context) ([]domain.ActivityStat, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	stats, err := s.source.ActivityStats(ctx)
	if err != nil {
		return nil, &FetchError{Op: "stats", Err: err}
	}
	return stats, nil
}

// Lookups returns the last loaded users and departments.
func (s *LogStore) Lookups() ([]domain.ActorSummary, []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.users), slices.Clone(s.departments)
}

func (s *LogStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

// Departments is the sorted set of non-empty departments.
func Departments(users []domain.ActorSummary) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		if u.Department != "" {
			out = append(out, u.Department)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
