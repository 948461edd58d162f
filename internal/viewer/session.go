package viewer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Egor213/AuditTrack/internal/domain"
	"github.com/Egor213/AuditTrack/internal/export"
	"github.com/Egor213/AuditTrack/internal/metrics"
	"github.com/Egor213/AuditTrack/internal/repo/repotypes"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusLoaded  Status = "loaded"
	StatusFailed  Status = "failed"
)

type Identity = domain.Identity

type Exporter interface {
	Export(ctx context.Context, entries []domain.LogEntry, format export.Format, identity domain.Identity) (export.Artifact, error)
}

type Options struct {
	PageSize     int
	ActorJoin    bool
	FetchTimeout time.Duration
	Counters     *metrics.Counters
}

// Session is one viewer: its filter, sort and page state plus the store
// those drive. State changes go through Dispatch.
type Session struct {
	id       string
	identity Identity
	store    *LogStore
	builder  QueryBuilder
	exporter Exporter
	pageSize int

	mu        sync.Mutex
	status    Status
	filter    FilterState
	sorter    Sorter
	pager     Pager
	stats     StatsSummary
	lookupErr error
	selected  *DetailView
	// lookupGen identifies the latest reload; older lookup results are dropped.
	lookupGen uint64
}

func NewSession(id string, identity Identity, source Source, exporter Exporter, opts Options) *Session {
	storeOpts := []StoreOption{WithFetchTimeout(opts.FetchTimeout)}
	if opts.Counters != nil {
		storeOpts = append(storeOpts, WithQueryCounter(opts.Counters.LogQueries))
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return &Session{
		id:       id,
		identity: identity,
		store:    NewLogStore(source, storeOpts...),
		builder:  NewQueryBuilder(opts.ActorJoin),
		exporter: exporter,
		pageSize: pageSize,
		status:   StatusIdle,
		sorter:   DefaultSorter(),
		pager:    NewPager(pageSize),
		stats:    Summarize(nil),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Identity() Identity {
	return s.identity
}

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	ID          string
	Status      Status
	Filter      FilterState
	Sort        Sorter
	Page        Pager
	MaxPage     int
	Entries     []domain.LogEntry
	Err         error
	LookupErr   error
	Users       []domain.ActorSummary
	Departments []string
	Stats       StatsSummary
	Selected    *DetailView
	ActorJoin   bool
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	users, departments := s.store.Lookups()
	snap := Snapshot{
		ID:          s.id,
		Status:      s.status,
		Filter:      s.filter,
		Sort:        s.sorter,
		Page:        s.pager,
		MaxPage:     s.pager.MaxPage(),
		Entries:     s.store.Entries(),
		Err:         s.store.Err(),
		LookupErr:   s.lookupErr,
		Users:       users,
		Departments: departments,
		Stats:       s.stats,
		ActorJoin:   s.builder.ActorJoin(),
	}
	if s.selected != nil {
		sel := *s.selected
		snap.Selected = &sel
	}
	return snap
}

// Event is a state change that ends in exactly one log fetch.
type Event interface {
	apply(s *Session) error
}

// FilterChanged merges a partial filter and goes back to the first page.
type FilterChanged struct {
	Patch FilterPatch
}

func (e FilterChanged) apply(s *Session) error {
	next := e.Patch.Apply(s.filter)
	if err := next.Validate(); err != nil {
		return err
	}
	s.filter = next
	s.pager = s.pager.First()
	return nil
}

// SortToggled toggles the sort field and goes back to the first page.
type SortToggled struct {
	Field SortField
}

func (e SortToggled) apply(s *Session) error {
	field, err := ParseSortField(string(e.Field))
	if err != nil {
		return err
	}
	s.sorter = s.sorter.Toggle(field)
	s.pager = s.pager.First()
	return nil
}

type PageRequested struct {
	Page int
}

func (e PageRequested) apply(s *Session) error {
	s.pager = s.pager.GoTo(e.Page)
	return nil
}

type NextPage struct{}

func (NextPage) apply(s *Session) error {
	s.pager = s.pager.Next()
	return nil
}

type PreviousPage struct{}

func (PreviousPage) apply(s *Session) error {
	s.pager = s.pager.Previous()
	return nil
}

// Reload refetches the current page together with the lookups.
type Reload struct{}

func (Reload) apply(*Session) error {
	return nil
}

// Dispatch applies the event and fetches the resulting page. If a newer
// event was dispatched meanwhile the result is discarded with ErrStaleResponse.
func (s *Session) Dispatch(ctx context.Context, ev Event) (Snapshot, error) {
	if _, ok := ev.(Reload); ok {
		return s.reload(ctx)
	}

	s.mu.Lock()
	if err := ev.apply(s); err != nil {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, err
	}
	t, q := s.beginLocked(ctx)
	s.mu.Unlock()

	return s.complete(ctx, t, q)
}

// Initialize resets the viewer to its defaults and loads the first page
// together with the users and stats lookups.
func (s *Session) Initialize(ctx context.Context, pageSize int) (Snapshot, error) {
	if pageSize <= 0 {
		pageSize = s.pageSize
	}

	s.mu.Lock()
	s.filter = FilterState{}
	s.sorter = DefaultSorter()
	s.pager = NewPager(pageSize)
	s.selected = nil
	s.mu.Unlock()

	return s.reload(ctx)
}

func (s *Session) SetFilter(ctx context.Context, patch FilterPatch) (Snapshot, error) {
	return s.Dispatch(ctx, FilterChanged{Patch: patch})
}

func (s *Session) SetSort(ctx context.Context, field SortField) (Snapshot, error) {
	return s.Dispatch(ctx, SortToggled{Field: field})
}

func (s *Session) SetPage(ctx context.Context, page int) (Snapshot, error) {
	return s.Dispatch(ctx, PageRequested{Page: page})
}

func (s *Session) Next(ctx context.Context) (Snapshot, error) {
	return s.Dispatch(ctx, NextPage{})
}

func (s *Session) Previous(ctx context.Context) (Snapshot, error) {
	return s.Dispatch(ctx, PreviousPage{})
}

func (s *Session) Reload(ctx context.Context) (Snapshot, error) {
	return s.Dispatch(ctx, Reload{})
}

// ExportCurrentPage exports the loaded page only, never the whole filtered set.
func (s *Session) ExportCurrentPage(ctx context.Context, format export.Format) (export.Artifact, error) {
	if s.exporter == nil {
		return export.Artifact{}, &export.Error{Format: format, Err: export.ErrRendererUnavailable}
	}
	return s.exporter.Export(ctx, s.store.Entries(), format, s.identity)
}

func (s *Session) SelectEntry(id string) (DetailView, error) {
	entry, ok := s.store.Entry(id)
	if !ok {
		return DetailView{}, ErrEntryNotFound
	}
	view := Present(entry)

	s.mu.Lock()
	s.selected = &view
	s.mu.Unlock()

	return view, nil
}

func (s *Session) ClearSelection() {
	s.mu.Lock()
	s.selected = nil
	s.mu.Unlock()
}

// Close abandons in-flight fetches and drops all state.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.Reset()
	s.status = StatusIdle
	s.filter = FilterState{}
	s.sorter = DefaultSorter()
	s.pager = NewPager(s.pageSize)
	s.stats = Summarize(nil)
	s.lookupErr = nil
	s.selected = nil
	s.lookupGen++
}

func (s *Session) beginLocked(ctx context.Context) (ticket, repotypes.LogQuery) {
	q := s.builder.Build(s.filter, s.sorter, s.pager)
	s.status = StatusLoading
	return s.store.begin(ctx), q
}

// complete waits for the fetch and applies it. When the reported total no
// longer reaches the current page, the page is clamped and fetched once more.
func (s *Session) complete(ctx context.Context, t ticket, q repotypes.LogQuery) (Snapshot, error) {
	snap, next, err := s.settle(ctx, t, q, true)
	if next == nil {
		return snap, err
	}
	snap, _, err = s.settle(ctx, next.ticket, next.query, false)
	return snap, err
}

type refetch struct {
	ticket ticket
	query  repotypes.LogQuery
}

func (s *Session) settle(ctx context.Context, t ticket, q repotypes.LogQuery, mayRefetch bool) (Snapshot, *refetch, error) {
	page, fetchErr := s.store.fetch(t, q)

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.store.finish(t, page, fetchErr)
	switch {
	case errors.Is(err, ErrStaleResponse):
		log.WithField("session", s.id).Debug("Discarded stale log page")
	case err != nil:
		s.status = StatusFailed
	default:
		s.pager = s.pager.WithTotal(page.Total)
		if clamped := s.pager.GoTo(s.pager.Index); clamped.Index != s.pager.Index {
			s.pager = clamped
			if mayRefetch {
				next, nq := s.beginLocked(ctx)
				return s.snapshotLocked(), &refetch{ticket: next, query: nq}, nil
			}
		}
		s.status = StatusLoaded
		if s.selected != nil {
			if _, ok := s.store.Entry(s.selected.ID); !ok {
				s.selected = nil
			}
		}
	}
	return s.snapshotLocked(), nil, err
}

func (s *Session) reload(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	t, q := s.beginLocked(ctx)
	s.lookupGen++
	gen := s.lookupGen
	s.mu.Unlock()

	var (
		g                 errgroup.Group
		logsErr, usersErr error
		statsErr          error
		users             []domain.ActorSummary
		window            []domain.ActivityStat
	)

	g.Go(func() error {
		_, logsErr = s.complete(ctx, t, q)
		return logsErr
	})
	g.Go(func() error {
		users, usersErr = s.store.fetchUsers(ctx)
		return usersErr
	})
	g.Go(func() error {
		window, statsErr = s.store.ActivityStats(ctx)
		return statsErr
	})
	_ = g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	// A newer reload or Close owns the lookups now.
	if gen != s.lookupGen {
		return s.snapshotLocked(), logsErr
	}

	if usersErr == nil {
		s.store.setUsers(users)
	}
	if statsErr == nil {
		s.stats = Summarize(window)
	}
	s.lookupErr = errors.Join(usersErr, statsErr)

	// Lookup failures are reported in the snapshot; the page itself loaded.
	return s.snapshotLocked(), logsErr
}
