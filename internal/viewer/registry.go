package viewer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Factory builds a fresh session for the given id and identity.
type Factory func(id string, identity Identity) *Session

type registryEntry struct {
	session  *Session
	lastUsed time.Time
}

// Registry hosts the open viewer sessions. Sessions never share state.
type Registry struct {
	newSession Factory
	ttl        time.Duration
	now        func() time.Time

	mu       sync.Mutex
	sessions map[string]*registryEntry
}

func NewRegistry(factory Factory, ttl time.Duration) *Registry {
	return &Registry{
		newSession: factory,
		ttl:        ttl,
		now:        time.Now,
		sessions:   make(map[string]*registryEntry),
	}
}

func (r *Registry) Open(identity Identity) *Session {
	id := uuid.NewString()
	s := r.newSession(id, identity)

	r.mu.Lock()
	r.sessions[id] = &registryEntry{session: s, lastUsed: r.now()}
	r.mu.Unlock()

	return s
}

// Get returns the session and marks it as used.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.lastUsed = r.now()
	return e.session, nil
}

func (r *Registry) Close(id string) error {
	r.mu.Lock()
	e, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	e.session.Close()
	return nil
}

func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*registryEntry)
	r.mu.Unlock()

	for _, e := range sessions {
		e.session.Close()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than the TTL and returns how many.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}

	deadline := r.now().Add(-r.ttl)
	var expired []*Session

	r.mu.Lock()
	for id, e := range r.sessions {
		if e.lastUsed.Before(deadline) {
			expired = append(expired, e.session)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	return len(expired)
}

// Run sweeps on every tick until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				log.WithField("sessions", n).Info("Expired idle viewer sessions")
			}
		}
	}
}
