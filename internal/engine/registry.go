package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/atelier-ai/maestro/internal/model"
	"github.com/atelier-ai/maestro/internal/storage"
)

// SessionStore is the durable backing for sessions. The in-memory registry
// is authoritative while the process lives; the store rehydrates sessions
// after a restart and receives best-effort writes after each turn.
type SessionStore interface {
	LoadSession(ctx context.Context, sessionID string) (*model.Session, error)
	SaveSession(ctx context.Context, s *model.Session) error
}

// registry keeps live sessions and a per-session lock. The lock guards
// state reads and commits, not whole turns; different sessions never
// contend.
type registry struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
	locks    map[string]*sync.Mutex
}

func newRegistry() *registry {
	return &registry{
		sessions: make(map[string]*model.Session),
		locks:    make(map[string]*sync.Mutex),
	}
}

// lock returns the session's lock, creating it on first use.
func (r *registry) lock(sessionID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[sessionID] = l
	}
	return l
}

// get fetches the live session, falling back to the store, and finally
// creating a fresh one. Caller must hold the session's lock.
func (r *registry) get(ctx context.Context, store SessionStore, sessionID, userID string) (*model.Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	r.mu.Unlock()
	if ok {
		return s, nil
	}

	if store != nil {
		loaded, err := store.LoadSession(ctx, sessionID)
		switch {
		case err == nil:
			r.put(loaded)
			return loaded, nil
		case !errors.Is(err, storage.ErrNotFound):
			return nil, err
		}
	}

	s = model.NewSession(sessionID, userID)
	r.put(s)
	return s, nil
}

func (r *registry) put(s *model.Session) {
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
}

func (r *registry) peek(sessionID string) (*model.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	return s, ok
}

func (r *registry) drop(sessionID string) {
	r.mu.Lock()
	delete(r.sessions, sessionID)
	delete(r.locks, sessionID)
	r.mu.Unlock()
}
