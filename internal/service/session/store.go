package session

import "sync"

// Store is the process-wide registry of live sessions, keyed by connection
// identifier. It is injected into the protocol handler rather than held as a
// package global so it can be swapped out and tested in isolation. Sessions
// do not survive a restart.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty session registry.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Create inserts a fresh idle session for the given connection id. An
// existing session under the same id is replaced, so a stale buffer can
// never leak into a new connection.
func (st *Store) Create(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := newSession(id)
	st.sessions[id] = s
	return s
}

// Get returns the session for the given id, if present.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Remove deletes the session entry. Safe to call for an absent id.
func (st *Store) Remove(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Len returns the number of registered sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
