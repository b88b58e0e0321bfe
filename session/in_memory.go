package session

import (
	"sync"

	"github.com/hupe1980/modelbridge/core"
)

// InMemoryStore is a volatile Store implementation keeping sessions in a
// process local map. It is safe for concurrent access and best suited for
// tests or ephemeral demo servers. Each returned session is cloned to
// prevent external mutation of internal state.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*Session)}
}

// Get returns an existing session (clone) or creates a new one lazily.
func (s *InMemoryStore) Get(sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = s.createLocked(sessionID)
	}
	return sess.Clone(), nil
}

// Append adds messages to an existing or newly created session.
func (s *InMemoryStore) Append(sessionID string, contents ...core.Content) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = s.createLocked(sessionID)
	}
	sess.Append(contents...)
	return nil
}

// Delete removes a session.
func (s *InMemoryStore) Delete(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// createLocked allocates and stores a new session; caller must already hold
// the write lock.
func (s *InMemoryStore) createLocked(sessionID string) *Session {
	sess := NewSession(sessionID)
	s.sessions[sessionID] = sess
	return sess
}
