// Package session provides conversation history storage for multi-turn
// chat. A Session accumulates the normalized message transcript; stores
// persist sessions between turns so callers can resume a conversation by id.
package session

import "github.com/hupe1980/modelbridge/core"

// Session is one conversation transcript, oldest message first.
type Session struct {
	ID       string
	Messages []core.Content
}

// NewSession constructs an empty session with the given id.
func NewSession(id string) *Session {
	return &Session{ID: id}
}

// Append adds messages to the transcript.
func (s *Session) Append(contents ...core.Content) {
	s.Messages = append(s.Messages, contents...)
}

// Clone returns a deep-enough copy so callers cannot mutate stored state.
func (s *Session) Clone() *Session {
	msgs := make([]core.Content, len(s.Messages))
	copy(msgs, s.Messages)
	return &Session{ID: s.ID, Messages: msgs}
}

// Store persists sessions between conversation turns.
type Store interface {
	// Get returns an existing session or creates a new one lazily.
	Get(sessionID string) (*Session, error)

	// Append adds messages to an existing or newly created session.
	Append(sessionID string, contents ...core.Content) error

	// Delete removes a session. Deleting an unknown id is a no-op.
	Delete(sessionID string) error
}
