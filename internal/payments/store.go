package payments

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SessionStore persists payment sessions. Resolve is a compare-and-set: it
// only succeeds for sessions that have no outcome yet.
type SessionStore interface {
	Create(ctx context.Context, session *Session) error
	Get(ctx context.Context, reference string) (*Session, error)
	Resolve(ctx context.Context, reference string, outcome Outcome, at time.Time) (*Session, error)
}

// MemoryStore is an in-process SessionStore.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

// Create stores session unless its reference is taken.
func (s *MemoryStore) Create(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.Reference]; ok {
		return fmt.Errorf("%w: %s", ErrReferenceTaken, session.Reference)
	}
	s.sessions[session.Reference] = session.clone()
	return nil
}

// Get returns a copy of the session stored under reference.
func (s *MemoryStore) Get(_ context.Context, reference string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[reference]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, reference)
	}
	return session.clone(), nil
}

// Resolve records outcome on an open session.
func (s *MemoryStore) Resolve(_ context.Context, reference string, outcome Outcome, at time.Time) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[reference]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, reference)
	}
	if session.Resolved() {
		return session.clone(), ErrSessionResolved
	}
	session.Outcome = &outcome
	session.ResolvedAt = &at
	return session.clone(), nil
}
