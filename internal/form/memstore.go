package form

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/andeantech/ventas-bff/model"
)

// MemoryStore is an in-memory Store. It backs single-instance deployments
// and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

// Create persists a new session.
func (s *MemoryStore) Create(_ context.Context, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; exists {
		return model.NewConflictError(fmt.Sprintf("filter session %q already exists", session.ID))
	}
	s.sessions[session.ID] = session.clone()
	return nil
}

// Get retrieves a session by ID, scoped to its owning subject.
func (s *MemoryStore) Get(_ context.Context, subjectID, sessionID string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[sessionID]
	if !exists || session.SubjectID != subjectID {
		return Session{}, model.NewSessionNotFoundError(sessionID)
	}
	// The caller gets an independent copy: edits only land through Update.
	return session.clone(), nil
}

// Update persists an updated session with optimistic locking.
func (s *MemoryStore) Update(_ context.Context, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.sessions[session.ID]
	if !exists {
		return model.NewSessionNotFoundError(session.ID)
	}
	if existing.Version != session.Version {
		return model.NewConflictError(
			fmt.Sprintf("filter session %q version conflict (expected %d, got %d)",
				session.ID, existing.Version, session.Version),
		)
	}

	session.Version++
	session.UpdatedAt = time.Now().UTC()
	s.sessions[session.ID] = session.clone()
	return nil
}

// Delete removes a session.
func (s *MemoryStore) Delete(_ context.Context, subjectID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[sessionID]
	if !exists || session.SubjectID != subjectID {
		return model.NewSessionNotFoundError(sessionID)
	}
	delete(s.sessions, sessionID)
	return nil
}

// DeleteIdleBefore removes sessions not touched since the cutoff.
func (s *MemoryStore) DeleteIdleBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if session.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// HealthCheck always succeeds for the in-memory store.
func (s *MemoryStore) HealthCheck(_ context.Context) error {
	return nil
}

// Len returns the number of stored sessions. For testing.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
