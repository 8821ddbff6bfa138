package form

import (
	"context"
	"time"
)

// Store persists filter sessions.
type Store interface {
	// Create persists a new session.
	Create(ctx context.Context, session Session) error

	// Get retrieves a session by ID, scoped to its owning subject. Returns
	// SESSION_NOT_FOUND if it doesn't exist or belongs to someone else.
	Get(ctx context.Context, subjectID, sessionID string) (Session, error)

	// Update persists an updated session with optimistic locking. The
	// version must match the stored version. Returns CONFLICT otherwise.
	Update(ctx context.Context, session Session) error

	// Delete removes a session.
	Delete(ctx context.Context, subjectID, sessionID string) error

	// DeleteIdleBefore removes sessions not touched since the cutoff.
	DeleteIdleBefore(ctx context.Context, cutoff time.Time) (int, error)
}
