package form

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andeantech/ventas-bff/model"
)

// PgStore is a PostgreSQL-backed Store using pgx/v5. The session body is
// stored as one JSONB document; only identity, ownership, and versioning
// live in columns.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PostgreSQL session store.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureSchema creates the sessions table if it does not exist.
func (s *PgStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS filter_sessions (
			id         TEXT PRIMARY KEY,
			subject_id TEXT NOT NULL,
			body       JSONB NOT NULL,
			version    BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("ensure filter_sessions schema: %w", err)
	}
	return nil
}

// HealthCheck verifies database connectivity.
func (s *PgStore) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Create inserts a new session.
func (s *PgStore) Create(ctx context.Context, session Session) error {
	body, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO filter_sessions (id, subject_id, body, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		session.ID, session.SubjectID, body, session.Version,
		session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert filter session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID, scoped to its owning subject.
func (s *PgStore) Get(ctx context.Context, subjectID, sessionID string) (Session, error) {
	var body []byte
	var version int64

	err := s.pool.QueryRow(ctx, `
		SELECT body, version
		FROM filter_sessions
		WHERE id = $1 AND subject_id = $2`,
		sessionID, subjectID,
	).Scan(&body, &version)
	if err == pgx.ErrNoRows {
		return Session{}, model.NewSessionNotFoundError(sessionID)
	}
	if err != nil {
		return Session{}, fmt.Errorf("query filter session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(body, &session); err != nil {
		return Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	session.Version = version
	return session, nil
}

// Update persists an updated session with optimistic locking.
func (s *PgStore) Update(ctx context.Context, session Session) error {
	now := time.Now().UTC()
	next := session
	next.Version = session.Version + 1
	next.UpdatedAt = now

	body, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE filter_sessions SET
			body = $1,
			version = $2,
			updated_at = $3
		WHERE id = $4 AND version = $5`,
		body, next.Version, now, session.ID, session.Version,
	)
	if err != nil {
		return fmt.Errorf("update filter session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewConflictError(
			fmt.Sprintf("filter session %q version conflict (expected %d)", session.ID, session.Version),
		)
	}
	return nil
}

// Delete removes a session.
func (s *PgStore) Delete(ctx context.Context, subjectID, sessionID string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM filter_sessions
		WHERE id = $1 AND subject_id = $2`,
		sessionID, subjectID,
	)
	if err != nil {
		return fmt.Errorf("delete filter session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewSessionNotFoundError(sessionID)
	}
	return nil
}

// DeleteIdleBefore removes sessions not touched since the cutoff.
func (s *PgStore) DeleteIdleBefore(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM filter_sessions
		WHERE updated_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("delete idle filter sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
