package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/splitlight/triage/internal/common"
	"github.com/splitlight/triage/internal/model"
)

// CreateSession persists a new session in the open state.
func (s *SQLiteStorage) CreateSession(ctx context.Context, session *model.Session) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSession(session); err != nil {
		return err
	}

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, source, status, created_at)
		VALUES (?, ?, ?, ?)
	`,
		session.ID,
		session.Source,
		string(session.Status),
		session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// CloseSession transitions an open session to a terminal status. A
// session is closed exactly once; closing an already-closed session
// returns common.ErrSessionClosed.
func (s *SQLiteStorage) CloseSession(ctx context.Context, sessionID string, status model.SessionStatus, closedAt time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return err
	}
	if err := validateStatus(status); err != nil {
		return err
	}
	if status == model.SessionOpen {
		return fmt.Errorf("%w: cannot close to status %q", ErrInvalidStatus, status)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET status = ?, closed_at = ?
		WHERE id = ? AND status = ?
	`,
		string(status),
		closedAt.UTC(),
		sessionID,
		string(model.SessionOpen),
	)
	if err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check close result: %w", err)
	}
	if affected == 0 {
		// Either the session doesn't exist or it was already closed.
		if _, getErr := s.GetSession(ctx, sessionID); getErr != nil {
			return getErr
		}
		return fmt.Errorf("%w: %s", common.ErrSessionClosed, sessionID)
	}

	return nil
}

// GetSession returns a session by ID.
func (s *SQLiteStorage) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return nil, err
	}

	var (
		session  model.Session
		status   string
		closedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, source, status, created_at, closed_at
		FROM sessions WHERE id = ?
	`, sessionID).Scan(&session.ID, &session.Source, &status, &session.CreatedAt, &closedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session %s", common.ErrNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	session.Status = model.SessionStatus(status)
	if closedAt.Valid {
		t := closedAt.Time
		session.ClosedAt = &t
	}

	return &session, nil
}

// ListSessions returns the most recently created sessions, newest first.
func (s *SQLiteStorage) ListSessions(ctx context.Context, limit int) ([]model.Session, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, status, created_at, closed_at
		FROM sessions
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []model.Session
	for rows.Next() {
		var (
			session  model.Session
			status   string
			closedAt sql.NullTime
		)
		if err := rows.Scan(&session.ID, &session.Source, &status, &session.CreatedAt, &closedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		session.Status = model.SessionStatus(status)
		if closedAt.Valid {
			t := closedAt.Time
			session.ClosedAt = &t
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	return sessions, nil
}
