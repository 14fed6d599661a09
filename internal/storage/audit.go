package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/splitlight/triage/internal/model"
)

// Append adds an event to the session's audit trail and returns the
// assigned sequence number. Sequence numbers are issued by the store,
// strictly increasing per session starting at 1, with no gaps. The
// issued number is derived from the durable table, so monotonicity
// survives process restarts.
func (s *SQLiteStorage) Append(ctx context.Context, event *model.AuditEvent) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateEvent(event); err != nil {
		return 0, err
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	s.seqMu.Lock()
	defer s.seqMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var seq int64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) + 1 FROM audit_events WHERE session_id = ?
	`, event.SessionID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to issue sequence number: %w", err)
	}

	var payload any
	if len(event.Payload) > 0 {
		payload = string(event.Payload)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO audit_events (session_id, seq, kind, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		event.SessionID,
		seq,
		string(event.Kind),
		payload,
		event.Timestamp,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to append audit event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit audit event: %w", err)
	}

	event.Sequence = seq
	return seq, nil
}

// ReadSession returns the session's audit trail ordered by sequence
// number ascending. The result is consistent with every Append that
// returned before the read began.
func (s *SQLiteStorage) ReadSession(ctx context.Context, sessionID string) ([]model.AuditEvent, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, seq, kind, payload, created_at
		FROM audit_events
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read session events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []model.AuditEvent
	for rows.Next() {
		var (
			event   model.AuditEvent
			kind    string
			payload sql.NullString
		)
		if err := rows.Scan(&event.SessionID, &event.Sequence, &kind, &payload, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		event.Kind = model.EventKind(kind)
		if payload.Valid {
			event.Payload = []byte(payload.String)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit events: %w", err)
	}

	return events, nil
}
