// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/splitlight/triage/internal/model"
)

// AuditLog is the append-only, session-keyed record of every pipeline
// step. Append is the only mutating operation; events are never
// updated or deleted. Sequence numbers are assigned by the store
// itself so that per-session monotonicity holds even under concurrent
// writers.
type AuditLog interface {
	Append(ctx context.Context, event *model.AuditEvent) (int64, error)
	ReadSession(ctx context.Context, sessionID string) ([]model.AuditEvent, error)
}

// SessionStore persists session lifecycle state. Only the orchestrator
// transitions a session; CloseSession must succeed at most once per
// session.
type SessionStore interface {
	CreateSession(ctx context.Context, session *model.Session) error
	CloseSession(ctx context.Context, sessionID string, status model.SessionStatus, closedAt time.Time) error
	GetSession(ctx context.Context, sessionID string) (*model.Session, error)
	ListSessions(ctx context.Context, limit int) ([]model.Session, error)
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	AuditLog
	SessionStore

	// Database management
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Analyzer consumes classified content and produces a structured
// finding plus a suggested action hint. Analyzers are total: malformed
// input is recorded as anomalies or empty extractions, never returned
// as an error. The only error an analyzer may return is an audit log
// failure.
type Analyzer interface {
	Kind() model.Format
	Analyze(ctx context.Context, sessionID, content string, classification model.Classification) (*model.Finding, error)
}

// Executor runs an action against a (simulated) external system. It
// must always produce an outcome, success or failure, never leave a
// request pending indefinitely.
type Executor interface {
	Execute(ctx context.Context, request model.ActionRequest) model.ActionResult
}
