// Package model defines the core domain models used throughout the application.
package model

import "time"

// SessionStatus indicates where a session is in its lifecycle.
type SessionStatus string

// Session status constants.
const (
	SessionOpen      SessionStatus = "open"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
)

// Session identifies one end-to-end handling of a single input, from
// intake to closure. The orchestrator is the only writer of session
// status; every other component references a session by ID only.
type Session struct {
	CreatedAt time.Time     `json:"created_at"`
	ClosedAt  *time.Time    `json:"closed_at,omitempty"`
	ID        string        `json:"id"`
	Source    string        `json:"source"`
	Status    SessionStatus `json:"status"`
}

// Closed reports whether the session has reached a terminal status.
func (s *Session) Closed() bool {
	return s.Status == SessionCompleted || s.Status == SessionFailed
}
