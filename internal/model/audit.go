package model

import (
	"encoding/json"
	"time"
)

// EventKind identifies what a session audit event records.
type EventKind string

// Audit event kinds. Within one session events are strictly ordered:
// classification precedes analysis precedes action_queued precedes
// action_result; session_closed marks closure for sessions that never
// reach the action stage.
const (
	EventClassification EventKind = "classification"
	EventAnalysis       EventKind = "analysis"
	EventActionQueued   EventKind = "action_queued"
	EventActionResult   EventKind = "action_result"
	EventSessionClosed  EventKind = "session_closed"
)

// AuditEvent is one entry in a session's append-only audit trail.
// Sequence numbers are assigned by the store, strictly increasing per
// session starting at 1, and are never reused.
type AuditEvent struct {
	Timestamp time.Time       `json:"timestamp"`
	SessionID string          `json:"session_id"`
	Kind      EventKind       `json:"kind"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Sequence  int64           `json:"sequence"`
}

// NewAuditEvent builds an event for the given session with the payload
// snapshot marshaled to JSON. Marshal failures degrade to an empty
// payload rather than blocking the audit trail.
func NewAuditEvent(sessionID string, kind EventKind, payload any) *AuditEvent {
	var raw json.RawMessage
	if payload != nil {
		if b, err := json.Marshal(payload); err == nil {
			raw = b
		}
	}
	return &AuditEvent{
		SessionID: sessionID,
		Kind:      kind,
		Payload:   raw,
		Timestamp: time.Now().UTC(),
	}
}
