package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/splitlight/triage/internal/model"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrNilParameter  = errors.New("parameter cannot be nil")
	ErrInvalidEvent  = errors.New("invalid audit event")
	ErrInvalidStatus = errors.New("invalid session status")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateEvent validates an audit event before append.
func validateEvent(event *model.AuditEvent) error {
	if event == nil {
		return fmt.Errorf("%w: event", ErrNilParameter)
	}
	if event.SessionID == "" {
		return fmt.Errorf("%w: missing session ID", ErrInvalidEvent)
	}

	switch event.Kind {
	case model.EventClassification,
		model.EventAnalysis,
		model.EventActionQueued,
		model.EventActionResult,
		model.EventSessionClosed:
		// Valid kind
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, event.Kind)
	}

	return nil
}

// validateSession validates a session before creation.
func validateSession(session *model.Session) error {
	if session == nil {
		return fmt.Errorf("%w: session", ErrNilParameter)
	}
	if session.ID == "" {
		return fmt.Errorf("%w: missing session ID", ErrInvalidEvent)
	}
	if err := validateStatus(session.Status); err != nil {
		return err
	}
	return nil
}

// validateStatus ensures a session status is one of the known values.
func validateStatus(status model.SessionStatus) error {
	switch status {
	case model.SessionOpen, model.SessionCompleted, model.SessionFailed:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
}
