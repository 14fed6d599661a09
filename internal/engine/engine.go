// Package engine implements the session orchestrator for the triage pipeline.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/splitlight/triage/internal/common"
	"github.com/splitlight/triage/internal/model"
	"github.com/splitlight/triage/internal/router"
	"github.com/splitlight/triage/internal/service"
)

// sessionCloseTimeout bounds the status flip that runs on the
// background completion goroutine, which has no caller deadline to
// inherit.
const sessionCloseTimeout = 5 * time.Second

// Classifier is the engine's view of the classification step.
type Classifier interface {
	Classify(ctx context.Context, sessionID, content, hint string) (model.Classification, error)
}

// Intake carries one input into the pipeline.
type Intake struct {
	Content     string
	ContentHint string
	Filename    string
	Source      string
}

// ActionStatus reports one queued action in the intake response.
type ActionStatus struct {
	Type     model.ActionType `json:"action_type"`
	Priority model.Priority   `json:"priority"`
	Status   string           `json:"status"`
}

// Result is the response payload for one processed intake. The queued
// action completes in the background after Result is returned.
type Result struct {
	Finding        *model.Finding       `json:"finding,omitempty"`
	SessionID      string               `json:"session_id"`
	Status         string               `json:"status"`
	Actions        []ActionStatus       `json:"actions_taken"`
	Classification model.Classification `json:"classification"`
}

// Orchestrator owns the end-to-end session sequence: open session,
// classify, dispatch to an analyzer, route, execute, close session.
// It is the single writer of session status.
type Orchestrator struct {
	store      service.Storage
	classifier Classifier
	analyzers  map[model.Format]service.Analyzer
	router     *router.Router
	inflight   sync.WaitGroup
}

// New creates an orchestrator with the given dependencies. The
// analyzer map is keyed by detected format; formats without an entry
// behave like unknown.
func New(store service.Storage, classifier Classifier, analyzers map[model.Format]service.Analyzer, actionRouter *router.Router) *Orchestrator {
	return &Orchestrator{
		store:      store,
		classifier: classifier,
		analyzers:  analyzers,
		router:     actionRouter,
	}
}

// Process runs one intake through the pipeline. The classify, analyze
// and route steps run synchronously; action execution continues in the
// background and the session closes once its result is recorded.
//
// Content irregularities never surface as errors, they degrade to
// data. Only audit-log failure aborts the session with an error.
func (o *Orchestrator) Process(ctx context.Context, intake Intake) (*Result, error) {
	session := &model.Session{
		ID:        uuid.NewString(),
		Source:    intake.Source,
		Status:    model.SessionOpen,
		CreatedAt: time.Now().UTC(),
	}
	if err := o.store.CreateSession(ctx, session); err != nil {
		return nil, common.NewUserError("failed to open session", err)
	}

	slog.Info("Session opened",
		"session_id", session.ID,
		"source", intake.Source)

	classification, err := o.classifier.Classify(ctx, session.ID, intake.Content, intake.ContentHint)
	if err != nil {
		return nil, o.abort(ctx, session.ID, err)
	}

	slog.Info("Content classified",
		"session_id", session.ID,
		"format", classification.Format,
		"intent", classification.Intent,
		"confidence", classification.Confidence)

	analyzer, ok := o.analyzers[classification.Format]
	if classification.Unknown() || !ok {
		if err := o.closeDirectly(ctx, session.ID, classification.Format); err != nil {
			return nil, o.abort(ctx, session.ID, err)
		}
		return &Result{
			SessionID:      session.ID,
			Classification: classification,
			Actions:        []ActionStatus{},
			Status:         string(model.SessionCompleted),
		}, nil
	}

	finding, err := analyzer.Analyze(ctx, session.ID, intake.Content, classification)
	if err != nil {
		return nil, o.abort(ctx, session.ID, err)
	}

	o.inflight.Add(1)
	request, err := o.router.Dispatch(ctx, session.ID, finding, func(result model.ActionResult, auditErr error) {
		defer o.inflight.Done()
		o.closeAfterAction(session.ID, result, auditErr)
	})
	if err != nil {
		o.inflight.Done()
		return nil, o.abort(ctx, session.ID, err)
	}

	return &Result{
		SessionID:      session.ID,
		Classification: classification,
		Finding:        finding,
		Actions: []ActionStatus{{
			Type:     request.Type,
			Priority: request.Priority,
			Status:   "queued",
		}},
		Status: "accepted",
	}, nil
}

// closeDirectly closes a session that skips the analyze/route stages:
// the closure audit event is the session's terminal event.
func (o *Orchestrator) closeDirectly(ctx context.Context, sessionID string, format model.Format) error {
	event := model.NewAuditEvent(sessionID, model.EventSessionClosed, map[string]any{
		"status": model.SessionCompleted,
		"reason": fmt.Sprintf("no analyzer for format %q", format),
	})
	if _, err := o.store.Append(ctx, event); err != nil {
		return fmt.Errorf("failed to record session closure: %w", err)
	}
	if err := o.store.CloseSession(ctx, sessionID, model.SessionCompleted, time.Now().UTC()); err != nil {
		return err
	}
	slog.Info("Session closed without analysis", "session_id", sessionID)
	return nil
}

// closeAfterAction closes a session whose action completed. The
// action_result event is the terminal audit entry; the status flip on
// the session row records closure. Runs on the background execution
// goroutine, so it uses its own context.
func (o *Orchestrator) closeAfterAction(sessionID string, result model.ActionResult, auditErr error) {
	ctx, cancel := context.WithTimeout(context.Background(), sessionCloseTimeout)
	defer cancel()

	status := model.SessionCompleted
	if auditErr != nil {
		// The trail is incomplete; the session cannot claim success.
		status = model.SessionFailed
	}

	if err := o.store.CloseSession(ctx, sessionID, status, time.Now().UTC()); err != nil {
		slog.Error("Failed to close session",
			"session_id", sessionID,
			"error", err)
		return
	}

	common.LogInfo("Session closed", common.Fields{
		"session_id": sessionID,
		"status":     status,
		"outcome":    result.Outcome,
	})
}

// abort handles an audit-log failure mid-session: mark the session
// failed on a best-effort basis and surface the infrastructure error
// to the caller.
func (o *Orchestrator) abort(ctx context.Context, sessionID string, cause error) error {
	if err := o.store.CloseSession(ctx, sessionID, model.SessionFailed, time.Now().UTC()); err != nil {
		slog.Error("Failed to mark session failed",
			"session_id", sessionID,
			"error", err)
	}
	return common.NewUserError("session aborted: audit trail cannot be guaranteed",
		fmt.Errorf("%w: %w", common.ErrAuditLog, cause))
}

// Wait blocks until every in-flight background action has completed
// and its session closed. Used by graceful shutdown and one-shot runs.
func (o *Orchestrator) Wait() {
	o.inflight.Wait()
}
