// Package router maps analyzer findings to concrete follow-up actions.
package router

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/splitlight/triage/internal/common"
	"github.com/splitlight/triage/internal/model"
	"github.com/splitlight/triage/internal/service"
)

// rule is one row of the routing decision table.
type rule struct {
	suggested model.ActionType
	action    model.ActionType
	priority  model.Priority
	target    string
}

// decisionTable is evaluated in order, first match wins. It has no
// hidden state: the same finding always routes the same way.
var decisionTable = []rule{
	{model.ActionBlockTransaction, model.ActionBlockTransaction, model.PriorityCritical, "risk"},
	{model.ActionEscalateToCRM, model.ActionEscalateToCRM, model.PriorityHigh, "crm"},
	{model.ActionFlagComplianceReview, model.ActionFlagComplianceReview, model.PriorityMedium, "compliance"},
	{model.ActionFlagTransaction, model.ActionFlagTransaction, model.PriorityMedium, "risk"},
}

// fallbackRule applies when no suggested action matches the table.
var fallbackRule = rule{
	action:   model.ActionLogOnly,
	priority: model.PriorityLow,
	target:   "audit",
}

// CompletionFunc is invoked once the background execution finishes and
// its outcome has been recorded. auditErr is non-nil when the
// action_result event could not be appended.
type CompletionFunc func(result model.ActionResult, auditErr error)

// Router selects a concrete action for a finding and hands it to the
// executor for asynchronous execution. It never blocks on execution
// completion.
type Router struct {
	audit    service.AuditLog
	executor service.Executor
	timeout  time.Duration
}

// New creates a router. timeout bounds background execution; on expiry
// the outcome is forced to failure.
func New(audit service.AuditLog, executor service.Executor, timeout time.Duration) *Router {
	return &Router{
		audit:    audit,
		executor: executor,
		timeout:  timeout,
	}
}

// Select resolves the decision table for a finding.
func (r *Router) Select(finding *model.Finding) (model.ActionType, model.Priority, string) {
	for _, row := range decisionTable {
		if finding.Suggested == row.suggested {
			return row.action, row.priority, row.target
		}
	}
	return fallbackRule.action, fallbackRule.priority, fallbackRule.target
}

// Dispatch creates the action request, emits the action_queued event
// synchronously, then starts background execution. onDone runs exactly
// once after the action_result event has been recorded (or its append
// failed). Dispatch returns as soon as the action is queued.
func (r *Router) Dispatch(ctx context.Context, sessionID string, finding *model.Finding, onDone CompletionFunc) (*model.ActionRequest, error) {
	action, priority, target := r.Select(finding)

	request := &model.ActionRequest{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Type:      action,
		Priority:  priority,
		Target:    target,
		Payload: map[string]any{
			"analyzer":   finding.Analyzer,
			"signal":     finding.Signal,
			"risk_score": finding.RiskScore,
			"severity":   finding.Severity,
		},
		CreatedAt: time.Now().UTC(),
	}

	event := model.NewAuditEvent(sessionID, model.EventActionQueued, request)
	if _, err := r.audit.Append(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to record queued action: %w", err)
	}

	// Execution outlives the intake request: detach from the caller's
	// cancellation but keep its values.
	background := context.WithoutCancel(ctx)
	go r.execute(background, *request, onDone)

	return request, nil
}

func (r *Router) execute(ctx context.Context, request model.ActionRequest, onDone CompletionFunc) {
	execCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan model.ActionResult, 1)
	go func() {
		done <- r.executor.Execute(execCtx, request)
	}()

	var result model.ActionResult
	select {
	case result = <-done:
	case <-execCtx.Done():
		// The executor contract says it always returns, but a stuck
		// simulation must not leave the session pending.
		result = model.ActionResult{
			RequestID:   request.ID,
			Outcome:     model.OutcomeFailure,
			Detail:      fmt.Sprintf("execution timed out after %s", r.timeout),
			CompletedAt: time.Now().UTC(),
		}
	}

	event := model.NewAuditEvent(request.SessionID, model.EventActionResult, result)
	_, auditErr := r.audit.Append(ctx, event)
	if auditErr != nil {
		common.LogError(auditErr, "Failed to record action result", common.Fields{
			"session_id": request.SessionID,
			"request_id": request.ID,
		})
	}

	if onDone != nil {
		onDone(result, auditErr)
	}
}
