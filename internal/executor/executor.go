// Package executor simulates action execution against external systems.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/splitlight/triage/internal/model"
)

// referencePrefixes map action types to the reference-id style of the
// simulated downstream system.
var referencePrefixes = map[model.ActionType]string{
	model.ActionEscalateToCRM:        "CRM",
	model.ActionBlockTransaction:     "BLOCK",
	model.ActionFlagTransaction:      "REV",
	model.ActionFlagComplianceReview: "COMP",
	model.ActionLogOnly:              "LOG",
}

// Simulated stands in for the external CRM/risk/compliance systems.
// It always produces an outcome: success after the configured latency,
// or failure when the context is canceled or times out first.
type Simulated struct {
	latency time.Duration
	clock   func() time.Time
}

// Option configures the simulated executor.
type Option func(*Simulated)

// WithClock overrides the time source. Used by tests.
func WithClock(clock func() time.Time) Option {
	return func(e *Simulated) {
		e.clock = clock
	}
}

// NewSimulated creates a simulated executor with the given per-call latency.
func NewSimulated(latency time.Duration, opts ...Option) *Simulated {
	e := &Simulated{
		latency: latency,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute simulates the downstream call for the request.
func (e *Simulated) Execute(ctx context.Context, request model.ActionRequest) model.ActionResult {
	if e.latency > 0 {
		timer := time.NewTimer(e.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return model.ActionResult{
				RequestID:   request.ID,
				Outcome:     model.OutcomeFailure,
				Detail:      fmt.Sprintf("execution aborted: %v", ctx.Err()),
				CompletedAt: e.clock().UTC(),
			}
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return model.ActionResult{
			RequestID:   request.ID,
			Outcome:     model.OutcomeFailure,
			Detail:      fmt.Sprintf("execution aborted: %v", err),
			CompletedAt: e.clock().UTC(),
		}
	}

	now := e.clock().UTC()
	prefix := referencePrefixes[request.Type]
	if prefix == "" {
		prefix = "ACT"
	}

	return model.ActionResult{
		RequestID:   request.ID,
		Outcome:     model.OutcomeSuccess,
		Reference:   fmt.Sprintf("%s-%s", prefix, now.Format("20060102150405.000000")),
		Detail:      fmt.Sprintf("%s accepted by %s", request.Type, request.Target),
		CompletedAt: now,
	}
}
