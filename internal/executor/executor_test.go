package executor

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/splitlight/triage/internal/model"
)

func TestSimulated_SuccessReferences(t *testing.T) {
	tests := []struct {
		actionType model.ActionType
		wantPrefix string
	}{
		{model.ActionEscalateToCRM, "CRM-"},
		{model.ActionBlockTransaction, "BLOCK-"},
		{model.ActionFlagTransaction, "REV-"},
		{model.ActionFlagComplianceReview, "COMP-"},
		{model.ActionLogOnly, "LOG-"},
	}

	exec := NewSimulated(0)
	ctx := context.Background()

	for _, tt := range tests {
		t.Run(string(tt.actionType), func(t *testing.T) {
			result := exec.Execute(ctx, model.ActionRequest{
				ID:     "req-1",
				Type:   tt.actionType,
				Target: "test",
			})

			assert.Equal(t, model.OutcomeSuccess, result.Outcome)
			assert.Equal(t, "req-1", result.RequestID)
			assert.True(t, strings.HasPrefix(result.Reference, tt.wantPrefix),
				"reference %q should start with %q", result.Reference, tt.wantPrefix)
			assert.False(t, result.CompletedAt.IsZero())
		})
	}
}

func TestSimulated_CanceledContextFails(t *testing.T) {
	exec := NewSimulated(50 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := exec.Execute(ctx, model.ActionRequest{ID: "req-2", Type: model.ActionLogOnly})

	assert.Equal(t, model.OutcomeFailure, result.Outcome)
	assert.Contains(t, result.Detail, "aborted")
	assert.Empty(t, result.Reference)
}

func TestSimulated_ZeroLatencyChecksContext(t *testing.T) {
	exec := NewSimulated(0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := exec.Execute(ctx, model.ActionRequest{ID: "req-3", Type: model.ActionLogOnly})
	assert.Equal(t, model.OutcomeFailure, result.Outcome)
}

func TestSimulated_ClockOverride(t *testing.T) {
	fixed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	exec := NewSimulated(0, WithClock(func() time.Time { return fixed }))

	result := exec.Execute(context.Background(), model.ActionRequest{ID: "req-4", Type: model.ActionEscalateToCRM})

	assert.Equal(t, fixed, result.CompletedAt)
	assert.Equal(t, "CRM-20260830120000.000000", result.Reference)
}
