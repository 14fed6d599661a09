package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splitlight/triage/internal/analyzer"
	"github.com/splitlight/triage/internal/classification"
	"github.com/splitlight/triage/internal/common"
	"github.com/splitlight/triage/internal/config"
	"github.com/splitlight/triage/internal/executor"
	"github.com/splitlight/triage/internal/model"
	"github.com/splitlight/triage/internal/router"
	"github.com/splitlight/triage/internal/storage"
	"github.com/splitlight/triage/internal/testutil"
)

// newTestOrchestrator wires a full pipeline over an in-memory store.
func newTestOrchestrator(t *testing.T) (*Orchestrator, *storage.SQLiteStorage) {
	t.Helper()

	store := testutil.SetupTestDB(t)
	cfg := config.Default()

	classifier := classification.New(store, cfg.JSON.AmountWarn)
	analyzers := analyzer.Registry(
		analyzer.NewEmail(store),
		analyzer.NewJSON(store, cfg.JSON),
		analyzer.NewDocument(store, cfg.Document),
	)
	actionRouter := router.New(store, executor.NewSimulated(0), time.Second)

	return New(store, classifier, analyzers, actionRouter), store
}

func eventKinds(events []model.AuditEvent) []model.EventKind {
	kinds := make([]model.EventKind, len(events))
	for i, e := range events {
		kinds[i] = e.Kind
	}
	return kinds
}

func TestProcess_AngryEmailFullPipeline(t *testing.T) {
	orchestrator, store := newTestOrchestrator(t)
	ctx := context.Background()

	content := `From: customer@example.com
To: support@company.com
Subject: Product quality issue

Dear Support,

The product I received is unacceptable. I need this resolved immediately.`

	result, err := orchestrator.Process(ctx, Intake{
		Content: content,
		Source:  "text_input",
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "accepted", result.Status)
	assert.Equal(t, model.FormatEmail, result.Classification.Format)
	assert.Equal(t, model.IntentComplaint, result.Classification.Intent)
	require.NotNil(t, result.Finding)
	require.Len(t, result.Actions, 1)
	assert.Equal(t, model.ActionEscalateToCRM, result.Actions[0].Type)
	assert.Equal(t, model.PriorityHigh, result.Actions[0].Priority)
	assert.Equal(t, "queued", result.Actions[0].Status)

	orchestrator.Wait()

	events, err := store.ReadSession(ctx, result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, []model.EventKind{
		model.EventClassification,
		model.EventAnalysis,
		model.EventActionQueued,
		model.EventActionResult,
	}, eventKinds(events))
	for i, event := range events {
		assert.Equal(t, int64(i+1), event.Sequence)
	}

	session, err := store.GetSession(ctx, result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionCompleted, session.Status)
	assert.NotNil(t, session.ClosedAt)
}

func TestProcess_CriticalTransactionBlocked(t *testing.T) {
	orchestrator, store := newTestOrchestrator(t)
	ctx := context.Background()

	content := `{"transaction_id": "tx-9", "amount": 999999, "user_id": "u-1", "timestamp": "2026-08-30T10:00:00Z", "flags": ["suspicious_user"]}`

	result, err := orchestrator.Process(ctx, Intake{Content: content, Source: "text_input"})
	require.NoError(t, err)

	assert.Equal(t, model.FormatJSON, result.Classification.Format)
	assert.Equal(t, model.IntentFraudAlert, result.Classification.Intent)
	require.Len(t, result.Actions, 1)
	assert.Equal(t, model.ActionBlockTransaction, result.Actions[0].Type)
	assert.Equal(t, model.PriorityCritical, result.Actions[0].Priority)
	assert.Equal(t, model.SeverityCritical, result.Finding.Severity)

	orchestrator.Wait()

	events, err := store.ReadSession(ctx, result.SessionID)
	require.NoError(t, err)
	require.Len(t, events, 4)
	assert.Equal(t, model.EventActionResult, events[3].Kind)
}

func TestProcess_InvoiceWithComplianceKeywords(t *testing.T) {
	orchestrator, _ := newTestOrchestrator(t)
	ctx := context.Background()

	content := `Invoice #INV-2026-114
Amount due: $4,200.00
Payment terms: net 30

This invoice is subject to GDPR data protection requirements.`

	result, err := orchestrator.Process(ctx, Intake{Content: content, Source: "file_upload"})
	require.NoError(t, err)

	assert.Equal(t, model.FormatDocument, result.Classification.Format)
	assert.Equal(t, model.IntentInvoice, result.Classification.Intent)
	require.Len(t, result.Actions, 1)
	assert.Equal(t, model.ActionFlagComplianceReview, result.Actions[0].Type)

	orchestrator.Wait()
}

func TestProcess_UnknownFormatClosesDirectly(t *testing.T) {
	orchestrator, store := newTestOrchestrator(t)
	ctx := context.Background()

	result, err := orchestrator.Process(ctx, Intake{Content: "asdkjasd 12312 !!!", Source: "text_input"})
	require.NoError(t, err)

	assert.Equal(t, string(model.SessionCompleted), result.Status)
	assert.Equal(t, model.FormatUnknown, result.Classification.Format)
	assert.Zero(t, result.Classification.Confidence)
	assert.Empty(t, result.Actions)
	assert.Nil(t, result.Finding)

	// No analyzer ran: the trail is classification plus closure, nothing else.
	events, err := store.ReadSession(ctx, result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, []model.EventKind{
		model.EventClassification,
		model.EventSessionClosed,
	}, eventKinds(events))

	session, err := store.GetSession(ctx, result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionCompleted, session.Status)
}

func TestProcess_EmptyContentClosesDirectly(t *testing.T) {
	orchestrator, store := newTestOrchestrator(t)

	result, err := orchestrator.Process(context.Background(), Intake{Content: "", Source: "text_input"})
	require.NoError(t, err)

	events, err := store.ReadSession(context.Background(), result.SessionID)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestProcess_SessionsAreIsolated(t *testing.T) {
	orchestrator, store := newTestOrchestrator(t)
	ctx := context.Background()

	first, err := orchestrator.Process(ctx, Intake{Content: "asdkjasd", Source: "text_input"})
	require.NoError(t, err)
	second, err := orchestrator.Process(ctx, Intake{Content: "qwerty 99", Source: "text_input"})
	require.NoError(t, err)

	require.NotEqual(t, first.SessionID, second.SessionID)

	// Each session numbers its own trail from 1.
	for _, id := range []string{first.SessionID, second.SessionID} {
		events, err := store.ReadSession(ctx, id)
		require.NoError(t, err)
		require.NotEmpty(t, events)
		assert.Equal(t, int64(1), events[0].Sequence)
	}
}

func TestProcess_ExecutorTimeoutStillClosesSession(t *testing.T) {
	store := testutil.SetupTestDB(t)
	cfg := config.Default()

	classifier := classification.New(store, cfg.JSON.AmountWarn)
	analyzers := analyzer.Registry(analyzer.NewJSON(store, cfg.JSON))
	// Executor slower than the router's budget: every action fails.
	actionRouter := router.New(store, executor.NewSimulated(5*time.Second), 20*time.Millisecond)
	orchestrator := New(store, classifier, analyzers, actionRouter)

	ctx := context.Background()
	result, err := orchestrator.Process(ctx, Intake{
		Content: `{"transaction_id": "tx-1", "amount": 999999, "user_id": "u-1", "timestamp": "t"}`,
		Source:  "text_input",
	})
	require.NoError(t, err)

	orchestrator.Wait()

	events, err := store.ReadSession(ctx, result.SessionID)
	require.NoError(t, err)
	require.Len(t, events, 4)
	assert.Equal(t, model.EventActionResult, events[3].Kind)
	assert.Contains(t, string(events[3].Payload), `"outcome":"failure"`)

	// A failed action still closes the session; the failure lives in the
	// audit trail, not the session status.
	session, err := store.GetSession(ctx, result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionCompleted, session.Status)
}

// unavailableAuditStore delegates everything to a real store except
// Append, which always fails.
type unavailableAuditStore struct {
	*storage.SQLiteStorage
}

func (s *unavailableAuditStore) Append(context.Context, *model.AuditEvent) (int64, error) {
	return 0, errors.New("disk I/O error")
}

func TestProcess_AuditFailureAbortsSession(t *testing.T) {
	store := testutil.SetupTestDB(t)
	broken := &unavailableAuditStore{SQLiteStorage: store}
	cfg := config.Default()

	classifier := classification.New(broken, cfg.JSON.AmountWarn)
	analyzers := analyzer.Registry(analyzer.NewEmail(broken))
	actionRouter := router.New(broken, executor.NewSimulated(0), time.Second)
	orchestrator := New(broken, classifier, analyzers, actionRouter)

	ctx := context.Background()
	result, err := orchestrator.Process(ctx, Intake{
		Content: "From: a@example.com\nSubject: Hello\n\nAll fine.",
		Source:  "text_input",
	})

	// An unreachable audit log is the one fatal path: no degraded
	// result, an infrastructure error to the caller.
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, common.ErrAuditLog)
	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, userErr.UserMessage, "audit trail")

	// The aborted session is marked failed on the real store.
	sessions, err := store.ListSessions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, model.SessionFailed, sessions[0].Status)
	assert.NotNil(t, sessions[0].ClosedAt)
}

func TestProcess_ResultReturnsBeforeActionCompletes(t *testing.T) {
	store := testutil.SetupTestDB(t)
	cfg := config.Default()

	classifier := classification.New(store, cfg.JSON.AmountWarn)
	analyzers := analyzer.Registry(analyzer.NewEmail(store))
	actionRouter := router.New(store, executor.NewSimulated(100*time.Millisecond), time.Second)
	orchestrator := New(store, classifier, analyzers, actionRouter)

	ctx := context.Background()
	start := time.Now()
	result, err := orchestrator.Process(ctx, Intake{
		Content: "From: a@example.com\nSubject: Hello\n\nAll good, thanks.",
		Source:  "text_input",
	})
	require.NoError(t, err)
	elapsed := time.Since(start)

	// Intake must not block on the simulated executor latency.
	assert.Less(t, elapsed, 100*time.Millisecond)
	assert.Equal(t, "accepted", result.Status)

	// While the action is in flight, the session is still open.
	session, err := store.GetSession(ctx, result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionOpen, session.Status)

	orchestrator.Wait()

	session, err = store.GetSession(ctx, result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionCompleted, session.Status)
}
