package analyzer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splitlight/triage/internal/config"
	"github.com/splitlight/triage/internal/model"
	"github.com/splitlight/triage/internal/testutil"
)

func newJSONAnalyzer(t *testing.T) *JSON {
	t.Helper()
	store := testutil.SetupTestDB(t)
	return NewJSON(store, config.Default().JSON)
}

func TestJSONAnalyze_CleanTransaction(t *testing.T) {
	analyzer := newJSONAnalyzer(t)

	content := `{"transaction_id": "tx-1", "amount": 250.00, "user_id": "u-1", "timestamp": "2026-08-30T10:00:00Z"}`
	finding, err := analyzer.Analyze(context.Background(), "json-clean", content, model.Classification{Format: model.FormatJSON})
	require.NoError(t, err)

	assert.Equal(t, model.FormatJSON, finding.Analyzer)
	assert.Empty(t, finding.Anomalies)
	assert.Equal(t, model.SeverityNone, finding.Severity)
	assert.Equal(t, model.ActionLogOnly, finding.Suggested)
	assert.Equal(t, true, finding.Fields["schema_valid"])
	assert.Zero(t, finding.RiskScore)
}

func TestJSONAnalyze_MissingAmountIsMinor(t *testing.T) {
	analyzer := newJSONAnalyzer(t)

	// Absence of the amount skips the threshold checks entirely; the
	// missing field alone is a minor anomaly.
	content := `{"transaction_id": "tx-2", "user_id": "u-1", "timestamp": "2026-08-30T10:00:00Z"}`
	finding, err := analyzer.Analyze(context.Background(), "json-missing", content, model.Classification{Format: model.FormatJSON})
	require.NoError(t, err)

	require.Len(t, finding.Anomalies, 1)
	assert.Equal(t, model.AnomalyMissingField, finding.Anomalies[0].Kind)
	assert.Equal(t, "amount", finding.Anomalies[0].Field)
	assert.Equal(t, model.SeverityMinor, finding.Anomalies[0].Severity)
	assert.Equal(t, model.SeverityMinor, finding.Severity)
	assert.Equal(t, model.ActionLogOnly, finding.Suggested)
}

func TestJSONAnalyze_AmountThresholds(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		wantKind      model.AnomalyKind
		wantSeverity  model.Severity
		wantSuggested model.ActionType
	}{
		{
			"amount above critical threshold",
			`{"transaction_id": "tx-3", "amount": 999999, "user_id": "u-1", "timestamp": "t"}`,
			model.AnomalyOutOfRange,
			model.SeverityCritical,
			model.ActionBlockTransaction,
		},
		{
			"amount above warn threshold",
			`{"transaction_id": "tx-4", "amount": 20000, "user_id": "u-1", "timestamp": "t"}`,
			model.AnomalyOutOfRange,
			model.SeverityMajor,
			model.ActionFlagTransaction,
		},
		{
			"negative amount",
			`{"transaction_id": "tx-5", "amount": -5, "user_id": "u-1", "timestamp": "t"}`,
			model.AnomalyInvalidValue,
			model.SeverityMajor,
			model.ActionFlagTransaction,
		},
		{
			"non-numeric amount",
			`{"transaction_id": "tx-6", "amount": "lots", "user_id": "u-1", "timestamp": "t"}`,
			model.AnomalyTypeMismatch,
			model.SeverityMinor,
			model.ActionLogOnly,
		},
	}

	analyzer := newJSONAnalyzer(t)
	ctx := context.Background()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finding, err := analyzer.Analyze(ctx, "json-amount", tt.content, model.Classification{Format: model.FormatJSON})
			require.NoError(t, err)

			require.NotEmpty(t, finding.Anomalies)
			assert.Equal(t, tt.wantKind, finding.Anomalies[0].Kind)
			assert.Equal(t, tt.wantSeverity, finding.Severity)
			assert.Equal(t, tt.wantSuggested, finding.Suggested)
		})
	}
}

func TestJSONAnalyze_UnknownFlagIsMajor(t *testing.T) {
	analyzer := newJSONAnalyzer(t)

	content := `{"transaction_id": "tx-7", "amount": 10, "user_id": "u-1", "timestamp": "t", "flags": ["made_up_flag"]}`
	finding, err := analyzer.Analyze(context.Background(), "json-flags", content, model.Classification{Format: model.FormatJSON})
	require.NoError(t, err)

	require.Len(t, finding.Anomalies, 1)
	assert.Equal(t, model.AnomalyInvalidValue, finding.Anomalies[0].Kind)
	assert.Equal(t, "flags", finding.Anomalies[0].Field)
	assert.Equal(t, model.SeverityMajor, finding.Severity)
	assert.Equal(t, model.ActionFlagTransaction, finding.Suggested)
}

func TestJSONAnalyze_UnexpectedFieldIsMinor(t *testing.T) {
	analyzer := newJSONAnalyzer(t)

	content := `{"transaction_id": "tx-8", "amount": 10, "user_id": "u-1", "timestamp": "t", "surprise": 1}`
	finding, err := analyzer.Analyze(context.Background(), "json-extra", content, model.Classification{Format: model.FormatJSON})
	require.NoError(t, err)

	require.Len(t, finding.Anomalies, 1)
	assert.Equal(t, model.AnomalyUnexpectedField, finding.Anomalies[0].Kind)
	assert.Equal(t, "surprise", finding.Anomalies[0].Field)
	assert.Equal(t, model.SeverityMinor, finding.Severity)
	// Extra fields do not invalidate the schema on their own.
	assert.Equal(t, true, finding.Fields["schema_valid"])
}

func TestJSONAnalyze_MalformedPayloadIsAnomalyNotError(t *testing.T) {
	analyzer := newJSONAnalyzer(t)

	finding, err := analyzer.Analyze(context.Background(), "json-broken", `{"amount": `, model.Classification{Format: model.FormatJSON})
	require.NoError(t, err)

	require.Len(t, finding.Anomalies, 1)
	assert.Equal(t, model.AnomalyUnparseable, finding.Anomalies[0].Kind)
	assert.Equal(t, model.SeverityMajor, finding.Severity)
	assert.Equal(t, false, finding.Fields["schema_valid"])
}

func TestJSONAnalyze_EmitsAnalysisEvent(t *testing.T) {
	store := testutil.SetupTestDB(t)
	analyzer := NewJSON(store, config.Default().JSON)
	ctx := context.Background()

	_, err := analyzer.Analyze(ctx, "json-audit", `{"transaction_id": "t", "amount": 1, "user_id": "u", "timestamp": "x"}`, model.Classification{})
	require.NoError(t, err)

	events, err := store.ReadSession(ctx, "json-audit")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventAnalysis, events[0].Kind)
}
