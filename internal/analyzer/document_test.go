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

func newDocumentAnalyzer(t *testing.T) *Document {
	t.Helper()
	return NewDocument(testutil.SetupTestDB(t), config.Default().Document)
}

func TestDocumentAnalyze_InvoiceWithComplianceKeywords(t *testing.T) {
	analyzer := newDocumentAnalyzer(t)

	content := `Invoice #INV-2026-114
Bill to: Acme GmbH
Total amount: $4,200.00
Due date: 2026-09-30

Handling of customer records is subject to GDPR and data protection rules.`

	finding, err := analyzer.Analyze(context.Background(), "doc-invoice", content, model.Classification{Format: model.FormatDocument})
	require.NoError(t, err)

	assert.Equal(t, model.FormatDocument, finding.Analyzer)
	assert.Equal(t, DocInvoice, finding.Fields["document_kind"])
	assert.Equal(t, "INV-2026-114", finding.Fields["invoice_number"])
	assert.Equal(t, 4200.0, finding.Fields["amount"])
	assert.Contains(t, finding.Keywords, "gdpr")
	assert.Contains(t, finding.Keywords, "data protection")
	assert.Equal(t, model.ActionFlagComplianceReview, finding.Suggested)
}

func TestDocumentAnalyze_SingleKeywordTriggersReview(t *testing.T) {
	analyzer := newDocumentAnalyzer(t)

	finding, err := analyzer.Analyze(context.Background(), "doc-single",
		"Meeting notes. The report mentions PII handling once.", model.Classification{Format: model.FormatDocument})
	require.NoError(t, err)

	assert.Equal(t, []string{"pii"}, finding.Keywords)
	assert.Equal(t, model.ActionFlagComplianceReview, finding.Suggested)
}

func TestDocumentAnalyze_NoKeywordsLogsOnly(t *testing.T) {
	analyzer := newDocumentAnalyzer(t)

	finding, err := analyzer.Analyze(context.Background(), "doc-plain",
		"Quarterly shipping schedule for the northern region.", model.Classification{Format: model.FormatDocument})
	require.NoError(t, err)

	assert.Empty(t, finding.Keywords)
	assert.Equal(t, model.ActionLogOnly, finding.Suggested)
	assert.Equal(t, DocUnknown, finding.Fields["document_kind"])
}

func TestDocumentAnalyze_AmountAboveThreshold(t *testing.T) {
	analyzer := newDocumentAnalyzer(t)

	finding, err := analyzer.Analyze(context.Background(), "doc-amount",
		"Invoice #88\nTotal amount: $25,000.00", model.Classification{Format: model.FormatDocument})
	require.NoError(t, err)

	require.Len(t, finding.Anomalies, 1)
	assert.Equal(t, model.AnomalyOutOfRange, finding.Anomalies[0].Kind)
	assert.Equal(t, model.SeverityMajor, finding.Severity)
	assert.Equal(t, 25000.0, finding.Fields["amount"])
}

func TestDocumentAnalyze_KindDetection(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantKind string
	}{
		{"invoice", "Invoice #42, payment terms net 30, subtotal below.", DocInvoice},
		{"policy", "This privacy policy describes our terms and conditions.", DocPolicy},
		{"contract", "Contract effective date 2026-01-01, whereas the parties agree.", DocContract},
		{"regulation", "Regulatory framework and compliance requirements, statutory basis.", DocRegulation},
		{"plain text", "Lunch menu for the cafeteria.", DocUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantKind, detectDocumentKind(tt.content))
		})
	}
}

func TestDocumentAnalyze_EmitsAnalysisEvent(t *testing.T) {
	store := testutil.SetupTestDB(t)
	analyzer := NewDocument(store, config.Default().Document)
	ctx := context.Background()

	_, err := analyzer.Analyze(ctx, "doc-audit", "Invoice #1", model.Classification{})
	require.NoError(t, err)

	events, err := store.ReadSession(ctx, "doc-audit")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventAnalysis, events[0].Kind)
}
