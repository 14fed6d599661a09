package analyzer

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/splitlight/triage/internal/config"
	"github.com/splitlight/triage/internal/model"
	"github.com/splitlight/triage/internal/service"
)

// Document kinds.
const (
	DocInvoice    = "invoice"
	DocPolicy     = "policy"
	DocContract   = "contract"
	DocRegulation = "regulation"
	DocUnknown    = "unknown"
)

// complianceKeywords is the fixed keyword set scanned in every
// document. Matching is case-insensitive on word boundaries.
var complianceKeywords = []string{
	"gdpr", "pii", "hipaa", "sox", "pci dss", "ccpa",
	"confidential", "data protection", "compliance",
}

var docKindPatterns = map[string][]*regexp.Regexp{
	DocInvoice: {
		regexp.MustCompile(`(?i)\binvoice\s*#?\s*[A-Z0-9\-]*\d`),
		regexp.MustCompile(`(?i)\b(?:bill\s+to|total\s+amount|due\s+date|subtotal|payment\s+terms)\b`),
	},
	DocPolicy: {
		regexp.MustCompile(`(?i)\b(?:policy\s+document|terms\s+and\s+conditions|privacy\s+policy|user\s+agreement)\b`),
	},
	DocContract: {
		regexp.MustCompile(`(?i)\b(?:contract|whereas|effective\s+date|party\s+of\s+the\s+first\s+part)\b`),
	},
	DocRegulation: {
		regexp.MustCompile(`(?i)\b(?:regulation\s+\d+|regulatory\s+framework|compliance\s+requirements|statutory)\b`),
	},
}

var (
	invoiceNumberRe = regexp.MustCompile(`(?i)invoice\s*#?\s*:?\s*([A-Z0-9\-]*\d+)`)
	amountRe        = regexp.MustCompile(`(?i)(?:total|amount)[^\d$]*\$?\s*([\d,]+(?:\.\d+)?)`)
	dateRe          = regexp.MustCompile(`\b(\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4}|\d{4}-\d{2}-\d{2})\b`)
)

// Document analyzes free-form document text: key-value extraction via
// pattern matching, document-kind detection, and a compliance-keyword
// scan.
type Document struct {
	audit service.AuditLog
	rules config.DocumentRules
}

// NewDocument creates the document-text analyzer.
func NewDocument(audit service.AuditLog, rules config.DocumentRules) *Document {
	return &Document{audit: audit, rules: rules}
}

// Kind returns the format this analyzer handles.
func (a *Document) Kind() model.Format {
	return model.FormatDocument
}

// Analyze extracts structured fields, scans for compliance keywords,
// and emits exactly one `analysis` audit event.
func (a *Document) Analyze(ctx context.Context, sessionID, content string, classification model.Classification) (*model.Finding, error) {
	kind := detectDocumentKind(content)
	keywords := scanCompliance(content)

	fields := map[string]any{
		"document_kind": kind,
	}
	if number := firstGroup(invoiceNumberRe, content); number != "" {
		fields["invoice_number"] = number
	}
	if date := firstGroup(dateRe, content); date != "" {
		fields["date"] = date
	}

	var anomalies []model.Anomaly
	if raw := firstGroup(amountRe, content); raw != "" {
		amount, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
		if err == nil {
			fields["amount"] = amount
			if amount > a.rules.MaxAmount {
				anomalies = append(anomalies, model.Anomaly{
					Kind:        model.AnomalyOutOfRange,
					Field:       "amount",
					Description: fmt.Sprintf("document amount %.2f exceeds threshold %.2f", amount, a.rules.MaxAmount),
					Severity:    model.SeverityMajor,
				})
			}
		}
	}

	suggested := model.ActionLogOnly
	if len(keywords) > 0 {
		suggested = model.ActionFlagComplianceReview
	}

	finding := &model.Finding{
		Analyzer:  model.FormatDocument,
		Fields:    fields,
		Signal:    fmt.Sprintf("document_kind=%s", kind),
		RiskScore: documentRisk(keywords, anomalies),
		Severity:  maxSeverity(anomalies),
		Anomalies: anomalies,
		Keywords:  keywords,
		Suggested: suggested,
	}

	event := model.NewAuditEvent(sessionID, model.EventAnalysis, finding)
	if _, err := a.audit.Append(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to record document analysis: %w", err)
	}

	return finding, nil
}

// detectDocumentKind scores each kind's patterns and picks the highest;
// ties resolve in a fixed order so detection stays deterministic.
func detectDocumentKind(content string) string {
	order := []string{DocInvoice, DocPolicy, DocContract, DocRegulation}
	best, bestScore := DocUnknown, 0
	for _, kind := range order {
		score := 0
		for _, re := range docKindPatterns[kind] {
			score += len(re.FindAllString(content, -1))
		}
		if score > bestScore {
			best, bestScore = kind, score
		}
	}
	return best
}

func scanCompliance(content string) []string {
	lower := strings.ToLower(content)
	var found []string
	for _, keyword := range complianceKeywords {
		if strings.Contains(lower, keyword) {
			found = append(found, keyword)
		}
	}
	return found
}

func documentRisk(keywords []string, anomalies []model.Anomaly) float64 {
	score := 0.2 * float64(len(keywords))
	for _, a := range anomalies {
		if a.Severity.AtLeast(model.SeverityMajor) {
			score += 0.3
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
