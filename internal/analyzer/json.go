package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/splitlight/triage/internal/config"
	"github.com/splitlight/triage/internal/model"
	"github.com/splitlight/triage/internal/service"
)

// fieldPreviewLimit caps how many decoded fields land in the finding.
const fieldPreviewLimit = 5

// JSON validates structured payloads against the configured
// transaction schema and flags anomalies: missing required fields,
// type mismatches, out-of-range amounts, and unexpected extra fields.
type JSON struct {
	audit service.AuditLog
	rules config.JSONRules
	known map[string]bool
}

// NewJSON creates the JSON analyzer with the given schema rules.
func NewJSON(audit service.AuditLog, rules config.JSONRules) *JSON {
	known := make(map[string]bool, len(rules.RequiredFields)+5)
	for _, f := range rules.RequiredFields {
		known[f] = true
	}
	// Optional fields the transaction schema tolerates without comment.
	for _, f := range []string{"currency", "status", "flags", "description", "merchant"} {
		known[f] = true
	}
	return &JSON{audit: audit, rules: rules, known: known}
}

// Kind returns the format this analyzer handles.
func (a *JSON) Kind() model.Format {
	return model.FormatJSON
}

// Analyze validates the payload and emits exactly one `analysis`
// audit event. Malformed JSON is itself an anomaly, not an error.
func (a *JSON) Analyze(ctx context.Context, sessionID, content string, classification model.Classification) (*model.Finding, error) {
	var data map[string]any
	var anomalies []model.Anomaly

	if err := json.Unmarshal([]byte(content), &data); err != nil {
		anomalies = append(anomalies, model.Anomaly{
			Kind:        model.AnomalyUnparseable,
			Description: "payload is not a JSON object",
			Severity:    model.SeverityMajor,
		})
	} else {
		anomalies = a.validate(data)
	}

	severity := maxSeverity(anomalies)

	var suggested model.ActionType
	switch {
	case severity == model.SeverityCritical:
		suggested = model.ActionBlockTransaction
	case severity == model.SeverityMajor:
		suggested = model.ActionFlagTransaction
	default:
		suggested = model.ActionLogOnly
	}

	schemaValid := true
	for _, anomaly := range anomalies {
		switch anomaly.Kind {
		case model.AnomalyMissingField, model.AnomalyTypeMismatch, model.AnomalyUnparseable:
			schemaValid = false
		}
	}

	finding := &model.Finding{
		Analyzer: model.FormatJSON,
		Fields: map[string]any{
			"schema_valid":  schemaValid,
			"field_preview": fieldPreview(data),
			"anomaly_count": len(anomalies),
		},
		Signal:    fmt.Sprintf("severity=%s", severity),
		RiskScore: riskScore(anomalies),
		Severity:  severity,
		Anomalies: anomalies,
		Suggested: suggested,
	}

	event := model.NewAuditEvent(sessionID, model.EventAnalysis, finding)
	if _, err := a.audit.Append(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to record json analysis: %w", err)
	}

	return finding, nil
}

// validate applies schema and business rules, returning anomalies in a
// stable order: required fields first, then value checks, then
// unexpected fields.
func (a *JSON) validate(data map[string]any) []model.Anomaly {
	var anomalies []model.Anomaly

	for _, field := range a.rules.RequiredFields {
		if _, ok := data[field]; !ok {
			anomalies = append(anomalies, model.Anomaly{
				Kind:        model.AnomalyMissingField,
				Field:       field,
				Description: fmt.Sprintf("missing required field %q", field),
				Severity:    model.SeverityMinor,
			})
		}
	}

	if raw, ok := data["amount"]; ok {
		amount, isNumber := raw.(float64)
		switch {
		case !isNumber:
			anomalies = append(anomalies, model.Anomaly{
				Kind:        model.AnomalyTypeMismatch,
				Field:       "amount",
				Description: "amount must be numeric",
				Severity:    model.SeverityMinor,
			})
		case amount < 0:
			anomalies = append(anomalies, model.Anomaly{
				Kind:        model.AnomalyInvalidValue,
				Field:       "amount",
				Description: "amount cannot be negative",
				Severity:    model.SeverityMajor,
			})
		case amount > a.rules.AmountCritical:
			anomalies = append(anomalies, model.Anomaly{
				Kind:        model.AnomalyOutOfRange,
				Field:       "amount",
				Description: fmt.Sprintf("amount %.2f exceeds critical threshold %.2f", amount, a.rules.AmountCritical),
				Severity:    model.SeverityCritical,
			})
		case amount > a.rules.AmountWarn:
			anomalies = append(anomalies, model.Anomaly{
				Kind:        model.AnomalyOutOfRange,
				Field:       "amount",
				Description: fmt.Sprintf("amount %.2f exceeds threshold %.2f", amount, a.rules.AmountWarn),
				Severity:    model.SeverityMajor,
			})
		}
	}

	if raw, ok := data["flags"]; ok {
		if flags, isList := raw.([]any); isList {
			allowed := make(map[string]bool, len(a.rules.AllowedFlags))
			for _, f := range a.rules.AllowedFlags {
				allowed[f] = true
			}
			for _, f := range flags {
				name, isString := f.(string)
				if !isString || !allowed[name] {
					anomalies = append(anomalies, model.Anomaly{
						Kind:        model.AnomalyInvalidValue,
						Field:       "flags",
						Description: fmt.Sprintf("unknown flag %v", f),
						Severity:    model.SeverityMajor,
					})
				}
			}
		}
	}

	for _, field := range sortedKeys(data) {
		if !a.known[field] {
			anomalies = append(anomalies, model.Anomaly{
				Kind:        model.AnomalyUnexpectedField,
				Field:       field,
				Description: fmt.Sprintf("unexpected field %q", field),
				Severity:    model.SeverityMinor,
			})
		}
	}

	return anomalies
}

func maxSeverity(anomalies []model.Anomaly) model.Severity {
	max := model.SeverityNone
	for _, a := range anomalies {
		max = model.MaxSeverity(max, a.Severity)
	}
	return max
}

// riskScore aggregates anomaly severities into [0, 1].
func riskScore(anomalies []model.Anomaly) float64 {
	score := 0.0
	for _, a := range anomalies {
		switch a.Severity {
		case model.SeverityMinor:
			score += 0.1
		case model.SeverityMajor:
			score += 0.4
		case model.SeverityCritical:
			score += 1.0
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// fieldPreview returns up to fieldPreviewLimit decoded fields in key
// order, keeping audit payloads bounded.
func fieldPreview(data map[string]any) map[string]any {
	if data == nil {
		return map[string]any{}
	}
	keys := sortedKeys(data)
	if len(keys) > fieldPreviewLimit {
		keys = keys[:fieldPreviewLimit]
	}
	previewed := make(map[string]any, len(keys))
	for _, k := range keys {
		previewed[k] = data[k]
	}
	return previewed
}

func sortedKeys(data map[string]any) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
