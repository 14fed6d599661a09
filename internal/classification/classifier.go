// Package classification decides the format and business intent of raw input content.
package classification

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/splitlight/triage/internal/model"
	"github.com/splitlight/triage/internal/service"
)

// Classifier detects `(format, intent, confidence)` for arbitrary text
// input. It is a total function: unparseable or empty content degrades
// to an unknown classification, never an error. The only error it can
// return is a failed audit append, which is fatal for the session.
type Classifier struct {
	audit       service.AuditLog
	emailHeader []*regexp.Regexp
	emailAddr   *regexp.Regexp
	emailStruct []*regexp.Regexp
	docKeyword  []*regexp.Regexp
	docStruct   []*regexp.Regexp
	complaint   []*regexp.Regexp
	rfq         []*regexp.Regexp
	billing     []*regexp.Regexp
	regulation  []*regexp.Regexp
	fraud       []*regexp.Regexp
	fraudAmount float64
}

// New creates a classifier that records its decisions to the given
// audit log. fraudAmount is the transaction-amount threshold above
// which structured payloads are labeled fraud_alert.
func New(audit service.AuditLog, fraudAmount float64) *Classifier {
	return &Classifier{
		audit:       audit,
		emailHeader: compileAll(emailHeaderPatterns),
		emailAddr:   regexp.MustCompile(emailAddressPattern),
		emailStruct: compileAll(emailStructurePatterns),
		docKeyword:  compileAll(documentKeywordPatterns),
		docStruct:   compileAll(documentStructurePatterns),
		complaint:   compileAll(complaintLexicon),
		rfq:         compileAll(rfqLexicon),
		billing:     compileAll(billingLexicon),
		regulation:  compileAll(regulationLexicon),
		fraud:       compileAll(fraudLexicon),
		fraudAmount: fraudAmount,
	}
}

func compileAll(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return compiled
}

// Classify determines format and intent for the content and emits
// exactly one `classification` audit event before returning.
func (c *Classifier) Classify(ctx context.Context, sessionID, content, hint string) (model.Classification, error) {
	format, formatSignals := c.detectFormat(content)

	// A declared hint that agrees with the detected format counts as
	// one more independent signal; it never overrides the content.
	if format != model.FormatUnknown && hintFormat(hint) == format {
		formatSignals++
	}

	intent, intentSignals := c.detectIntent(content, format)

	result := model.Classification{
		Format:     format,
		Intent:     intent,
		Confidence: overallConfidence(format, formatSignals, intentSignals),
		Reasoning: fmt.Sprintf("format=%s (%d signals), intent=%s (%d signals)",
			format, formatSignals, intent, intentSignals),
	}

	event := model.NewAuditEvent(sessionID, model.EventClassification, result)
	if _, err := c.audit.Append(ctx, event); err != nil {
		return model.Classification{}, fmt.Errorf("failed to record classification: %w", err)
	}

	return result, nil
}

// detectFormat applies the precedence rules: strict structured-data
// check first, then email envelope heuristics, then document-text
// signals. It returns the format and how many independent signals
// agreed.
func (c *Classifier) detectFormat(content string) (model.Format, int) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return model.FormatUnknown, 0
	}

	// Strict syntactic check: only full objects or arrays count as
	// structured data, a bare number or quoted string does not.
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		if json.Valid([]byte(trimmed)) {
			return model.FormatJSON, 1
		}
	}

	emailSignals := 0
	for _, re := range c.emailHeader {
		if re.MatchString(content) {
			emailSignals++
		}
	}
	if c.emailAddr.MatchString(content) {
		for _, re := range c.emailStruct {
			if re.MatchString(content) {
				// Address plus greeting/salutation is one combined signal.
				emailSignals++
				break
			}
		}
	}
	if emailSignals > 0 {
		return model.FormatEmail, emailSignals
	}

	docSignals := 0
	for _, re := range c.docKeyword {
		if re.MatchString(content) {
			docSignals++
		}
	}
	for _, re := range c.docStruct {
		if re.MatchString(content) {
			docSignals++
		}
	}
	if docSignals > 0 {
		return model.FormatDocument, docSignals
	}

	return model.FormatUnknown, 0
}

// detectIntent is the secondary keyword pass, conditioned on format.
func (c *Classifier) detectIntent(content string, format model.Format) (model.Intent, int) {
	switch format {
	case model.FormatEmail:
		if n := countMatches(c.complaint, content); n > 0 {
			return model.IntentComplaint, n
		}
		if n := countMatches(c.rfq, content); n > 0 {
			return model.IntentRFQ, n
		}
	case model.FormatJSON:
		if n := c.jsonFraudSignals(content); n > 0 {
			return model.IntentFraudAlert, n
		}
	case model.FormatDocument:
		billing := countMatches(c.billing, content)
		regulation := countMatches(c.regulation, content)
		// Billing terms win ties: an invoice citing a regulation is
		// still an invoice.
		if billing > 0 && billing >= regulation {
			return model.IntentInvoice, billing
		}
		if regulation > 0 {
			return model.IntentRegulation, regulation
		}
	case model.FormatUnknown:
	}
	return model.IntentUnknown, 0
}

// jsonFraudSignals counts fraud indicators in a structured payload:
// an amount above the configured threshold, explicitly flagged fields,
// or fraud vocabulary in field values.
func (c *Classifier) jsonFraudSignals(content string) int {
	signals := countMatches(c.fraud, content)

	var data map[string]any
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return signals
	}

	if amount, ok := numericField(data, "amount"); ok && amount > c.fraudAmount {
		signals++
	}
	if _, ok := data["flags"]; ok {
		signals++
	}

	return signals
}

func countMatches(patterns []*regexp.Regexp, content string) int {
	n := 0
	for _, re := range patterns {
		if re.MatchString(content) {
			n++
		}
	}
	return n
}

// numericField extracts a float-valued field from decoded JSON.
func numericField(data map[string]any, field string) (float64, bool) {
	v, ok := data[field]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

// hintFormat normalizes a declared content hint (content type or file
// name) to a format.
func hintFormat(hint string) model.Format {
	h := strings.ToLower(strings.TrimSpace(hint))
	switch {
	case h == "":
		return model.FormatUnknown
	case strings.Contains(h, "json"):
		return model.FormatJSON
	case strings.Contains(h, "eml"), strings.Contains(h, "email"), strings.Contains(h, "msg"):
		return model.FormatEmail
	case strings.Contains(h, "pdf"), strings.Contains(h, "doc"), strings.Contains(h, "text"):
		return model.FormatDocument
	default:
		return model.FormatUnknown
	}
}

// overallConfidence maps agreed signal counts to a confidence in
// [0, 1]. Purely arithmetic so identical input always reproduces the
// same value.
func overallConfidence(format model.Format, formatSignals, intentSignals int) float64 {
	if format == model.FormatUnknown {
		return 0.0
	}
	return (signalConfidence(formatSignals) + signalConfidence(intentSignals)) / 2
}

func signalConfidence(signals int) float64 {
	if signals <= 0 {
		return 0.0
	}
	conf := 0.4 + 0.2*float64(signals)
	if conf > 0.95 {
		conf = 0.95
	}
	return conf
}
