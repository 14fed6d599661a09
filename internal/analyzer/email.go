package analyzer

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/splitlight/triage/internal/model"
	"github.com/splitlight/triage/internal/service"
)

// Tone labels for email content.
const (
	ToneNegative = "negative"
	ToneNeutral  = "neutral"
	TonePositive = "positive"
)

// Urgency labels for email content.
const (
	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
)

var (
	headerFromRe    = regexp.MustCompile(`(?im)^from:\s*(.+)$`)
	headerToRe      = regexp.MustCompile(`(?im)^to:\s*(.+)$`)
	headerSubjectRe = regexp.MustCompile(`(?im)^subject:\s*(.+)$`)
	headerLineRe    = regexp.MustCompile(`(?im)^(?:from|to|subject|date|cc|bcc):.*$`)

	negativeLexicon = regexp.MustCompile(`(?i)\b(?:bad|poor|terrible|awful|angry|unhappy|unacceptable|dissatisfied|disappointed|broken|damaged|issue|problem|complaint|error|refund)\b`)
	positiveLexicon = regexp.MustCompile(`(?i)\b(?:good|great|excellent|happy|satisfied|pleased|wonderful|thanks|thank\s+you|appreciate)\b`)

	urgencyHighRe   = regexp.MustCompile(`(?i)\b(?:urgent|immediately|asap|right\s+away|critical|emergency|deadline)\b`)
	urgencyMediumRe = regexp.MustCompile(`(?i)\b(?:important|promptly|soon|needs\s+attention|follow\s*up)\b`)
)

// Email analyzes email-shaped content: best-effort header/body split,
// lexicon-based tone scoring, and time-pressure urgency markers. It
// does not attempt full RFC 822 compliance.
type Email struct {
	audit service.AuditLog
}

// NewEmail creates the email analyzer.
func NewEmail(audit service.AuditLog) *Email {
	return &Email{audit: audit}
}

// Kind returns the format this analyzer handles.
func (a *Email) Kind() model.Format {
	return model.FormatEmail
}

// Analyze extracts sender/subject/body, scores tone and urgency, and
// emits exactly one `analysis` audit event.
func (a *Email) Analyze(ctx context.Context, sessionID, content string, classification model.Classification) (*model.Finding, error) {
	sender := firstGroup(headerFromRe, content)
	recipient := firstGroup(headerToRe, content)
	subject := firstGroup(headerSubjectRe, content)
	body := extractBody(content)

	var anomalies []model.Anomaly
	if sender == "" {
		anomalies = append(anomalies, model.Anomaly{
			Kind:        model.AnomalyMissingField,
			Field:       "sender",
			Description: "no From: header found",
			Severity:    model.SeverityMinor,
		})
	}
	if subject == "" {
		anomalies = append(anomalies, model.Anomaly{
			Kind:        model.AnomalyMissingField,
			Field:       "subject",
			Description: "no Subject: header found",
			Severity:    model.SeverityMinor,
		})
	}

	// Subject carries signal too, not just the body.
	scored := subject + " " + body

	tone, sentiment := scoreTone(scored)
	urgency := scoreUrgency(scored)

	suggested := model.ActionLogOnly
	if tone == ToneNegative && urgency == UrgencyHigh {
		suggested = model.ActionEscalateToCRM
	}

	finding := &model.Finding{
		Analyzer: model.FormatEmail,
		Fields: map[string]any{
			"sender":           sender,
			"recipient":        recipient,
			"subject":          subject,
			"body_preview":     preview(body, 200),
			"tone":             tone,
			"urgency":          urgency,
			"sender_sentiment": sentiment,
		},
		Signal:    fmt.Sprintf("tone=%s urgency=%s", tone, urgency),
		RiskScore: emailRisk(tone, urgency),
		Severity:  model.SeverityNone,
		Anomalies: anomalies,
		Suggested: suggested,
	}
	finding.Severity = finding.MaxAnomalySeverity()

	event := model.NewAuditEvent(sessionID, model.EventAnalysis, finding)
	if _, err := a.audit.Append(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to record email analysis: %w", err)
	}

	return finding, nil
}

func firstGroup(re *regexp.Regexp, content string) string {
	m := re.FindStringSubmatch(content)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// extractBody returns everything after the first blank line, falling
// back to the content with recognizable header lines stripped.
func extractBody(content string) string {
	if _, body, found := strings.Cut(content, "\n\n"); found {
		return strings.TrimSpace(body)
	}
	return strings.TrimSpace(headerLineRe.ReplaceAllString(content, ""))
}

func scoreTone(text string) (string, float64) {
	negative := len(negativeLexicon.FindAllString(text, -1))
	positive := len(positiveLexicon.FindAllString(text, -1))

	if negative == 0 && positive == 0 {
		return ToneNeutral, 0.0
	}

	sentiment := float64(positive-negative) / float64(positive+negative)
	switch {
	case negative > positive:
		return ToneNegative, sentiment
	case positive > negative:
		return TonePositive, sentiment
	default:
		return ToneNeutral, sentiment
	}
}

func scoreUrgency(text string) string {
	if urgencyHighRe.MatchString(text) {
		return UrgencyHigh
	}
	if urgencyMediumRe.MatchString(text) {
		return UrgencyMedium
	}
	return UrgencyLow
}

func emailRisk(tone, urgency string) float64 {
	switch {
	case tone == ToneNegative && urgency == UrgencyHigh:
		return 0.9
	case tone == ToneNegative:
		return 0.5
	case urgency == UrgencyHigh:
		return 0.4
	default:
		return 0.1
	}
}

func preview(text string, n int) string {
	if len(text) <= n {
		return text
	}
	// Back off to a rune boundary so truncation never emits invalid UTF-8.
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	return text[:n] + "..."
}
