package model

// AnomalyKind categorizes a single irregularity found by an analyzer.
type AnomalyKind string

// Anomaly kinds.
const (
	AnomalyMissingField    AnomalyKind = "missing_field"
	AnomalyTypeMismatch    AnomalyKind = "type_mismatch"
	AnomalyUnexpectedField AnomalyKind = "unexpected_field"
	AnomalyOutOfRange      AnomalyKind = "out_of_range"
	AnomalyInvalidValue    AnomalyKind = "invalid_value"
	AnomalyUnparseable     AnomalyKind = "unparseable"
)

// Severity is an ordered classification of how serious an anomaly is.
type Severity string

// Severity tiers, ordered none < minor < major < critical.
const (
	SeverityNone     Severity = "none"
	SeverityMinor    Severity = "minor"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityNone:     0,
	SeverityMinor:    1,
	SeverityMajor:    2,
	SeverityCritical: 3,
}

// Rank returns the numeric position of the severity in the tier order.
// Unknown severities rank below none.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

// AtLeast reports whether s is the same tier as other or higher.
func (s Severity) AtLeast(other Severity) bool {
	return s.Rank() >= other.Rank()
}

// MaxSeverity returns the higher of two severity tiers.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Anomaly describes one irregularity detected during analysis. An
// absent expected field is an anomaly, never an error: analyzers are
// total over their inputs.
type Anomaly struct {
	Kind        AnomalyKind `json:"kind"`
	Field       string      `json:"field,omitempty"`
	Description string      `json:"description"`
	Severity    Severity    `json:"severity"`
}

// Finding is the structured output of a format analyzer. It is owned
// by the orchestrator for the session's lifetime and never mutated
// after creation.
type Finding struct {
	Fields    map[string]any `json:"fields"`
	Analyzer  Format         `json:"analyzer"`
	Signal    string         `json:"signal"`
	Suggested ActionType     `json:"suggested_action"`
	Keywords  []string       `json:"keywords,omitempty"`
	Anomalies []Anomaly      `json:"anomalies,omitempty"`
	RiskScore float64        `json:"risk_score"`
	Severity  Severity       `json:"severity"`
}

// MaxAnomalySeverity returns the highest severity tier across the
// finding's anomalies, or none when there are no anomalies.
func (f *Finding) MaxAnomalySeverity() Severity {
	max := SeverityNone
	for _, a := range f.Anomalies {
		max = MaxSeverity(max, a.Severity)
	}
	return max
}
