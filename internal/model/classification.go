package model

// Format identifies the detected shape of an input.
type Format string

// Known input formats.
const (
	FormatEmail    Format = "email"
	FormatJSON     Format = "json"
	FormatDocument Format = "document_text"
	FormatUnknown  Format = "unknown"
)

// Intent labels the business purpose detected in an input.
type Intent string

// Known business intents.
const (
	IntentRFQ        Intent = "rfq"
	IntentComplaint  Intent = "complaint"
	IntentInvoice    Intent = "invoice"
	IntentRegulation Intent = "regulation"
	IntentFraudAlert Intent = "fraud_alert"
	IntentUnknown    Intent = "unknown"
)

// Classification is the classifier's verdict for one input. It is
// immutable once produced. Confidence is a deterministic function of
// how many independent signals agreed, always in [0, 1].
type Classification struct {
	Format     Format  `json:"format"`
	Intent     Intent  `json:"intent"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
}

// Unknown reports whether no format could be detected, in which case
// no analyzer is invoked and the session proceeds directly to closure.
func (c Classification) Unknown() bool {
	return c.Format == FormatUnknown
}
