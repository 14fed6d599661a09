package classification

// Keyword lexicons and structural patterns used for format and intent
// detection. These are heuristic rule sets, not learned models: given
// identical input the same signals fire and the same result comes back.

// emailHeaderPatterns are envelope-style header lines. Each matching
// pattern counts as one independent format signal.
var emailHeaderPatterns = []string{
	`(?im)^from:\s*\S+`,
	`(?im)^to:\s*\S+`,
	`(?im)^subject:\s*\S+`,
}

// emailAddressPattern matches a bare email address anywhere in the content.
const emailAddressPattern = `[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`

// emailStructurePatterns are greeting/salutation markers. An address
// plus one of these counts as a single combined signal.
var emailStructurePatterns = []string{
	`(?i)\bdear\s+\w+`,
	`(?i)\b(?:best\s+regards|kind\s+regards|sincerely|regards),?\b`,
	`(?i)^hi\s+\w+,`,
}

// documentKeywordPatterns are density terms for document-style text.
var documentKeywordPatterns = []string{
	`(?i)\binvoice\b`,
	`(?i)\bcompliance\b`,
	`(?i)\bterms\s+and\s+conditions\b`,
	`(?i)\bpolicy\s+document\b`,
	`(?i)\bagreement\b`,
	`(?i)\bregulation\b`,
}

// documentStructurePatterns are structural markers such as invoice or
// page/section numbering.
var documentStructurePatterns = []string{
	`(?i)\binvoice\s*#?\s*[A-Z0-9\-]*\d`,
	`(?i)\bpage\s+\d+\s+of\s+\d+\b`,
	`(?im)^\s*\d+\.\s+[A-Z]`,
	`(?i)\bsection\s+\d+`,
}

// Intent lexicons, keyed per format. Each keyword hit is one signal.
var complaintLexicon = []string{
	`(?i)\b(?:complaint|dissatisfied|unacceptable|terrible|awful|angry|upset|disappointed|refund|escalate)\b`,
}

var rfqLexicon = []string{
	`(?i)\b(?:quote|quotation|proposal|bid|pricing|cost\s+estimate|rfp|rfq)\b`,
}

var billingLexicon = []string{
	`(?i)\binvoice\b`,
	`(?i)\b(?:amount\s+due|bill(?:ing)?|subtotal|payment\s+terms)\b`,
}

var regulationLexicon = []string{
	`(?i)\b(?:gdpr|hipaa|sox|regulation|regulatory|statutory)\b`,
	`(?i)\b(?:compliance|audit|data\s+protection)\b`,
}

// fraudLexicon marks suspicious markers inside structured payloads.
var fraudLexicon = []string{
	`(?i)\b(?:fraud|suspicious|unauthorized|breach|phishing|scam|anomaly)\b`,
}
