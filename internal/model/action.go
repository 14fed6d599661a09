package model

import "time"

// ActionType names a concrete follow-up operation.
type ActionType string

// Action types, in decision-table order.
const (
	ActionBlockTransaction     ActionType = "block_transaction"
	ActionEscalateToCRM        ActionType = "escalate_to_crm"
	ActionFlagComplianceReview ActionType = "flag_compliance_review"
	ActionFlagTransaction      ActionType = "flag_transaction"
	ActionLogOnly              ActionType = "log_only"
)

// Priority orders actions for downstream systems.
type Priority string

// Action priorities.
const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// ActionRequest is created by the router from a finding; at most one
// per session.
type ActionRequest struct {
	CreatedAt time.Time      `json:"created_at"`
	Payload   map[string]any `json:"payload"`
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	Target    string         `json:"target_system"`
	Type      ActionType     `json:"action_type"`
	Priority  Priority       `json:"priority"`
}

// Outcome is the terminal result of executing an action.
type Outcome string

// Execution outcomes.
const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// ActionResult is produced by the action executor. It is terminal:
// never updated after creation.
type ActionResult struct {
	CompletedAt time.Time `json:"completed_at"`
	RequestID   string    `json:"request_id"`
	Reference   string    `json:"reference,omitempty"`
	Detail      string    `json:"detail,omitempty"`
	Outcome     Outcome   `json:"outcome"`
}
