package models

import "time"

// ApprovalMode selects how many approvals are required to advance an
// ApprovalWorkflow out of Pending.
type ApprovalMode string

// Approval modes.
const (
	ApprovalModeSingle    ApprovalMode = "single"
	ApprovalModeQuorum    ApprovalMode = "quorum"
	ApprovalModeUnanimous ApprovalMode = "unanimous"
)

// RiskLevel informs auto-approval eligibility.
type RiskLevel string

// Risk levels.
const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// ApprovalState is a node in the workflow's transition DAG. Draft is
// initial; Applied, Rejected, Expired, Cancelled are terminal.
type ApprovalState string

// Approval workflow states.
const (
	ApprovalStateDraft     ApprovalState = "draft"
	ApprovalStatePending   ApprovalState = "pending"
	ApprovalStateApproved  ApprovalState = "approved"
	ApprovalStateApplied   ApprovalState = "applied"
	ApprovalStateRejected  ApprovalState = "rejected"
	ApprovalStateExpired   ApprovalState = "expired"
	ApprovalStateCancelled ApprovalState = "cancelled"
)

// IsTerminal reports whether s admits no further transitions.
func (s ApprovalState) IsTerminal() bool {
	switch s {
	case ApprovalStateApplied, ApprovalStateRejected, ApprovalStateExpired, ApprovalStateCancelled:
		return true
	default:
		return false
	}
}

// ApprovalContext carries the workflow's static configuration.
type ApprovalContext struct {
	RequestID          string
	RequestType        string
	RequiredApprovals  int
	CurrentApprovals   int
	ApprovalMode       ApprovalMode
	TimeoutHours       int
	AutoApproveLowRisk bool
	RiskLevel          RiskLevel
}

// ApprovalDecision is one audit entry appended on every transition
// that involves a named actor.
type ApprovalDecision struct {
	ApproverID string
	Timestamp  time.Time
	Comment    string
}

// ApprovalWorkflow is the full state of a quorum/unanimous/single
// approval process.
type ApprovalWorkflow struct {
	Context              ApprovalContext
	State                ApprovalState
	Decisions            []ApprovalDecision
	RejectionReason      string
	ResolutionTimestamp  *time.Time
}
