// Package approval implements the approval workflow state machine: a
// request moves Draft -> Pending -> Approved -> Applied, or into one
// of the terminal Rejected/Expired/Cancelled states, driven by a small
// set of events and an approval mode (single/quorum/unanimous).
package approval

import (
	"time"

	"github.com/google/uuid"
)

// Mode selects how many approvals a request needs before it can move
// to Approved.
type Mode string

// Approval modes.
const (
	ModeSingle    Mode = "single"
	ModeQuorum    Mode = "quorum"
	ModeUnanimous Mode = "unanimous"
)

// RiskLevel classifies the request for auto-approval eligibility.
type RiskLevel string

// Risk levels.
const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Context is the configuration a workflow is created with. All fields
// stay fixed except CurrentApprovals, which Handle increments on each
// recorded approval.
type Context struct {
	RequestID          uuid.UUID
	RequestType        string
	RequiredApprovals  int
	CurrentApprovals   int
	ApprovalMode       Mode
	TimeoutHours       int
	AutoApproveLowRisk bool
	RiskLevel          RiskLevel
}

// State is the workflow's current position in its lifecycle.
type State string

// States.
const (
	StateDraft     State = "draft"
	StatePending   State = "pending"
	StateApproved  State = "approved"
	StateApplied   State = "applied"
	StateRejected  State = "rejected"
	StateExpired   State = "expired"
	StateCancelled State = "cancelled"
)

// DecisionRecord is one approver's recorded vote, kept for the audit
// trail regardless of workflow outcome.
type DecisionRecord struct {
	ApproverID uuid.UUID
	Timestamp  time.Time
	Comment    string
}

// EventKind tags which variant of Event is populated.
type EventKind string

// Event kinds.
const (
	EventSubmit  EventKind = "submit"
	EventApprove EventKind = "approve"
	EventReject  EventKind = "reject"
	EventExpire  EventKind = "expire"
	EventCancel  EventKind = "cancel"
	EventApply   EventKind = "apply"
)

// Event is the single input type Workflow.Handle accepts. Only the
// fields relevant to Kind are meaningful.
type Event struct {
	Kind EventKind

	// Submit
	RequestorID uuid.UUID
	SubmittedAt time.Time

	// Approve
	ApproverID uuid.UUID
	ApprovedAt time.Time
	Comment    string

	// Reject
	RejectorID uuid.UUID
	RejectedAt time.Time
	Reason     string

	// Expire
	ExpiredAt time.Time

	// Cancel
	CancelledBy uuid.UUID
	CancelledAt time.Time

	// Apply
	AppliedBy uuid.UUID
	AppliedAt time.Time
}

// SubmitEvent builds a Submit event.
func SubmitEvent(requestorID uuid.UUID, at time.Time) Event {
	return Event{Kind: EventSubmit, RequestorID: requestorID, SubmittedAt: at}
}

// ApproveEvent builds an Approve event.
func ApproveEvent(approverID uuid.UUID, at time.Time, comment string) Event {
	return Event{Kind: EventApprove, ApproverID: approverID, ApprovedAt: at, Comment: comment}
}

// RejectEvent builds a Reject event.
func RejectEvent(rejectorID uuid.UUID, at time.Time, reason string) Event {
	return Event{Kind: EventReject, RejectorID: rejectorID, RejectedAt: at, Reason: reason}
}

// ExpireEvent builds an Expire event.
func ExpireEvent(at time.Time) Event {
	return Event{Kind: EventExpire, ExpiredAt: at}
}

// CancelEvent builds a Cancel event.
func CancelEvent(cancelledBy uuid.UUID, at time.Time) Event {
	return Event{Kind: EventCancel, CancelledBy: cancelledBy, CancelledAt: at}
}

// ApplyEvent builds an Apply event.
func ApplyEvent(appliedBy uuid.UUID, at time.Time) Event {
	return Event{Kind: EventApply, AppliedBy: appliedBy, AppliedAt: at}
}
