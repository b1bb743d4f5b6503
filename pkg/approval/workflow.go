package approval

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kikokikok/aeterna-sub003/pkg/apperr"
)

// Workflow is a single approval request's state machine. Concurrent
// Handle calls (e.g. two approvers voting near-simultaneously) are
// serialized by an embedded mutex, the same per-entity locking idiom
// pkg/session uses for its Session type.
type Workflow struct {
	mu sync.RWMutex

	context             Context
	state               State
	decisions           []DecisionRecord
	rejectionReason     string
	resolutionTimestamp *time.Time

	// timestamps attached to the current state, mirroring the payload
	// each WorkflowState variant carries in the original.
	submittedAt time.Time
	approvedAt  time.Time
	appliedAt   time.Time
	expiredAt   time.Time
	cancelledAt time.Time
}

// New creates a workflow in the Draft state.
func New(context Context) *Workflow {
	return &Workflow{context: context, state: StateDraft}
}

// Context returns a copy of the workflow's configuration.
func (w *Workflow) Context() Context {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.context
}

// State returns the workflow's current state.
func (w *Workflow) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// Decisions returns a copy of the recorded approval decisions.
func (w *Workflow) Decisions() []DecisionRecord {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]DecisionRecord, len(w.decisions))
	copy(out, w.decisions)
	return out
}

// RejectionReason returns the reason a rejected workflow was rejected,
// if any.
func (w *Workflow) RejectionReason() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.rejectionReason
}

func (w *Workflow) shouldAutoApprove() bool {
	return w.context.AutoApproveLowRisk && w.context.RiskLevel == RiskLow
}

func (w *Workflow) isFullyApproved() bool {
	switch w.context.ApprovalMode {
	case ModeSingle:
		return w.context.CurrentApprovals >= 1
	case ModeQuorum, ModeUnanimous:
		return w.context.CurrentApprovals >= w.context.RequiredApprovals
	default:
		return false
	}
}

func (w *Workflow) recordApproval(approverID DecisionRecord) {
	w.decisions = append(w.decisions, approverID)
	w.context.CurrentApprovals++
}

// Handle applies event to the workflow, transitioning its state or
// returning an apperr.KindValidation error if the (state, event) pair
// is not a valid transition. Matches storage/src/approval_workflow.rs's
// `handle` method, a Go switch over (state, event kind) conditions
// standing in for its `match (&self.state, event)` arm-by-arm dispatch.
func (w *Workflow) Handle(event Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case w.state == StateDraft && event.Kind == EventSubmit:
		if w.shouldAutoApprove() {
			w.resolutionTimestamp = &event.SubmittedAt
			w.state = StateApproved
			w.approvedAt = event.SubmittedAt
			slog.Info("auto-approved low-risk request", "request_id", w.context.RequestID)
		} else {
			w.state = StatePending
			w.submittedAt = event.SubmittedAt
			slog.Info("request submitted for approval", "request_id", w.context.RequestID)
		}
		return nil

	case w.state == StatePending && event.Kind == EventApprove:
		w.recordApproval(DecisionRecord{
			ApproverID: event.ApproverID,
			Timestamp:  event.ApprovedAt,
			Comment:    event.Comment,
		})
		if w.isFullyApproved() {
			w.resolutionTimestamp = &event.ApprovedAt
			w.state = StateApproved
			w.approvedAt = event.ApprovedAt
			slog.Info("request fully approved", "request_id", w.context.RequestID, "approvals", w.context.CurrentApprovals)
		} else {
			slog.Info("approval recorded, waiting for more",
				"request_id", w.context.RequestID,
				"current", w.context.CurrentApprovals,
				"required", w.context.RequiredApprovals,
			)
		}
		return nil

	case w.state == StatePending && event.Kind == EventReject:
		w.rejectionReason = event.Reason
		w.resolutionTimestamp = &event.RejectedAt
		w.state = StateRejected
		slog.Info("request rejected", "request_id", w.context.RequestID)
		return nil

	case w.state == StatePending && event.Kind == EventExpire:
		w.resolutionTimestamp = &event.ExpiredAt
		w.state = StateExpired
		w.expiredAt = event.ExpiredAt
		slog.Info("request expired", "request_id", w.context.RequestID)
		return nil

	case w.state == StatePending && event.Kind == EventCancel:
		w.resolutionTimestamp = &event.CancelledAt
		w.state = StateCancelled
		w.cancelledAt = event.CancelledAt
		slog.Info("request cancelled", "request_id", w.context.RequestID)
		return nil

	case w.state == StateApproved && event.Kind == EventApply:
		w.state = StateApplied
		w.appliedAt = event.AppliedAt
		slog.Info("request applied", "request_id", w.context.RequestID)
		return nil

	default:
		return apperr.New(apperr.KindValidation,
			fmt.Sprintf("invalid transition from %s with event %s", w.state, event.Kind))
	}
}

// IsTerminal reports whether the workflow has reached a state it can
// never leave.
func (w *Workflow) IsTerminal() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	switch w.state {
	case StateApplied, StateRejected, StateExpired, StateCancelled:
		return true
	default:
		return false
	}
}

// IsPending reports whether the workflow is awaiting approval decisions.
func (w *Workflow) IsPending() bool {
	return w.State() == StatePending
}

// IsApproved reports whether the workflow has cleared its approval
// requirement, whether or not it has since been applied.
func (w *Workflow) IsApproved() bool {
	switch w.State() {
	case StateApproved, StateApplied:
		return true
	default:
		return false
	}
}
