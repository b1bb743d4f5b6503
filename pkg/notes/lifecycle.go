package notes

import (
	"fmt"
	"time"

	"github.com/kikokikok/aeterna-sub003/pkg/apperr"
)

// Status is a note's place in its Draft -> Proposed -> Accepted
// lifecycle (or a terminal Rejected/Deprecated).
type Status string

// Statuses.
const (
	StatusDraft      Status = "draft"
	StatusProposed   Status = "proposed"
	StatusAccepted   Status = "accepted"
	StatusRejected   Status = "rejected"
	StatusDeprecated Status = "deprecated"
)

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusDeprecated
}

// IsActive reports whether the note is still eligible for retrieval.
func (s Status) IsActive() bool {
	return s == StatusProposed || s == StatusAccepted
}

// LifecycleConfig holds the thresholds that drive automatic
// proposal and review-flagging, matching lifecycle.rs's defaults.
type LifecycleConfig struct {
	AutoProposeUsefulnessThreshold float64
	AutoProposeRetrievalThreshold  int
	DeprecationRetrievalThreshold  int
	DeprecationUsefulnessRatio     float64
}

// DefaultLifecycleConfig returns the lifecycle's default thresholds.
func DefaultLifecycleConfig() LifecycleConfig {
	return LifecycleConfig{
		AutoProposeUsefulnessThreshold: 0.8,
		AutoProposeRetrievalThreshold:  5,
		DeprecationRetrievalThreshold:  10,
		DeprecationUsefulnessRatio:     0.1,
	}
}

// NoteWithLifecycle wraps a GeneratedNote with the mutable state that
// tracks its usefulness over time.
type NoteWithLifecycle struct {
	Note              GeneratedNote
	Status            Status
	PositiveFeedback  int
	NegativeFeedback  int
	RetrievalCount    int
	StatusChangedAt   time.Time
	ReviewFlagged     bool
	DeprecationReason string
}

// NewNoteWithLifecycle wraps a freshly generated note in Draft status.
func NewNoteWithLifecycle(note GeneratedNote) *NoteWithLifecycle {
	return &NoteWithLifecycle{
		Note:            note,
		Status:          StatusDraft,
		StatusChangedAt: time.Now(),
	}
}

// validTransitions enumerates the 7 allowed (from, to) status pairs,
// grounded on lifecycle.rs's `NoteWithLifecycle::transition_to` match.
var validTransitions = map[Status]map[Status]bool{
	StatusDraft: {
		StatusProposed:   true,
		StatusRejected:   true,
		StatusDeprecated: true,
	},
	StatusProposed: {
		StatusAccepted: true,
		StatusRejected: true,
		StatusDraft:    true,
	},
	StatusAccepted: {
		StatusDeprecated: true,
	},
}

// TransitionError reports an attempt to move a note between statuses
// that lifecycle.rs does not allow.
type TransitionError struct {
	From, To Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid note transition from %s to %s", e.From, e.To)
}

// TransitionTo moves the note to a new status if the pair is valid.
func (n *NoteWithLifecycle) TransitionTo(to Status) error {
	if allowed, ok := validTransitions[n.Status]; !ok || !allowed[to] {
		return apperr.Wrap(apperr.KindValidation, "note lifecycle transition rejected", &TransitionError{From: n.Status, To: to})
	}
	n.Status = to
	n.StatusChangedAt = time.Now()
	if to != StatusProposed {
		n.ReviewFlagged = false
	}
	return nil
}

// RecordRetrieval increments the note's retrieval counter, called each
// time the note is surfaced to a consumer.
func (n *NoteWithLifecycle) RecordRetrieval() {
	n.RetrievalCount++
}

// RecordPositiveFeedback increments positive feedback.
func (n *NoteWithLifecycle) RecordPositiveFeedback() {
	n.PositiveFeedback++
}

// RecordNegativeFeedback increments negative feedback.
func (n *NoteWithLifecycle) RecordNegativeFeedback() {
	n.NegativeFeedback++
}

// UsefulnessRatio is positive feedback over total feedback, or 1.0
// when no feedback has been recorded yet (a note is assumed useful
// until proven otherwise).
func (n *NoteWithLifecycle) UsefulnessRatio() float64 {
	total := n.PositiveFeedback + n.NegativeFeedback
	if total == 0 {
		return 1.0
	}
	return float64(n.PositiveFeedback) / float64(total)
}

// ShouldAutoPropose reports whether a Draft note has accumulated
// enough usefulness and retrievals to graduate automatically.
func (n *NoteWithLifecycle) ShouldAutoPropose(config LifecycleConfig) bool {
	return n.Status == StatusDraft &&
		n.UsefulnessRatio() >= config.AutoProposeUsefulnessThreshold &&
		n.RetrievalCount >= config.AutoProposeRetrievalThreshold
}

// ShouldFlagForReview reports whether an active, heavily-retrieved
// note's usefulness ratio has fallen low enough to warrant human
// review rather than automatic deprecation.
func (n *NoteWithLifecycle) ShouldFlagForReview(config LifecycleConfig) bool {
	return n.Status.IsActive() &&
		!n.ReviewFlagged &&
		n.RetrievalCount >= config.DeprecationRetrievalThreshold &&
		n.UsefulnessRatio() <= config.DeprecationUsefulnessRatio
}

// AutoTransitionKind discriminates the outcome of EvaluateAutoTransitions.
type AutoTransitionKind string

// Kinds.
const (
	AutoTransitionNone     AutoTransitionKind = "none"
	AutoTransitionProposed AutoTransitionKind = "proposed"
	AutoTransitionFlagged  AutoTransitionKind = "flagged_for_review"
)

// AutoTransitionResult is the Kind-tagged outcome of evaluating a
// note's automatic transitions for one tick.
type AutoTransitionResult struct {
	Kind AutoTransitionKind
	From Status
}

// EvaluateAutoTransitions checks auto-propose first; only if it does
// not apply does it check the review-flag condition, so a single
// evaluation produces at most one transition per call (matching
// lifecycle.rs's proposal-takes-priority ordering).
func (n *NoteWithLifecycle) EvaluateAutoTransitions(config LifecycleConfig) AutoTransitionResult {
	if n.ShouldAutoPropose(config) {
		from := n.Status
		_ = n.TransitionTo(StatusProposed)
		return AutoTransitionResult{Kind: AutoTransitionProposed, From: from}
	}
	if n.ShouldFlagForReview(config) {
		n.ReviewFlagged = true
		return AutoTransitionResult{Kind: AutoTransitionFlagged, From: n.Status}
	}
	return AutoTransitionResult{Kind: AutoTransitionNone}
}

// Deprecate transitions the note to Deprecated with a recorded reason.
func (n *NoteWithLifecycle) Deprecate(reason string) error {
	if err := n.TransitionTo(StatusDeprecated); err != nil {
		return err
	}
	n.DeprecationReason = reason
	return nil
}

// Manager provides a higher-level API over a collection of
// NoteWithLifecycle entries, grounded on lifecycle.rs's
// `NoteLifecycleManager`.
type Manager struct {
	config LifecycleConfig
	notes  map[string]*NoteWithLifecycle
}

// NewManager constructs a Manager with the given config.
func NewManager(config LifecycleConfig) *Manager {
	return &Manager{config: config, notes: make(map[string]*NoteWithLifecycle)}
}

// Config returns the manager's lifecycle thresholds.
func (m *Manager) Config() LifecycleConfig {
	return m.config
}

// WrapNote registers a freshly generated note and returns its
// lifecycle wrapper.
func (m *Manager) WrapNote(note GeneratedNote) *NoteWithLifecycle {
	wrapped := NewNoteWithLifecycle(note)
	m.notes[note.ID] = wrapped
	return wrapped
}

// Get returns the wrapped note for an ID, if tracked.
func (m *Manager) Get(id string) (*NoteWithLifecycle, bool) {
	n, ok := m.notes[id]
	return n, ok
}

// RecordRetrieval records a retrieval against a tracked note.
func (m *Manager) RecordRetrieval(id string) error {
	n, ok := m.notes[id]
	if !ok {
		return apperr.New(apperr.KindNotFound, fmt.Sprintf("note %s not tracked", id))
	}
	n.RecordRetrieval()
	return nil
}

// RecordFeedback records positive or negative feedback against a
// tracked note.
func (m *Manager) RecordFeedback(id string, positive bool) error {
	n, ok := m.notes[id]
	if !ok {
		return apperr.New(apperr.KindNotFound, fmt.Sprintf("note %s not tracked", id))
	}
	if positive {
		n.RecordPositiveFeedback()
	} else {
		n.RecordNegativeFeedback()
	}
	return nil
}

// Propose transitions a tracked note to Proposed.
func (m *Manager) Propose(id string) error {
	return m.transition(id, StatusProposed)
}

// Accept transitions a tracked note to Accepted.
func (m *Manager) Accept(id string) error {
	return m.transition(id, StatusAccepted)
}

// Reject transitions a tracked note to Rejected.
func (m *Manager) Reject(id string) error {
	return m.transition(id, StatusRejected)
}

// Deprecate transitions a tracked note to Deprecated with a reason.
func (m *Manager) Deprecate(id, reason string) error {
	n, ok := m.notes[id]
	if !ok {
		return apperr.New(apperr.KindNotFound, fmt.Sprintf("note %s not tracked", id))
	}
	return n.Deprecate(reason)
}

func (m *Manager) transition(id string, to Status) error {
	n, ok := m.notes[id]
	if !ok {
		return apperr.New(apperr.KindNotFound, fmt.Sprintf("note %s not tracked", id))
	}
	return n.TransitionTo(to)
}

// EvaluateBatch runs EvaluateAutoTransitions over every tracked note
// and returns the non-trivial outcomes keyed by note ID.
func (m *Manager) EvaluateBatch() map[string]AutoTransitionResult {
	results := make(map[string]AutoTransitionResult)
	for id, n := range m.notes {
		if result := n.EvaluateAutoTransitions(m.config); result.Kind != AutoTransitionNone {
			results[id] = result
		}
	}
	return results
}
