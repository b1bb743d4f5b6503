// Package metaagent implements an iterative build-then-test-then-
// improve cycle bounded by a time budget and gated by pluggable
// quality gates before declaring success.
package metaagent

import "context"

// Completer is the narrow, synchronous text-completion collaborator
// used by the build and improve phases.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, system, user string) (string, error)
}

// BuildResult is what the build phase produces: generated output plus
// the notes/hindsight it drew on and the tokens it consumed.
type BuildResult struct {
	Output     string
	Notes      []string
	Hindsight  []string
	TokensUsed uint64
}

// TestStatus is the outcome of running the configured test command.
type TestStatus string

// Test outcomes.
const (
	TestStatusPass    TestStatus = "pass"
	TestStatusFail    TestStatus = "fail"
	TestStatusTimeout TestStatus = "timeout"
)

// TestResult is the outcome of the test phase.
type TestResult struct {
	Status     TestStatus
	Output     string
	DurationMs uint64
}

// TestCommand names the external command the test phase spawns.
type TestCommand struct {
	Program string
	Args    []string
	Timeout uint64 // seconds
}

// NewTestCommand is a small convenience constructor for TestCommand.
func NewTestCommand(program string, args []string, timeoutSecs uint64) TestCommand {
	return TestCommand{Program: program, Args: args, Timeout: timeoutSecs}
}

// ImproveAction is what the improve phase decided to do after a test
// failure.
type ImproveAction string

// Improve actions.
const (
	ImproveActionRetry    ImproveAction = "retry"
	ImproveActionEscalate ImproveAction = "escalate"
)

// ImproveResult is the outcome of the improve phase.
type ImproveResult struct {
	Action            ImproveAction
	Guidance          string
	EscalationMessage *string
}

// LoopState accumulates per-iteration results as the loop runs.
type LoopState struct {
	Iterations   uint32
	LastBuild    *BuildResult
	LastTest     *TestResult
	LastImprove  *ImproveResult
	QualityGates *QualityGateSummary
}

// ResultKind tags which branch of the loop's contract a Result holds:
// Success, Failure, QualityGateFailure, or TimeBudgetExhausted.
type ResultKind string

// Result kinds.
const (
	ResultSuccess             ResultKind = "success"
	ResultFailure             ResultKind = "failure"
	ResultQualityGateFailure  ResultKind = "quality_gate_failure"
	ResultTimeBudgetExhausted ResultKind = "time_budget_exhausted"
)

// Result is the Meta-Agent Loop's outcome. Exactly one of the
// Kind-tagged fields is meaningful; the Kind discriminant plus
// accessors (IsSuccess, CanCommit) stand in for a sum type Go doesn't
// have.
type Result struct {
	Kind         ResultKind
	Build        *BuildResult
	Test         *TestResult
	QualityGates *QualityGateSummary
	Iterations   uint32
	State        LoopState
	Exhausted    *TimeBudgetExhaustedResult

	// canCommit is computed by the loop via QualityGateEvaluator.CanCommit,
	// which applies the configured require_all_gates policy. Stored here
	// rather than recomputed so Result.CanCommit doesn't have to guess
	// which policy produced QualityGates.
	canCommit bool
}

// IsSuccess reports whether the loop reached ResultSuccess.
func (r Result) IsSuccess() bool { return r.Kind == ResultSuccess }

// CanCommit reports whether the result is a success that cleared its
// quality gate policy (tests_passed, plus all gates if require_all_gates
// was set).
func (r Result) CanCommit() bool {
	return r.Kind == ResultSuccess && r.canCommit
}

// WithCanCommit attaches the evaluator's can-commit decision.
func (r Result) WithCanCommit(canCommit bool) Result {
	r.canCommit = canCommit
	return r
}

// EscalationMessage returns the improve phase's escalation message, if
// the loop ended in Failure by way of an escalation.
func (r Result) EscalationMessage() *string {
	if r.Kind != ResultFailure || r.State.LastImprove == nil {
		return nil
	}
	return r.State.LastImprove.EscalationMessage
}
