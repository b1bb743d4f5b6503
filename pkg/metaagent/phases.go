package metaagent

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// BuildPhaseConfig names the system prompt the build phase sends
// alongside each requirements/context pair.
type BuildPhaseConfig struct {
	SystemPrompt string
}

// DefaultBuildPhaseConfig keeps the default system prompt as a plain
// constant rather than a loaded template.
func DefaultBuildPhaseConfig() BuildPhaseConfig {
	return BuildPhaseConfig{
		SystemPrompt: "You are a build agent. Produce the smallest correct change " +
			"that satisfies the given requirements, drawing on any notes and " +
			"hindsight supplied as context.",
	}
}

// BuildPhase drives a Completer to produce a BuildResult from
// requirements and optional prior context (notes/hindsight).
type BuildPhase struct {
	completer Completer
	config    BuildPhaseConfig
}

// NewBuildPhase wraps a Completer with a BuildPhaseConfig.
func NewBuildPhase(completer Completer, config BuildPhaseConfig) *BuildPhase {
	return &BuildPhase{completer: completer, config: config}
}

// Execute runs one build iteration.
func (p *BuildPhase) Execute(ctx context.Context, requirements string, loopContext string) (BuildResult, error) {
	user := requirements
	if loopContext != "" {
		user = fmt.Sprintf("%s\n\nContext from prior iterations:\n%s", requirements, loopContext)
	}

	output, err := p.completer.CompleteWithSystem(ctx, p.config.SystemPrompt, user)
	if err != nil {
		return BuildResult{}, fmt.Errorf("build phase: %w", err)
	}

	return BuildResult{
		Output:     output,
		TokensUsed: uint64(len(output) / 4), // rough estimate absent a token-accounting collaborator
	}, nil
}

// TestPhase runs the configured test command and classifies its
// outcome, the same subprocess-with-timeout idiom as the quality
// gate's linter/coverage runners.
type TestPhase struct{}

// NewTestPhase constructs a TestPhase. It holds no state; the command
// to run is supplied per-call so a single phase can be reused across
// loop iterations with varying commands.
func NewTestPhase() *TestPhase {
	return &TestPhase{}
}

// Execute runs cmd and classifies the result as pass, fail, or timeout.
func (p *TestPhase) Execute(ctx context.Context, cmd TestCommand) TestResult {
	timeout := time.Duration(cmd.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	start := time.Now()
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	execCmd := exec.CommandContext(runCtx, cmd.Program, cmd.Args...)
	output, err := execCmd.CombinedOutput()
	durationMs := uint64(time.Since(start).Milliseconds())

	if runCtx.Err() == context.DeadlineExceeded {
		return TestResult{Status: TestStatusTimeout, Output: string(output), DurationMs: durationMs}
	}
	if err != nil {
		return TestResult{Status: TestStatusFail, Output: string(output), DurationMs: durationMs}
	}
	return TestResult{Status: TestStatusPass, Output: string(output), DurationMs: durationMs}
}

// ImprovePhaseConfig bounds how many consecutive failures the improve
// phase tolerates before it escalates instead of retrying.
type ImprovePhaseConfig struct {
	SystemPrompt   string
	MaxRetryStreak uint32
}

// DefaultImprovePhaseConfig escalates after three consecutive failures
// on the same test command.
func DefaultImprovePhaseConfig() ImprovePhaseConfig {
	return ImprovePhaseConfig{
		SystemPrompt: "You are an improve agent. Given a failing test's output, " +
			"decide whether another build attempt is likely to fix it, or whether " +
			"a human should be escalated to.",
		MaxRetryStreak: 3,
	}
}

// ImprovePhase drives a Completer to produce guidance for the next
// build attempt, or to decide the loop should escalate to a human.
type ImprovePhase struct {
	completer   Completer
	config      ImprovePhaseConfig
	retryStreak uint32
}

// NewImprovePhase wraps a Completer with an ImprovePhaseConfig.
func NewImprovePhase(completer Completer, config ImprovePhaseConfig) *ImprovePhase {
	return &ImprovePhase{completer: completer, config: config}
}

// Execute inspects the failing test result and decides retry vs.
// escalate, asking the Completer for retry guidance in the former case.
func (p *ImprovePhase) Execute(ctx context.Context, test TestResult) (ImproveResult, error) {
	p.retryStreak++
	if p.retryStreak > p.config.MaxRetryStreak {
		message := fmt.Sprintf(
			"Escalating after %d consecutive failures. Last test output:\n%s",
			p.retryStreak-1, truncate(test.Output, 500),
		)
		return ImproveResult{Action: ImproveActionEscalate, EscalationMessage: &message}, nil
	}

	user := fmt.Sprintf("Test status: %s\nOutput:\n%s", test.Status, truncate(test.Output, 2000))
	guidance, err := p.completer.CompleteWithSystem(ctx, p.config.SystemPrompt, user)
	if err != nil {
		return ImproveResult{}, fmt.Errorf("improve phase: %w", err)
	}

	return ImproveResult{Action: ImproveActionRetry, Guidance: strings.TrimSpace(guidance)}, nil
}

// ResetRetryStreak clears the consecutive-failure counter, called by
// the loop whenever a build reaches a passing test.
func (p *ImprovePhase) ResetRetryStreak() {
	p.retryStreak = 0
}
