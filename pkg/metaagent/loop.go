package metaagent

import (
	"context"
	"log/slog"
)

// Config bounds a Loop run by iteration count, independent of the
// wall-clock TimeBudgetConfig it's paired with.
type Config struct {
	MaxIterations uint32
}

// DefaultConfig caps a run at 10 iterations.
func DefaultConfig() Config {
	return Config{MaxIterations: 10}
}

// Loop is the build-test-improve cycle, combining a simple
// iteration cap with time budgeting and quality gates into one type,
// since every caller in this system wants both.
type Loop struct {
	build     *BuildPhase
	test      *TestPhase
	improve   *ImprovePhase
	evaluator *QualityGateEvaluator

	config           Config
	timeBudgetConfig TimeBudgetConfig
}

// NewLoop wires the three phases, the quality gate evaluator, and the
// iteration/time budgets into a runnable Loop.
func NewLoop(build *BuildPhase, test *TestPhase, improve *ImprovePhase, evaluator *QualityGateEvaluator, config Config, timeBudgetConfig TimeBudgetConfig) *Loop {
	return &Loop{
		build:            build,
		test:             test,
		improve:          improve,
		evaluator:        evaluator,
		config:           config,
		timeBudgetConfig: timeBudgetConfig,
	}
}

// loopContext returns the Guidance of the most recent improve phase as
// the optional context string BuildPhase.Execute accepts, or "" before
// any improve phase has run.
func loopContext(state LoopState) string {
	if state.LastImprove == nil {
		return ""
	}
	return state.LastImprove.Guidance
}

// Run executes the build-test-improve cycle until success, an
// escalation, the iteration cap, or the time budget is reached.
func (l *Loop) Run(ctx context.Context, requirements string, testCommand TestCommand) (Result, error) {
	budget := StartTimeBudget(l.timeBudgetConfig)
	state := LoopState{}

	for state.Iterations < l.config.MaxIterations {
		check := budget.Check()
		if check.IsExhausted() {
			exhausted := NewTimeBudgetExhaustedResult(check.Elapsed, state.Iterations)
			return Result{Kind: ResultTimeBudgetExhausted, Iterations: state.Iterations, State: state, Exhausted: &exhausted}, nil
		}
		if check.IsWarning(l.timeBudgetConfig) {
			slog.Warn("meta-agent loop time budget warning",
				"iterations", state.Iterations,
				"remaining", check.Remaining.String(),
			)
		}

		build, err := l.build.Execute(ctx, requirements, loopContext(state))
		if err != nil {
			return Result{}, err
		}
		state.LastBuild = &build

		check = budget.Check()
		if check.IsExhausted() {
			exhausted := NewTimeBudgetExhaustedResult(check.Elapsed, state.Iterations).
				WithPartialResults("build completed, test not started")
			return Result{Kind: ResultTimeBudgetExhausted, Iterations: state.Iterations, State: state, Exhausted: &exhausted}, nil
		}

		test := l.test.Execute(ctx, testCommand)
		state.Iterations++
		state.LastTest = &test

		if test.Status == TestStatusPass {
			l.improve.ResetRetryStreak()
			summary := l.evaluator.EvaluateAll(ctx, true)
			state.QualityGates = &summary
			canCommit := l.evaluator.CanCommit(summary)

			kind := ResultQualityGateFailure
			if canCommit {
				kind = ResultSuccess
			}
			return Result{
				Kind:         kind,
				Build:        &build,
				Test:         &test,
				QualityGates: &summary,
				Iterations:   state.Iterations,
				State:        state,
			}.WithCanCommit(canCommit), nil
		}

		check = budget.Check()
		if check.IsExhausted() {
			exhausted := NewTimeBudgetExhaustedResult(check.Elapsed, state.Iterations).
				WithPartialResults("tests failed, improve phase not started")
			return Result{Kind: ResultTimeBudgetExhausted, Iterations: state.Iterations, State: state, Exhausted: &exhausted}, nil
		}

		improve, err := l.improve.Execute(ctx, test)
		if err != nil {
			return Result{}, err
		}
		state.LastImprove = &improve

		if improve.Action == ImproveActionEscalate {
			return Result{Kind: ResultFailure, Iterations: state.Iterations, State: state}, nil
		}
	}

	return Result{Kind: ResultFailure, Iterations: state.Iterations, State: state}, nil
}
