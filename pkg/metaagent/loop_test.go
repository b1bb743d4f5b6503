package metaagent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoop(completer Completer, qgConfig QualityGateConfig, maxIterations uint32, budget TimeBudgetConfig) *Loop {
	build := NewBuildPhase(completer, DefaultBuildPhaseConfig())
	test := NewTestPhase()
	improveCfg := DefaultImprovePhaseConfig()
	improveCfg.MaxRetryStreak = maxIterations // never escalate before the iteration cap in most tests
	improve := NewImprovePhase(completer, improveCfg)
	evaluator := NewQualityGateEvaluator(qgConfig)

	return NewLoop(build, test, improve, evaluator, Config{MaxIterations: maxIterations}, budget)
}

func TestLoopSucceedsOnFirstPassingTest(t *testing.T) {
	completer := &fakeCompleter{response: "patch"}
	loop := newTestLoop(completer, DefaultQualityGateConfig(), 5, DefaultTimeBudgetConfig())

	result, err := loop.Run(context.Background(), "add feature", NewTestCommand("true", nil, 5))
	require.NoError(t, err)
	assert.Equal(t, ResultSuccess, result.Kind)
	assert.True(t, result.IsSuccess())
	assert.True(t, result.CanCommit())
	assert.Equal(t, uint32(1), result.Iterations)
}

func TestLoopQualityGateFailureWhenLinterFails(t *testing.T) {
	completer := &fakeCompleter{response: "patch"}
	cfg := DefaultQualityGateConfig().WithLinter(LinterConfig{Program: "false", Timeout: time.Second}).RequireAll()
	loop := newTestLoop(completer, cfg, 5, DefaultTimeBudgetConfig())

	result, err := loop.Run(context.Background(), "add feature", NewTestCommand("true", nil, 5))
	require.NoError(t, err)
	assert.Equal(t, ResultQualityGateFailure, result.Kind)
	assert.False(t, result.CanCommit())
}

func TestLoopRetriesThenEscalatesToFailure(t *testing.T) {
	completer := &fakeCompleter{response: "patch"}
	build := NewBuildPhase(completer, DefaultBuildPhaseConfig())
	test := NewTestPhase()
	improveCfg := DefaultImprovePhaseConfig()
	improveCfg.MaxRetryStreak = 1
	improve := NewImprovePhase(completer, improveCfg)
	evaluator := NewQualityGateEvaluator(DefaultQualityGateConfig())

	loop := NewLoop(build, test, improve, evaluator, Config{MaxIterations: 10}, DefaultTimeBudgetConfig())

	result, err := loop.Run(context.Background(), "add feature", NewTestCommand("false", nil, 5))
	require.NoError(t, err)
	assert.Equal(t, ResultFailure, result.Kind)
	require.NotNil(t, result.EscalationMessage())
}

func TestLoopExhaustsIterationCapWithoutEscalation(t *testing.T) {
	completer := &fakeCompleter{response: "patch"}
	loop := newTestLoop(completer, DefaultQualityGateConfig(), 2, DefaultTimeBudgetConfig())

	result, err := loop.Run(context.Background(), "add feature", NewTestCommand("false", nil, 5))
	require.NoError(t, err)
	assert.Equal(t, ResultFailure, result.Kind)
	assert.Equal(t, uint32(2), result.Iterations)
	assert.Nil(t, result.EscalationMessage())
}

func TestLoopTimeBudgetExhausted(t *testing.T) {
	completer := &fakeCompleter{response: "patch"}
	tinyBudget := DefaultTimeBudgetConfig().WithDuration(1 * time.Nanosecond)
	loop := newTestLoop(completer, DefaultQualityGateConfig(), 5, tinyBudget)

	result, err := loop.Run(context.Background(), "add feature", NewTestCommand("false", nil, 5))
	require.NoError(t, err)
	assert.Equal(t, ResultTimeBudgetExhausted, result.Kind)
	require.NotNil(t, result.Exhausted)
}
