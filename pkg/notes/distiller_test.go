package notes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDistillerCompleter struct {
	response string
	err      error
}

func (f *fakeDistillerCompleter) CompleteWithSystem(ctx context.Context, system, user string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func successfulEvents() []TrajectoryEvent {
	return []TrajectoryEvent{
		{ToolName: "read_file", Input: "config.go", Output: "package main", Success: true, DurationMs: 10},
		{ToolName: "edit_file", Input: "add import", Output: "```go\nimport \"fmt\"\n```", Success: true, DurationMs: 20},
		{ToolName: "run_tests", Input: "go test ./...", Output: "ok", Success: true, DurationMs: 500},
	}
}

const sampleDistillationResponse = `CONTEXT: Adding a logging dependency to a Go service.
PROBLEM: The service lacked structured logging.
SOLUTION: Imported log/slog and wired a handler at startup.
PATTERNS: wire logger at main, avoid global loggers
TAGS: logging, go, slog`

func TestDistillRejectsTooFewEvents(t *testing.T) {
	d := NewDistiller(DefaultDistillerConfig(), &fakeDistillerCompleter{response: sampleDistillationResponse})
	_, err := d.Distill(context.Background(), successfulEvents()[:1], TriggerSessionEnd)
	require.Error(t, err)
}

func TestDistillRejectsLowSuccessRatio(t *testing.T) {
	events := successfulEvents()
	events[0].Success = false
	events[1].Success = false
	d := NewDistiller(DefaultDistillerConfig(), &fakeDistillerCompleter{response: sampleDistillationResponse})
	_, err := d.Distill(context.Background(), events, TriggerSessionEnd)
	require.Error(t, err)
}

func TestDistillAllowsLowSuccessRatioForFailurePattern(t *testing.T) {
	events := successfulEvents()
	events[0].Success = false
	events[1].Success = false
	d := NewDistiller(DefaultDistillerConfig(), &fakeDistillerCompleter{response: sampleDistillationResponse})
	result, err := d.Distill(context.Background(), events, TriggerFailurePattern)
	require.NoError(t, err)
	assert.Equal(t, string(TriggerFailurePattern), result.Trigger)
}

func TestDistillParsesAllSections(t *testing.T) {
	d := NewDistiller(DefaultDistillerConfig(), &fakeDistillerCompleter{response: sampleDistillationResponse})
	result, err := d.Distill(context.Background(), successfulEvents(), TriggerSessionEnd)
	require.NoError(t, err)

	assert.Contains(t, result.Context, "logging dependency")
	assert.Contains(t, result.Problem, "structured logging")
	assert.Contains(t, result.Solution, "log/slog")
	assert.Equal(t, []string{"wire logger at main", "avoid global loggers"}, result.Patterns)
	assert.Equal(t, []string{"logging", "go", "slog"}, result.Tags)
	assert.NotEmpty(t, result.CodeSnippets)
}

func TestDistillTruncatesTagsToMax(t *testing.T) {
	config := DefaultDistillerConfig()
	config.MaxTags = 2
	d := NewDistiller(config, &fakeDistillerCompleter{response: sampleDistillationResponse})
	result, err := d.Distill(context.Background(), successfulEvents(), TriggerSessionEnd)
	require.NoError(t, err)
	assert.Len(t, result.Tags, 2)
}

func TestDistillPropagatesCompletionError(t *testing.T) {
	d := NewDistiller(DefaultDistillerConfig(), &fakeDistillerCompleter{err: errors.New("provider down")})
	_, err := d.Distill(context.Background(), successfulEvents(), TriggerSessionEnd)
	require.Error(t, err)
}

func TestDistillRejectsUnparsableResponse(t *testing.T) {
	d := NewDistiller(DefaultDistillerConfig(), &fakeDistillerCompleter{response: "no recognizable sections here"})
	_, err := d.Distill(context.Background(), successfulEvents(), TriggerSessionEnd)
	require.Error(t, err)
}

func TestIsHighQualityThreshold(t *testing.T) {
	assert.True(t, DistillationResult{QualityScore: 0.75}.IsHighQuality())
	assert.False(t, DistillationResult{QualityScore: 0.5}.IsHighQuality())
}

func TestExtractCodeBlockReturnsEmptyWithoutFence(t *testing.T) {
	assert.Equal(t, "", extractCodeBlock("no code here"))
}

func TestCalculateQualityScoreAccumulatesComponents(t *testing.T) {
	parsed := parsedDistillation{
		context:  "c",
		problem:  "p",
		solution: "s",
		patterns: []string{"x"},
		tags:     []string{"y"},
	}
	score := calculateQualityScore(parsed, 1.0)
	assert.InDelta(t, 1.0, score, 0.0001)
}
