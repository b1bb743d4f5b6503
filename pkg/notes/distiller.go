package notes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kikokikok/aeterna-sub003/pkg/apperr"
)

// Trigger names what prompted a trajectory to be distilled.
type Trigger string

// Triggers.
const (
	TriggerSessionEnd         Trigger = "session_end"
	TriggerSignificantSuccess Trigger = "significant_success"
	TriggerManualRequest      Trigger = "manual_request"
	TriggerFailurePattern     Trigger = "failure_pattern"
)

// DistillerConfig bounds when a trajectory is eligible for
// distillation and how its output is shaped.
type DistillerConfig struct {
	MinEventsForDistillation int
	MinSuccessRatio          float64
	ExtractCodeSnippets      bool
	MaxTags                  int
}

// DefaultDistillerConfig returns the distiller's default tuning.
func DefaultDistillerConfig() DistillerConfig {
	return DistillerConfig{
		MinEventsForDistillation: 3,
		MinSuccessRatio:          0.5,
		ExtractCodeSnippets:      true,
		MaxTags:                  10,
	}
}

// DistillationResult is the structured learning extracted from a
// trajectory.
type DistillationResult struct {
	ID               string
	Trigger          string
	Context          string
	Problem          string
	Solution         string
	Patterns         []string
	Tags             []string
	CodeSnippets     []string
	QualityScore     float64
	DistilledAt      time.Time
	SourceEventCount int
}

// IsHighQuality reports whether the result cleared the 0.7 quality bar.
func (r DistillationResult) IsHighQuality() bool {
	return r.QualityScore >= 0.7
}

// Distiller turns a trajectory of tool events into a DistillationResult
// via an LLM completion, grounded on distiller.rs's `Distiller::distill`.
type Distiller struct {
	config    DistillerConfig
	completer Completer
}

// NewDistiller wraps a Completer with a DistillerConfig.
func NewDistiller(config DistillerConfig, completer Completer) *Distiller {
	return &Distiller{config: config, completer: completer}
}

const distillationSystemPrompt = `You are a learning distillation agent. Your task is to analyze agent tool execution trajectories and extract reusable learnings.

Focus on:
1. Understanding the context and goal
2. Identifying the specific problem being solved
3. Extracting the successful solution approach
4. Recognizing patterns that could help with similar problems
5. Generating relevant tags for searchability

Be concise but comprehensive. Extract actionable insights that would help an agent facing a similar situation in the future.`

// Distill analyzes events and produces a DistillationResult, rejecting
// trajectories that are too short or too unsuccessful to be worth
// learning from (failure-pattern distillations are exempt from the
// success-ratio floor, since they exist to capture what went wrong).
func (d *Distiller) Distill(ctx context.Context, events []TrajectoryEvent, trigger Trigger) (DistillationResult, error) {
	if len(events) < d.config.MinEventsForDistillation {
		return DistillationResult{}, apperr.New(apperr.KindValidation,
			fmt.Sprintf("insufficient events: %d provided, %d required", len(events), d.config.MinEventsForDistillation))
	}

	successRatio := successRatio(events)
	if successRatio < d.config.MinSuccessRatio && trigger != TriggerFailurePattern {
		return DistillationResult{}, apperr.New(apperr.KindValidation,
			fmt.Sprintf("low success ratio: %.2f (required: %.2f)", successRatio, d.config.MinSuccessRatio))
	}

	trajectoryText := formatTrajectory(events)
	prompt := buildDistillationPrompt(trajectoryText)

	response, err := d.completer.CompleteWithSystem(ctx, distillationSystemPrompt, prompt)
	if err != nil {
		return DistillationResult{}, apperr.Wrap(apperr.KindProvider, "distillation completion failed", err)
	}

	parsed, err := parseDistillationResponse(response)
	if err != nil {
		return DistillationResult{}, err
	}

	var codeSnippets []string
	if d.config.ExtractCodeSnippets {
		codeSnippets = extractCodeSnippets(events)
	}

	tags := parsed.tags
	if len(tags) > d.config.MaxTags {
		tags = tags[:d.config.MaxTags]
	}

	return DistillationResult{
		ID:               uuid.NewString(),
		Trigger:          string(trigger),
		Context:          parsed.context,
		Problem:          parsed.problem,
		Solution:         parsed.solution,
		Patterns:         parsed.patterns,
		Tags:             tags,
		CodeSnippets:     codeSnippets,
		QualityScore:     calculateQualityScore(parsed, successRatio),
		DistilledAt:      time.Now(),
		SourceEventCount: len(events),
	}, nil
}

func successRatio(events []TrajectoryEvent) float64 {
	if len(events) == 0 {
		return 0
	}
	successes := 0
	for _, e := range events {
		if e.Success {
			successes++
		}
	}
	return float64(successes) / float64(len(events))
}

func formatTrajectory(events []TrajectoryEvent) string {
	var steps []string
	for i, e := range events {
		output := e.Output
		if len(output) > 500 {
			output = output[:500] + "..."
		}
		steps = append(steps, fmt.Sprintf("Step %d: %s\nInput: %s\nOutput: %s\nSuccess: %t",
			i+1, e.ToolName, e.Input, output, e.Success))
	}
	return strings.Join(steps, "\n\n")
}

func buildDistillationPrompt(trajectory string) string {
	return fmt.Sprintf(
		"Analyze the following agent trajectory and extract learnings:\n\n%s\n\n"+
			"Provide your analysis in the following format:\n"+
			"CONTEXT: [What was the overall goal or situation?]\n"+
			"PROBLEM: [What specific problem was being solved?]\n"+
			"SOLUTION: [What approach worked or what was learned?]\n"+
			"PATTERNS: [Comma-separated list of reusable patterns]\n"+
			"TAGS: [Comma-separated list of relevant tags]",
		trajectory,
	)
}

type parsedDistillation struct {
	context  string
	problem  string
	solution string
	patterns []string
	tags     []string
}

var sectionMarkers = []string{"CONTEXT:", "PROBLEM:", "SOLUTION:", "PATTERNS:", "TAGS:"}

func parseDistillationResponse(response string) (parsedDistillation, error) {
	context := extractSection(response, "CONTEXT:")
	problem := extractSection(response, "PROBLEM:")
	solution := extractSection(response, "SOLUTION:")
	patternsStr := extractSection(response, "PATTERNS:")
	tagsStr := extractSection(response, "TAGS:")

	if context == "" && problem == "" && solution == "" {
		return parsedDistillation{}, apperr.New(apperr.KindSerialization, "could not extract any sections from LLM response")
	}

	var patterns []string
	for _, p := range strings.Split(patternsStr, ",") {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}

	var tags []string
	for _, t := range strings.Split(tagsStr, ",") {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			tags = append(tags, t)
		}
	}

	return parsedDistillation{context: context, problem: problem, solution: solution, patterns: patterns, tags: tags}, nil
}

// extractSection finds marker on a line and returns either the text
// following it on the same line, or — if the marker ends the line —
// every subsequent line up to the next section marker.
func extractSection(text, marker string) string {
	lines := strings.Split(text, "\n")

	for i, line := range lines {
		if !strings.Contains(line, marker) {
			continue
		}

		parts := strings.SplitN(line, marker, 2)
		if len(parts) == 2 {
			if after := strings.TrimSpace(parts[1]); after != "" {
				return after
			}
		}

		var contentLines []string
		for _, next := range lines[i+1:] {
			if startsWithAnySectionMarker(next) {
				break
			}
			contentLines = append(contentLines, next)
		}
		if len(contentLines) > 0 {
			return strings.TrimSpace(strings.Join(contentLines, "\n"))
		}
	}
	return ""
}

func startsWithAnySectionMarker(line string) bool {
	if !strings.Contains(line, ":") {
		return false
	}
	for _, marker := range sectionMarkers {
		if strings.HasPrefix(line, strings.TrimSuffix(marker, ":")) {
			return true
		}
	}
	return false
}

func extractCodeSnippets(events []TrajectoryEvent) []string {
	var snippets []string
	for _, e := range events {
		name := strings.ToLower(e.ToolName)
		if !strings.Contains(name, "write") && !strings.Contains(name, "edit") && !strings.Contains(name, "code") {
			continue
		}
		if code := extractCodeBlock(e.Input); code != "" {
			snippets = append(snippets, code)
		}
		if code := extractCodeBlock(e.Output); code != "" {
			snippets = append(snippets, code)
		}
	}
	return snippets
}

func extractCodeBlock(text string) string {
	start := strings.Index(text, "```")
	if start == -1 {
		return ""
	}
	rest := text[start+3:]
	end := strings.Index(rest, "```")
	if end == -1 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}

// DetectSemanticLinks is an extension point for linking a new
// distillation to related existing notes by meaning rather than tag
// overlap. No embedding-graph traversal exists yet to back it, so it
// always returns an empty result.
func (d *Distiller) DetectSemanticLinks(ctx context.Context, result DistillationResult, candidates []GeneratedNote) ([]string, error) {
	return nil, nil
}

func calculateQualityScore(parsed parsedDistillation, successRatio float64) float64 {
	score := 0.0
	if parsed.context != "" {
		score += 0.2
	}
	if parsed.problem != "" {
		score += 0.2
	}
	if parsed.solution != "" {
		score += 0.3
	}
	if len(parsed.patterns) > 0 {
		score += 0.15
	}
	if len(parsed.tags) > 0 {
		score += 0.1
	}
	score += 0.05 * successRatio
	if score > 1.0 {
		score = 1.0
	}
	return score
}
