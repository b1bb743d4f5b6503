package metaagent

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// QualityGateType identifies one of the pluggable gates evaluated
// before a loop result can be committed.
type QualityGateType string

// Quality gate types.
const (
	GateTests    QualityGateType = "tests"
	GateLinter   QualityGateType = "linter"
	GateCoverage QualityGateType = "coverage"
)

// QualityGateResult is the outcome of evaluating a single gate.
type QualityGateResult struct {
	GateType   QualityGateType
	Passed     bool
	Message    string
	DurationMs uint64
}

// PassGate builds a passing result.
func PassGate(gateType QualityGateType, message string, durationMs uint64) QualityGateResult {
	return QualityGateResult{GateType: gateType, Passed: true, Message: message, DurationMs: durationMs}
}

// FailGate builds a failing result.
func FailGate(gateType QualityGateType, message string, durationMs uint64) QualityGateResult {
	return QualityGateResult{GateType: gateType, Passed: false, Message: message, DurationMs: durationMs}
}

// LinterConfig names the external linter command to run.
type LinterConfig struct {
	Program string
	Args    []string
	Timeout time.Duration
}

// DefaultLinterConfig targets golangci-lint with warnings promoted to
// failures.
func DefaultLinterConfig() LinterConfig {
	return LinterConfig{Program: "golangci-lint", Args: []string{"run"}, Timeout: 2 * time.Minute}
}

// CoverageConfig names the external coverage command and the
// threshold its parsed percentage must clear.
type CoverageConfig struct {
	Program          string
	Args             []string
	ThresholdPercent float64
	Timeout          time.Duration
}

// DefaultCoverageConfig targets `go test -cover` against an 80%
// coverage floor.
func DefaultCoverageConfig() CoverageConfig {
	return CoverageConfig{
		Program:          "go",
		Args:             []string{"test", "-cover", "./..."},
		ThresholdPercent: 80,
		Timeout:          5 * time.Minute,
	}
}

// QualityGateConfig selects which gates run beyond the mandatory
// Tests gate, and whether every configured gate must pass to commit.
type QualityGateConfig struct {
	Linter         *LinterConfig
	Coverage       *CoverageConfig
	RequireAllGates bool
}

// DefaultQualityGateConfig runs only the Tests gate and allows commit
// on tests passing alone.
func DefaultQualityGateConfig() QualityGateConfig {
	return QualityGateConfig{}
}

// WithLinter enables the Linter gate.
func (c QualityGateConfig) WithLinter(linter LinterConfig) QualityGateConfig {
	c.Linter = &linter
	return c
}

// WithCoverage enables the Coverage gate.
func (c QualityGateConfig) WithCoverage(coverage CoverageConfig) QualityGateConfig {
	c.Coverage = &coverage
	return c
}

// RequireAll makes can_commit require every configured gate to pass,
// not just Tests.
func (c QualityGateConfig) RequireAll() QualityGateConfig {
	c.RequireAllGates = true
	return c
}

// QualityGateSummary is the result of evaluating every configured gate.
type QualityGateSummary struct {
	Gates            []QualityGateResult
	AllPassed        bool
	TotalDurationMs  uint64
}

// SummarizeGates builds a QualityGateSummary from individual results.
func SummarizeGates(gates []QualityGateResult) QualityGateSummary {
	allPassed := true
	var total uint64
	for _, g := range gates {
		if !g.Passed {
			allPassed = false
		}
		total += g.DurationMs
	}
	return QualityGateSummary{Gates: gates, AllPassed: allPassed, TotalDurationMs: total}
}

// TestsPassed reports whether the Tests gate passed.
func (s QualityGateSummary) TestsPassed() bool {
	for _, g := range s.Gates {
		if g.GateType == GateTests {
			return g.Passed
		}
	}
	return false
}

// LinterPassed reports the Linter gate's result, if it ran.
func (s QualityGateSummary) LinterPassed() *bool {
	return gateResultFor(s.Gates, GateLinter)
}

// CoveragePassed reports the Coverage gate's result, if it ran.
func (s QualityGateSummary) CoveragePassed() *bool {
	return gateResultFor(s.Gates, GateCoverage)
}

func gateResultFor(gates []QualityGateResult, gateType QualityGateType) *bool {
	for _, g := range gates {
		if g.GateType == gateType {
			passed := g.Passed
			return &passed
		}
	}
	return nil
}

// FailedGates returns every gate result that did not pass.
func (s QualityGateSummary) FailedGates() []QualityGateResult {
	var failed []QualityGateResult
	for _, g := range s.Gates {
		if !g.Passed {
			failed = append(failed, g)
		}
	}
	return failed
}

// FormatSummary renders a human-readable report of every gate.
func (s QualityGateSummary) FormatSummary() string {
	var b strings.Builder
	b.WriteString("Quality Gate Summary:\n")
	for _, g := range s.Gates {
		status := "PASS"
		if !g.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "  [%s] %s - %s (%dms)\n", status, g.GateType, g.Message, g.DurationMs)
	}
	overall := "PASSED"
	if !s.AllPassed {
		overall = "FAILED"
	}
	fmt.Fprintf(&b, "  Overall: %s (total: %dms)", overall, s.TotalDurationMs)
	return b.String()
}

// QualityGateEvaluator runs the configured gates and decides whether
// the result can be committed.
type QualityGateEvaluator struct {
	config QualityGateConfig
}

// NewQualityGateEvaluator wraps a QualityGateConfig.
func NewQualityGateEvaluator(config QualityGateConfig) *QualityGateEvaluator {
	return &QualityGateEvaluator{config: config}
}

// MarkTestsResult turns the test phase's pass/fail into a gate result.
func (e *QualityGateEvaluator) MarkTestsResult(testsPassed bool) QualityGateResult {
	if testsPassed {
		return PassGate(GateTests, "all tests passed", 0)
	}
	return FailGate(GateTests, "tests failed", 0)
}

// RunLinter executes the configured linter, if any, with a timeout.
func (e *QualityGateEvaluator) RunLinter(ctx context.Context) *QualityGateResult {
	if e.config.Linter == nil {
		return nil
	}
	cfg := e.config.Linter

	start := time.Now()
	runCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, cfg.Program, cfg.Args...)
	output, err := cmd.CombinedOutput()
	durationMs := uint64(time.Since(start).Milliseconds())

	if runCtx.Err() == context.DeadlineExceeded {
		result := FailGate(GateLinter, "linter timed out", durationMs)
		return &result
	}
	if err != nil {
		message := truncate(string(output), 200)
		result := FailGate(GateLinter, fmt.Sprintf("linter failed: %s", message), durationMs)
		return &result
	}
	result := PassGate(GateLinter, "linter passed with no warnings", durationMs)
	return &result
}

// RunCoverage executes the configured coverage command, if any, and
// compares the parsed percentage against the threshold.
func (e *QualityGateEvaluator) RunCoverage(ctx context.Context) *QualityGateResult {
	if e.config.Coverage == nil {
		return nil
	}
	cfg := e.config.Coverage

	start := time.Now()
	runCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, cfg.Program, cfg.Args...)
	output, err := cmd.CombinedOutput()
	durationMs := uint64(time.Since(start).Milliseconds())

	if runCtx.Err() == context.DeadlineExceeded {
		result := FailGate(GateCoverage, "coverage check timed out", durationMs)
		return &result
	}

	pct, found := parseCoveragePercent(string(output))
	switch {
	case found && pct >= cfg.ThresholdPercent:
		result := PassGate(GateCoverage, fmt.Sprintf("coverage %.1f%% >= %.1f%% threshold", pct, cfg.ThresholdPercent), durationMs)
		return &result
	case found:
		result := FailGate(GateCoverage, fmt.Sprintf("coverage %.1f%% < %.1f%% threshold", pct, cfg.ThresholdPercent), durationMs)
		return &result
	case err == nil:
		result := PassGate(GateCoverage, "coverage check passed (no percentage parsed)", durationMs)
		return &result
	default:
		result := FailGate(GateCoverage, "coverage check failed", durationMs)
		return &result
	}
}

// parseCoveragePercent scans the lines of command output that mention
// "coverage" (case-insensitive), such as `go test -cover`'s
// "coverage: 85.5% of statements", and returns the first field on such a
// line that parses as a number once a trailing "%" or "," is removed.
// Lines without the word "coverage" are not searched.
func parseCoveragePercent(output string) (float64, bool) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if !strings.Contains(strings.ToLower(line), "coverage") {
			continue
		}
		for _, field := range strings.Fields(line) {
			clean := strings.TrimSuffix(strings.TrimSuffix(field, "%"), ",")
			if pct, err := strconv.ParseFloat(clean, 64); err == nil {
				return pct, true
			}
		}
	}
	return 0, false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// EvaluateAll runs every configured gate (Tests always runs, Linter
// and Coverage only if configured) and summarizes the result.
func (e *QualityGateEvaluator) EvaluateAll(ctx context.Context, testsPassed bool) QualityGateSummary {
	results := []QualityGateResult{e.MarkTestsResult(testsPassed)}

	if linter := e.RunLinter(ctx); linter != nil {
		results = append(results, *linter)
	}
	if coverage := e.RunCoverage(ctx); coverage != nil {
		results = append(results, *coverage)
	}

	return SummarizeGates(results)
}

// CanCommit applies can_commit = tests_passed && (require_all_gates ?
// all_passed : true).
func (e *QualityGateEvaluator) CanCommit(summary QualityGateSummary) bool {
	if e.config.RequireAllGates {
		return summary.AllPassed
	}
	return summary.TestsPassed()
}
