package metaagent

import "time"

// TimeBudgetConfig bounds how long a Loop run may take overall, plus
// the percentage (0-100) of that budget that triggers a warning.
type TimeBudgetConfig struct {
	TotalDuration  time.Duration
	WarningPercent float64
}

// DefaultTimeBudgetConfig is a 30-minute budget with a warning at 80%
// elapsed.
func DefaultTimeBudgetConfig() TimeBudgetConfig {
	return TimeBudgetConfig{TotalDuration: 30 * time.Minute, WarningPercent: 80}
}

// WithDuration returns a copy of the config with TotalDuration set.
func (c TimeBudgetConfig) WithDuration(d time.Duration) TimeBudgetConfig {
	c.TotalDuration = d
	return c
}

// TimeBudgetCheck is a point-in-time read of the budget's state.
type TimeBudgetCheck struct {
	Elapsed   time.Duration
	Remaining time.Duration
}

// IsWarning reports whether elapsed time has crossed the warning
// threshold.
func (c TimeBudgetCheck) IsWarning(config TimeBudgetConfig) bool {
	if config.TotalDuration <= 0 {
		return false
	}
	pctElapsed := float64(c.Elapsed) / float64(config.TotalDuration) * 100
	return pctElapsed >= config.WarningPercent
}

// IsExhausted reports whether no time remains.
func (c TimeBudgetCheck) IsExhausted() bool {
	return c.Remaining <= 0
}

// TimeBudget tracks elapsed wall-clock time against a TimeBudgetConfig
// from the moment it starts.
type TimeBudget struct {
	config TimeBudgetConfig
	start  time.Time
}

// StartTimeBudget begins a new budget clock.
func StartTimeBudget(config TimeBudgetConfig) *TimeBudget {
	return &TimeBudget{config: config, start: time.Now()}
}

// Check reports the budget's current elapsed/remaining time.
func (b *TimeBudget) Check() TimeBudgetCheck {
	elapsed := time.Since(b.start)
	remaining := b.config.TotalDuration - elapsed
	if remaining < 0 {
		remaining = 0
	}
	return TimeBudgetCheck{Elapsed: elapsed, Remaining: remaining}
}

// Remaining is a convenience accessor for Check().Remaining.
func (b *TimeBudget) Remaining() time.Duration {
	return b.Check().Remaining
}

// TimeBudgetExhaustedResult is returned when the loop's time budget
// runs out, recording progress made up to that point.
type TimeBudgetExhaustedResult struct {
	Elapsed             time.Duration
	IterationsCompleted uint32
	PartialResults      string
}

// NewTimeBudgetExhaustedResult builds the exhaustion result.
func NewTimeBudgetExhaustedResult(elapsed time.Duration, iterations uint32) TimeBudgetExhaustedResult {
	return TimeBudgetExhaustedResult{Elapsed: elapsed, IterationsCompleted: iterations}
}

// WithPartialResults attaches a note about what was salvaged before
// exhaustion.
func (r TimeBudgetExhaustedResult) WithPartialResults(note string) TimeBudgetExhaustedResult {
	r.PartialResults = note
	return r
}
