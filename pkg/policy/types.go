// Package policy implements static conflict analysis over a set of
// Cedar-style authorization policies: explicit permit/forbid clashes,
// implicit overlapping-condition conflicts, shadowing, redundancy, and
// scope warnings. Grounded on tools/src/policy_conflict_detector.rs.
package policy

// Effect is a policy's authorization outcome.
type Effect string

// Effects.
const (
	EffectPermit Effect = "permit"
	EffectForbid Effect = "forbid"
)

// Condition is one clause restricting when a policy applies.
type Condition struct {
	Attribute string
	Operator  string
	Value     string
}

// Policy is the parsed representation a ConflictDetector analyzes.
// Specificity ranks policies for shadowing analysis: higher is more
// specific.
type Policy struct {
	ID          string
	Effect      Effect
	Actions     []string
	Resources   []string
	Conditions  []Condition
	Specificity uint32
	Description string
}

// ConflictType classifies how two (or one) policies conflict.
type ConflictType string

// Conflict types.
const (
	ConflictExplicit  ConflictType = "explicit_conflict"
	ConflictImplicit  ConflictType = "implicit_conflict"
	ConflictShadowing ConflictType = "shadowing"
	ConflictRedundant ConflictType = "redundancy"
)

// Conflict describes one detected conflict between policies (or, for
// Redundancy, a near-duplicate pair).
type Conflict struct {
	Type        ConflictType
	PolicyAID   string
	PolicyBID   string // empty when the conflict involves only PolicyA
	Action      string
	Resource    string
	Description string
	Suggestion  string
}

// WarningType classifies a non-fatal scope observation about a policy.
type WarningType string

// Warning types.
const (
	WarningOverlyBroad          WarningType = "overly_broad"
	WarningOverlyNarrow         WarningType = "overly_narrow"
	WarningMissingDocumentation WarningType = "missing_documentation"
)

// Warning is a non-fatal observation about a single policy's scope or
// documentation.
type Warning struct {
	Type        WarningType
	PolicyID    string
	Description string
}

// Summary tallies the conflicts and warnings found across a policy set.
type Summary struct {
	TotalPolicies     int
	ExplicitConflicts int
	ImplicitConflicts int
	ShadowingIssues   int
	Redundancies      int
	Warnings          int
}

// Result is the outcome of running ConflictDetector.Detect.
type Result struct {
	Valid     bool
	Conflicts []Conflict
	Warnings  []Warning
	Summary   Summary
}
