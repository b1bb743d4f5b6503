package policy

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// ConflictDetector analyzes a policy set for conflicts and warnings.
// It carries no state: the detection logic here is pure set/slice
// arithmetic over the parsed policy fields. Every one of its detection
// methods operates on Policy values alone.
type ConflictDetector struct{}

// NewConflictDetector constructs a ConflictDetector.
func NewConflictDetector() *ConflictDetector {
	return &ConflictDetector{}
}

// Detect runs every conflict and warning check over policies.
func (d *ConflictDetector) Detect(policies []Policy) Result {
	slog.Info("starting conflict detection", "policy_count", len(policies))

	var conflicts []Conflict
	conflicts = append(conflicts, d.checkExplicitConflicts(policies)...)
	conflicts = append(conflicts, d.checkImplicitConflicts(policies)...)
	conflicts = append(conflicts, d.checkShadowing(policies)...)
	conflicts = append(conflicts, d.checkRedundancies(policies)...)

	warnings := d.generateWarnings(policies)

	summary := Summary{TotalPolicies: len(policies), Warnings: len(warnings)}
	for _, c := range conflicts {
		switch c.Type {
		case ConflictExplicit:
			summary.ExplicitConflicts++
		case ConflictImplicit:
			summary.ImplicitConflicts++
		case ConflictShadowing:
			summary.ShadowingIssues++
		case ConflictRedundant:
			summary.Redundancies++
		}
	}

	valid := len(conflicts) == 0
	if valid {
		slog.Info("no conflicts detected in policy set")
	} else {
		slog.Warn("detected conflicts",
			"total", len(conflicts),
			"explicit", summary.ExplicitConflicts,
			"implicit", summary.ImplicitConflicts,
			"shadowing", summary.ShadowingIssues,
			"redundant", summary.Redundancies,
		)
	}

	return Result{Valid: valid, Conflicts: conflicts, Warnings: warnings, Summary: summary}
}

type actionResourceKey struct {
	action, resource string
}

// checkExplicitConflicts groups policies by (action, resource) and
// flags permit/forbid pairs whose conditions overlap.
func (d *ConflictDetector) checkExplicitConflicts(policies []Policy) []Conflict {
	groups := make(map[actionResourceKey][]*Policy)
	for i := range policies {
		p := &policies[i]
		for _, action := range p.Actions {
			for _, resource := range p.Resources {
				key := actionResourceKey{action, resource}
				groups[key] = append(groups[key], p)
			}
		}
	}

	var conflicts []Conflict
	for key, group := range groups {
		var permits, forbids []*Policy
		for _, p := range group {
			if p.Effect == EffectPermit {
				permits = append(permits, p)
			} else {
				forbids = append(forbids, p)
			}
		}
		for _, permit := range permits {
			for _, forbid := range forbids {
				if !conditionsOverlap(permit, forbid) {
					continue
				}
				conflicts = append(conflicts, Conflict{
					Type:      ConflictExplicit,
					PolicyAID: permit.ID,
					PolicyBID: forbid.ID,
					Action:    key.action,
					Resource:  key.resource,
					Description: fmt.Sprintf(
						"policy %q permits while %q forbids the same action/resource",
						permit.ID, forbid.ID,
					),
					Suggestion: fmt.Sprintf(
						"review conditions on both policies; if %q should take precedence, add an exclusion condition to %q",
						forbid.ID, permit.ID,
					),
				})
			}
		}
	}
	return conflicts
}

// checkImplicitConflicts flags policy pairs with different effects
// whose action/resource scopes overlap.
func (d *ConflictDetector) checkImplicitConflicts(policies []Policy) []Conflict {
	var conflicts []Conflict
	for i := range policies {
		a := &policies[i]
		for j := i + 1; j < len(policies); j++ {
			b := &policies[j]
			if a.Effect == b.Effect {
				continue
			}
			if !policiesOverlap(a, b) {
				continue
			}
			conflicts = append(conflicts, Conflict{
				Type:      ConflictImplicit,
				PolicyAID: a.ID,
				PolicyBID: b.ID,
				Action:    strings.Join(a.Actions, ", "),
				Resource:  strings.Join(a.Resources, ", "),
				Description: fmt.Sprintf(
					"policies %q and %q have overlapping action/resource scopes but different effects",
					a.ID, b.ID,
				),
				Suggestion: "review condition specificity; more specific conditions should come first",
			})
		}
	}
	return conflicts
}

// checkShadowing sorts by specificity (most specific first) and flags
// a more-specific policy that makes a less-specific, different-effect
// policy unreachable.
func (d *ConflictDetector) checkShadowing(policies []Policy) []Conflict {
	sorted := make([]*Policy, len(policies))
	for i := range policies {
		sorted[i] = &policies[i]
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Specificity > sorted[j].Specificity
	})

	var conflicts []Conflict
	for i, a := range sorted {
		for _, b := range sorted[i+1:] {
			if a.Effect == b.Effect {
				continue
			}
			if !policyShadows(a, b) {
				continue
			}
			conflicts = append(conflicts, Conflict{
				Type:      ConflictShadowing,
				PolicyAID: a.ID,
				PolicyBID: b.ID,
				Action:    strings.Join(b.Actions, ", "),
				Resource:  strings.Join(b.Resources, ", "),
				Description: fmt.Sprintf(
					"policy %q shadows %q: %q will never be evaluated",
					a.ID, b.ID, b.ID,
				),
				Suggestion: fmt.Sprintf("either remove %q or make it more specific", b.ID),
			})
		}
	}
	return conflicts
}

// checkRedundancies flags pairs of functionally-equivalent policies.
func (d *ConflictDetector) checkRedundancies(policies []Policy) []Conflict {
	var conflicts []Conflict
	for i := range policies {
		a := &policies[i]
		for j := i + 1; j < len(policies); j++ {
			b := &policies[j]
			if !policiesAreEquivalent(a, b) {
				continue
			}
			conflicts = append(conflicts, Conflict{
				Type:      ConflictRedundant,
				PolicyAID: a.ID,
				PolicyBID: b.ID,
				Action:    strings.Join(a.Actions, ", "),
				Resource:  strings.Join(a.Resources, ", "),
				Description: fmt.Sprintf(
					"policies %q and %q are functionally equivalent", a.ID, b.ID,
				),
				Suggestion: fmt.Sprintf("remove one of the policies or merge them into %q", a.ID),
			})
		}
	}
	return conflicts
}

// generateWarnings flags overly broad, overly narrow, or
// under-documented policies.
func (d *ConflictDetector) generateWarnings(policies []Policy) []Warning {
	var warnings []Warning
	for _, p := range policies {
		if containsWildcard(p.Actions) || containsWildcard(p.Resources) {
			warnings = append(warnings, Warning{
				Type:        WarningOverlyBroad,
				PolicyID:    p.ID,
				Description: "policy uses a wildcard for actions or resources",
			})
		}
		if len(p.Actions) == 1 && len(p.Resources) == 1 && len(p.Conditions) > 3 {
			warnings = append(warnings, Warning{
				Type:        WarningOverlyNarrow,
				PolicyID:    p.ID,
				Description: "policy has very narrow scope with many conditions",
			})
		}
		if len(p.Description) < 10 {
			warnings = append(warnings, Warning{
				Type:        WarningMissingDocumentation,
				PolicyID:    p.ID,
				Description: "policy has insufficient documentation",
			})
		}
	}
	return warnings
}

// conditionsOverlap decides whether two policies' conditions can be
// true at the same time. An unconditional policy (no conditions)
// applies in every case, so it overlaps with anything — including
// another unconditional policy.
func conditionsOverlap(a, b *Policy) bool {
	if len(a.Conditions) == 0 || len(b.Conditions) == 0 {
		return true
	}
	for _, ca := range a.Conditions {
		for _, cb := range b.Conditions {
			if ca.Attribute == cb.Attribute {
				return true
			}
		}
	}
	return false
}

// policiesOverlap reports whether a and b share at least one action
// and at least one resource.
func policiesOverlap(a, b *Policy) bool {
	return setsIntersect(a.Actions, b.Actions) && setsIntersect(a.Resources, b.Resources)
}

// policyShadows reports whether a (assumed more specific, sorted
// ahead of b) makes b unreachable.
func policyShadows(a, b *Policy) bool {
	return a.Specificity > b.Specificity && policiesOverlap(a, b) && a.Effect != b.Effect
}

// policiesAreEquivalent reports whether a and b have identical effect,
// actions, resources, and condition count.
func policiesAreEquivalent(a, b *Policy) bool {
	return a.Effect == b.Effect &&
		equalStringSlices(a.Actions, b.Actions) &&
		equalStringSlices(a.Resources, b.Resources) &&
		len(a.Conditions) == len(b.Conditions)
}

func setsIntersect(a, b []string) bool {
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		if _, ok := set[s]; ok {
			return true
		}
	}
	return false
}

func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func containsWildcard(values []string) bool {
	for _, v := range values {
		if v == "*" {
			return true
		}
	}
	return false
}
