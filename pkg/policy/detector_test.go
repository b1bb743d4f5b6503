package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplicitConflictDetection(t *testing.T) {
	policies := []Policy{
		{ID: "policy-1", Effect: EffectPermit, Actions: []string{"read"}, Resources: []string{"document"}, Description: "Allow read"},
		{ID: "policy-2", Effect: EffectForbid, Actions: []string{"read"}, Resources: []string{"document"}, Description: "Deny read"},
	}

	result := NewConflictDetector().Detect(policies)

	require.False(t, result.Valid)
	// The same pair is also an implicit conflict (opposite effects over
	// the same scope), reported after the explicit one.
	require.Len(t, result.Conflicts, 2)
	assert.Equal(t, ConflictExplicit, result.Conflicts[0].Type)
	assert.Equal(t, 1, result.Summary.ExplicitConflicts)
}

func TestRedundancyDetection(t *testing.T) {
	policies := []Policy{
		{ID: "policy-1", Effect: EffectPermit, Actions: []string{"read"}, Resources: []string{"document"}, Description: "Allow read"},
		{ID: "policy-2", Effect: EffectPermit, Actions: []string{"read"}, Resources: []string{"document"}, Description: "Also allow read"},
	}

	result := NewConflictDetector().Detect(policies)

	require.False(t, result.Valid)
	found := false
	for _, c := range result.Conflicts {
		if c.Type == ConflictRedundant {
			found = true
		}
	}
	assert.True(t, found)
}

func TestImplicitConflictOnScopeOverlapAndDifferentEffect(t *testing.T) {
	policies := []Policy{
		{
			ID: "policy-1", Effect: EffectPermit, Actions: []string{"read"}, Resources: []string{"document"},
			Conditions: []Condition{{Attribute: "region", Operator: "eq", Value: "us"}}, Description: "Allow read in US",
		},
		{
			ID: "policy-2", Effect: EffectForbid, Actions: []string{"read"}, Resources: []string{"document"},
			Conditions: []Condition{{Attribute: "region", Operator: "eq", Value: "eu"}}, Description: "Deny read in EU",
		},
	}

	result := NewConflictDetector().Detect(policies)
	require.False(t, result.Valid)

	var types []ConflictType
	for _, c := range result.Conflicts {
		types = append(types, c.Type)
	}
	assert.Contains(t, types, ConflictImplicit)
}

func TestNoConflictForSinglePolicy(t *testing.T) {
	policies := []Policy{
		{ID: "policy-1", Effect: EffectPermit, Actions: []string{"read"}, Resources: []string{"document"}, Description: "Allow read A"},
	}

	result := NewConflictDetector().Detect(policies)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Conflicts)
}

func TestShadowingDetection(t *testing.T) {
	policies := []Policy{
		{
			ID: "specific-forbid", Effect: EffectForbid, Actions: []string{"delete"}, Resources: []string{"document"},
			Specificity: 10, Description: "Forbid delete on documents",
		},
		{
			ID: "broad-permit", Effect: EffectPermit, Actions: []string{"delete"}, Resources: []string{"document"},
			Specificity: 1, Description: "Broadly permit delete",
		},
	}

	result := NewConflictDetector().Detect(policies)

	var shadowed bool
	for _, c := range result.Conflicts {
		if c.Type == ConflictShadowing && c.PolicyAID == "specific-forbid" && c.PolicyBID == "broad-permit" {
			shadowed = true
		}
	}
	assert.True(t, shadowed)
}

func TestWarningsForWildcardAndMissingDocs(t *testing.T) {
	policies := []Policy{
		{ID: "wildcard-policy", Effect: EffectPermit, Actions: []string{"*"}, Resources: []string{"document"}, Description: "Permits everything on documents"},
		{ID: "undocumented-policy", Effect: EffectPermit, Actions: []string{"read"}, Resources: []string{"document"}, Description: "short"},
	}

	result := NewConflictDetector().Detect(policies)

	var warningTypes []WarningType
	for _, w := range result.Warnings {
		warningTypes = append(warningTypes, w.Type)
	}
	assert.Contains(t, warningTypes, WarningOverlyBroad)
	assert.Contains(t, warningTypes, WarningMissingDocumentation)
}

func TestWarningForOverlyNarrowPolicy(t *testing.T) {
	policies := []Policy{
		{
			ID: "narrow-policy", Effect: EffectPermit, Actions: []string{"read"}, Resources: []string{"document"},
			Conditions: []Condition{
				{Attribute: "region", Operator: "eq", Value: "us"},
				{Attribute: "role", Operator: "eq", Value: "admin"},
				{Attribute: "time", Operator: "lt", Value: "2026-01-01"},
				{Attribute: "device", Operator: "eq", Value: "managed"},
			},
			Description: "Very narrowly scoped read policy",
		},
	}

	result := NewConflictDetector().Detect(policies)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, WarningOverlyNarrow, result.Warnings[0].Type)
}
