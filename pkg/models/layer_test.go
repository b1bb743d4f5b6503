package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrecedenceOrdering(t *testing.T) {
	assert.Less(t, LayerAgent.Precedence(), LayerUser.Precedence())
	assert.Less(t, LayerUser.Precedence(), LayerSession.Precedence())
	assert.Less(t, LayerSession.Precedence(), LayerProject.Precedence())
	assert.Less(t, LayerProject.Precedence(), LayerTeam.Precedence())
	assert.Less(t, LayerTeam.Precedence(), LayerOrg.Precedence())
	assert.Less(t, LayerOrg.Precedence(), LayerCompany.Precedence())
}

func TestIsExpensiveTier(t *testing.T) {
	for _, l := range []MemoryLayer{LayerAgent, LayerUser, LayerSession} {
		assert.True(t, l.IsExpensiveTier(), l)
	}
	for _, l := range []MemoryLayer{LayerProject, LayerTeam, LayerOrg, LayerCompany} {
		assert.False(t, l.IsExpensiveTier(), l)
	}
}

func TestDefaultLayerOrderIsBroadToSpecific(t *testing.T) {
	assert.Equal(t, LayerCompany, DefaultLayerOrder[0])
	assert.Equal(t, LayerAgent, DefaultLayerOrder[len(DefaultLayerOrder)-1])
}
