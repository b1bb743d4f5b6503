package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokensFloorsAtOne(t *testing.T) {
	assert.Equal(t, 1, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("ab"))
}

func TestEstimateTokensDividesByFour(t *testing.T) {
	content := strings.Repeat("a", 40)
	assert.Equal(t, 10, EstimateTokens(content))
}
