package cachedecay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDecayOrderingByAccessCount(t *testing.T) {
	now := time.Now()
	cachedAt := now
	lastAccess := now
	ttl := time.Hour

	scoreA := Score(now, cachedAt, lastAccess, 10, ttl, DefaultWeights)
	scoreB := Score(now, cachedAt, lastAccess, 1, ttl, DefaultWeights)

	assert.Greater(t, scoreA, scoreB)
}

func TestEvictionAfterLongIdle(t *testing.T) {
	now := time.Now()
	cachedAt := now.Add(-60 * 24 * time.Hour)
	lastAccess := cachedAt
	ttl := time.Hour

	score := Score(now, cachedAt, lastAccess, 0, ttl, DefaultWeights)
	assert.Less(t, score, DefaultEvictionThreshold)
	assert.True(t, ShouldEvict(score, DefaultEvictionThreshold))
}

func TestFreshEntrySurvives(t *testing.T) {
	now := time.Now()
	score := Score(now, now, now, 5, time.Hour, DefaultWeights)
	assert.False(t, ShouldEvict(score, DefaultEvictionThreshold))
}
