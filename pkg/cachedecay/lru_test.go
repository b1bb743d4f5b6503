package cachedecay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachePutGet(t *testing.T) {
	c := New[string, int](10, time.Hour)
	c.Put("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestCacheEvictsAtCapacity(t *testing.T) {
	c := New[string, int](2, time.Hour)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	assert.Equal(t, 2, c.Len())
	_, aOk := c.Get("a")
	_, bOk := c.Get("b")
	_, cOk := c.Get("c")
	// "a" was least-recently-touched before "c" was inserted, so it's
	// the one evicted (equal decay scores at insertion time tie-break
	// to the oldest access order).
	assert.False(t, aOk)
	assert.True(t, bOk)
	assert.True(t, cOk)
}

func TestCacheGetRefreshesAccessOrder(t *testing.T) {
	c := New[string, int](2, time.Hour)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a") // "a" is now the most recently accessed
	c.Put("c", 3)

	_, aOk := c.Get("a")
	_, bOk := c.Get("b")
	assert.True(t, aOk)
	assert.False(t, bOk)
}

func TestEvictExpiredRemovesStaleEntries(t *testing.T) {
	c := New[string, int](10, time.Hour)
	fixed := time.Now()
	c.now = func() time.Time { return fixed }
	c.Put("fresh", 1)

	c.now = func() time.Time { return fixed.Add(60 * 24 * time.Hour) }
	evicted := c.EvictExpired()
	assert.Contains(t, evicted, "fresh")
	assert.Equal(t, 0, c.Len())
}
