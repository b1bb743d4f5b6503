package models

import "time"

// CachedEntry is the generic shape shared by embedding, reasoning, and
// note caches: a value plus the bookkeeping the decay engine needs to
// score it for eviction.
type CachedEntry[V any] struct {
	Value          V
	CachedAt       time.Time
	LastAccessedAt time.Time
	AccessCount    int
}

// Touch records an access, bumping AccessCount and LastAccessedAt.
func (c *CachedEntry[V]) Touch(now time.Time) {
	c.AccessCount++
	c.LastAccessedAt = now
}
