// Package cachedecay implements the recency/frequency/age-weighted
// decay score shared by the embedding, reasoning, and note caches,
// plus an LRU-with-decay-tiebreak eviction overlay.
package cachedecay

import "time"

// Weights are the relative contributions of the three decay terms.
// They default to (0.4, 0.4, 0.2).
type Weights struct {
	Recency   float64
	Frequency float64
	Age       float64
}

// DefaultWeights is the default weighting for the three decay terms.
var DefaultWeights = Weights{Recency: 0.4, Frequency: 0.4, Age: 0.2}

// DefaultEvictionThreshold is the score below which an entry is
// eligible for eviction.
const DefaultEvictionThreshold = 0.1

// Score computes the composite decay score for an entry observed at
// now, given when it was cached, when it was last accessed, how many
// times it's been accessed, and its TTL. Higher scores survive longer.
//
//	recency_norm  = 1 / (1 + (now-last_access)/3600)
//	freq_norm     = min(1, access_count/10)
//	age_norm      = 1 / (1 + (now-cached_at)/ttl)
func Score(now, cachedAt, lastAccessAt time.Time, accessCount int, ttl time.Duration, w Weights) float64 {
	recencySecs := now.Sub(lastAccessAt).Seconds()
	recencyNorm := 1.0 / (1.0 + recencySecs/3600.0)

	freqNorm := float64(accessCount) / 10.0
	if freqNorm > 1.0 {
		freqNorm = 1.0
	}
	if freqNorm < 0 {
		freqNorm = 0
	}

	ttlSecs := ttl.Seconds()
	var ageNorm float64
	if ttlSecs <= 0 {
		ageNorm = 0
	} else {
		ageSecs := now.Sub(cachedAt).Seconds()
		ageNorm = 1.0 / (1.0 + ageSecs/ttlSecs)
	}

	return w.Recency*recencyNorm + w.Frequency*freqNorm + w.Age*ageNorm
}

// ShouldEvict reports whether score falls below threshold.
func ShouldEvict(score, threshold float64) bool {
	return score < threshold
}
