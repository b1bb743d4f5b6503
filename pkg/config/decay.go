package config

import "github.com/kikokikok/aeterna-sub003/pkg/cachedecay"

// DecayConfig configures the cache decay engine's weighting, mirroring
// pkg/cachedecay.Weights field for field.
type DecayConfig struct {
	RecencyWeight     float64 `yaml:"recency_weight,omitempty" validate:"omitempty,gt=0,lt=1"`
	FrequencyWeight   float64 `yaml:"frequency_weight,omitempty" validate:"omitempty,gt=0,lt=1"`
	AgeWeight         float64 `yaml:"age_weight,omitempty" validate:"omitempty,gt=0,lt=1"`
	EvictionThreshold float64 `yaml:"eviction_threshold,omitempty" validate:"omitempty,gt=0,lt=1"`
}

// ToWeights resolves a DecayConfig into pkg/cachedecay.Weights,
// falling back to the package's own DefaultWeights for any zero field.
func (d *DecayConfig) ToWeights() cachedecay.Weights {
	if d == nil {
		return cachedecay.DefaultWeights
	}
	w := cachedecay.DefaultWeights
	if d.RecencyWeight > 0 {
		w.Recency = d.RecencyWeight
	}
	if d.FrequencyWeight > 0 {
		w.Frequency = d.FrequencyWeight
	}
	if d.AgeWeight > 0 {
		w.Age = d.AgeWeight
	}
	return w
}

// ResolveEvictionThreshold returns the configured threshold, or
// pkg/cachedecay.DefaultEvictionThreshold if unset.
func (d *DecayConfig) ResolveEvictionThreshold() float64 {
	if d == nil || d.EvictionThreshold <= 0 {
		return cachedecay.DefaultEvictionThreshold
	}
	return d.EvictionThreshold
}
