package config

import "time"

// SyncConfig configures the memory-knowledge sync bridge: the
// staleness threshold that forces a cycle even without a commit
// change.
type SyncConfig struct {
	StalenessThresholdMinutes int `yaml:"staleness_threshold_minutes,omitempty" validate:"omitempty,min=1"`
}

// ResolveStalenessThreshold returns the configured threshold, or the
// pkg/sync package default (60 minutes) if unset.
func (s *SyncConfig) ResolveStalenessThreshold() time.Duration {
	if s == nil || s.StalenessThresholdMinutes <= 0 {
		return 60 * time.Minute
	}
	return time.Duration(s.StalenessThresholdMinutes) * time.Minute
}
