package models

import "time"

// SyncFailure records a per-item failure accumulated during a sync
// cycle; the cycle itself does not abort on these.
type SyncFailure struct {
	ID         string
	Error      string
	RetryCount int
	FailedAt   time.Time
}

// SyncStats accumulates cycle-level counters for observability.
type SyncStats struct {
	TotalSyncs        uint64
	TotalConflicts    uint64
	TotalItemsSynced  uint64
	AvgSyncDurationMs uint64
}

// SyncState is the durable cursor the Sync Bridge persists atomically
// at the end of each cycle.
type SyncState struct {
	LastSyncAt          *time.Time
	LastKnowledgeCommit  string
	KnowledgeHashes      map[string]string // knowledge_id -> content hash
	PointerMapping       map[string]string // memory_id -> knowledge_id
	FailedItems          []SyncFailure
	Stats                SyncStats
}

// NewSyncState returns an empty SyncState with initialized maps.
func NewSyncState() SyncState {
	return SyncState{
		KnowledgeHashes: make(map[string]string),
		PointerMapping:  make(map[string]string),
	}
}
