package sync

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kikokikok/aeterna-sub003/pkg/models"
)

// Config controls cycle behavior.
type Config struct {
	// StalenessThreshold is how long since the last successful sync
	// before a cycle is triggered even without a commit change.
	StalenessThreshold time.Duration
}

// DefaultConfig defaults the staleness threshold to 60 minutes.
func DefaultConfig() Config {
	return Config{StalenessThreshold: 60 * time.Minute}
}

// Bridge reflects a Git-backed knowledge repository into the layered
// memory store as content-addressed pointers, detecting and resolving
// drift on each cycle.
type Bridge struct {
	tenantID  string
	knowledge KnowledgeRepository
	memory    MemoryStore
	persister StatePersister
	config    Config

	mu    sync.RWMutex
	state models.SyncState
}

// New loads the tenant's persisted SyncState and returns a ready
// Bridge.
func New(ctx context.Context, tenantID string, knowledge KnowledgeRepository, memory MemoryStore, persister StatePersister, config Config) (*Bridge, error) {
	state, err := persister.Load(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return &Bridge{
		tenantID:  tenantID,
		knowledge: knowledge,
		memory:    memory,
		persister: persister,
		config:    config,
		state:     state,
	}, nil
}

// State returns a snapshot of the current sync state.
func (b *Bridge) State() models.SyncState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// CheckTriggers evaluates the three trigger conditions in order:
// commit mismatch, manual (no prior sync at all), then staleness.
func (b *Bridge) CheckTriggers(ctx context.Context) (Trigger, error) {
	b.mu.RLock()
	lastCommit := b.state.LastKnowledgeCommit
	lastSyncAt := b.state.LastSyncAt
	b.mu.RUnlock()

	head, err := b.knowledge.HeadCommit(ctx)
	if err != nil {
		return TriggerNone, err
	}
	if head != "" && head != lastCommit {
		return TriggerCommitMismatch, nil
	}

	if lastSyncAt == nil {
		return TriggerManual, nil
	}
	if time.Since(*lastSyncAt) >= b.config.StalenessThreshold {
		return TriggerStaleness, nil
	}

	return TriggerNone, nil
}

// RunCycle checks triggers and, if one fires, runs an incremental sync
// followed by conflict detection and resolution.
func (b *Bridge) RunCycle(ctx context.Context) error {
	trigger, err := b.CheckTriggers(ctx)
	if err != nil {
		return err
	}
	if trigger == TriggerNone {
		return nil
	}

	if err := b.SyncIncremental(ctx); err != nil {
		return err
	}

	conflicts, err := b.DetectConflicts(ctx)
	if err != nil {
		return err
	}
	if len(conflicts) == 0 {
		return nil
	}

	b.mu.Lock()
	b.state.Stats.TotalConflicts += uint64(len(conflicts))
	b.mu.Unlock()

	return b.ResolveConflicts(ctx, conflicts)
}

// SyncIncremental enumerates items affected since LastKnowledgeCommit
// and re-syncs or deletes each; falls back to SyncAll when no prior
// commit is recorded.
func (b *Bridge) SyncIncremental(ctx context.Context) error {
	start := time.Now()

	b.mu.RLock()
	lastCommit := b.state.LastKnowledgeCommit
	b.mu.RUnlock()

	if lastCommit == "" {
		return b.SyncAll(ctx)
	}

	head, err := b.knowledge.HeadCommit(ctx)
	if err != nil {
		return err
	}
	if head != "" && head == lastCommit {
		return nil
	}

	affected, err := b.knowledge.AffectedSince(ctx, lastCommit)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var failures []models.SyncFailure
	for _, item := range affected {
		entry, err := b.knowledge.Get(ctx, item.Layer, item.Path)
		if err != nil {
			failures = append(failures, models.SyncFailure{
				ID: item.Path, Error: err.Error(), FailedAt: time.Now(),
			})
			continue
		}
		if entry == nil {
			if memoryID, ok := b.findMemoryIDByKnowledgeIDLocked(item.Path); ok {
				layer := item.Layer.AsMemoryLayer()
				if err := b.memory.DeleteFromLayer(ctx, layer, memoryID); err != nil {
					failures = append(failures, models.SyncFailure{
						ID: item.Path, Error: err.Error(), FailedAt: time.Now(),
					})
					continue
				}
				delete(b.state.KnowledgeHashes, item.Path)
				delete(b.state.PointerMapping, memoryID)
			}
			continue
		}

		if err := b.syncEntryLocked(ctx, entry); err != nil {
			failures = append(failures, models.SyncFailure{
				ID: entry.Path, Error: err.Error(), FailedAt: time.Now(),
			})
		}
	}

	now := time.Now()
	b.state.LastSyncAt = &now
	b.state.LastKnowledgeCommit = head
	b.state.FailedItems = append(b.state.FailedItems, failures...)
	b.state.Stats.TotalSyncs++
	b.state.Stats.AvgSyncDurationMs = uint64(time.Since(start).Milliseconds())

	return b.persister.Save(ctx, b.tenantID, b.state)
}

// SyncAll performs a full re-scan of every knowledge layer, used when
// no prior commit cursor is recorded.
func (b *Bridge) SyncAll(ctx context.Context) error {
	start := time.Now()

	head, err := b.knowledge.HeadCommit(ctx)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var failures []models.SyncFailure
	for _, layer := range []models.KnowledgeLayer{
		models.KnowledgeLayerCompany,
		models.KnowledgeLayerOrg,
		models.KnowledgeLayerTeam,
		models.KnowledgeLayerProject,
	} {
		entries, err := b.knowledge.List(ctx, layer)
		if err != nil {
			failures = append(failures, models.SyncFailure{
				ID: fmt.Sprintf("layer:%s", layer), Error: err.Error(), FailedAt: time.Now(),
			})
			continue
		}
		for i := range entries {
			entry := &entries[i]
			if err := b.syncEntryLocked(ctx, entry); err != nil {
				failures = append(failures, models.SyncFailure{
					ID: entry.Path, Error: err.Error(), FailedAt: time.Now(),
				})
			}
		}
	}

	now := time.Now()
	b.state.LastSyncAt = &now
	b.state.LastKnowledgeCommit = head
	b.state.FailedItems = failures
	b.state.Stats.TotalSyncs++
	b.state.Stats.AvgSyncDurationMs = uint64(time.Since(start).Milliseconds())

	return b.persister.Save(ctx, b.tenantID, b.state)
}

// syncEntryLocked upserts a single knowledge entry as a memory pointer
// if its content hash changed since the last sync. Callers must hold
// b.mu for writing.
func (b *Bridge) syncEntryLocked(ctx context.Context, entry *models.KnowledgeEntry) error {
	hash := contentHash(entry.Content)
	knowledgeID := entry.Path

	if prev, ok := b.state.KnowledgeHashes[knowledgeID]; ok && prev == hash {
		return nil
	}

	memoryLayer := entry.Layer.AsMemoryLayer()
	pointer := models.KnowledgePointer{
		SourceType:  string(entry.Kind),
		SourceID:    knowledgeID,
		ContentHash: hash,
		SyncedAt:    time.Now(),
		SourceLayer: entry.Layer,
		IsOrphaned:  false,
	}

	memoryID := "ptr_" + knowledgeID
	memoryEntry := models.MemoryEntry{
		ID:        memoryID,
		Content:   generateSummary(entry),
		Layer:     memoryLayer,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	memoryEntry.SetPointer(pointer)

	if err := b.memory.AddToLayer(ctx, memoryLayer, memoryEntry); err != nil {
		return err
	}

	b.state.KnowledgeHashes[knowledgeID] = hash
	b.state.PointerMapping[memoryID] = knowledgeID
	b.state.Stats.TotalItemsSynced++

	return nil
}

func (b *Bridge) findMemoryIDByKnowledgeIDLocked(knowledgeID string) (string, bool) {
	for memoryID, kID := range b.state.PointerMapping {
		if kID == knowledgeID {
			return memoryID, true
		}
	}
	return "", false
}

// DetectConflicts compares every recorded pointer mapping against the
// current state of the knowledge repository and memory store,
// returning every drift found.
func (b *Bridge) DetectConflicts(ctx context.Context) ([]Conflict, error) {
	b.mu.RLock()
	mapping := make(map[string]string, len(b.state.PointerMapping))
	for k, v := range b.state.PointerMapping {
		mapping[k] = v
	}
	hashes := make(map[string]string, len(b.state.KnowledgeHashes))
	for k, v := range b.state.KnowledgeHashes {
		hashes[k] = v
	}
	b.mu.RUnlock()

	var conflicts []Conflict
	for memoryID, knowledgeID := range mapping {
		entry, err := b.knowledge.GetByPath(ctx, knowledgeID)
		if err != nil {
			continue
		}
		if entry == nil {
			conflicts = append(conflicts, Conflict{
				Kind: ConflictOrphanedPointer, MemoryID: memoryID, KnowledgeID: knowledgeID,
			})
			continue
		}

		actualHash := contentHash(entry.Content)
		if expected, ok := hashes[knowledgeID]; ok && expected != actualHash {
			conflicts = append(conflicts, Conflict{
				Kind: ConflictHashMismatch, KnowledgeID: knowledgeID, MemoryID: memoryID,
				ExpectedHash: expected, ActualHash: actualHash,
			})
		}

		memoryLayer := entry.Layer.AsMemoryLayer()
		memoryEntry, err := b.memory.GetFromLayer(ctx, memoryLayer, memoryID)
		if err != nil {
			continue
		}
		if memoryEntry == nil {
			conflicts = append(conflicts, Conflict{
				Kind: ConflictMissingPointer, KnowledgeID: knowledgeID, MemoryID: memoryID,
			})
			continue
		}
		if memoryEntry.Content != generateSummary(entry) {
			conflicts = append(conflicts, Conflict{
				Kind: ConflictHashMismatch, KnowledgeID: knowledgeID, MemoryID: memoryID,
				ExpectedHash: "summary_mismatch", ActualHash: "summary_mismatch",
			})
		}
	}

	return conflicts, nil
}

// ResolveConflicts applies the per-taxonomy resolution: HashMismatch
// and MissingPointer re-sync from the current knowledge entry;
// OrphanedPointer deletes the memory entry and unmaps it.
func (b *Bridge) ResolveConflicts(ctx context.Context, conflicts []Conflict) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, c := range conflicts {
		switch c.Kind {
		case ConflictHashMismatch, ConflictMissingPointer:
			delete(b.state.KnowledgeHashes, c.KnowledgeID)
			entry, err := b.knowledge.GetByPath(ctx, c.KnowledgeID)
			if err != nil {
				return err
			}
			if entry != nil {
				if err := b.syncEntryLocked(ctx, entry); err != nil {
					return err
				}
			}
		case ConflictOrphanedPointer:
			for _, layer := range models.DefaultLayerOrder {
				_ = b.memory.DeleteFromLayer(ctx, layer, c.MemoryID)
			}
			delete(b.state.KnowledgeHashes, c.KnowledgeID)
			delete(b.state.PointerMapping, c.MemoryID)
		}
	}

	return b.persister.Save(ctx, b.tenantID, b.state)
}

// generateSummary builds the memory entry's content: "[kind] path\n\nfirst_line".
func generateSummary(entry *models.KnowledgeEntry) string {
	firstLine := entry.Content
	if idx := strings.IndexByte(entry.Content, '\n'); idx >= 0 {
		firstLine = entry.Content[:idx]
	}
	return fmt.Sprintf("[%s] %s\n\n%s", entry.Kind, entry.Path, firstLine)
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
