// Package sync implements the Sync Bridge: reflects changes from a
// Git-backed knowledge repository into the layered memory store as
// content-addressed pointers, detects drift between the two, and
// reconciles it.
package sync

import (
	"context"

	"github.com/kikokikok/aeterna-sub003/pkg/models"
)

// Trigger identifies why a sync cycle fired.
type Trigger int

// Trigger reasons, in the order check_triggers evaluates them.
const (
	TriggerNone Trigger = iota
	TriggerCommitMismatch
	TriggerStaleness
	TriggerManual
)

func (t Trigger) String() string {
	switch t {
	case TriggerCommitMismatch:
		return "commit_mismatch"
	case TriggerStaleness:
		return "staleness"
	case TriggerManual:
		return "manual"
	default:
		return "none"
	}
}

// ConflictKind classifies a drift between the knowledge repository and
// the pointer mapping recorded in SyncState.
type ConflictKind string

// The three conflict kinds.
const (
	ConflictHashMismatch    ConflictKind = "hash_mismatch"
	ConflictMissingPointer  ConflictKind = "missing_pointer"
	ConflictOrphanedPointer ConflictKind = "orphaned_pointer"
)

// Conflict is a single detected drift, tagged by Kind with the fields
// relevant to its resolution populated.
type Conflict struct {
	Kind         ConflictKind
	KnowledgeID  string
	MemoryID     string
	ExpectedHash string
	ActualHash   string
}

// KnowledgeRepository is the Git-backed source of truth the bridge
// syncs from. Implementations live in pkg/collaborators/knowledge.
type KnowledgeRepository interface {
	HeadCommit(ctx context.Context) (string, error)
	AffectedSince(ctx context.Context, commit string) ([]AffectedItem, error)
	Get(ctx context.Context, layer models.KnowledgeLayer, path string) (*models.KnowledgeEntry, error)
	GetByPath(ctx context.Context, path string) (*models.KnowledgeEntry, error)
	List(ctx context.Context, layer models.KnowledgeLayer) ([]models.KnowledgeEntry, error)
}

// AffectedItem names one knowledge entry touched since a given commit.
type AffectedItem struct {
	Layer models.KnowledgeLayer
	Path  string
}

// MemoryStore is the layered memory store the bridge writes pointer
// entries into and deletes orphaned ones from.
type MemoryStore interface {
	AddToLayer(ctx context.Context, layer models.MemoryLayer, entry models.MemoryEntry) error
	GetFromLayer(ctx context.Context, layer models.MemoryLayer, id string) (*models.MemoryEntry, error)
	DeleteFromLayer(ctx context.Context, layer models.MemoryLayer, id string) error
}

// StatePersister loads and atomically saves a tenant's SyncState: all
// mappings and stats are updated together or not at all.
type StatePersister interface {
	Load(ctx context.Context, tenantID string) (models.SyncState, error)
	Save(ctx context.Context, tenantID string, state models.SyncState) error
}
