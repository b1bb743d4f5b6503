package sync

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kikokikok/aeterna-sub003/pkg/apperr"
	"github.com/kikokikok/aeterna-sub003/pkg/database"
	"github.com/kikokikok/aeterna-sub003/pkg/models"
	"github.com/kikokikok/aeterna-sub003/pkg/retry"
)

// maxRetryAttempts bounds the exponential-backoff retry applied to
// Load and Save against transient connection failures.
const maxRetryAttempts = 3

// Storage is the Postgres-backed StatePersister: one row per tenant in
// sync_state, with mapping/hash data folded into the `stats` JSONB
// column alongside the counters, saved atomically.
type Storage struct {
	client *database.Client
}

// NewStorage wraps a database.Client.
func NewStorage(client *database.Client) *Storage {
	return &Storage{client: client}
}

// persistedState is the JSON shape stored in sync_state.stats; it
// carries everything SyncState needs beyond the two dedicated
// timestamp columns.
type persistedState struct {
	LastKnowledgeCommit string               `json:"last_knowledge_commit"`
	KnowledgeHashes     map[string]string    `json:"knowledge_hashes"`
	PointerMapping      map[string]string    `json:"pointer_mapping"`
	FailedItems         []models.SyncFailure `json:"failed_items"`
	Stats               models.SyncStats     `json:"stats"`
}

// Load returns the tenant's persisted SyncState, or a fresh empty one
// if none exists yet.
func (s *Storage) Load(ctx context.Context, tenantID string) (models.SyncState, error) {
	var lastSyncAt *time.Time
	var raw []byte

	err := retry.Do(ctx, maxRetryAttempts, func() error {
		err := s.client.Pool().QueryRow(ctx, `
			SELECT last_sync_at, stats FROM sync_state WHERE tenant_id = $1
		`, tenantID).Scan(&lastSyncAt, &raw)
		if err == pgx.ErrNoRows {
			return err
		}
		if err != nil {
			return database.WrapError("load sync state", err)
		}
		return nil
	})
	if err == pgx.ErrNoRows {
		return models.NewSyncState(), nil
	}
	if err != nil {
		return models.SyncState{}, err
	}

	var p persistedState
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return models.SyncState{}, apperr.Wrap(apperr.KindSerialization, "unmarshal sync state", err)
		}
	}

	state := models.NewSyncState()
	state.LastSyncAt = lastSyncAt
	state.LastKnowledgeCommit = p.LastKnowledgeCommit
	state.FailedItems = p.FailedItems
	state.Stats = p.Stats
	if p.KnowledgeHashes != nil {
		state.KnowledgeHashes = p.KnowledgeHashes
	}
	if p.PointerMapping != nil {
		state.PointerMapping = p.PointerMapping
	}
	return state, nil
}

// Save atomically upserts the tenant's SyncState in a single row
// write.
func (s *Storage) Save(ctx context.Context, tenantID string, state models.SyncState) error {
	p := persistedState{
		LastKnowledgeCommit: state.LastKnowledgeCommit,
		KnowledgeHashes:     state.KnowledgeHashes,
		PointerMapping:      state.PointerMapping,
		FailedItems:         state.FailedItems,
		Stats:               state.Stats,
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return apperr.Wrap(apperr.KindSerialization, "marshal sync state", err)
	}

	return retry.Do(ctx, maxRetryAttempts, func() error {
		_, err := s.client.Pool().Exec(ctx, `
			INSERT INTO sync_state (tenant_id, last_sync_at, stats)
			VALUES ($1, $2, $3)
			ON CONFLICT (tenant_id) DO UPDATE SET
				last_sync_at = EXCLUDED.last_sync_at,
				stats = EXCLUDED.stats
		`, tenantID, state.LastSyncAt, raw)
		if err != nil {
			return database.WrapError("save sync state", err)
		}
		return nil
	})
}
