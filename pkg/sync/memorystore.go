package sync

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kikokikok/aeterna-sub003/pkg/apperr"
	"github.com/kikokikok/aeterna-sub003/pkg/database"
	"github.com/kikokikok/aeterna-sub003/pkg/models"
)

// MemoryStorage is the Postgres-backed MemoryStore the bridge reflects
// knowledge-pointer entries into, one row per entry in memory_entries,
// grounded on pkg/budget.Storage's upsert/get/delete shape over its own
// tenant-scoped table.
type MemoryStorage struct {
	client *database.Client
}

// NewMemoryStorage wraps a database.Client.
func NewMemoryStorage(client *database.Client) *MemoryStorage {
	return &MemoryStorage{client: client}
}

// AddToLayer inserts or replaces an entry within a tenant's layer.
func (s *MemoryStorage) AddToLayer(ctx context.Context, layer models.MemoryLayer, entry models.MemoryEntry) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return apperr.Wrap(apperr.KindSerialization, "marshal memory entry metadata", err)
	}

	id := entry.ID
	if id == "" {
		id = uuid.NewString()
	}

	tenantID, _ := entry.Metadata["tenant_id"].(string)

	_, err = s.client.Pool().Exec(ctx, `
		INSERT INTO memory_entries (id, tenant_id, layer, content, metadata, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			updated_at = now()
	`, id, tenantID, string(layer), entry.Content, metadata)
	if err != nil {
		return apperr.Wrap(apperr.KindStorage, "add memory entry", err)
	}
	return nil
}

// GetFromLayer retrieves a single entry by ID within a layer, or nil if
// it doesn't exist.
func (s *MemoryStorage) GetFromLayer(ctx context.Context, layer models.MemoryLayer, id string) (*models.MemoryEntry, error) {
	var entry models.MemoryEntry
	var metadataRaw []byte
	var createdAt, updatedAt time.Time
	entry.ID = id
	entry.Layer = layer

	err := s.client.Pool().QueryRow(ctx, `
		SELECT content, metadata, created_at, updated_at
		FROM memory_entries WHERE id = $1 AND layer = $2
	`, id, string(layer)).Scan(&entry.Content, &metadataRaw, &createdAt, &updatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, "get memory entry", err)
	}

	if len(metadataRaw) > 0 {
		if err := json.Unmarshal(metadataRaw, &entry.Metadata); err != nil {
			return nil, apperr.Wrap(apperr.KindSerialization, "unmarshal memory entry metadata", err)
		}
	}
	entry.CreatedAt = createdAt
	entry.UpdatedAt = updatedAt
	return &entry, nil
}

// DeleteFromLayer removes an entry by ID within a layer.
func (s *MemoryStorage) DeleteFromLayer(ctx context.Context, layer models.MemoryLayer, id string) error {
	_, err := s.client.Pool().Exec(ctx, `
		DELETE FROM memory_entries WHERE id = $1 AND layer = $2
	`, id, string(layer))
	if err != nil {
		return apperr.Wrap(apperr.KindStorage, "delete memory entry", err)
	}
	return nil
}
