package budget

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
// every persistence upsert/read below, covering transient connection
// failures without masking genuine storage errors.
const maxRetryAttempts = 3

// Storage persists per-tenant Budget configuration and windowed usage
// counters to Postgres, grounded on storage/tests/budget_storage_test.rs's
// BudgetStorage contract (upsert/get/delete budget; record/get/reset/
// cleanup usage, keyed by tenant + layer + window kind + window start).
type Storage struct {
	client *database.Client
}

// NewStorage wraps a database.Client.
func NewStorage(client *database.Client) *Storage {
	return &Storage{client: client}
}

// UpsertBudget inserts or replaces the budget configuration for a
// tenant, identified by TenantID.
func (s *Storage) UpsertBudget(ctx context.Context, b models.Budget) error {
	layerLimits, err := json.Marshal(b.PerLayerLimits)
	if err != nil {
		return apperr.Wrap(apperr.KindSerialization, "marshal per-layer limits", err)
	}

	return retry.Do(ctx, maxRetryAttempts, func() error {
		_, err := s.client.Pool().Exec(ctx, `
			INSERT INTO budget_windows_config (tenant_id, daily_limit, hourly_limit, per_layer_limits,
				warning_threshold_pct, critical_threshold_pct, exhausted_action, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, now())
			ON CONFLICT (tenant_id) DO UPDATE SET
				daily_limit = EXCLUDED.daily_limit,
				hourly_limit = EXCLUDED.hourly_limit,
				per_layer_limits = EXCLUDED.per_layer_limits,
				warning_threshold_pct = EXCLUDED.warning_threshold_pct,
				critical_threshold_pct = EXCLUDED.critical_threshold_pct,
				exhausted_action = EXCLUDED.exhausted_action,
				updated_at = now()
		`, b.TenantID, b.DailyLimit, b.HourlyLimit, layerLimits, b.WarningThresholdPct, b.CriticalThresholdPct, string(b.ExhaustedAction))
		if err != nil {
			return database.WrapError("upsert budget", err)
		}
		return nil
	})
}

// GetBudget retrieves a tenant's budget configuration, returning
// (nil, nil) if none exists.
func (s *Storage) GetBudget(ctx context.Context, tenantID string) (*models.Budget, error) {
	var b models.Budget
	var layerLimitsRaw []byte
	var exhaustedAction string
	b.TenantID = tenantID

	err := retry.Do(ctx, maxRetryAttempts, func() error {
		err := s.client.Pool().QueryRow(ctx, `
			SELECT daily_limit, hourly_limit, per_layer_limits, warning_threshold_pct,
				critical_threshold_pct, exhausted_action
			FROM budget_windows_config WHERE tenant_id = $1
		`, tenantID).Scan(&b.DailyLimit, &b.HourlyLimit, &layerLimitsRaw, &b.WarningThresholdPct, &b.CriticalThresholdPct, &exhaustedAction)
		if err == pgx.ErrNoRows {
			return err
		}
		if err != nil {
			return database.WrapError("get budget", err)
		}
		return nil
	})
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	b.ExhaustedAction = models.ExhaustedAction(exhaustedAction)
	if err := json.Unmarshal(layerLimitsRaw, &b.PerLayerLimits); err != nil {
		return nil, apperr.Wrap(apperr.KindSerialization, "unmarshal per-layer limits", err)
	}
	return &b, nil
}

// DeleteBudget removes a tenant's budget configuration, returning
// whether a row was actually deleted.
func (s *Storage) DeleteBudget(ctx context.Context, tenantID string) (bool, error) {
	var deleted bool
	err := retry.Do(ctx, maxRetryAttempts, func() error {
		tag, err := s.client.Pool().Exec(ctx, `DELETE FROM budget_windows_config WHERE tenant_id = $1`, tenantID)
		if err != nil {
			return database.WrapError("delete budget", err)
		}
		deleted = tag.RowsAffected() > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// RecordUsage accumulates tokens into the (tenant, layer, windowKind,
// windowStart) bucket, creating it if necessary.
func (s *Storage) RecordUsage(ctx context.Context, tenantID string, layer models.MemoryLayer, windowKind models.WindowKind, tokens uint64, windowStart time.Time) error {
	return retry.Do(ctx, maxRetryAttempts, func() error {
		_, err := s.client.Pool().Exec(ctx, `
			INSERT INTO budget_usage (tenant_id, layer, window_kind, window_start, tokens_used)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (tenant_id, layer, window_kind, window_start) DO UPDATE SET
				tokens_used = budget_usage.tokens_used + EXCLUDED.tokens_used
		`, tenantID, string(layer), string(windowKind), windowStart, int64(tokens))
		if err != nil {
			return database.WrapError("record usage", err)
		}
		return nil
	})
}

// GetUsage returns the accumulated tokens for a window, optionally
// scoped to a single layer (layer == nil sums across all layers).
func (s *Storage) GetUsage(ctx context.Context, tenantID string, layer *models.MemoryLayer, windowKind models.WindowKind, windowStart time.Time) (uint64, error) {
	var total int64
	err := retry.Do(ctx, maxRetryAttempts, func() error {
		var err error
		if layer != nil {
			err = s.client.Pool().QueryRow(ctx, `
				SELECT COALESCE(SUM(tokens_used), 0) FROM budget_usage
				WHERE tenant_id = $1 AND layer = $2 AND window_kind = $3 AND window_start = $4
			`, tenantID, string(*layer), string(windowKind), windowStart).Scan(&total)
		} else {
			err = s.client.Pool().QueryRow(ctx, `
				SELECT COALESCE(SUM(tokens_used), 0) FROM budget_usage
				WHERE tenant_id = $1 AND window_kind = $2 AND window_start = $3
			`, tenantID, string(windowKind), windowStart).Scan(&total)
		}
		if err != nil {
			return database.WrapError("get usage", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return uint64(total), nil
}

// LayerUsage is one layer's accumulated usage within a window.
type LayerUsage struct {
	Layer models.MemoryLayer
	Used  uint64
}

// GetAllLayerUsage returns every layer's usage within a window.
func (s *Storage) GetAllLayerUsage(ctx context.Context, tenantID string, windowKind models.WindowKind, windowStart time.Time) ([]LayerUsage, error) {
	var result []LayerUsage
	err := retry.Do(ctx, maxRetryAttempts, func() error {
		result = nil
		rows, err := s.client.Pool().Query(ctx, `
			SELECT layer, tokens_used FROM budget_usage
			WHERE tenant_id = $1 AND window_kind = $2 AND window_start = $3
		`, tenantID, string(windowKind), windowStart)
		if err != nil {
			return database.WrapError("get all layer usage", err)
		}
		defer rows.Close()

		for rows.Next() {
			var layer string
			var used int64
			if err := rows.Scan(&layer, &used); err != nil {
				return database.WrapError("scan layer usage", err)
			}
			result = append(result, LayerUsage{Layer: models.MemoryLayer(layer), Used: uint64(used)})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ResetUsage zeroes every usage row of the given window kind for a
// tenant, leaving other window kinds untouched.
func (s *Storage) ResetUsage(ctx context.Context, tenantID string, windowKind models.WindowKind) error {
	return retry.Do(ctx, maxRetryAttempts, func() error {
		_, err := s.client.Pool().Exec(ctx, `
			DELETE FROM budget_usage WHERE tenant_id = $1 AND window_kind = $2
		`, tenantID, string(windowKind))
		if err != nil {
			return database.WrapError("reset usage", err)
		}
		return nil
	})
}

// CleanupOldUsage deletes usage rows whose window_start is strictly
// before threshold, across all tenants, returning the row count
// removed.
func (s *Storage) CleanupOldUsage(ctx context.Context, threshold time.Time) (int64, error) {
	var removed int64
	err := retry.Do(ctx, maxRetryAttempts, func() error {
		tag, err := s.client.Pool().Exec(ctx, `DELETE FROM budget_usage WHERE window_start < $1`, threshold)
		if err != nil {
			return database.WrapError("cleanup old usage", err)
		}
		removed = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
