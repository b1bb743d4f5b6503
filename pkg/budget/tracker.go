// Package budget implements a sliding-window token budget tracker,
// tiered model routing, and exhaustion-handling policies.
package budget

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/kikokikok/aeterna-sub003/pkg/apperr"
	"github.com/kikokikok/aeterna-sub003/pkg/models"
)

// DefaultLayerLimits returns the default per-layer token ceilings
// (cheapest/most-restricted layer first).
func DefaultLayerLimits() map[models.MemoryLayer]uint64 {
	return map[models.MemoryLayer]uint64{
		models.LayerAgent:   10_000,
		models.LayerUser:    20_000,
		models.LayerSession: 50_000,
		models.LayerProject: 100_000,
		models.LayerTeam:    200_000,
		models.LayerOrg:     500_000,
		models.LayerCompany: 1_000_000,
	}
}

// DefaultBudget returns the budget configuration's zero-value
// defaults (1M daily / 100K hourly, 80/90 thresholds, per-layer caps).
func DefaultBudget() models.Budget {
	return models.Budget{
		DailyLimit:            1_000_000,
		HourlyLimit:           100_000,
		PerLayerLimits:        DefaultLayerLimits(),
		WarningThresholdPct:   80,
		CriticalThresholdPct:  90,
		ExhaustedAction:       models.ExhaustedActionReject,
	}
}

// Config configures a Tracker.
type Config struct {
	Budget         models.Budget
	ExhaustedAction models.ExhaustedAction
	EnableAlerts    bool
	QueueMaxSize    int
}

// DefaultConfig returns the tracker's default tuning.
func DefaultConfig() Config {
	return Config{
		Budget:          DefaultBudget(),
		ExhaustedAction: models.ExhaustedActionReject,
		EnableAlerts:    true,
		QueueMaxSize:    100,
	}
}

// QueuedRequest is a pending token request parked by Queue-mode
// exhaustion handling until capacity frees up.
type QueuedRequest struct {
	Tokens uint64
	Layer  models.MemoryLayer
}

// Metrics is a point-in-time snapshot of tracker state, used by
// observability callers.
type Metrics struct {
	DailyTokensUsed      uint64
	DailyTokensRemaining uint64
	HourlyTokensUsed     uint64
	HourlyTokensRemaining uint64
	PercentUsed          float64
	Status               models.BudgetStatus
	QueuedRequests       int
}

// Tracker is a single tenant's in-process sliding-window token budget.
// It accumulates usage per memory layer within the current hourly and
// daily windows (window rollover is the caller's responsibility — see
// pkg/budget.Storage for the persisted, window-keyed form).
type Tracker struct {
	mu     sync.Mutex
	config Config

	dailyUsed  uint64
	hourlyUsed uint64
	layerUsed  map[models.MemoryLayer]uint64

	queue []QueuedRequest
}

// New creates a Tracker with the given config.
func New(config Config) *Tracker {
	return &Tracker{
		config:    config,
		layerUsed: make(map[models.MemoryLayer]uint64),
	}
}

// RecordUsage accounts tokens already spent against the daily, hourly,
// and per-layer counters.
func (t *Tracker) RecordUsage(tokens uint64, layer models.MemoryLayer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dailyUsed += tokens
	t.hourlyUsed += tokens
	t.layerUsed[layer] += tokens
}

// Check reports the tracker's current status, optionally scoped to a
// single layer's usage.
func (t *Tracker) Check(layer *models.MemoryLayer) models.BudgetCheck {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.checkLocked(layer)
}

func (t *Tracker) checkLocked(layer *models.MemoryLayer) models.BudgetCheck {
	check := models.BudgetCheck{
		DailyUsed:  t.dailyUsed,
		HourlyUsed: t.hourlyUsed,
	}

	if layer != nil {
		used := t.layerUsed[*layer]
		check.LayerUsed = &used
	}

	check.TokensAvailable = t.tokensAvailableLocked(layer)

	dailyPct := percentUsed(t.dailyUsed, t.config.Budget.DailyLimit)
	hourlyPct := percentUsed(t.hourlyUsed, t.config.Budget.HourlyLimit)
	check.PercentUsed = dailyPct
	if hourlyPct > check.PercentUsed {
		check.PercentUsed = hourlyPct
	}
	check.Status = statusFor(check.PercentUsed, t.config.Budget.WarningThresholdPct, t.config.Budget.CriticalThresholdPct, check.TokensAvailable)

	return check
}

func percentUsed(used, limit uint64) float64 {
	if limit == 0 {
		return 0
	}
	return float64(used) / float64(limit) * 100.0
}

func statusFor(percentUsed, warningPct, criticalPct float64, tokensAvailable uint64) models.BudgetStatus {
	if tokensAvailable == 0 {
		return models.StatusExhausted
	}
	if percentUsed >= criticalPct {
		return models.StatusCritical
	}
	if percentUsed >= warningPct {
		return models.StatusWarning
	}
	return models.StatusAvailable
}

// tokensAvailableLocked is the minimum of the daily, hourly, and (if
// scoped) per-layer remaining allowances.
func (t *Tracker) tokensAvailableLocked(layer *models.MemoryLayer) uint64 {
	dailyRemaining := saturatingSub(t.config.Budget.DailyLimit, t.dailyUsed)
	hourlyRemaining := saturatingSub(t.config.Budget.HourlyLimit, t.hourlyUsed)

	available := dailyRemaining
	if hourlyRemaining < available {
		available = hourlyRemaining
	}

	if layer != nil {
		if layerLimit, ok := t.config.Budget.PerLayerLimits[*layer]; ok {
			layerRemaining := saturatingSub(layerLimit, t.layerUsed[*layer])
			if layerRemaining < available {
				available = layerRemaining
			}
		}
	}

	return available
}

func saturatingSub(a, b uint64) uint64 {
	if b >= a {
		return 0
	}
	return a - b
}

// TryConsume attempts to reserve tokens for layer against all active
// limits, applying the configured exhaustion policy when the request
// doesn't fit.
func (t *Tracker) TryConsume(tokens uint64, layer models.MemoryLayer) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	available := t.tokensAvailableLocked(&layer)
	if tokens <= available {
		t.dailyUsed += tokens
		t.hourlyUsed += tokens
		t.layerUsed[layer] += tokens
		return nil
	}

	switch t.config.ExhaustedAction {
	case models.ExhaustedActionAllowWithWarning:
		t.dailyUsed += tokens
		t.hourlyUsed += tokens
		t.layerUsed[layer] += tokens
		if t.config.EnableAlerts {
			slog.Warn("token budget exceeded, request allowed with warning",
				"tenant_id", t.config.Budget.TenantID, "layer", layer,
				"requested", tokens, "available", available)
		}
		return nil

	case models.ExhaustedActionQueue:
		if len(t.queue) >= t.config.QueueMaxSize {
			return &QueueFullError{MaxSize: t.config.QueueMaxSize}
		}
		t.queue = append(t.queue, QueuedRequest{Tokens: tokens, Layer: layer})
		return apperr.New(apperr.KindRateLimited, "request queued pending available budget")

	default: // ExhaustedActionReject
		return &RequestTooLargeError{Requested: tokens, Available: available}
	}
}

// QueuedCount reports how many requests are currently parked in the
// queue (Queue exhaustion mode only).
func (t *Tracker) QueuedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.queue)
}

// DrainQueue pops queued requests, front to back, while their combined
// token cost fits within newlyAvailable, recording their usage as it
// goes and returning the drained requests.
func (t *Tracker) DrainQueue(newlyAvailable uint64) []QueuedRequest {
	t.mu.Lock()
	defer t.mu.Unlock()

	var drained []QueuedRequest
	remaining := newlyAvailable
	i := 0
	for ; i < len(t.queue); i++ {
		req := t.queue[i]
		if req.Tokens > remaining {
			break
		}
		remaining -= req.Tokens
		t.dailyUsed += req.Tokens
		t.hourlyUsed += req.Tokens
		t.layerUsed[req.Layer] += req.Tokens
		drained = append(drained, req)
	}
	t.queue = t.queue[i:]
	return drained
}

// GetMetrics returns a snapshot of tracker state.
func (t *Tracker) GetMetrics() Metrics {
	t.mu.Lock()
	defer t.mu.Unlock()

	check := t.checkLocked(nil)
	return Metrics{
		DailyTokensUsed:       t.dailyUsed,
		DailyTokensRemaining:  saturatingSub(t.config.Budget.DailyLimit, t.dailyUsed),
		HourlyTokensUsed:      t.hourlyUsed,
		HourlyTokensRemaining: saturatingSub(t.config.Budget.HourlyLimit, t.hourlyUsed),
		PercentUsed:           check.PercentUsed,
		Status:                check.Status,
		QueuedRequests:        len(t.queue),
	}
}

// RequestTooLargeError is returned by TryConsume under Reject
// exhaustion policy.
type RequestTooLargeError struct {
	Requested uint64
	Available uint64
}

func (e *RequestTooLargeError) Error() string {
	return fmt.Sprintf("requested %d tokens but only %d available", e.Requested, e.Available)
}

// QueueFullError is returned by TryConsume under Queue exhaustion
// policy once the pending-request queue has reached MaxSize.
type QueueFullError struct {
	MaxSize int
}

func (e *QueueFullError) Error() string {
	return fmt.Sprintf("budget queue is full (max size %d)", e.MaxSize)
}
