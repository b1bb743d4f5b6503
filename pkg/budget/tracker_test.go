package budget

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikokikok/aeterna-sub003/pkg/models"
)

func TestTrackerInitialization(t *testing.T) {
	tracker := New(DefaultConfig())
	check := tracker.Check(nil)

	assert.Equal(t, models.StatusAvailable, check.Status)
	assert.Equal(t, uint64(0), check.DailyUsed)
	assert.Equal(t, uint64(0), check.HourlyUsed)
	assert.True(t, check.CanProceed())
	assert.Equal(t, uint64(100_000), check.TokensAvailable)
}

func TestTrackerUsageRecording(t *testing.T) {
	tracker := New(DefaultConfig())
	tracker.RecordUsage(5000, models.LayerSession)
	tracker.RecordUsage(3000, models.LayerProject)

	check := tracker.Check(nil)
	assert.Equal(t, uint64(8000), check.DailyUsed)
	assert.Equal(t, uint64(8000), check.HourlyUsed)

	layer := models.LayerSession
	sessionCheck := tracker.Check(&layer)
	require.NotNil(t, sessionCheck.LayerUsed)
	assert.Equal(t, uint64(5000), *sessionCheck.LayerUsed)
}

func TestBudgetThresholdTransitions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Budget.DailyLimit = 10_000
	cfg.Budget.HourlyLimit = 10_000
	cfg.Budget.WarningThresholdPct = 50
	cfg.Budget.CriticalThresholdPct = 80
	tracker := New(cfg)

	assert.Equal(t, models.StatusAvailable, tracker.Check(nil).Status)

	tracker.RecordUsage(5500, models.LayerSession)
	assert.Equal(t, models.StatusWarning, tracker.Check(nil).Status)

	tracker.RecordUsage(3000, models.LayerSession)
	assert.Equal(t, models.StatusCritical, tracker.Check(nil).Status)

	tracker.RecordUsage(1500, models.LayerSession)
	assert.Equal(t, models.StatusExhausted, tracker.Check(nil).Status)
}

func TestBudgetExhaustionRejectMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Budget.DailyLimit = 1000
	cfg.Budget.HourlyLimit = 1000
	cfg.ExhaustedAction = models.ExhaustedActionReject
	tracker := New(cfg)

	tracker.RecordUsage(800, models.LayerSession)

	err := tracker.TryConsume(300, models.LayerSession)
	require.Error(t, err)

	var tooLarge *RequestTooLargeError
	require.ErrorAs(t, err, &tooLarge)
	assert.Equal(t, uint64(300), tooLarge.Requested)
	assert.Equal(t, uint64(200), tooLarge.Available)
}

func TestBudgetExhaustionQueueMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Budget.DailyLimit = 1000
	cfg.Budget.HourlyLimit = 1000
	cfg.ExhaustedAction = models.ExhaustedActionQueue
	cfg.QueueMaxSize = 5
	tracker := New(cfg)

	tracker.RecordUsage(1000, models.LayerSession)

	_ = tracker.TryConsume(100, models.LayerSession)
	_ = tracker.TryConsume(200, models.LayerProject)
	_ = tracker.TryConsume(150, models.LayerTeam)

	assert.Equal(t, 3, tracker.QueuedCount())

	drained := tracker.DrainQueue(350)
	assert.Len(t, drained, 2)
	assert.Equal(t, 1, tracker.QueuedCount())
}

func TestBudgetQueueFullError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Budget.DailyLimit = 100
	cfg.Budget.HourlyLimit = 100
	cfg.ExhaustedAction = models.ExhaustedActionQueue
	cfg.QueueMaxSize = 2
	tracker := New(cfg)

	tracker.RecordUsage(100, models.LayerSession)

	_ = tracker.TryConsume(50, models.LayerSession)
	_ = tracker.TryConsume(50, models.LayerSession)
	err := tracker.TryConsume(50, models.LayerSession)
	require.Error(t, err)

	var queueFull *QueueFullError
	require.ErrorAs(t, err, &queueFull)
	assert.Equal(t, 2, queueFull.MaxSize)
}

func TestStatusUsesMostConstrainingWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Budget.DailyLimit = 1_000_000
	cfg.Budget.HourlyLimit = 100_000
	cfg.Budget.WarningThresholdPct = 80
	cfg.Budget.CriticalThresholdPct = 90
	tracker := New(cfg)

	tracker.RecordUsage(95_000, models.LayerSession)

	check := tracker.Check(nil)
	assert.InDelta(t, 9.5, percentUsed(95_000, 1_000_000), 0.01)
	assert.Equal(t, 95.0, check.PercentUsed)
	assert.Equal(t, models.StatusCritical, check.Status)
}

func TestPerLayerBudgetLimits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Budget.DailyLimit = 1_000_000
	cfg.Budget.HourlyLimit = 100_000
	cfg.Budget.PerLayerLimits = map[models.MemoryLayer]uint64{models.LayerSession: 5000}
	cfg.ExhaustedAction = models.ExhaustedActionReject
	tracker := New(cfg)

	tracker.RecordUsage(4500, models.LayerSession)

	err := tracker.TryConsume(600, models.LayerSession)
	require.Error(t, err)

	err = tracker.TryConsume(500, models.LayerSession)
	require.NoError(t, err)
}

func TestAllowWithWarningMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Budget.DailyLimit = 100
	cfg.Budget.HourlyLimit = 100
	cfg.ExhaustedAction = models.ExhaustedActionAllowWithWarning
	tracker := New(cfg)

	tracker.RecordUsage(100, models.LayerSession)

	err := tracker.TryConsume(50, models.LayerSession)
	require.NoError(t, err)
}

func TestMultiTenantIsolation(t *testing.T) {
	t1 := New(DefaultConfig())
	t2 := New(DefaultConfig())

	t1.RecordUsage(50_000, models.LayerSession)

	assert.Equal(t, uint64(50_000), t1.Check(nil).DailyUsed)
	assert.Equal(t, uint64(0), t2.Check(nil).DailyUsed)
}

func TestTieredModelSelection(t *testing.T) {
	cfg := DefaultModelConfig()

	assert.Equal(t, "gpt-4", cfg.ModelForLayer(models.LayerAgent))
	assert.Equal(t, "gpt-4", cfg.ModelForLayer(models.LayerUser))
	assert.Equal(t, "gpt-4", cfg.ModelForLayer(models.LayerSession))
	assert.Equal(t, "gpt-3.5-turbo", cfg.ModelForLayer(models.LayerProject))
	assert.Equal(t, "gpt-3.5-turbo", cfg.ModelForLayer(models.LayerCompany))
}

func TestTieredModelCustomConfiguration(t *testing.T) {
	cfg := DefaultModelConfig().
		WithExpensiveModel("claude-3-opus").
		WithCheapModel("claude-3-haiku")

	assert.Equal(t, "claude-3-opus", cfg.ModelForLayer(models.LayerUser))
	assert.Equal(t, "claude-3-haiku", cfg.ModelForLayer(models.LayerCompany))
}
