package models

// ExhaustedAction is the policy applied when a budget request would
// exceed the available tokens.
type ExhaustedAction string

// Exhausted-budget actions.
const (
	ExhaustedActionReject           ExhaustedAction = "reject"
	ExhaustedActionQueue            ExhaustedAction = "queue"
	ExhaustedActionAllowWithWarning ExhaustedAction = "allow_with_warning"
)

// WindowKind is the sliding-window granularity a usage row is keyed
// by.
type WindowKind string

// Window kinds.
const (
	WindowHourly WindowKind = "hourly"
	WindowDaily  WindowKind = "daily"
)

// Budget is the per-tenant token allowance configuration.
type Budget struct {
	TenantID           string
	DailyLimit         uint64
	HourlyLimit        uint64
	PerLayerLimits     map[MemoryLayer]uint64
	WarningThresholdPct float64
	CriticalThresholdPct float64
	ExhaustedAction     ExhaustedAction
}

// BudgetStatus is the current consumption status relative to the most
// constraining window, in ascending order of severity.
type BudgetStatus string

// Budget statuses, in ascending order of consumption.
const (
	StatusAvailable BudgetStatus = "available"
	StatusWarning   BudgetStatus = "warning"
	StatusCritical  BudgetStatus = "critical"
	StatusExhausted BudgetStatus = "exhausted"
)

// BudgetCheck is the result of Budget Tracker's check operation.
type BudgetCheck struct {
	Status          BudgetStatus
	DailyUsed       uint64
	HourlyUsed      uint64
	LayerUsed       *uint64
	TokensAvailable uint64
	PercentUsed     float64
}

// CanProceed reports whether any token budget remains under the
// scope this check was computed for.
func (c BudgetCheck) CanProceed() bool {
	return c.TokensAvailable > 0
}
