// Package overhead derives how much of the company's fixed overhead a job
// recovers.
package overhead

import (
	"github.com/iwvelando/hardscape-estimator/pkg/constants"
	"github.com/iwvelando/hardscape-estimator/pkg/mathutil"
)

// Method selects how overhead is allocated to jobs.
type Method string

const (
	// PerBillableHour spreads the fixed budget over expected billable hours.
	PerBillableHour Method = "per-billable-hour"
	// PercentOfLabor recovers a percentage of the job's raw labor cost.
	PercentOfLabor Method = "percent-of-labor"
	// PercentOfRevenue recovers a percentage of the job's revenue.
	PercentOfRevenue Method = "percent-of-revenue"
)

// Valid reports whether m is a known allocation method.
func (m Method) Valid() bool {
	switch m {
	case PerBillableHour, PercentOfLabor, PercentOfRevenue:
		return true
	}
	return false
}

// Expense is a fixed monthly expense category.
type Expense struct {
	Name          string
	MonthlyAmount float64
}

// Config holds the overhead allocation settings.
type Config struct {
	Method                Method
	FixedExpenses         []Expense
	ExpectedBillableHours float64 // per period
	UtilizationPercent    float64 // 0-100
	RecoveryPercent       float64 // used by the percent-of-* methods
}

// FixedTotal sums the monthly amounts of all fixed expenses.
func (c Config) FixedTotal() float64 {
	total := 0.0
	for _, expense := range c.FixedExpenses {
		total += expense.MonthlyAmount
	}
	return total
}

// EffectiveHours returns the expected billable hours scaled by utilization.
func (c Config) EffectiveHours() float64 {
	return c.ExpectedBillableHours * (c.UtilizationPercent / constants.PercentageMultiplier)
}

// ComputeOverheadRate returns the hourly overhead recovery rate. The rate is
// only meaningful for PerBillableHour; every other method returns 0 because
// their recovery is a percentage applied during pricing. Zero effective
// hours also return 0.
func ComputeOverheadRate(cfg Config) float64 {
	if cfg.Method != PerBillableHour {
		return 0
	}
	effectiveHours := cfg.EffectiveHours()
	if !(effectiveHours > 0) {
		return 0
	}
	rate := cfg.FixedTotal() / effectiveHours
	if !mathutil.IsFinite(rate) {
		return 0
	}
	return rate
}

// Basis carries the job figures a recovery method may draw on.
type Basis struct {
	LaborHours float64
	LaborCost  float64
	Revenue    float64
}

// Recover returns the overhead recovered by one job under cfg.
func Recover(cfg Config, basis Basis) float64 {
	switch cfg.Method {
	case PerBillableHour:
		return basis.LaborHours * ComputeOverheadRate(cfg)
	case PercentOfLabor:
		return mathutil.ApplyPercentage(basis.LaborCost, cfg.RecoveryPercent)
	case PercentOfRevenue:
		return mathutil.ApplyPercentage(basis.Revenue, cfg.RecoveryPercent)
	default:
		return 0
	}
}
