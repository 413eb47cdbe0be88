package estimate

import (
	"github.com/iwvelando/hardscape-estimator/pkg/mathutil"
	"github.com/iwvelando/hardscape-estimator/pkg/overhead"
	"github.com/iwvelando/hardscape-estimator/pkg/rates"
	"go.uber.org/zap"
)

// Engine runs the pricing pipeline and traces each step at debug level.
// It holds no pricing state and is safe for concurrent use.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a new pricing engine with the given logger.
// If logger is nil, it will use a no-op logger to prevent panics.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// ComputeEstimatePrice prices costs without logging. It never fails: every
// degenerate input resolves to a documented fallback.
func ComputeEstimatePrice(costs CostBreakdown, overheadCfg overhead.Config, strategy PricingStrategy, tax TaxRules) Result {
	return NewEngine(nil).Price(costs, overheadCfg, strategy, tax)
}

// Price runs the pipeline:
//  1. derive the hourly overhead rate
//  2. recover overhead for the job
//  3. fold recovered overhead into labor when configured
//  4. price by markup or margin
//  5. apply contingency
//  6. round the subtotal
//  7-8. tax the flagged pre-markup categories
func (e *Engine) Price(costs CostBreakdown, overheadCfg overhead.Config, strategy PricingStrategy, tax TaxRules) Result {
	basis := strategy.basis()

	overheadRate := overhead.ComputeOverheadRate(overheadCfg)

	var revenue float64
	if overheadCfg.Method == overhead.PercentOfRevenue {
		revenue = priceLines(costs, costs.LaborCostRaw, basis).subtotal
	}
	recovered := overhead.Recover(overheadCfg, overhead.Basis{
		LaborHours: costs.LaborHours,
		LaborCost:  costs.LaborCostRaw,
		Revenue:    revenue,
	})

	laborWithOverhead := costs.LaborCostRaw
	if strategy.IncludeOverheadInCost {
		laborWithOverhead += recovered
	}

	e.logger.Debug("overhead allocated",
		zap.String("op", "estimate.Price"),
		zap.String("method", string(overheadCfg.Method)),
		zap.Float64("overheadRate", overheadRate),
		zap.Float64("overheadRecovered", recovered),
		zap.Float64("laborWithOverhead", laborWithOverhead),
	)

	priced := priceLines(costs, laborWithOverhead, basis)
	preContingency := priced.subtotal

	subtotal := rates.ApplyMarkup(preContingency, strategy.ContingencyPercent)
	contingency := subtotal - preContingency
	subtotal = strategy.TotalRounding.Apply(subtotal)

	taxableBasis := tax.TaxableBasis(costs)
	taxAmount := 0.0
	if tax.Enabled {
		taxAmount = rates.ComputeTax(taxableBasis, tax.RatePercent, tax.Rounding)
	}

	e.logger.Debug("estimate priced",
		zap.String("op", "estimate.Price"),
		zap.String("mode", string(basis.Mode())),
		zap.Float64("preContingency", preContingency),
		zap.Float64("subtotal", subtotal),
		zap.String("rounding", strategy.TotalRounding.String()),
		zap.Float64("taxableBasis", taxableBasis),
		zap.Float64("tax", taxAmount),
	)

	return Result{
		Subtotal:          subtotal,
		Tax:               taxAmount,
		Total:             subtotal + taxAmount,
		OverheadRecovered: recovered,
		Breakdown: Breakdown{
			Mode:               basis.Mode(),
			OverheadRate:       overheadRate,
			LaborWithOverhead:  laborWithOverhead,
			Lines:              priced.lines,
			TotalCost:          priced.totalCost,
			PreContingency:     preContingency,
			Contingency:        contingency,
			TaxableBasis:       taxableBasis,
			GrossMarginPercent: mathutil.CalculatePercentage(subtotal-priced.totalCost, subtotal),
		},
	}
}

type pricedLines struct {
	lines     []Line
	totalCost float64
	subtotal  float64
}

// priceLines applies the pricing basis to each category. Under Margin the
// price is set on the total cost and spread over the lines by cost share.
func priceLines(costs CostBreakdown, labor float64, basis Basis) pricedLines {
	lines := []Line{
		{Category: CategoryLabor, Cost: labor},
		{Category: CategoryMaterials, Cost: costs.Materials},
		{Category: CategorySubs, Cost: costs.Subs},
		{Category: CategoryEquipment, Cost: costs.Equipment},
		{Category: CategoryLogistics, Cost: costs.Logistics},
	}

	totalCost := mathutil.Sum(labor, costs.Materials, costs.Subs, costs.Equipment, costs.Logistics)

	subtotal := 0.0
	switch b := basis.(type) {
	case Margin:
		subtotal = rates.PriceFromMargin(totalCost, b.TargetGrossMarginPercent)
		for i := range lines {
			if totalCost != 0 {
				lines[i].Price = subtotal * lines[i].Cost / totalCost
			}
		}
	case Markup:
		lines[0].Price = rates.ApplyMarkup(labor, b.Labor)
		lines[1].Price = rates.ApplyMarkup(costs.Materials, b.Materials)
		lines[2].Price = rates.ApplyMarkup(costs.Subs, b.Subs)
		lines[3].Price = rates.ApplyMarkup(costs.Equipment, b.Equipment)
		lines[4].Price = costs.Logistics
		subtotal = mathutil.Sum(lines[0].Price, lines[1].Price, lines[2].Price, lines[3].Price, lines[4].Price)
	}

	return pricedLines{lines: lines, totalCost: totalCost, subtotal: subtotal}
}
