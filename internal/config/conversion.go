package config

import (
	"fmt"
	"strings"

	"github.com/iwvelando/hardscape-estimator/pkg/constants"
	"github.com/iwvelando/hardscape-estimator/pkg/estimate"
	"github.com/iwvelando/hardscape-estimator/pkg/labor"
	"github.com/iwvelando/hardscape-estimator/pkg/overhead"
	"github.com/iwvelando/hardscape-estimator/pkg/rates"
)

// ToOverheadConfig converts the overhead settings to the allocator's input.
func (o OverheadConfig) ToOverheadConfig() overhead.Config {
	expenses := make([]overhead.Expense, 0, len(o.FixedExpenses))
	for _, e := range o.FixedExpenses {
		expenses = append(expenses, overhead.Expense{Name: e.Name, MonthlyAmount: e.MonthlyAmount})
	}
	return overhead.Config{
		Method:                o.method(),
		FixedExpenses:         expenses,
		ExpectedBillableHours: o.ExpectedBillableHours,
		UtilizationPercent:    o.UtilizationPercent,
		RecoveryPercent:       o.RecoveryPercent,
	}
}

// ToPricingStrategy converts the pricing settings. Only the block matching
// the mode is read. An empty mode means markup.
func (p PricingConfig) ToPricingStrategy() (estimate.PricingStrategy, error) {
	strategy := estimate.PricingStrategy{
		ContingencyPercent:    p.ContingencyPercent,
		IncludeOverheadInCost: p.IncludeOverheadInCost,
		TotalRounding:         rates.ParseRoundingRule(string(p.TotalRounding)),
	}

	switch estimate.Mode(normalize(p.Mode)) {
	case "", estimate.ModeMarkup:
		strategy.Basis = estimate.Markup{
			Labor:     p.Markup.Labor,
			Materials: p.Markup.Materials,
			Subs:      p.Markup.Subs,
			Equipment: p.Markup.Equipment,
		}
	case estimate.ModeMargin:
		strategy.Basis = estimate.Margin{
			TargetGrossMarginPercent: p.Margin.TargetGrossMarginPercent,
			TargetNetProfitPercent:   p.Margin.TargetNetProfitPercent,
		}
	default:
		return estimate.PricingStrategy{}, fmt.Errorf("unknown pricing mode %q, expected %s or %s",
			p.Mode, estimate.ModeMarkup, estimate.ModeMargin)
	}

	return strategy, nil
}

// ToTaxRules converts the tax settings.
func (t TaxConfig) ToTaxRules() estimate.TaxRules {
	return estimate.TaxRules{
		Enabled:     t.Enabled,
		RatePercent: t.RatePercent,
		AppliesTo: estimate.TaxCategories{
			Materials: t.AppliesTo.Materials,
			Labor:     t.AppliesTo.Labor,
			Subs:      t.AppliesTo.Subs,
			Equipment: t.AppliesTo.Equipment,
			Logistics: t.AppliesTo.Logistics,
		},
		Rounding: rates.TaxRounding(normalize(t.Rounding)),
	}
}

// ToProfile converts a roster entry to a labor profile.
func (w Worker) ToProfile() labor.Profile {
	profile := labor.Profile{
		Name:            w.Name,
		Type:            labor.EmploymentType(normalize(w.EmploymentType)),
		HourlyRate:      w.HourlyRate,
		SalaryAnnual:    w.SalaryAnnual,
		SubcontractRate: w.SubcontractRate,
	}
	if w.BurdenOverride != nil {
		override := *w.BurdenOverride
		profile.BurdenOverride = &override
	}
	return profile
}

// ToCostBreakdown converts directly entered costs.
func (c CostsConfig) ToCostBreakdown() estimate.CostBreakdown {
	return estimate.CostBreakdown{
		Materials:    c.Materials,
		LaborHours:   c.LaborHours,
		LaborCostRaw: c.LaborCostRaw,
		Subs:         c.Subs,
		Equipment:    c.Equipment,
		Logistics:    c.Logistics,
	}
}

// SalaryHours returns the configured salaried hours per year or the default.
func (c Company) SalaryHours() float64 {
	if c.SalaryHoursPerYear > 0 {
		return c.SalaryHoursPerYear
	}
	return constants.SalaryHoursPerYear
}

// CostBreakdown builds the pricing input for an estimate: the directly
// entered costs plus the loaded cost of any booked crew. Crew entries that
// reference unknown workers are skipped and reported in the returned notes.
func (conf *Configuration) CostBreakdown(e Estimate) (estimate.CostBreakdown, []string) {
	costs := e.Costs.ToCostBreakdown()

	var notes []string
	assignments := make([]labor.Assignment, 0, len(e.Labor))
	for _, booked := range e.Labor {
		worker, ok := conf.WorkerByName(booked.Worker)
		if !ok {
			notes = append(notes, fmt.Sprintf("crew member %q is not on the roster; %.2f hours skipped", booked.Worker, booked.Hours))
			continue
		}
		assignments = append(assignments, labor.Assignment{Profile: worker.ToProfile(), Hours: booked.Hours})
	}

	crew := labor.CrewCost(assignments, conf.Company.BurdenPercent, conf.Company.SalaryHours())
	costs.LaborHours += crew.Hours
	costs.LaborCostRaw += crew.Cost

	return costs, notes
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// method accepts both per_billable_hour and per-billable-hour spellings.
func (o OverheadConfig) method() overhead.Method {
	return overhead.Method(strings.ReplaceAll(normalize(o.Method), "_", "-"))
}
