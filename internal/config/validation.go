package config

import (
	"fmt"
	"strings"

	"github.com/iwvelando/hardscape-estimator/pkg/constants"
	"github.com/iwvelando/hardscape-estimator/pkg/estimate"
	"github.com/iwvelando/hardscape-estimator/pkg/labor"
	"github.com/iwvelando/hardscape-estimator/pkg/overhead"
	"github.com/iwvelando/hardscape-estimator/pkg/rates"
	"github.com/iwvelando/hardscape-estimator/pkg/validation"
)

// ValidateConfiguration performs general validation of the configuration and
// returns warnings. Pricing still succeeds for every warned condition; each
// one resolves to a documented fallback.
func (conf *Configuration) ValidateConfiguration() []string {
	var warnings []string

	warnings = append(warnings, conf.Company.validate()...)

	for _, w := range conf.Crew {
		warnings = append(warnings, w.validate(conf.Company.BurdenPercent)...)
	}

	seen := make(map[string]struct{})
	for _, e := range conf.Estimates {
		key := strings.ToLower(strings.TrimSpace(e.Name))
		if _, dup := seen[key]; dup {
			warnings = append(warnings, fmt.Sprintf("Estimate '%s' is defined more than once", e.Name))
		}
		seen[key] = struct{}{}

		if !e.Active {
			continue
		}
		warnings = append(warnings, e.validate(conf)...)
	}

	return warnings
}

func (co Company) validate() []string {
	var warnings []string

	oh := co.Overhead
	method := oh.method()
	switch {
	case method == "":
		warnings = append(warnings, "Overhead method is not set; no overhead will be recovered")
	case !method.Valid():
		warnings = append(warnings, fmt.Sprintf("Unknown overhead method '%s'; no overhead will be recovered", oh.Method))
	}
	warnings = validation.Collect(warnings,
		validation.ValidatePercentRange("Overhead utilizationPercent", oh.UtilizationPercent, 0, constants.MaxPercent),
		validation.ValidateNonNegative("Overhead expectedBillableHours", oh.ExpectedBillableHours),
	)
	if method == overhead.PerBillableHour && !(oh.ToOverheadConfig().EffectiveHours() > 0) {
		warnings = append(warnings, "Overhead effective billable hours are zero; the overhead rate will be 0")
	}
	if (method == overhead.PercentOfLabor || method == overhead.PercentOfRevenue) && oh.RecoveryPercent == 0 {
		warnings = append(warnings, fmt.Sprintf("Overhead method '%s' has no recoveryPercent; no overhead will be recovered", oh.Method))
	}
	for _, e := range oh.FixedExpenses {
		warnings = validation.Collect(warnings,
			validation.ValidateNonNegative(fmt.Sprintf("Fixed expense '%s' monthlyAmount", e.Name), e.MonthlyAmount))
	}

	p := co.Pricing
	switch estimate.Mode(normalize(p.Mode)) {
	case "", estimate.ModeMarkup:
	case estimate.ModeMargin:
		warnings = validation.Collect(warnings,
			validation.ValidateMarginTarget("Pricing targetGrossMarginPercent", p.Margin.TargetGrossMarginPercent))
		if p.Margin.TargetNetProfitPercent > p.Margin.TargetGrossMarginPercent {
			warnings = append(warnings, fmt.Sprintf("Pricing targetNetProfitPercent (%g) exceeds targetGrossMarginPercent (%g)",
				p.Margin.TargetNetProfitPercent, p.Margin.TargetGrossMarginPercent))
		}
	default:
		warnings = append(warnings, fmt.Sprintf("Unknown pricing mode '%s'; expected markup or margin", p.Mode))
	}
	if !rates.IsValidRoundingRule(string(p.TotalRounding)) {
		warnings = append(warnings, fmt.Sprintf("Pricing totalRounding '%s' is not recognized; totals will not be rounded", p.TotalRounding))
	}

	t := co.Tax
	if t.Enabled {
		warnings = validation.Collect(warnings,
			validation.ValidatePercentRange("Tax ratePercent", t.RatePercent, 0, constants.MaxPercent))
		if t.AppliesTo == (TaxAppliesTo{}) {
			warnings = append(warnings, "Tax is enabled but no cost category is taxable")
		}
	}
	switch rates.TaxRounding(normalize(t.Rounding)) {
	case "", rates.TaxRoundingNone, rates.TaxRoundingCent:
	default:
		warnings = append(warnings, fmt.Sprintf("Tax rounding '%s' is not recognized; tax will be rounded to the cent", t.Rounding))
	}

	warnings = validation.Collect(warnings,
		validation.ValidateNonNegative("Company burdenPercent", co.BurdenPercent),
		validation.ValidateNonNegative("Company salaryHoursPerYear", co.SalaryHoursPerYear),
	)

	return warnings
}

func (w Worker) validate(globalBurden float64) []string {
	var warnings []string
	profile := w.ToProfile()

	if !profile.Type.Valid() {
		return append(warnings, fmt.Sprintf("Crew member '%s' has unknown employment type '%s'; loaded rate will be 0",
			w.Name, w.EmploymentType))
	}

	var field string
	var value float64
	switch profile.Type {
	case labor.Hourly:
		field, value = "hourlyRate", w.HourlyRate
	case labor.Salary:
		field, value = "salaryAnnual", w.SalaryAnnual
	case labor.Subcontract:
		field, value = "subcontractRate", w.SubcontractRate
	}
	if !(value > 0) {
		warnings = append(warnings, fmt.Sprintf("Crew member '%s' is %s but has no %s; loaded rate will be 0",
			w.Name, profile.Type, field))
	}

	if profile.Type == labor.Subcontract && w.BurdenOverride == nil && globalBurden != 0 {
		warnings = append(warnings, fmt.Sprintf("Crew member '%s' is a subcontractor without burdenOverride; the %g%% company burden does not apply",
			w.Name, globalBurden))
	}

	return warnings
}

func (e Estimate) validate(conf *Configuration) []string {
	prefix := fmt.Sprintf("Estimate '%s'", e.Name)
	warnings := validation.Collect(nil,
		validation.ValidateNonNegative(prefix+" materials", e.Costs.Materials),
		validation.ValidateNonNegative(prefix+" laborHours", e.Costs.LaborHours),
		validation.ValidateNonNegative(prefix+" laborCostRaw", e.Costs.LaborCostRaw),
		validation.ValidateNonNegative(prefix+" subs", e.Costs.Subs),
		validation.ValidateNonNegative(prefix+" equipment", e.Costs.Equipment),
		validation.ValidateNonNegative(prefix+" logistics", e.Costs.Logistics),
	)

	for _, booked := range e.Labor {
		if _, ok := conf.WorkerByName(booked.Worker); !ok {
			warnings = append(warnings, fmt.Sprintf("%s books unknown crew member '%s'", prefix, booked.Worker))
		}
		warnings = validation.Collect(warnings,
			validation.ValidateNonNegative(fmt.Sprintf("%s hours for '%s'", prefix, booked.Worker), booked.Hours))
	}

	return warnings
}
