// Package rates provides the numeric primitives used by the pricing pipeline:
// markup, margin inversion, rounding to a step and tax computation.
package rates

import (
	"github.com/iwvelando/hardscape-estimator/pkg/constants"
	"github.com/iwvelando/hardscape-estimator/pkg/mathutil"
)

// ApplyMarkup returns cost * (1 + markupPercent/100). A negative markup is a
// discount. The cost is not validated.
func ApplyMarkup(cost, markupPercent float64) float64 {
	return cost * (1 + markupPercent/constants.PercentageMultiplier)
}

// PriceFromMargin returns the price that yields targetMarginPercent gross
// margin on cost. Targets of 100% or more have no finite price, so they
// saturate to cost * 2.
func PriceFromMargin(cost, targetMarginPercent float64) float64 {
	if targetMarginPercent >= constants.MaxPercent {
		return cost * constants.MarginSaturationMultiplier
	}
	return cost / (1 - targetMarginPercent/constants.PercentageMultiplier)
}

// TaxRounding selects how a computed tax amount is rounded.
type TaxRounding string

const (
	// TaxRoundingNone leaves the tax amount unrounded.
	TaxRoundingNone TaxRounding = constants.RoundingNone
	// TaxRoundingCent rounds the tax amount to the cent.
	TaxRoundingCent TaxRounding = constants.TaxRoundingCent
)

// ComputeTax returns taxableBasis * taxRatePercent/100. Anything other than
// TaxRoundingNone rounds the result to the cent, including the empty value.
func ComputeTax(taxableBasis, taxRatePercent float64, rounding TaxRounding) float64 {
	tax := mathutil.ApplyPercentage(taxableBasis, taxRatePercent)
	if rounding == TaxRoundingNone {
		return tax
	}
	return mathutil.Round(tax)
}
