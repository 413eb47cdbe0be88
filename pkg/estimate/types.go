// Package estimate turns raw job costs into a client-facing price.
package estimate

import (
	"github.com/iwvelando/hardscape-estimator/pkg/rates"
)

// CostBreakdown holds the raw, pre-markup costs of one job.
type CostBreakdown struct {
	Materials    float64 `json:"materials"`
	LaborHours   float64 `json:"laborHours"`
	LaborCostRaw float64 `json:"laborCostRaw"`
	Subs         float64 `json:"subs"`
	Equipment    float64 `json:"equipment"`
	Logistics    float64 `json:"logistics"` // passed through, never marked up
}

// Mode names a pricing basis.
type Mode string

const (
	ModeMarkup Mode = "markup"
	ModeMargin Mode = "margin"
)

// Basis is the mode-specific part of a pricing strategy. It is implemented
// only by Markup and Margin.
type Basis interface {
	Mode() Mode
	isBasis()
}

// Markup prices each cost category with its own markup percentage.
type Markup struct {
	Labor     float64
	Materials float64
	Subs      float64
	Equipment float64
}

// Mode implements Basis.
func (Markup) Mode() Mode { return ModeMarkup }
func (Markup) isBasis()   {}

// Margin prices the total cost to hit a target gross margin.
type Margin struct {
	TargetGrossMarginPercent float64
	// TargetNetProfitPercent is informational; pricing does not read it.
	TargetNetProfitPercent float64
}

// Mode implements Basis.
func (Margin) Mode() Mode { return ModeMargin }
func (Margin) isBasis()   {}

// PricingStrategy configures how costs become a price.
type PricingStrategy struct {
	Basis                 Basis // nil prices as a zero Markup
	ContingencyPercent    float64
	IncludeOverheadInCost bool
	TotalRounding         rates.RoundingRule
}

func (s PricingStrategy) basis() Basis {
	switch b := s.Basis.(type) {
	case Markup, Margin:
		return b
	case *Markup:
		if b != nil {
			return *b
		}
	case *Margin:
		if b != nil {
			return *b
		}
	}
	return Markup{}
}

// TaxCategories flags which cost categories are taxable.
type TaxCategories struct {
	Materials bool
	Labor     bool
	Subs      bool
	Equipment bool
	Logistics bool
}

// TaxRules configures sales tax.
type TaxRules struct {
	Enabled     bool
	RatePercent float64
	AppliesTo   TaxCategories
	Rounding    rates.TaxRounding
}

// TaxableBasis sums the pre-markup costs of the flagged categories. Labor
// contributes its raw cost without recovered overhead.
func (t TaxRules) TaxableBasis(costs CostBreakdown) float64 {
	basis := 0.0
	if t.AppliesTo.Materials {
		basis += costs.Materials
	}
	if t.AppliesTo.Labor {
		basis += costs.LaborCostRaw
	}
	if t.AppliesTo.Subs {
		basis += costs.Subs
	}
	if t.AppliesTo.Equipment {
		basis += costs.Equipment
	}
	if t.AppliesTo.Logistics {
		basis += costs.Logistics
	}
	return basis
}

// Category names a cost category in a priced breakdown.
type Category string

const (
	CategoryLabor     Category = "labor"
	CategoryMaterials Category = "materials"
	CategorySubs      Category = "subs"
	CategoryEquipment Category = "equipment"
	CategoryLogistics Category = "logistics"
)

// Line is one priced cost category, before contingency and rounding.
type Line struct {
	Category Category `json:"category"`
	Cost     float64  `json:"cost"`
	Price    float64  `json:"price"`
}

// Breakdown exposes the intermediate figures of a pricing run.
type Breakdown struct {
	Mode               Mode    `json:"mode"`
	OverheadRate       float64 `json:"overheadRate"`
	LaborWithOverhead  float64 `json:"laborWithOverhead"`
	Lines              []Line  `json:"lines"`
	TotalCost          float64 `json:"totalCost"`
	PreContingency     float64 `json:"preContingency"`
	Contingency        float64 `json:"contingency"`
	TaxableBasis       float64 `json:"taxableBasis"`
	GrossMarginPercent float64 `json:"grossMarginPercent"`
}

// Result is the priced estimate.
type Result struct {
	Subtotal          float64   `json:"subtotal"`
	Tax               float64   `json:"tax"`
	Total             float64   `json:"total"`
	OverheadRecovered float64   `json:"overheadRecovered"`
	Breakdown         Breakdown `json:"breakdown"`
}
