// Package quote defines the data structures related to a priced estimate and
// includes functions for pricing every active estimate in a configuration.
package quote

import (
	"fmt"

	"github.com/iwvelando/hardscape-estimator/internal/config"
	"github.com/iwvelando/hardscape-estimator/pkg/estimate"
	"go.uber.org/zap"
)

// Quote holds the priced result of one estimate.
type Quote struct {
	Name   string                 `json:"name"`
	Costs  estimate.CostBreakdown `json:"costs"`
	Result estimate.Result        `json:"result"`
	Notes  []string               `json:"notes,omitempty"`
}

// GetQuotes prices all active estimates with the company rules.
func GetQuotes(logger *zap.Logger, conf config.Configuration) ([]Quote, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	strategy, err := conf.Company.Pricing.ToPricingStrategy()
	if err != nil {
		return nil, fmt.Errorf("failed to build pricing strategy: %w", err)
	}
	overheadCfg := conf.Company.Overhead.ToOverheadConfig()
	taxRules := conf.Company.Tax.ToTaxRules()
	engine := estimate.NewEngine(logger)

	active := conf.ActiveEstimates()
	if skipped := len(conf.Estimates) - len(active); skipped > 0 {
		logger.Debug(fmt.Sprintf("skipping %d inactive estimates", skipped),
			zap.String("op", "quote.GetQuotes"),
		)
	}

	var results []Quote
	for _, e := range active {
		costs, notes := conf.CostBreakdown(e)
		for _, note := range notes {
			logger.Warn(note,
				zap.String("op", "quote.GetQuotes"),
				zap.String("estimate", e.Name),
			)
		}

		result := engine.Price(costs, overheadCfg, strategy, taxRules)
		logger.Debug("estimate quoted",
			zap.String("op", "quote.GetQuotes"),
			zap.String("estimate", e.Name),
			zap.Float64("total", result.Total),
		)

		results = append(results, Quote{
			Name:   e.Name,
			Costs:  costs,
			Result: result,
			Notes:  notes,
		})
	}

	return results, nil
}

// FindQuote finds a quote by name in the results slice.
// Returns a pointer to the quote if found, nil otherwise.
func FindQuote(results []Quote, name string) *Quote {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}
