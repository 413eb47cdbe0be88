// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"
	"math"

	"github.com/iwvelando/hardscape-estimator/pkg/constants"
)

// ValidateNonNegative warns when an amount is negative or not a number.
func ValidateNonNegative(field string, value float64) string {
	if math.IsNaN(value) {
		return fmt.Sprintf("%s is not a number", field)
	}
	if value < 0 {
		return fmt.Sprintf("%s is negative (%.2f); inputs should be zero or positive", field, value)
	}
	return ""
}

// ValidatePercentRange warns when a percentage falls outside [min, max].
func ValidatePercentRange(field string, value, min, max float64) string {
	if math.IsNaN(value) || value < min || value > max {
		return fmt.Sprintf("%s should be between %g and %g, got %g", field, min, max, value)
	}
	return ""
}

// ValidateMarginTarget warns when a margin target cannot be priced exactly.
func ValidateMarginTarget(field string, value float64) string {
	if value >= constants.MaxPercent {
		return fmt.Sprintf("%s is %g%%; margins of 100%% or more price at twice the cost", field, value)
	}
	return ""
}

// Collect appends the non-empty warnings to dst.
func Collect(dst []string, warnings ...string) []string {
	for _, w := range warnings {
		if w != "" {
			dst = append(dst, w)
		}
	}
	return dst
}
