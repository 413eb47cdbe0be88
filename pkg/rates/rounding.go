package rates

import (
	"math"
	"strconv"
	"strings"

	"github.com/iwvelando/hardscape-estimator/pkg/constants"
	"github.com/iwvelando/hardscape-estimator/pkg/mathutil"
)

// RoundingRule rounds monetary amounts to the nearest multiple of a step.
// The zero value performs no rounding.
type RoundingRule struct {
	step float64
}

// NoRounding is the rule that leaves amounts unchanged.
var NoRounding = RoundingRule{}

// StepRounding returns a rule rounding to the nearest multiple of step.
// Steps that are not positive finite numbers yield NoRounding.
func StepRounding(step float64) RoundingRule {
	if !mathutil.IsFinite(step) || step <= 0 {
		return NoRounding
	}
	return RoundingRule{step: step}
}

// ParseRoundingRule accepts "none", a bare step ("5", "0.25") or a
// nearest_N token ("nearest_10"). Unparseable input yields NoRounding so
// that amounts pass through unchanged.
func ParseRoundingRule(raw string) RoundingRule {
	token := strings.ToLower(strings.TrimSpace(raw))
	if token == "" || token == constants.RoundingNone {
		return NoRounding
	}
	token = strings.TrimPrefix(token, constants.RoundingNearestPrefix)

	step, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return NoRounding
	}
	return StepRounding(step)
}

// IsNone reports whether the rule leaves amounts unchanged.
func (r RoundingRule) IsNone() bool {
	return r.step <= 0
}

// Step returns the rounding step, or 0 for NoRounding.
func (r RoundingRule) Step() float64 {
	return r.step
}

// Apply rounds amount half away from zero to the nearest multiple of the step.
func (r RoundingRule) Apply(amount float64) float64 {
	if r.IsNone() {
		return amount
	}
	return math.Round(amount/r.step) * r.step
}

// String returns the canonical token for the rule.
func (r RoundingRule) String() string {
	if r.IsNone() {
		return constants.RoundingNone
	}
	return constants.RoundingNearestPrefix + strconv.FormatFloat(r.step, 'f', -1, 64)
}

// ApplyRounding rounds amount according to a textual rule; see ParseRoundingRule.
func ApplyRounding(amount float64, rule string) float64 {
	return ParseRoundingRule(rule).Apply(amount)
}

// IsValidRoundingRule reports whether raw is "none" or a well-formed step.
// Invalid rules still price (as no rounding); this only feeds config warnings.
func IsValidRoundingRule(raw string) bool {
	token := strings.ToLower(strings.TrimSpace(raw))
	if token == "" || token == constants.RoundingNone {
		return true
	}
	return !ParseRoundingRule(raw).IsNone()
}
