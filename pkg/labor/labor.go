// Package labor computes fully-loaded hourly costs for crew members.
package labor

import (
	"github.com/iwvelando/hardscape-estimator/pkg/constants"
	"github.com/iwvelando/hardscape-estimator/pkg/mathutil"
)

// EmploymentType is how a worker is paid.
type EmploymentType string

const (
	// Hourly workers are paid their hourly rate plus burden.
	Hourly EmploymentType = "hourly"
	// Salary workers have their annual salary spread over yearly hours.
	Salary EmploymentType = "salary"
	// Subcontract workers bill a rate that normally carries no company burden.
	Subcontract EmploymentType = "subcontract"
)

// Valid reports whether t is a known employment type.
func (t EmploymentType) Valid() bool {
	switch t {
	case Hourly, Salary, Subcontract:
		return true
	}
	return false
}

// Profile describes one worker's pay structure. Only the rate field matching
// Type is read.
type Profile struct {
	Name            string
	Type            EmploymentType
	HourlyRate      float64
	SalaryAnnual    float64
	SubcontractRate float64
	// BurdenOverride replaces the global burden percent when non-nil.
	BurdenOverride *float64
}

// BaseRate returns the unburdened hourly rate for the profile.
func (p Profile) BaseRate(salaryHoursPerYear float64) float64 {
	switch p.Type {
	case Hourly:
		return p.HourlyRate
	case Salary:
		if !(salaryHoursPerYear > 0) {
			salaryHoursPerYear = constants.SalaryHoursPerYear
		}
		return p.SalaryAnnual / salaryHoursPerYear
	case Subcontract:
		return p.SubcontractRate
	default:
		return 0
	}
}

// EffectiveBurden returns the burden percent applied to the profile.
// Subcontractors carry no burden unless they have an explicit override.
func EffectiveBurden(p Profile, globalBurdenPercent float64) float64 {
	if p.BurdenOverride != nil {
		return *p.BurdenOverride
	}
	if p.Type == Subcontract {
		return 0
	}
	return globalBurdenPercent
}

// ComputeLoadedRate returns the burdened hourly cost of a worker using the
// standard 2080 salaried hours per year.
func ComputeLoadedRate(p Profile, globalBurdenPercent float64) float64 {
	return ComputeLoadedRateWithHours(p, globalBurdenPercent, constants.SalaryHoursPerYear)
}

// ComputeLoadedRateWithHours is ComputeLoadedRate with a configurable
// salaried hours per year. A missing rate, an unknown employment type or a
// non-positive result yields 0.
func ComputeLoadedRateWithHours(p Profile, globalBurdenPercent, salaryHoursPerYear float64) float64 {
	base := p.BaseRate(salaryHoursPerYear)
	if !(base > 0) || !mathutil.IsFinite(base) {
		return 0
	}
	loaded := base * (1 + EffectiveBurden(p, globalBurdenPercent)/constants.PercentageMultiplier)
	if !(loaded > 0) || !mathutil.IsFinite(loaded) {
		return 0
	}
	return loaded
}
