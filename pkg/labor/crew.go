package labor

// Assignment is a worker booked on a job for a number of hours.
type Assignment struct {
	Profile Profile
	Hours   float64
}

// Totals is the labor input a crew contributes to an estimate.
type Totals struct {
	Hours float64
	Cost  float64
}

// CrewCost sums hours and loaded cost across assignments. Assignments with
// non-positive hours are skipped.
func CrewCost(assignments []Assignment, globalBurdenPercent, salaryHoursPerYear float64) Totals {
	var totals Totals
	for _, a := range assignments {
		if !(a.Hours > 0) {
			continue
		}
		totals.Hours += a.Hours
		totals.Cost += a.Hours * ComputeLoadedRateWithHours(a.Profile, globalBurdenPercent, salaryHoursPerYear)
	}
	return totals
}
