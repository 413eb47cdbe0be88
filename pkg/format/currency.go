// Package format renders monetary amounts for quotes.
package format

import (
	"math"
	"strconv"
	"strings"
)

// Currency returns an amount with a dollar sign and thousands separators (e.g., "-$1,234.56").
func Currency(amount float64) string {
	if amount < 0 {
		return "-$" + grouped(math.Abs(amount))
	}
	return "$" + grouped(amount)
}

// HourlyRate returns a per-hour amount (e.g., "$53.13/hr").
func HourlyRate(amount float64) string {
	return Currency(amount) + "/hr"
}

// Percent returns a percentage with one decimal (e.g., "32.9%").
func Percent(value float64) string {
	return strconv.FormatFloat(value, 'f', 1, 64) + "%"
}

func grouped(value float64) string {
	whole, cents, _ := strings.Cut(strconv.FormatFloat(value, 'f', 2, 64), ".")
	if len(whole) <= 3 {
		return whole + "." + cents
	}

	var builder strings.Builder
	lead := len(whole) % 3
	if lead > 0 {
		builder.WriteString(whole[:lead])
	}
	for i := lead; i < len(whole); i += 3 {
		if builder.Len() > 0 {
			builder.WriteByte(',')
		}
		builder.WriteString(whole[i : i+3])
	}
	return builder.String() + "." + cents
}
