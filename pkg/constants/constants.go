// Package constants provides shared constants for the hardscape-estimator application.
package constants

// Financial constants
const (
	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// SalaryHoursPerYear converts an annual salary into an hourly base (52 weeks x 40 hours)
	SalaryHoursPerYear = 2080.0

	// MarginSaturationMultiplier is the price multiplier used when a target margin is 100% or more
	MarginSaturationMultiplier = 2.0
)

// Rounding rule tokens
const (
	// RoundingNone disables rounding
	RoundingNone = "none"

	// RoundingNearestPrefix prefixes step tokens such as nearest_5
	RoundingNearestPrefix = "nearest_"

	// TaxRoundingCent rounds a tax amount to the cent
	TaxRoundingCent = "cent"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML configs (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// MetricsNamespace prefixes every exported Prometheus metric
	MetricsNamespace = "estimator"
)

// Validation constants
const (
	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// MaxPercent is the upper bound for percentages that describe a share of a whole
	MaxPercent = 100.0
)
