// Package config defines the data structures related to configuration and
// includes functions for loading, converting and validating it.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment variables that override config keys,
// e.g. ESTIMATOR_COMPANY_BURDENPERCENT.
const EnvPrefix = "ESTIMATOR"

// Configuration holds all configuration for hardscape-estimator.
type Configuration struct {
	Company   Company       `yaml:"company"`
	Crew      []Worker      `yaml:"crew,omitempty"`
	Estimates []Estimate    `yaml:"estimates,omitempty"`
	Logging   LoggingConfig `yaml:"logging,omitempty"`
	Output    OutputConfig  `yaml:"output,omitempty"`
	History   HistoryConfig `yaml:"history,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// HistoryConfig points at the optional quote history database.
type HistoryConfig struct {
	SQLitePath string `yaml:"sqlitePath,omitempty"`
}

// Company holds the company-wide financial rules shared by every estimate.
type Company struct {
	Name               string         `yaml:"name,omitempty"`
	BurdenPercent      float64        `yaml:"burdenPercent"`
	SalaryHoursPerYear float64        `yaml:"salaryHoursPerYear,omitempty"`
	Overhead           OverheadConfig `yaml:"overhead"`
	Pricing            PricingConfig  `yaml:"pricing"`
	Tax                TaxConfig      `yaml:"tax"`
}

// OverheadConfig describes fixed overhead and how jobs recover it.
type OverheadConfig struct {
	Method                string          `yaml:"method" json:"method"`
	FixedExpenses         []ExpenseConfig `yaml:"fixedExpenses,omitempty" json:"fixedExpenses"`
	ExpectedBillableHours float64         `yaml:"expectedBillableHours" json:"expectedBillableHours"`
	UtilizationPercent    float64         `yaml:"utilizationPercent" json:"utilizationPercent"`
	RecoveryPercent       float64         `yaml:"recoveryPercent,omitempty" json:"recoveryPercent"`
}

// ExpenseConfig is one fixed monthly expense category.
type ExpenseConfig struct {
	Name          string  `yaml:"name" json:"name"`
	MonthlyAmount float64 `yaml:"monthlyAmount" json:"monthlyAmount"`
}

// PricingConfig selects markup or margin pricing and the shared adjustments.
type PricingConfig struct {
	Mode                  string        `yaml:"mode" json:"mode"` // markup, margin
	Markup                MarkupConfig  `yaml:"markup,omitempty" json:"markup"`
	Margin                MarginConfig  `yaml:"margin,omitempty" json:"margin"`
	ContingencyPercent    float64       `yaml:"contingencyPercent" json:"contingencyPercent"`
	IncludeOverheadInCost bool          `yaml:"includeOverheadInCost" json:"includeOverheadInCost"`
	TotalRounding         RoundingToken `yaml:"totalRounding,omitempty" json:"totalRounding"`
}

// MarkupConfig holds per-category markup percentages.
type MarkupConfig struct {
	Labor     float64 `yaml:"labor" json:"labor"`
	Materials float64 `yaml:"materials" json:"materials"`
	Subs      float64 `yaml:"subs" json:"subs"`
	Equipment float64 `yaml:"equipment" json:"equipment"`
}

// MarginConfig holds margin pricing targets.
type MarginConfig struct {
	TargetGrossMarginPercent float64 `yaml:"targetGrossMarginPercent" json:"targetGrossMarginPercent"`
	TargetNetProfitPercent   float64 `yaml:"targetNetProfitPercent,omitempty" json:"targetNetProfitPercent"`
}

// TaxConfig holds sales tax rules.
type TaxConfig struct {
	Enabled     bool         `yaml:"enabled" json:"enabled"`
	RatePercent float64      `yaml:"ratePercent" json:"ratePercent"`
	AppliesTo   TaxAppliesTo `yaml:"appliesTo" json:"appliesTo"`
	Rounding    string       `yaml:"rounding,omitempty" json:"rounding"` // none, cent
}

// TaxAppliesTo flags the taxable cost categories.
type TaxAppliesTo struct {
	Materials bool `yaml:"materials" json:"materials"`
	Labor     bool `yaml:"labor" json:"labor"`
	Subs      bool `yaml:"subs" json:"subs"`
	Equipment bool `yaml:"equipment" json:"equipment"`
	Logistics bool `yaml:"logistics" json:"logistics"`
}

// Worker is one member of the crew roster.
type Worker struct {
	Name            string   `yaml:"name" json:"name"`
	EmploymentType  string   `yaml:"employmentType" json:"employmentType"` // hourly, salary, subcontract
	HourlyRate      float64  `yaml:"hourlyRate,omitempty" json:"hourlyRate"`
	SalaryAnnual    float64  `yaml:"salaryAnnual,omitempty" json:"salaryAnnual"`
	SubcontractRate float64  `yaml:"subcontractRate,omitempty" json:"subcontractRate"`
	BurdenOverride  *float64 `yaml:"burdenOverride,omitempty" json:"burdenOverride"`
}

// Estimate is a job to be priced.
type Estimate struct {
	Name   string      `yaml:"name"`
	Active bool        `yaml:"active"`
	Costs  CostsConfig `yaml:"costs"`
	Labor  []CrewHours `yaml:"labor,omitempty"`
}

// CostsConfig holds the raw job costs entered directly on an estimate.
type CostsConfig struct {
	Materials    float64 `yaml:"materials" json:"materials" validate:"gte=0"`
	LaborHours   float64 `yaml:"laborHours" json:"laborHours" validate:"gte=0"`
	LaborCostRaw float64 `yaml:"laborCostRaw" json:"laborCostRaw" validate:"gte=0"`
	Subs         float64 `yaml:"subs" json:"subs" validate:"gte=0"`
	Equipment    float64 `yaml:"equipment" json:"equipment" validate:"gte=0"`
	Logistics    float64 `yaml:"logistics" json:"logistics" validate:"gte=0"`
}

// CrewHours books a roster worker on an estimate.
type CrewHours struct {
	Worker string  `yaml:"worker"`
	Hours  float64 `yaml:"hours"`
}

// RoundingToken is a rounding rule as written in a config file. It accepts
// both numbers (5) and strings ("nearest_5", "none").
type RoundingToken string

// UnmarshalJSON accepts a JSON string or number.
func (r *RoundingToken) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = RoundingToken(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("rounding rule must be a string or number: %w", err)
	}
	*r = RoundingToken(n.String())
	return nil
}

// MarshalYAML writes numeric steps as numbers.
func (r RoundingToken) MarshalYAML() (interface{}, error) {
	if f, err := strconv.ParseFloat(string(r), 64); err == nil {
		return f, nil
	}
	return string(r), nil
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %w", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %w", err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	return &configuration, nil
}

// ActiveEstimates returns the estimates marked active, in file order.
func (conf *Configuration) ActiveEstimates() []Estimate {
	var active []Estimate
	for _, e := range conf.Estimates {
		if e.Active {
			active = append(active, e)
		}
	}
	return active
}

// WorkerByName finds a crew member by name, ignoring case and surrounding space.
func (conf *Configuration) WorkerByName(name string) (Worker, bool) {
	key := strings.TrimSpace(name)
	for _, w := range conf.Crew {
		if strings.EqualFold(strings.TrimSpace(w.Name), key) {
			return w, true
		}
	}
	return Worker{}, false
}
