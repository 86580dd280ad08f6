package compliance

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RuleDefinition describes one mandatory SOLAS/IMO test.
type RuleDefinition struct {
	// Name identifies the test ("Visual Inspection", "NAP Test", ...).
	Name string
	// MinAgeYears is the unit age from which the test applies. 0 means always.
	MinAgeYears int
	// RepeatYears is the repeat cycle relative to manufacture. 0 means every
	// inspection.
	RepeatYears int
	// Citation is the regulatory reference.
	Citation string
	// Cost is the nominal workshop cost for the test.
	Cost decimal.Decimal
}

// Catalog is the immutable rule configuration handed to the evaluator.
// It is built once at startup and shared by any number of readers.
type Catalog struct {
	Version                 string
	Rules                   []RuleDefinition
	Periodicities           map[string]int
	DefaultPeriodicityYears int
}

// Validate checks catalog invariants and reports every offending entry.
func (c Catalog) Validate() error {
	var problems []string
	if c.DefaultPeriodicityYears <= 0 {
		problems = append(problems, "default periodicity must be positive")
	}
	seen := make(map[string]struct{}, len(c.Rules))
	for i, rule := range c.Rules {
		if strings.TrimSpace(rule.Name) == "" {
			problems = append(problems, fmt.Sprintf("rule %d: empty name", i))
			continue
		}
		if _, dup := seen[rule.Name]; dup {
			problems = append(problems, fmt.Sprintf("rule %q: duplicate name", rule.Name))
		}
		seen[rule.Name] = struct{}{}
		if rule.MinAgeYears < 0 {
			problems = append(problems, fmt.Sprintf("rule %q: negative minimum age", rule.Name))
		}
		if rule.RepeatYears < 0 {
			problems = append(problems, fmt.Sprintf("rule %q: negative repeat interval", rule.Name))
		}
		if rule.Cost.IsNegative() {
			problems = append(problems, fmt.Sprintf("rule %q: negative cost", rule.Name))
		}
	}
	for brand, years := range c.Periodicities {
		if strings.TrimSpace(brand) == "" {
			problems = append(problems, "periodicity with empty brand")
		}
		if years <= 0 {
			problems = append(problems, fmt.Sprintf("brand %q: periodicity must be positive", brand))
		}
	}
	if len(problems) > 0 {
		return errors.New("compliance catalog: " + strings.Join(problems, "; "))
	}
	return nil
}

// PeriodicityFor returns the re-inspection interval for a brand and whether
// the brand is mapped. Unknown brands fall back to the default interval.
func (c Catalog) PeriodicityFor(brand string) (int, bool) {
	key := CanonicalBrand(brand)
	if key != "" {
		if years, ok := c.Periodicities[key]; ok {
			return years, true
		}
	}
	return c.DefaultPeriodicityYears, false
}

// RuleByName looks up a rule definition.
func (c Catalog) RuleByName(name string) (RuleDefinition, bool) {
	for _, rule := range c.Rules {
		if rule.Name == name {
			return rule, true
		}
	}
	return RuleDefinition{}, false
}

// CanonicalBrand normalizes a brand name for periodicity lookup.
func CanonicalBrand(brand string) string {
	return strings.ToUpper(strings.TrimSpace(brand))
}

// Rule names used by the default catalog.
const (
	TestVisualInspection = "Visual Inspection"
	TestPressure         = "Pressure Test"
	TestFullService      = "Full Service Test"
	TestNAP              = "NAP Test"
	TestGasInflation     = "Gas Inflation Test"
)

// DefaultCatalog returns the built-in SOLAS/IMO rule set. A YAML file may
// replace or extend it at startup.
func DefaultCatalog() Catalog {
	return Catalog{
		Version: "builtin",
		Rules: []RuleDefinition{
			{
				Name:        TestVisualInspection,
				MinAgeYears: 0,
				RepeatYears: 0,
				Citation:    "SOLAS III/20, IMO MSC.218(82)",
				Cost:        decimal.NewFromInt(150),
			},
			{
				Name:        TestPressure,
				MinAgeYears: 5,
				RepeatYears: 5,
				Citation:    "SOLAS III/20.8, IMO MSC.48(66)",
				Cost:        decimal.NewFromInt(200),
			},
			{
				Name:        TestFullService,
				MinAgeYears: 10,
				RepeatYears: 0,
				Citation:    "IMO MSC.81(70) Annex 1",
				Cost:        decimal.NewFromInt(350),
			},
			{
				Name:        TestNAP,
				MinAgeYears: 10,
				RepeatYears: 0,
				Citation:    "IMO MSC.81(70) Annex 2",
				Cost:        decimal.NewFromInt(300),
			},
			{
				Name:        TestGasInflation,
				MinAgeYears: 5,
				RepeatYears: 5,
				Citation:    "SOLAS III/20.11, IMO MSC.218(82)",
				Cost:        decimal.NewFromInt(450),
			},
		},
		Periodicities: map[string]int{
			"PLASTIMO": 3,
			"ZODIAC":   3,
			"RFD":      1,
			"VIKING":   1,
			"SURVITEC": 1,
			"DSB":      1,
		},
		DefaultPeriodicityYears: 1,
	}
}
