package compliance

import (
	"time"

	"github.com/shopspring/decimal"
)

const hoursPerYear = 24 * 365.25

// Evaluation is the outcome of evaluating a unit against the catalog.
type Evaluation struct {
	AgeYears      int
	RequiredTests []RuleDefinition
	NextDue       time.Time
	// BrandKnown is false when the brand had no periodicity mapping and the
	// default interval was applied. Callers must surface this for audit.
	BrandKnown bool
}

// AgeYears computes whole-year age by day count. Truncates, never rounds:
// nine years and eleven months is age nine. A manufacture date in the future
// yields zero.
func AgeYears(manufactured, asOf time.Time) int {
	if manufactured.IsZero() || !manufactured.Before(asOf) {
		return 0
	}
	years := int(asOf.Sub(manufactured).Hours() / hoursPerYear)
	if years < 0 {
		return 0
	}
	return years
}

// Evaluate derives the mandatory test set and next-due date for a unit.
// lastInspection may be zero when the unit has never been inspected; the
// periodicity then counts from the manufacture date.
func Evaluate(cat Catalog, manufactured time.Time, brand string, lastInspection, asOf time.Time) Evaluation {
	age := AgeYears(manufactured, asOf)
	years, known := cat.PeriodicityFor(brand)

	base := lastInspection
	if base.IsZero() {
		base = manufactured
	}

	return Evaluation{
		AgeYears:      age,
		RequiredTests: cat.RequiredTests(age),
		NextDue:       base.AddDate(years, 0, 0),
		BrandKnown:    known,
	}
}

// RequiredTests returns every test a unit of the given age is subject to.
// Repeat-cycle filtering is intentionally not applied here; use TestsDueAt
// when planning the worklist for a specific service date.
func (c Catalog) RequiredTests(ageYears int) []RuleDefinition {
	var out []RuleDefinition
	for _, rule := range c.Rules {
		if ageYears >= rule.MinAgeYears {
			out = append(out, rule)
		}
	}
	return out
}

// TestsDueAt narrows RequiredTests to the tests actually due in the service
// year: tests with a repeat cycle apply only in years that are multiples of
// the cycle relative to manufacture.
func (c Catalog) TestsDueAt(ageYears int) []RuleDefinition {
	var out []RuleDefinition
	for _, rule := range c.RequiredTests(ageYears) {
		if rule.RepeatYears > 0 && ageYears%rule.RepeatYears != 0 {
			continue
		}
		out = append(out, rule)
	}
	return out
}

// EstimateCost sums the nominal cost of a test set.
func EstimateCost(tests []RuleDefinition) decimal.Decimal {
	total := decimal.Zero
	for _, rule := range tests {
		total = total.Add(rule.Cost)
	}
	return total
}
