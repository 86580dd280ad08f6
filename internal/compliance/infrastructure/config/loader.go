package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	compliance "github.com/azorean79/gestor-naval-pro-sub005/internal/compliance/domain"
)

// ruleFile mirrors the YAML layout of a rule catalog file.
type ruleFile struct {
	Version                 string         `yaml:"version"`
	Rules                   []ruleEntry    `yaml:"rules"`
	Periodicities           map[string]int `yaml:"periodicities"`
	DefaultPeriodicityYears int            `yaml:"default_periodicity_years"`
}

type ruleEntry struct {
	Name        string `yaml:"name"`
	MinAgeYears int    `yaml:"min_age_years"`
	RepeatYears int    `yaml:"repeat_years"`
	Citation    string `yaml:"citation"`
	Cost        string `yaml:"cost"`
}

// Load builds the rule catalog. It starts from the built-in defaults and, when
// the CATALOG_CONFIG env var (or the explicit path argument) names a YAML
// file, replaces the rule set and merges brand periodicities from it.
func Load(path string) (compliance.Catalog, error) {
	cat := compliance.DefaultCatalog()

	if path == "" {
		path = os.Getenv("CATALOG_CONFIG")
	}
	if path == "" {
		return cat, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cat, fmt.Errorf("catalog config: %w", err)
	}
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cat, fmt.Errorf("catalog config: %w", err)
	}

	if file.Version != "" {
		cat.Version = file.Version
	}
	if file.DefaultPeriodicityYears > 0 {
		cat.DefaultPeriodicityYears = file.DefaultPeriodicityYears
	}
	if len(file.Rules) > 0 {
		rules := make([]compliance.RuleDefinition, 0, len(file.Rules))
		for _, entry := range file.Rules {
			cost := decimal.Zero
			if entry.Cost != "" {
				cost, err = decimal.NewFromString(entry.Cost)
				if err != nil {
					return cat, fmt.Errorf("catalog config: rule %q: bad cost %q", entry.Name, entry.Cost)
				}
			}
			rules = append(rules, compliance.RuleDefinition{
				Name:        entry.Name,
				MinAgeYears: entry.MinAgeYears,
				RepeatYears: entry.RepeatYears,
				Citation:    entry.Citation,
				Cost:        cost,
			})
		}
		cat.Rules = rules
	}
	for brand, years := range file.Periodicities {
		cat.Periodicities[compliance.CanonicalBrand(brand)] = years
	}

	if err := cat.Validate(); err != nil {
		return cat, err
	}
	return cat, nil
}
