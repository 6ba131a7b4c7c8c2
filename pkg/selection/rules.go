package selection

import (
	"errors"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// BudgetBand maps a sample-count ceiling to a training budget in minutes.
// A zero MaxSamples band is the open-ended top tier.
type BudgetBand struct {
	MaxSamples int `yaml:"max_samples" json:"max_samples"`
	Minutes    int `yaml:"minutes" json:"minutes"`
}

// RulesConfig holds the tunable tables of the rule engine: budget bands per
// modality, backend hourly rates per tier, and the cost floor under which the
// engine refuses the managed AutoML tier.
type RulesConfig struct {
	TabularBands []BudgetBand       `yaml:"tabular_bands" json:"tabular_bands"`
	TextBands    []BudgetBand       `yaml:"text_bands" json:"text_bands"`
	ImageBands   []BudgetBand       `yaml:"image_bands" json:"image_bands"`
	HourlyRates  map[string]float64 `yaml:"hourly_rates" json:"hourly_rates"`
	CostFloorUSD float64            `yaml:"cost_floor_usd" json:"cost_floor_usd"`
}

// LoadRules reads a YAML override file or falls back to the built-in tables.
func LoadRules(path string) (RulesConfig, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultRules(), err
	}

	var cfg RulesConfig
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return RulesConfig{}, err
	}
	if len(cfg.TabularBands) == 0 {
		return RulesConfig{}, errors.New("no tabular budget bands configured")
	}
	if cfg.HourlyRates == nil {
		cfg.HourlyRates = DefaultRules().HourlyRates
	}
	if cfg.CostFloorUSD <= 0 {
		cfg.CostFloorUSD = DefaultRules().CostFloorUSD
	}
	return cfg, nil
}

// DefaultRules returns the built-in tables. Six tabular bands cover sample
// counts from under 100 to one million and beyond; budgets only grow with
// dataset size.
func DefaultRules() RulesConfig {
	return RulesConfig{
		TabularBands: []BudgetBand{
			{MaxSamples: 100, Minutes: 15},
			{MaxSamples: 1000, Minutes: 30},
			{MaxSamples: 10000, Minutes: 60},
			{MaxSamples: 100000, Minutes: 120},
			{MaxSamples: 1000000, Minutes: 240},
			{MaxSamples: 0, Minutes: 480},
		},
		TextBands: []BudgetBand{
			{MaxSamples: 1000, Minutes: 60},
			{MaxSamples: 10000, Minutes: 120},
			{MaxSamples: 100000, Minutes: 240},
			{MaxSamples: 0, Minutes: 480},
		},
		ImageBands: []BudgetBand{
			{MaxSamples: 1000, Minutes: 60},
			{MaxSamples: 10000, Minutes: 180},
			{MaxSamples: 100000, Minutes: 360},
			{MaxSamples: 0, Minutes: 720},
		},
		HourlyRates: map[string]float64{
			"automl-tabular":     21.25,
			"automl-text":        3.15,
			"automl-image":       3.465,
			"automl-forecasting": 21.25,
			"custom-training":    2.48,
		},
		CostFloorUSD: 25.0,
	}
}

// budgetMinutes resolves the band for a sample count. Bands are matched in
// ascending ceiling order; the zero-ceiling band catches everything else.
func budgetMinutes(bands []BudgetBand, numSamples int) int {
	sorted := make([]BudgetBand, len(bands))
	copy(sorted, bands)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].MaxSamples == 0 {
			return false
		}
		if sorted[j].MaxSamples == 0 {
			return true
		}
		return sorted[i].MaxSamples < sorted[j].MaxSamples
	})

	for _, band := range sorted {
		if band.MaxSamples == 0 || numSamples < band.MaxSamples {
			return band.Minutes
		}
	}
	if len(sorted) > 0 {
		return sorted[len(sorted)-1].Minutes
	}
	return 60
}

// tierCost prices a budget at the tier's hourly rate.
func (c RulesConfig) tierCost(product string, minutes int) float64 {
	rate, ok := c.HourlyRates[product]
	if !ok {
		rate = c.HourlyRates["custom-training"]
	}
	return float64(minutes) / 60.0 * rate
}
