// Package pricing holds the repair price catalog and the deterministic
// pricing and approval engine.
package pricing

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"autoclaim/models"
)

const (
	severityLevels = 6

	opRepairPanel  = "repair_panel"
	opReplacePanel = "replace_panel"
)

//go:embed default_catalog.yaml
var defaultCatalogYAML []byte

type rawCatalog struct {
	DefaultPartPrice    float64                                  `yaml:"default_part_price"`
	HourlyRates         map[string]float64                       `yaml:"hourly_rates"`
	ApprovalThresholds  map[string]float64                       `yaml:"approval_thresholds"`
	SeverityMultipliers map[string][]float64                     `yaml:"severity_multipliers"`
	LaborOperations     map[string]float64                       `yaml:"labor_operations"`
	PartOperations      map[string]string                        `yaml:"part_operations"`
	Parts               map[string]map[string]map[string]float64 `yaml:"parts"`
}

type partPrice map[models.PricingMode]decimal.Decimal

// Catalog is the read-only price book. It is built once by LoadCatalog or
// ParseCatalog and never mutated afterwards, so it is safe to share between
// concurrent pricing calls.
type Catalog struct {
	defaultPrice decimal.Decimal
	hourlyRates  map[models.WorkshopType]decimal.Decimal
	thresholds   map[models.VehicleClass]decimal.Decimal
	curves       map[models.RepairDecision][severityLevels]decimal.Decimal
	laborHours   map[string]decimal.Decimal
	partOps      map[string]string
	parts        map[string]map[models.VehicleClass]partPrice
	classAverage map[models.VehicleClass]partPrice
}

// LoadCatalog reads a YAML catalog from path, or the embedded default
// catalog when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	cat, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return cat, nil
}

func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalogYAML)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var raw rawCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	cat, errs := build(raw)
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid catalog: %w", errors.Join(errs...))
	}
	return cat, nil
}

func build(raw rawCatalog) (*Catalog, []error) {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}
	money := func(v float64) decimal.Decimal {
		return decimal.NewFromFloat(v).Round(2)
	}

	cat := &Catalog{
		defaultPrice: money(raw.DefaultPartPrice),
		hourlyRates:  make(map[models.WorkshopType]decimal.Decimal),
		thresholds:   make(map[models.VehicleClass]decimal.Decimal),
		curves:       make(map[models.RepairDecision][severityLevels]decimal.Decimal),
		laborHours:   make(map[string]decimal.Decimal),
		partOps:      make(map[string]string),
		parts:        make(map[string]map[models.VehicleClass]partPrice),
		classAverage: make(map[models.VehicleClass]partPrice),
	}
	if !cat.defaultPrice.IsPositive() {
		fail("default_part_price must be positive")
	}

	for name, rate := range raw.HourlyRates {
		wt, err := models.ParseWorkshopType(name)
		if err != nil {
			fail("hourly_rates: %v", err)
			continue
		}
		if rate < 0 {
			fail("hourly_rates.%s must not be negative", name)
		}
		cat.hourlyRates[wt] = money(rate)
	}
	indep, okI := cat.hourlyRates[models.WorkshopIndependent]
	show, okS := cat.hourlyRates[models.WorkshopShowroom]
	switch {
	case !okI || !okS:
		fail("hourly_rates must define independent and showroom")
	case show.LessThan(indep):
		fail("hourly_rates.showroom must be at least hourly_rates.independent")
	}

	for name, v := range raw.ApprovalThresholds {
		vc, err := models.ParseVehicleClass(name)
		if err != nil {
			fail("approval_thresholds: %v", err)
			continue
		}
		cat.thresholds[vc] = money(v)
	}
	prev := decimal.Zero
	for _, vc := range models.VehicleClasses {
		t, ok := cat.thresholds[vc]
		if !ok {
			fail("approval_thresholds.%s is required", vc)
			continue
		}
		if !t.GreaterThan(prev) {
			fail("approval_thresholds.%s must exceed the previous vehicle class", vc)
		}
		prev = t
	}

	for _, d := range []models.RepairDecision{models.DecisionRepair, models.DecisionReplace} {
		vals, ok := raw.SeverityMultipliers[string(d)]
		if !ok || len(vals) != severityLevels {
			fail("severity_multipliers.%s needs %d values", d, severityLevels)
			continue
		}
		var curve [severityLevels]decimal.Decimal
		for i, v := range vals {
			curve[i] = decimal.NewFromFloat(v)
			if !curve[i].IsPositive() {
				fail("severity_multipliers.%s[%d] must be positive", d, i)
			}
			if i > 0 && curve[i].LessThan(curve[i-1]) {
				fail("severity_multipliers.%s must not decrease with severity", d)
			}
		}
		cat.curves[d] = curve
	}

	for op, hours := range raw.LaborOperations {
		if hours < 0 {
			fail("labor_operations.%s must not be negative", op)
		}
		cat.laborHours[op] = decimal.NewFromFloat(hours)
	}
	for _, op := range []string{opRepairPanel, opReplacePanel} {
		if _, ok := cat.laborHours[op]; !ok {
			fail("labor_operations.%s is required", op)
		}
	}
	for part, op := range raw.PartOperations {
		if _, ok := cat.laborHours[op]; !ok {
			fail("part_operations.%s references unknown operation %q", part, op)
		}
		cat.partOps[part] = op
	}

	sums := make(map[models.VehicleClass]partPrice)
	counts := make(map[models.VehicleClass]int64)
	for part, classes := range raw.Parts {
		if part != strings.ToLower(part) {
			fail("parts.%s: part keys must be lowercase", part)
		}
		byClass := make(map[models.VehicleClass]partPrice, len(classes))
		for name, modes := range classes {
			vc, err := models.ParseVehicleClass(name)
			if err != nil {
				fail("parts.%s: %v", part, err)
				continue
			}
			price := make(partPrice, 2)
			for _, pm := range []models.PricingMode{models.PricingOEM, models.PricingAftermarket} {
				v, ok := modes[string(pm)]
				if !ok || v <= 0 {
					fail("parts.%s.%s.%s must be a positive price", part, vc, pm)
				}
				price[pm] = money(v)
			}
			byClass[vc] = price

			if sums[vc] == nil {
				sums[vc] = partPrice{models.PricingOEM: decimal.Zero, models.PricingAftermarket: decimal.Zero}
			}
			for pm, v := range price {
				sums[vc][pm] = sums[vc][pm].Add(v)
			}
			counts[vc]++
		}
		cat.parts[part] = byClass
	}
	for vc, sum := range sums {
		avg := make(partPrice, len(sum))
		for pm, v := range sum {
			avg[pm] = v.Div(decimal.NewFromInt(counts[vc])).Round(2)
		}
		cat.classAverage[vc] = avg
	}

	slices.SortFunc(errs, func(a, b error) int { return strings.Compare(a.Error(), b.Error()) })
	return cat, errs
}

// Threshold is the grand total at or above which a claim needs manual review.
func (c *Catalog) Threshold(vc models.VehicleClass) decimal.Decimal {
	return c.thresholds[vc]
}

func (c *Catalog) HourlyRate(wt models.WorkshopType) decimal.Decimal {
	return c.hourlyRates[wt]
}

// Multiplier returns the part cost factor for a decision at the given
// severity. Severity is clamped to 1..6.
func (c *Catalog) Multiplier(d models.RepairDecision, severity int) decimal.Decimal {
	curve, ok := c.curves[d]
	if !ok {
		curve = c.curves[models.DecisionReplace]
	}
	return curve[min(max(severity, 1), severityLevels)-1]
}

// LaborOperation returns the labor operation and its hours for a part
// decision.
func (c *Catalog) LaborOperation(partKey string, d models.RepairDecision) (string, decimal.Decimal) {
	op := opRepairPanel
	if d != models.DecisionRepair {
		op = opReplacePanel
		if mapped, ok := c.partOps[partKey]; ok {
			op = mapped
		}
	}
	return op, c.laborHours[op]
}

// PartPrice looks a base price up by part, class and mode. When the class has
// no entry it falls back to the same part in the first class listing it, then to
// the class average, then to the default part price. Any fallback is
// reported as estimated.
func (c *Catalog) PartPrice(partKey string, vc models.VehicleClass, pm models.PricingMode) (decimal.Decimal, bool) {
	if byClass, ok := c.parts[partKey]; ok {
		if p, ok := byClass[vc]; ok {
			return p[pm], false
		}
		for _, other := range models.VehicleClasses {
			if p, ok := byClass[other]; ok {
				return p[pm], true
			}
		}
	}
	if avg, ok := c.classAverage[vc]; ok {
		return avg[pm], true
	}
	return c.defaultPrice, true
}

// Parts returns the catalog's part keys in sorted order.
func (c *Catalog) Parts() []string {
	keys := make([]string, 0, len(c.parts))
	for k := range c.parts {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
