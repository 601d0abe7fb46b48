package pricing

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoclaim/models"
)

var gst18 = decimal.RequireFromString("0.18")

func defaultCatalog(t *testing.T) *Catalog {
	t.Helper()
	cat, err := DefaultCatalog()
	require.NoError(t, err)
	return cat
}

func decision(key string, d models.RepairDecision, severity int) models.PartDecision {
	return models.PartDecision{Part: key, PartKey: key, Decision: d, SeverityScore: severity, Justification: "seen"}
}

func TestPrice_HatchbackFrontBumperRepair(t *testing.T) {
	cat := defaultCatalog(t)

	est := Price(
		[]models.PartDecision{decision("front_bumper", models.DecisionRepair, 3)},
		models.VehicleHatchback, models.WorkshopIndependent, models.PricingAftermarket, gst18, cat,
	)

	require.Len(t, est.LineItems, 1)
	item := est.LineItems[0]
	assert.Equal(t, "front_bumper", item.PartKey)
	assert.Equal(t, models.DecisionRepair, item.Action)
	assert.False(t, item.IsEstimatedCost)
	assert.Equal(t, "seen", item.Justification)

	// 3800 aftermarket x 0.70, 2.5h repair_panel x 600
	assert.Equal(t, "2660.00", item.PartCost.StringFixed(2))
	assert.Equal(t, "1500.00", item.LaborCost.StringFixed(2))
	assert.Equal(t, "4160.00", item.Subtotal.StringFixed(2))
	assert.Equal(t, "748.80", item.GST.StringFixed(2))
	assert.Equal(t, "4908.80", item.Total.StringFixed(2))

	assert.True(t, est.GrandTotal.Equal(item.Total))
	assert.Equal(t, "50000.00", est.ApprovalThreshold.StringFixed(2))
	assert.Equal(t, models.ApprovalAutoApprove, est.ApprovalStatus)
	assert.Equal(t, models.VehicleHatchback, est.VehicleClass)
	assert.True(t, est.GSTRate.Equal(gst18))
}

func TestPrice_EmptyDecisionsDeclined(t *testing.T) {
	est := Price(nil, models.VehicleSedan, models.WorkshopShowroom, models.PricingOEM, gst18, defaultCatalog(t))

	assert.NotNil(t, est.LineItems)
	assert.Empty(t, est.LineItems)
	assert.True(t, est.GrandTotal.IsZero())
	assert.True(t, est.Subtotal.IsZero())
	assert.True(t, est.GST.IsZero())
	assert.Equal(t, models.ApprovalDeclined, est.ApprovalStatus)

	raw, err := json.Marshal(est)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"line_items":[]`)
}

func TestPrice_SkipsNonChargeableSeverity(t *testing.T) {
	est := Price(
		[]models.PartDecision{decision("hood", models.DecisionRepair, 0), decision("grille", models.DecisionReplace, 2)},
		models.VehicleSUV, models.WorkshopIndependent, models.PricingOEM, gst18, defaultCatalog(t),
	)
	require.Len(t, est.LineItems, 1)
	assert.Equal(t, "grille", est.LineItems[0].PartKey)
}

func TestPrice_TotalsAreExactSums(t *testing.T) {
	cat := defaultCatalog(t)
	rates := []string{"0", "0.05", "0.18", "0.2875"}

	for _, vc := range models.VehicleClasses {
		for _, wt := range []models.WorkshopType{models.WorkshopIndependent, models.WorkshopShowroom} {
			for _, pm := range []models.PricingMode{models.PricingOEM, models.PricingAftermarket} {
				for _, r := range rates {
					var decisions []models.PartDecision
					for i, key := range append(cat.Parts(), "mud_flap", "spoiler") {
						d := models.DecisionRepair
						if i%2 == 1 {
							d = models.DecisionReplace
						}
						decisions = append(decisions, decision(key, d, i%6+1))
					}

					est := Price(decisions, vc, wt, pm, decimal.RequireFromString(r), cat)
					require.Len(t, est.LineItems, len(decisions))

					sumTotal, sumSub, sumGST := decimal.Zero, decimal.Zero, decimal.Zero
					for i, item := range est.LineItems {
						assert.Equal(t, decisions[i].PartKey, item.PartKey)
						assert.False(t, item.PartCost.IsNegative())
						assert.True(t, item.Subtotal.Equal(item.PartCost.Add(item.LaborCost)))
						assert.True(t, item.Total.Equal(item.Subtotal.Add(item.GST)))
						sumTotal = sumTotal.Add(item.Total)
						sumSub = sumSub.Add(item.Subtotal)
						sumGST = sumGST.Add(item.GST)
					}
					assert.True(t, est.GrandTotal.Equal(sumTotal))
					assert.True(t, est.GrandTotal.Equal(est.Subtotal.Add(est.GST)))
					assert.True(t, est.Subtotal.Equal(sumSub))
					assert.True(t, est.GST.Equal(sumGST))
					assert.False(t, est.GrandTotal.IsNegative())
				}
			}
		}
	}
}

func TestPrice_Idempotent(t *testing.T) {
	cat := defaultCatalog(t)
	decisions := []models.PartDecision{
		decision("hood", models.DecisionReplace, 5),
		decision("headlamp_left", models.DecisionReplace, 6),
		decision("unknown_trim", models.DecisionRepair, 2),
	}

	first, err := json.Marshal(Price(decisions, models.VehicleLuxury, models.WorkshopShowroom, models.PricingOEM, gst18, cat))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := json.Marshal(Price(decisions, models.VehicleLuxury, models.WorkshopShowroom, models.PricingOEM, gst18, cat))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestPrice_MonotonicInSeverity(t *testing.T) {
	cat := defaultCatalog(t)

	for _, key := range append(cat.Parts(), "not_in_catalog") {
		for _, d := range []models.RepairDecision{models.DecisionRepair, models.DecisionReplace} {
			prev := decimal.Zero
			for sev := 1; sev <= 6; sev++ {
				est := Price([]models.PartDecision{decision(key, d, sev)},
					models.VehicleSedan, models.WorkshopIndependent, models.PricingOEM, gst18, cat)
				total := est.LineItems[0].Total
				assert.False(t, total.LessThan(prev), "%s %s severity %d", key, d, sev)
				prev = total
			}
		}
	}
}

func TestPrice_ShowroomLaborNotCheaper(t *testing.T) {
	cat := defaultCatalog(t)
	d := []models.PartDecision{decision("door_front_left", models.DecisionReplace, 4)}

	indep := Price(d, models.VehicleSedan, models.WorkshopIndependent, models.PricingOEM, gst18, cat)
	show := Price(d, models.VehicleSedan, models.WorkshopShowroom, models.PricingOEM, gst18, cat)

	assert.True(t, show.LineItems[0].LaborCost.GreaterThanOrEqual(indep.LineItems[0].LaborCost))
	assert.True(t, show.LineItems[0].PartCost.Equal(indep.LineItems[0].PartCost))
}

func TestPrice_UnknownPartUsesEstimatedCost(t *testing.T) {
	cat := defaultCatalog(t)

	est := Price([]models.PartDecision{decision("mud_flap", models.DecisionReplace, 4)},
		models.VehicleHatchback, models.WorkshopIndependent, models.PricingAftermarket, gst18, cat)

	item := est.LineItems[0]
	assert.True(t, item.IsEstimatedCost)
	assert.True(t, item.PartCost.IsPositive())
	// replace_panel: 4h x 600
	assert.Equal(t, "2400.00", item.LaborCost.StringFixed(2))
}

func TestPrice_ThresholdBoundaryIsManualReview(t *testing.T) {
	cat, err := ParseCatalog([]byte(`
default_part_price: 100
hourly_rates: {independent: 0, showroom: 0}
approval_thresholds: {hatchback: 1000, sedan: 2000, suv: 3000, luxury: 4000}
severity_multipliers:
  REPAIR: [1, 1, 1, 1, 1, 1]
  REPLACE: [1, 1, 1, 1, 1, 1]
labor_operations: {repair_panel: 0, replace_panel: 0}
parts:
  panel:
    hatchback: {oem: 1000, aftermarket: 999.99}
`))
	require.NoError(t, err)

	at := Price([]models.PartDecision{decision("panel", models.DecisionRepair, 3)},
		models.VehicleHatchback, models.WorkshopIndependent, models.PricingOEM, decimal.Zero, cat)
	assert.Equal(t, "1000.00", at.GrandTotal.StringFixed(2))
	assert.Equal(t, models.ApprovalManualReview, at.ApprovalStatus)

	below := Price([]models.PartDecision{decision("panel", models.DecisionRepair, 3)},
		models.VehicleHatchback, models.WorkshopIndependent, models.PricingAftermarket, decimal.Zero, cat)
	assert.Equal(t, models.ApprovalAutoApprove, below.ApprovalStatus)
}

func TestApprove(t *testing.T) {
	threshold := decimal.NewFromInt(50000)
	tests := []struct {
		total string
		want  models.ApprovalStatus
	}{
		{"0", models.ApprovalDeclined},
		{"0.01", models.ApprovalAutoApprove},
		{"49999.99", models.ApprovalAutoApprove},
		{"50000", models.ApprovalManualReview},
		{"50000.00", models.ApprovalManualReview},
		{"120000", models.ApprovalManualReview},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Approve(decimal.RequireFromString(tt.total), threshold), tt.total)
	}
}

func TestDefaultCatalog_Shape(t *testing.T) {
	cat := defaultCatalog(t)

	prev := decimal.Zero
	for _, vc := range models.VehicleClasses {
		assert.True(t, cat.Threshold(vc).GreaterThan(prev), vc)
		prev = cat.Threshold(vc)
	}
	assert.True(t, cat.HourlyRate(models.WorkshopShowroom).GreaterThanOrEqual(cat.HourlyRate(models.WorkshopIndependent)))

	op, hours := cat.LaborOperation("front_bumper", models.DecisionRepair)
	assert.Equal(t, "repair_panel", op)
	assert.Equal(t, "2.5", hours.String())

	op, _ = cat.LaborOperation("headlamp_right", models.DecisionReplace)
	assert.Equal(t, "replace_lamp", op)
	op, _ = cat.LaborOperation("bonnet_scoop", models.DecisionReplace)
	assert.Equal(t, "replace_panel", op)

	assert.Equal(t, "0.4", cat.Multiplier(models.DecisionRepair, 1).String())
	assert.Equal(t, "1.3", cat.Multiplier(models.DecisionReplace, 6).String())
	assert.Equal(t, "1.3", cat.Multiplier(models.DecisionReplace, 9).String())
}

func TestPartPrice_FallbackChain(t *testing.T) {
	cat, err := ParseCatalog([]byte(`
default_part_price: 5000
hourly_rates: {independent: 600, showroom: 1100}
approval_thresholds: {hatchback: 1, sedan: 2, suv: 3, luxury: 4}
severity_multipliers:
  REPAIR: [1, 1, 1, 1, 1, 1]
  REPLACE: [1, 1, 1, 1, 1, 1]
labor_operations: {repair_panel: 1, replace_panel: 1}
parts:
  hood:
    sedan: {oem: 300, aftermarket: 200}
  grille:
    sedan: {oem: 100, aftermarket: 50}
`))
	require.NoError(t, err)

	p, est := cat.PartPrice("hood", models.VehicleSedan, models.PricingOEM)
	assert.Equal(t, "300.00", p.StringFixed(2))
	assert.False(t, est)

	p, est = cat.PartPrice("hood", models.VehicleSUV, models.PricingOEM)
	assert.Equal(t, "300.00", p.StringFixed(2))
	assert.True(t, est)

	p, est = cat.PartPrice("mirror", models.VehicleSedan, models.PricingAftermarket)
	assert.Equal(t, "125.00", p.StringFixed(2))
	assert.True(t, est)

	p, est = cat.PartPrice("mirror", models.VehicleLuxury, models.PricingOEM)
	assert.Equal(t, "5000.00", p.StringFixed(2))
	assert.True(t, est)
}

func TestParseCatalog_Invalid(t *testing.T) {
	_, err := ParseCatalog([]byte(`
default_part_price: 0
hourly_rates: {independent: 900, showroom: 500}
approval_thresholds: {hatchback: 5000, sedan: 4000, suv: 6000}
severity_multipliers:
  REPAIR: [1, 0.5, 1, 1, 1, 1]
  REPLACE: [1, 1]
labor_operations: {repair_panel: 1}
part_operations: {hood: replace_hood}
`))
	require.Error(t, err)
	for _, want := range []string{
		"default_part_price must be positive",
		"showroom must be at least",
		"approval_thresholds.luxury is required",
		"approval_thresholds.sedan must exceed",
		"severity_multipliers.REPAIR must not decrease",
		"severity_multipliers.REPLACE needs 6 values",
		"labor_operations.replace_panel is required",
		`unknown operation "replace_hood"`,
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoadCatalog(t *testing.T) {
	cat, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Contains(t, cat.Parts(), "front_bumper")

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, defaultCatalogYAML, 0o600))
	fromFile, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, cat.Parts(), fromFile.Parts())

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
