package pricing

import (
	"github.com/shopspring/decimal"

	"autoclaim/models"
)

const moneyPlaces = 2

// Price turns part decisions into an itemized estimate and an approval
// verdict. It performs no I/O and has no hidden inputs: the same arguments
// always produce the same result.
//
// Decisions with a non-positive severity are not chargeable and produce no
// line item. Each line rounds its part cost, labor cost and GST to the
// currency unit once; the estimate totals are plain sums of the lines.
func Price(
	decisions []models.PartDecision,
	vc models.VehicleClass,
	wt models.WorkshopType,
	pm models.PricingMode,
	gstRate decimal.Decimal,
	cat *Catalog,
) models.EstimateResult {
	rate := cat.HourlyRate(wt)

	items := make([]models.EstimateLineItem, 0, len(decisions))
	subtotal, gst, grand := decimal.Zero, decimal.Zero, decimal.Zero

	for _, d := range decisions {
		if d.SeverityScore <= 0 {
			continue
		}
		item := priceLine(d, vc, wt, pm, gstRate, rate, cat)
		items = append(items, item)

		subtotal = subtotal.Add(item.Subtotal)
		gst = gst.Add(item.GST)
		grand = grand.Add(item.Total)
	}

	threshold := cat.Threshold(vc)
	return models.EstimateResult{
		LineItems:         items,
		Subtotal:          subtotal,
		GST:               gst,
		GrandTotal:        grand,
		ApprovalStatus:    Approve(grand, threshold),
		ApprovalThreshold: threshold,
		GSTRate:           gstRate,
		VehicleClass:      vc,
		PricingMode:       pm,
		WorkshopType:      wt,
	}
}

// Approve applies the approval rule: nothing chargeable is declined, totals
// strictly below the threshold are approved automatically, and everything
// else goes to manual review.
func Approve(grandTotal, threshold decimal.Decimal) models.ApprovalStatus {
	switch {
	case grandTotal.IsZero():
		return models.ApprovalDeclined
	case grandTotal.LessThan(threshold):
		return models.ApprovalAutoApprove
	default:
		return models.ApprovalManualReview
	}
}

func priceLine(
	d models.PartDecision,
	vc models.VehicleClass,
	wt models.WorkshopType,
	pm models.PricingMode,
	gstRate, hourlyRate decimal.Decimal,
	cat *Catalog,
) models.EstimateLineItem {
	base, estimated := cat.PartPrice(d.PartKey, vc, pm)
	partCost := base.Mul(cat.Multiplier(d.Decision, d.SeverityScore)).Round(moneyPlaces)

	_, hours := cat.LaborOperation(d.PartKey, d.Decision)
	laborCost := hours.Mul(hourlyRate).Round(moneyPlaces)

	subtotal := partCost.Add(laborCost)
	gst := subtotal.Mul(gstRate).Round(moneyPlaces)

	return models.EstimateLineItem{
		Part:            d.Part,
		PartKey:         d.PartKey,
		Action:          d.Decision,
		SeverityScore:   d.SeverityScore,
		PartCost:        partCost,
		LaborCost:       laborCost,
		Subtotal:        subtotal,
		GST:             gst,
		Total:           subtotal.Add(gst),
		PricingMode:     pm,
		WorkshopType:    wt,
		IsEstimatedCost: estimated,
		Justification:   d.Justification,
	}
}
