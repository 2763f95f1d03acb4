// Package money derives invoice amounts from line items and rates. All
// functions are pure so callers can preview totals without persistence.
package money

import "math"

// Line is a quantity/rate pair taken from an invoice line item.
type Line struct {
	Quantity float64
	Rate     float64
}

// Breakdown holds the five derived amounts, each rounded to 2 decimal places.
type Breakdown struct {
	Subtotal            float64
	DiscountAmount      float64
	AmountAfterDiscount float64
	TaxAmount           float64
	TotalAmount         float64
}

// Compute derives the monetary breakdown. Discount applies to the subtotal;
// tax applies to the post-discount amount. Non-finite or negative inputs are
// treated as zero rather than rejected.
func Compute(lines []Line, taxRatePercent, discountRatePercent float64) Breakdown {
	var subtotal float64
	for _, line := range lines {
		subtotal += sanitize(line.Quantity) * sanitize(line.Rate)
	}

	discount := subtotal * (sanitize(discountRatePercent) / 100)
	afterDiscount := subtotal - discount
	tax := afterDiscount * (sanitize(taxRatePercent) / 100)
	total := afterDiscount + tax

	return Breakdown{
		Subtotal:            Round2(subtotal),
		DiscountAmount:      Round2(discount),
		AmountAfterDiscount: Round2(afterDiscount),
		TaxAmount:           Round2(tax),
		TotalAmount:         Round2(total),
	}
}

// LineAmount returns the rounded amount for a single line.
func LineAmount(line Line) float64 {
	return Round2(sanitize(line.Quantity) * sanitize(line.Rate))
}

// Round2 rounds to 2 decimal places. Derived amounts are rounded exactly once,
// here, and never again downstream.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
