package money

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeReferenceScenario(t *testing.T) {
	// 2x100 + 1x50, 18% tax on the discounted amount, 10% discount.
	lines := []Line{
		{Quantity: 2, Rate: 100},
		{Quantity: 1, Rate: 50},
	}

	got := Compute(lines, 18, 10)

	assert.Equal(t, 250.00, got.Subtotal)
	assert.Equal(t, 25.00, got.DiscountAmount)
	assert.Equal(t, 225.00, got.AmountAfterDiscount)
	assert.Equal(t, 40.50, got.TaxAmount)
	assert.Equal(t, 265.50, got.TotalAmount)
}

func TestComputeDeterministic(t *testing.T) {
	lines := []Line{{Quantity: 3.5, Rate: 19.99}, {Quantity: 1, Rate: 0.01}}

	first := Compute(lines, 18, 5)
	second := Compute(lines, 18, 5)

	assert.Equal(t, first, second)
}

func TestComputeTotalIdentity(t *testing.T) {
	cases := []struct {
		lines    []Line
		tax      float64
		discount float64
	}{
		{[]Line{{1, 99.99}}, 18, 0},
		{[]Line{{7, 13.37}, {2, 0.05}}, 12.5, 7.5},
		{[]Line{{100, 0.01}}, 0, 100},
		{[]Line{}, 18, 10},
	}

	for _, tc := range cases {
		got := Compute(tc.lines, tc.tax, tc.discount)
		want := Round2(got.Subtotal - got.DiscountAmount + got.TaxAmount)
		assert.InDelta(t, want, got.TotalAmount, 0.011)
	}
}

func TestComputeSanitizesInvalidValues(t *testing.T) {
	lines := []Line{
		{Quantity: math.NaN(), Rate: 100},
		{Quantity: 2, Rate: math.Inf(1)},
		{Quantity: -5, Rate: 10},
		{Quantity: 1, Rate: 50},
	}

	got := Compute(lines, 18, 0)

	assert.Equal(t, 50.00, got.Subtotal)
	assert.Equal(t, 59.00, got.TotalAmount)
}

func TestComputeEmptyLines(t *testing.T) {
	got := Compute(nil, 18, 10)

	assert.Equal(t, Breakdown{}, got)
}

func TestLineAmount(t *testing.T) {
	assert.Equal(t, 39.98, LineAmount(Line{Quantity: 2, Rate: 19.99}))
	assert.Equal(t, 0.00, LineAmount(Line{Quantity: -2, Rate: 19.99}))
}
