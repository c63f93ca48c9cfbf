package billing

import (
	"math"

	"github.com/Editorhacker/Invoice/internal/models"
)

// Totals is the computed money breakdown for a set of line items.
type Totals struct {
	Subtotal  float64 `json:"subtotal"`
	TaxAmount float64 `json:"taxAmount"`
	Total     float64 `json:"total"`
}

// Calculate sums line items in the order given and applies the tax rate as a
// percentage of the subtotal. It is a pure function: no rounding, no
// validation. Negative quantities or rates pass through untouched; rejecting
// them is a policy the callers deliberately do not apply.
func Calculate(items []models.LineItem, taxRate float64) Totals {
	var subtotal float64
	for _, item := range items {
		subtotal += item.Quantity * item.Rate
	}
	tax := subtotal * (taxRate / 100)
	return Totals{
		Subtotal:  subtotal,
		TaxAmount: tax,
		Total:     subtotal + tax,
	}
}

// Round2 rounds to currency precision. Applied only at persistence and
// presentation boundaries; intermediate math stays in full float precision.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
