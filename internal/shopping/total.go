package shopping

import "github.com/shopspring/decimal"

// TaxRate is the flat sales tax applied to every basket subtotal.
// Locale-specific rates are a future configuration concern.
var TaxRate = decimal.RequireFromString("0.0825")

// RunningTotal keeps the live subtotal/tax/total of a session. All three
// amounts are kept at two decimal places; rounding is applied on every
// mutation, not only at display time, so a sequence of small additions
// can differ from one bulk computation by a cent. That stepwise behavior
// is intentional and must not change.
type RunningTotal struct {
	Subtotal decimal.Decimal `json:"subtotal" db:"subtotal"`
	Tax      decimal.Decimal `json:"tax" db:"tax"`
	Total    decimal.Decimal `json:"total" db:"total"`
}

// NewRunningTotal returns a zeroed running total.
func NewRunningTotal() RunningTotal {
	return RunningTotal{
		Subtotal: decimal.Zero,
		Tax:      decimal.Zero,
		Total:    decimal.Zero,
	}
}

// Recalculate derives tax and total from the current subtotal.
// Invariant after return: Total == Subtotal + Tax.
func (rt *RunningTotal) Recalculate() {
	rt.Tax = rt.Subtotal.Mul(TaxRate).Round(2)
	rt.Total = rt.Subtotal.Add(rt.Tax).Round(2)
}

// AddToSubtotal adds amount to the subtotal and recalculates tax and total.
func (rt *RunningTotal) AddToSubtotal(amount decimal.Decimal) {
	rt.Subtotal = rt.Subtotal.Add(amount).Round(2)
	rt.Recalculate()
}

// SubtractFromSubtotal subtracts amount from the subtotal, flooring the
// subtotal at zero, then recalculates tax and total.
func (rt *RunningTotal) SubtractFromSubtotal(amount decimal.Decimal) {
	rt.Subtotal = rt.Subtotal.Sub(amount).Round(2)
	if rt.Subtotal.IsNegative() {
		rt.Subtotal = decimal.Zero
	}
	rt.Recalculate()
}

// Reset zeroes the running total.
func (rt *RunningTotal) Reset() {
	rt.Subtotal = decimal.Zero
	rt.Tax = decimal.Zero
	rt.Total = decimal.Zero
}
