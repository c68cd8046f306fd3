package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Domain rows store money as integer paise. API payloads and admin-facing
// amounts render rupees with two decimal places; decimal keeps the conversion
// exact in both directions.

var paisePerRupee = decimal.NewFromInt(100)

// RupeesFromPaise renders an integer paise amount as a rupee string ("525.00").
func RupeesFromPaise(paise int64) string {
	return decimal.NewFromInt(paise).Div(paisePerRupee).StringFixed(2)
}

// PaiseFromRupees parses a rupee amount ("525", "525.50") into integer paise.
// Fractions smaller than a paisa are rejected rather than rounded.
func PaiseFromRupees(value string) (int64, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	paise := d.Mul(paisePerRupee)
	if !paise.IsInteger() {
		return 0, fmt.Errorf("amount %q is not a whole number of paise", value)
	}
	if paise.IsNegative() {
		return 0, fmt.Errorf("amount %q is negative", value)
	}
	return paise.IntPart(), nil
}
