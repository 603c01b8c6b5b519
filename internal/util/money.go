package util

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FormatCents renders integer cents as a dollar amount, e.g. 200 -> "$2.00".
func FormatCents(cents int64) string {
	d := decimal.New(cents, -2)
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

// ParseCents converts a decimal amount such as "19.99" to cents. Amounts
// with fractions of a cent, negative amounts and values that do not fit a
// Postgres integer column are rejected.
func ParseCents(amount string) (int64, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return 0, errors.New("amount must not be negative")
	}

	cents := d.Mul(hundred)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, fmt.Errorf("amount %q has fractional cents", amount)
	}
	if cents.GreaterThan(decimal.NewFromInt(math.MaxInt32)) {
		return 0, fmt.Errorf("amount %q is too large", amount)
	}
	return cents.IntPart(), nil
}

// SumLineTotals multiplies each unit price by its quantity and adds them up.
func SumLineTotals(prices []int64, quantities []int) (int64, error) {
	if len(prices) != len(quantities) {
		return 0, errors.New("prices and quantities differ in length")
	}
	total := decimal.Zero
	for i := range prices {
		total = total.Add(decimal.NewFromInt(prices[i]).Mul(decimal.NewFromInt(int64(quantities[i]))))
	}
	if total.GreaterThan(decimal.NewFromInt(math.MaxInt32)) {
		return 0, errors.New("order total exceeds the storable range")
	}
	return total.IntPart(), nil
}
