package money

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Amount is a money value as it appears in request bodies. JSON numbers and
// strings are both accepted ("30", 30, "30.25").
type Amount struct {
	decimal.Decimal
}

// maximum accepted magnitude, in whole currency units
const maxUnits = 10_000_000

// ToCent converts the amount to integer cents. Values with more than two
// decimal places are rejected rather than silently rounded.
func (a Amount) ToCent() (int64, error) {
	cents := a.Mul(decimal.NewFromInt(100))
	if !cents.IsInteger() {
		return 0, fmt.Errorf("amount has more than two decimal places: %s", a.String())
	}
	n := cents.IntPart()
	if n > maxUnits*100 || n < -maxUnits*100 {
		return 0, fmt.Errorf("amount too large: %s", a.String())
	}
	return n, nil
}

// PositiveCent is ToCent restricted to strictly positive values, for
// transaction magnitudes.
func (a Amount) PositiveCent() (int64, error) {
	n, err := a.ToCent()
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("amount must be positive, got %s", a.String())
	}
	return n, nil
}

// FormatCent renders cents as a plain decimal string with two places,
// e.g. 1234 -> "12.34".
func FormatCent(cent int64) string {
	return strconv.FormatFloat(float64(cent)/100.0, 'f', 2, 64)
}
