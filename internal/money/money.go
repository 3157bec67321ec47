// Package money implements fixed-point monetary arithmetic on integer minor
// units (e.g. cents). It is the only place in the codebase where decimal or
// floating-point conversion happens; everywhere else amounts travel as Amount.
package money

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Amount is a monetary value in minor units.
type Amount int64

const (
	// MinorUnitsPerMajor is the number of minor units in one major unit.
	MinorUnitsPerMajor = 100

	// Max is the largest representable amount in minor units.
	Max = Amount(math.MaxInt64)
)

var (
	ErrInvalidAmount     = errors.New("invalid monetary amount")
	ErrAmountTooLarge    = errors.New("amount exceeds maximum representable value")
	ErrOverflow          = errors.New("amount overflow")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidFormat     = errors.New("invalid amount format")
)

// FromMajor converts a major-unit amount (human-entered decimal) to minor
// units, rounding to the nearest minor unit.
func FromMajor(major float64) (Amount, error) {
	if math.IsNaN(major) || math.IsInf(major, 0) {
		return 0, ErrInvalidAmount
	}
	if major < 0 {
		return 0, ErrInvalidAmount
	}

	rounded := math.Round(major * MinorUnitsPerMajor)
	// float64(math.MaxInt64) rounds up, so >= catches the boundary too.
	if rounded >= float64(math.MaxInt64) {
		return 0, ErrAmountTooLarge
	}

	return Amount(rounded), nil
}

// ToMajor converts minor units back to a major-unit float. Only for display
// boundaries; never feed the result back into arithmetic.
func ToMajor(a Amount) (float64, error) {
	if a < 0 {
		return 0, ErrInvalidAmount
	}
	return float64(a) / MinorUnitsPerMajor, nil
}

// Add returns a+b, failing with ErrOverflow past Max.
func Add(a, b Amount) (Amount, error) {
	if a < 0 || b < 0 {
		return 0, ErrInvalidAmount
	}
	if b > Max-a {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// Subtract returns a-b, failing with ErrInsufficientFunds when a < b.
func Subtract(a, b Amount) (Amount, error) {
	if a < 0 || b < 0 {
		return 0, ErrInvalidAmount
	}
	if a < b {
		return 0, ErrInsufficientFunds
	}
	return a - b, nil
}

// Format renders an amount with two decimal places, e.g. 123456 -> "1234.56".
func Format(a Amount) string {
	return fmt.Sprintf("%d.%02d", a/MinorUnitsPerMajor, a%MinorUnitsPerMajor)
}

// Parse reads a major-unit string with either "." or "," as the decimal
// separator and converts it to minor units.
func Parse(input string) (Amount, error) {
	normalized := strings.TrimSpace(strings.ReplaceAll(input, ",", "."))
	major, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, ErrInvalidFormat
	}
	return FromMajor(major)
}
