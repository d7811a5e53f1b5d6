// Package moneypkg converts between display amounts and int64 minor currency units.
package moneypkg

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// MinorDigits is the number of fractional digits held in minor units.
const MinorDigits = 2

// Errors returned by Parse.
var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTooManyDecimals = fmt.Errorf("amount must have at most %d decimal places", MinorDigits)
	ErrOutOfRange      = errors.New("amount is out of range")
)

var (
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// Parse converts a display amount such as "150.25" to minor units.
func Parse(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	minor := d.Shift(MinorDigits)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("%w: %q", ErrTooManyDecimals, s)
	}

	if minor.GreaterThan(maxMinor) || minor.LessThan(minMinor) {
		return 0, fmt.Errorf("%w: %q", ErrOutOfRange, s)
	}

	return minor.IntPart(), nil
}

// Format renders minor units as a display amount with exactly MinorDigits decimals.
func Format(minor int64) string {
	return decimal.New(minor, -MinorDigits).StringFixed(MinorDigits)
}

// Valid reports whether s parses to a positive amount.
func Valid(s string) bool {
	v, err := Parse(s)
	return err == nil && v > 0
}
