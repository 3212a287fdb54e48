// Package money converts provider amount strings to and from the smallest
// currency unit. Amounts are stored as int64 tiyin (1/100 of a sum).
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// MinorUnitExp is the number of decimal places of the smallest currency unit.
const MinorUnitExp = 2

var ErrInvalidAmount = errors.New("invalid amount")

// ParseMinor parses a decimal amount such as "10000", "10000.5" or "10000.00"
// into minor units. Amounts with more precision than MinorUnitExp or negative
// amounts are rejected instead of being rounded.
func ParseMinor(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: negative %q", ErrInvalidAmount, s)
	}
	shifted := d.Shift(MinorUnitExp)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, fmt.Errorf("%w: too precise %q", ErrInvalidAmount, s)
	}
	if shifted.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return 0, fmt.Errorf("%w: out of range %q", ErrInvalidAmount, s)
	}
	return shifted.IntPart(), nil
}

// FormatMinor renders minor units as a major-unit decimal string with exactly
// MinorUnitExp fractional digits, e.g. 1000050 -> "10000.50".
func FormatMinor(minor int64) string {
	return decimal.New(minor, -MinorUnitExp).StringFixed(MinorUnitExp)
}
