// Package money converts between decimal major units used on the wire and the
// int64 minor units stored in the ledger.
package money

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/cashout/internal/domain/errors"
)

var exponents = map[string]int32{
	"JPY": 0,
	"KRW": 0,
	"BHD": 3,
	"KWD": 3,
	"OMR": 3,
}

const defaultExponent int32 = 2

var (
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// Exponent returns the number of fractional digits of the currency's minor unit.
func Exponent(currency string) int32 {
	if exp, ok := exponents[strings.ToUpper(currency)]; ok {
		return exp
	}
	return defaultExponent
}

// ToMinor scales amount to minor units. Amounts with more fractional digits than
// the currency allows or outside the int64 range are rejected.
func ToMinor(amount decimal.Decimal, currency string) (int64, error) {
	shifted := amount.Shift(Exponent(currency))
	if !shifted.IsInteger() {
		return 0, domainErrors.ErrInvalidAmount
	}
	if shifted.GreaterThan(maxMinor) || shifted.LessThan(minMinor) {
		return 0, domainErrors.ErrInvalidAmount
	}
	return shifted.IntPart(), nil
}

// FromMinor converts minor units back to a decimal amount.
func FromMinor(amount int64, currency string) decimal.Decimal {
	return decimal.New(amount, -Exponent(currency))
}

// Format renders minor units with exactly the currency's fractional digits.
func Format(amount int64, currency string) string {
	return FromMinor(amount, currency).StringFixed(Exponent(currency))
}
