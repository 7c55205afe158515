package domain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

var ten = big.NewInt(10)

func pow10(n int64) *big.Int {
	return new(big.Int).Exp(ten, big.NewInt(n), nil)
}

// ScaleExpo converts mantissa*10^expo to PriceDecimals fixed point, truncating extra digits.
func ScaleExpo(mantissa *big.Int, expo int32) *big.Int {
	shift := int64(expo) + int64(PriceDecimals)
	out := new(big.Int).Set(mantissa)
	switch {
	case shift > 0:
		out.Mul(out, pow10(shift))
	case shift < 0:
		out.Quo(out, pow10(-shift))
	}
	return out
}

// ParseFixed converts a decimal string ("2005.123", "1e3") to PriceDecimals fixed point, truncating.
func ParseFixed(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return FromDecimal(d), nil
}

// FromDecimal truncates d to PriceDecimals fractional digits and returns the scaled integer.
func FromDecimal(d decimal.Decimal) *big.Int {
	return d.Shift(int32(PriceDecimals)).Truncate(0).BigInt()
}

// FromMinorUnits converts an integer amount of minor units (e.g. cents) to fixed point.
func FromMinorUnits(amount *big.Int, divisor int64) *big.Int {
	if divisor <= 0 {
		divisor = 1
	}
	out := new(big.Int).Mul(amount, pow10(int64(PriceDecimals)))
	return out.Quo(out, big.NewInt(divisor))
}

// FormatFixed renders a fixed-point value as a decimal string with PriceDecimals places.
func FormatFixed(v *big.Int) string {
	if v == nil {
		v = new(big.Int)
	}
	return decimal.NewFromBigInt(v, -int32(PriceDecimals)).StringFixed(int32(PriceDecimals))
}
