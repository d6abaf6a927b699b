// Package amount converts between human-readable token amounts and atomic units.
package amount

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DeadlineWindow is how long a submitted position mint stays valid.
const DeadlineWindow = 30 * time.Minute

// ErrInvalidAmount is returned when an amount string cannot be parsed.
var ErrInvalidAmount = errors.New("invalid amount format")

// maxAtomicDigits bounds the integer part of a converted amount; uint256
// has 78 decimal digits.
const maxAtomicDigits = 78

var (
	hundred    = decimal.NewFromInt(100)
	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

// ToAtomic parses a decimal or exponential string into atomic units.
// Fractional digits beyond decimals are truncated, not rounded. Results that
// do not fit in uint256 are rejected.
func ToAtomic(value string, decimals int32) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, value)
	}
	if d.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative amount %s", ErrInvalidAmount, value)
	}
	if d.IsZero() {
		return new(big.Int), nil
	}

	exp := int64(d.Exponent()) + int64(decimals)
	if exp > maxAtomicDigits {
		return nil, fmt.Errorf("%w: %s exceeds uint256", ErrInvalidAmount, value)
	}
	if exp < 0 && -exp > int64(len(d.Coefficient().String())) {
		return new(big.Int), nil
	}

	out := d.Shift(decimals).Truncate(0).BigInt()
	if out.Cmp(maxUint256) > 0 {
		return nil, fmt.Errorf("%w: %s exceeds uint256", ErrInvalidAmount, value)
	}
	return out, nil
}

// FromAtomic formats atomic units as a decimal string without trailing zeros.
func FromAtomic(value *big.Int, decimals int32) string {
	if value == nil || value.Sign() == 0 {
		return "0"
	}
	return decimal.NewFromBigInt(value, -decimals).String()
}

// ApplySlippage returns floor(value * (1 - percent/100)), never below zero.
func ApplySlippage(value *big.Int, percent float64) *big.Int {
	if value == nil {
		return new(big.Int)
	}
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(percent).Div(hundred))
	out := decimal.NewFromBigInt(value, 0).Mul(factor).Floor().BigInt()
	if out.Sign() < 0 {
		return new(big.Int)
	}
	return out
}

// Deadline returns the unix timestamp after which a mint is rejected on chain.
func Deadline(now time.Time) int64 {
	return now.Add(DeadlineWindow).Unix()
}
