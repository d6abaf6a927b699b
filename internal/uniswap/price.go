package uniswap

import (
	"math/big"
)

// PriceDecimals is the number of fractional digits in a formatted price.
const PriceDecimals = 6

var q192 = new(big.Int).Lsh(big.NewInt(1), 192)

// Slot0 is the subset of pool.slot0() used for pricing.
type Slot0 struct {
	SqrtPriceX96 *big.Int
	Tick         int32
}

// SpotPrice computes (sqrtPriceX96 / 2^96)^2 * 10^(baseDecimals - quoteDecimals).
func SpotPrice(sqrtPriceX96 *big.Int, baseDecimals, quoteDecimals int32) *big.Rat {
	if sqrtPriceX96 == nil {
		return new(big.Rat)
	}
	squared := new(big.Int).Mul(sqrtPriceX96, sqrtPriceX96)
	price := new(big.Rat).SetFrac(squared, q192)

	exp := baseDecimals - quoteDecimals
	if exp == 0 {
		return price
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(absInt32(exp))), nil)
	if exp > 0 {
		return price.Mul(price, new(big.Rat).SetInt(scale))
	}
	return price.Quo(price, new(big.Rat).SetInt(scale))
}

// FormatPrice renders a price with PriceDecimals fractional digits.
func FormatPrice(price *big.Rat) string {
	if price == nil {
		return new(big.Rat).FloatString(PriceDecimals)
	}
	return price.FloatString(PriceDecimals)
}

func absInt32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
