package liquidity

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"liquidityAgent/internal/uniswap"
)

const (
	DefaultFeeTier  = uniswap.FeeMedium
	DefaultSlippage = 0.5
	// MintGasLimit is the fixed gas limit of the mint transaction.
	MintGasLimit uint64 = 3_000_000

	maxUint24 = 1<<24 - 1
)

// CreateLiquidityRequest is the input of create_liquidity. FeeTier and
// Slippage are taken as given; callers apply DefaultFeeTier and
// DefaultSlippage when the agent omits them. Any FeeTier without a known
// spacing, zero and negatives included, mints on the 0.05% tier.
type CreateLiquidityRequest struct {
	AmountWETH string
	AmountUSDC string
	TickLower  int64
	TickUpper  int64
	FeeTier    int64
	Slippage   float64
}

func (r CreateLiquidityRequest) withDefaults() CreateLiquidityRequest {
	r.AmountWETH = strings.TrimSpace(r.AmountWETH)
	r.AmountUSDC = strings.TrimSpace(r.AmountUSDC)
	return r
}

// Validate checks the request shape. Amount syntax is checked during
// conversion.
func (r CreateLiquidityRequest) Validate() error {
	if r.AmountWETH == "" {
		return fmt.Errorf("amount_weth is required")
	}
	if r.AmountUSDC == "" {
		return fmt.Errorf("amount_usdc is required")
	}
	if err := validateTick("tick_lower", r.TickLower); err != nil {
		return err
	}
	if err := validateTick("tick_upper", r.TickUpper); err != nil {
		return err
	}
	if math.IsNaN(r.Slippage) || r.Slippage < 0 || r.Slippage >= 100 {
		return fmt.Errorf("slippage must be in [0, 100), got %v", r.Slippage)
	}
	return nil
}

// tickSpacing resolves the pool fee and spacing used for the mint.
func (r CreateLiquidityRequest) tickSpacing() (spacing int32, fee uint32, recognised bool) {
	if r.FeeTier < 0 || r.FeeTier > math.MaxUint32 {
		return uniswap.TickSpacing(0)
	}
	return uniswap.TickSpacing(uint32(r.FeeTier))
}

// GetPriceRequest is the input of get_price. A zero FeeTier selects
// DefaultFeeTier.
type GetPriceRequest struct {
	FeeTier uint32
}

func (r GetPriceRequest) withDefaults() GetPriceRequest {
	if r.FeeTier == 0 {
		r.FeeTier = DefaultFeeTier
	}
	return r
}

func (r GetPriceRequest) Validate() error {
	return validateFeeTier(r.FeeTier)
}

// GetPositionRequest is the input of get_position.
type GetPositionRequest struct {
	TokenID string
}

// ParseTokenID parses a positive decimal token id that fits in uint256.
func (r GetPositionRequest) ParseTokenID() (*big.Int, error) {
	value := strings.TrimSpace(r.TokenID)
	id, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("token_id %q is not a decimal integer", r.TokenID)
	}
	if id.Sign() <= 0 || id.BitLen() > 256 {
		return nil, fmt.Errorf("token_id %q out of range", r.TokenID)
	}
	return id, nil
}

func validateTick(name string, tick int64) error {
	if tick < uniswap.MinTick || tick > uniswap.MaxTick {
		return fmt.Errorf("%s %d outside [%d, %d]", name, tick, uniswap.MinTick, uniswap.MaxTick)
	}
	return nil
}

func validateFeeTier(fee uint32) error {
	if fee > maxUint24 {
		return fmt.Errorf("fee_tier %d does not fit in uint24", fee)
	}
	return nil
}
