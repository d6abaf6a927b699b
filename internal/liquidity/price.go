package liquidity

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"liquidityAgent/internal/model"
	"liquidityAgent/internal/uniswap"
	"liquidityAgent/internal/wallet"
)

// GetPrice reads slot0 of the WETH/USDC pool for a fee tier and quotes USDC per WETH.
func (s *Service) GetPrice(ctx context.Context, w wallet.Provider, req GetPriceRequest) string {
	start := s.now()
	rec := s.newRecord(ActionGetPrice, w)
	msg, err := s.getPrice(ctx, w, req, &rec)
	return s.finish(ctx, &rec, start, msg, err)
}

func (s *Service) getPrice(ctx context.Context, w wallet.Provider, req GetPriceRequest, rec *model.ActionRecord) (string, error) {
	if err := requireWallet(w); err != nil {
		return "", err
	}
	req = req.withDefaults()
	if err := req.Validate(); err != nil {
		return "", fail(ErrInvalidRequest, err, "Error: Invalid get_price arguments: %v", err)
	}
	rec.FeeTier = req.FeeTier

	deployment, err := s.resolveDeployment(ctx, w, rec)
	if err != nil {
		return "", err
	}
	weth, usdc, err := resolvePair(deployment)
	if err != nil {
		return "", fail(ErrAddressResolution, err, "Error: Could not get asset addresses: %v", err)
	}

	pool, err := uniswap.GetPool(ctx, w, deployment.Factory, weth.Address, usdc.Address, req.FeeTier)
	if err != nil {
		return "", fail(ErrPoolNotFound, err, "Error: Failed to fetch pool address: %v", err)
	}
	if pool == (common.Address{}) {
		return "", fail(ErrPoolNotFound, nil, "Error: No pool found for fee tier %d", req.FeeTier)
	}

	slot0, err := uniswap.ReadSlot0(ctx, w, pool)
	if err != nil {
		return "", fail(ErrPoolRead, err, "Error fetching pool state (slot0): %v", err)
	}

	price := uniswap.SpotPrice(slot0.SqrtPriceX96, weth.Decimals, usdc.Decimals)
	return fmt.Sprintf("Current WETH/USDC price: %s USDC per WETH (tick: %d)", uniswap.FormatPrice(price), slot0.Tick), nil
}
