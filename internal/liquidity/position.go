package liquidity

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"liquidityAgent/internal/amount"
	"liquidityAgent/internal/model"
	"liquidityAgent/internal/uniswap"
	"liquidityAgent/internal/wallet"
)

// GetPosition summarises a position NFT held by the position manager.
func (s *Service) GetPosition(ctx context.Context, w wallet.Provider, req GetPositionRequest) string {
	start := s.now()
	rec := s.newRecord(ActionGetPosition, w)
	msg, err := s.getPosition(ctx, w, req, &rec)
	return s.finish(ctx, &rec, start, msg, err)
}

func (s *Service) getPosition(ctx context.Context, w wallet.Provider, req GetPositionRequest, rec *model.ActionRecord) (string, error) {
	if err := requireWallet(w); err != nil {
		return "", err
	}
	tokenID, err := req.ParseTokenID()
	if err != nil {
		return "", fail(ErrInvalidRequest, err, "Error: Invalid get_position arguments: %v", err)
	}
	rec.TokenID = tokenID.String()

	deployment, err := s.resolveDeployment(ctx, w, rec)
	if err != nil {
		return "", err
	}

	pos, err := uniswap.ReadPosition(ctx, w, deployment.PositionManager, tokenID)
	if err != nil {
		return "", fail(ErrContractRead, err, "Error: Could not read position %s: %v", tokenID.String(), err)
	}
	rec.FeeTier = pos.Fee
	rec.TickLower = &pos.TickLower
	rec.TickUpper = &pos.TickUpper

	token0 := s.tokenInfo(ctx, w, deployment, pos.Token0)
	token1 := s.tokenInfo(ctx, w, deployment, pos.Token1)

	var b strings.Builder
	fmt.Fprintf(&b, "Uniswap V3 position %s:\n", tokenID.String())
	fmt.Fprintf(&b, "- Pair: %s/%s\n", token0.symbol, token1.symbol)
	fmt.Fprintf(&b, "- Fee tier: %d\n", pos.Fee)
	fmt.Fprintf(&b, "- Price range ticks: %d to %d\n", pos.TickLower, pos.TickUpper)
	fmt.Fprintf(&b, "- Liquidity: %s\n", pos.Liquidity.String())
	fmt.Fprintf(&b, "- Tokens owed: %s %s, %s %s",
		token0.format(pos.TokensOwed0), token0.symbol,
		token1.format(pos.TokensOwed1), token1.symbol,
	)
	if pos.Operator != (common.Address{}) {
		fmt.Fprintf(&b, "\n- Operator: %s", pos.Operator.Hex())
	}
	return b.String(), nil
}

type tokenInfo struct {
	symbol   string
	decimals int32
	known    bool
}

func (t tokenInfo) format(v *big.Int) string {
	if !t.known {
		return v.String()
	}
	return amount.FromAtomic(v, t.decimals)
}

// tokenInfo prefers the registry and falls back to ERC-20 metadata reads.
// Tokens whose decimals cannot be read are shown in atomic units.
func (s *Service) tokenInfo(ctx context.Context, w wallet.Provider, deployment uniswap.Deployment, token common.Address) tokenInfo {
	if asset, ok := deployment.AssetByAddress(token); ok {
		return tokenInfo{symbol: strings.ToUpper(asset.Symbol), decimals: asset.Decimals, known: true}
	}

	meta, err := uniswap.FetchTokenMeta(ctx, w, token, s.logger)
	if err != nil {
		s.logger.Debug("token metadata unavailable", zap.String("token", token.Hex()), zap.Error(err))
		return tokenInfo{symbol: token.Hex()}
	}
	symbol := meta.Symbol
	if symbol == "" {
		symbol = token.Hex()
	}
	return tokenInfo{symbol: symbol, decimals: int32(meta.Decimals), known: true}
}
