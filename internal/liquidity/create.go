package liquidity

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"liquidityAgent/internal/amount"
	"liquidityAgent/internal/metrics"
	"liquidityAgent/internal/model"
	"liquidityAgent/internal/uniswap"
	"liquidityAgent/internal/wallet"
)

// CreateLiquidity approves WETH and USDC for the position manager and mints a
// new position on the WETH/USDC pool.
func (s *Service) CreateLiquidity(ctx context.Context, w wallet.Provider, req CreateLiquidityRequest) string {
	start := s.now()
	rec := s.newRecord(ActionCreateLiquidity, w)
	msg, err := s.createLiquidity(ctx, w, req, &rec)
	return s.finish(ctx, &rec, start, msg, err)
}

func (s *Service) createLiquidity(ctx context.Context, w wallet.Provider, req CreateLiquidityRequest, rec *model.ActionRecord) (string, error) {
	if err := requireWallet(w); err != nil {
		return "", err
	}
	req = req.withDefaults()
	if err := req.Validate(); err != nil {
		return "", fail(ErrInvalidRequest, err, "Error: Invalid create_liquidity arguments: %v", err)
	}

	deployment, err := s.resolveDeployment(ctx, w, rec)
	if err != nil {
		return "", err
	}
	weth, usdc, err := resolvePair(deployment)
	if err != nil {
		return "", fail(ErrAddressResolution, err, "Error: Could not get asset addresses on %s: %v", deployment.Key, err)
	}

	wethDesired, err := amount.ToAtomic(req.AmountWETH, weth.Decimals)
	if err != nil {
		return "", fail(ErrInvalidRequest, err, "Error: Invalid amount format: %s", req.AmountWETH)
	}
	usdcDesired, err := amount.ToAtomic(req.AmountUSDC, usdc.Decimals)
	if err != nil {
		return "", fail(ErrInvalidRequest, err, "Error: Invalid amount format: %s", req.AmountUSDC)
	}

	owner := w.Address()
	wethBalance, err := uniswap.BalanceOf(ctx, w, weth.Address, owner)
	if err != nil {
		return "", creationFailure(ErrContractRead, err)
	}
	usdcBalance, err := uniswap.BalanceOf(ctx, w, usdc.Address, owner)
	if err != nil {
		return "", creationFailure(ErrContractRead, err)
	}
	if wethBalance.Cmp(wethDesired) < 0 {
		return "", fail(ErrInsufficientBalance, nil, "Error: Insufficient WETH balance. You have %s WETH, but need %s WETH",
			amount.FromAtomic(wethBalance, weth.Decimals), req.AmountWETH)
	}
	if usdcBalance.Cmp(usdcDesired) < 0 {
		return "", fail(ErrInsufficientBalance, nil, "Error: Insufficient USDC balance. You have %s USDC, but need %s USDC",
			amount.FromAtomic(usdcBalance, usdc.Decimals), req.AmountUSDC)
	}

	wethMin := amount.ApplySlippage(wethDesired, req.Slippage)
	usdcMin := amount.ApplySlippage(usdcDesired, req.Slippage)

	s.logger.Debug("balances checked",
		zap.String("weth_balance", amount.FromAtomic(wethBalance, weth.Decimals)),
		zap.String("usdc_balance", amount.FromAtomic(usdcBalance, usdc.Decimals)),
		zap.String("weth_needed", req.AmountWETH),
		zap.String("usdc_needed", req.AmountUSDC),
	)

	for _, approval := range []struct {
		token  uniswap.Asset
		amount *big.Int
	}{
		{weth, wethDesired},
		{usdc, usdcDesired},
	} {
		if err := s.approve(ctx, w, approval.token.Address, deployment.PositionManager, approval.amount, rec); err != nil {
			return "", creationFailure(ErrApproval, fmt.Errorf("approve %s: %w", strings.ToUpper(approval.token.Symbol), err))
		}
	}

	spacing, fee, recognised := req.tickSpacing()
	if !recognised {
		s.logger.Warn("unsupported fee tier, defaulting to 0.05%",
			zap.Int64("requested", req.FeeTier),
			zap.Uint32("fee", fee),
		)
	}
	tickLower, tickUpper := uniswap.AlignTicks(int32(req.TickLower), int32(req.TickUpper), spacing)
	rec.FeeTier = fee
	rec.TickLower = &tickLower
	rec.TickUpper = &tickUpper

	token0, token1, swapped := uniswap.SortTokens(weth.Address, usdc.Address)
	amount0, amount1 := wethDesired, usdcDesired
	min0, min1 := wethMin, usdcMin
	if swapped {
		amount0, amount1 = amount1, amount0
		min0, min1 = min1, min0
	}

	params := uniswap.MintParams{
		Token0:         token0,
		Token1:         token1,
		Fee:            fee,
		TickLower:      tickLower,
		TickUpper:      tickUpper,
		Amount0Desired: amount0,
		Amount1Desired: amount1,
		Amount0Min:     min0,
		Amount1Min:     min1,
		Recipient:      owner,
		Deadline:       amount.Deadline(s.now()),
	}
	data, err := uniswap.EncodeMint(params)
	if err != nil {
		return "", creationFailure(ErrMint, err)
	}

	s.logger.Info("submitting mint",
		zap.String("position_manager", deployment.PositionManager.Hex()),
		zap.String("token0", token0.Hex()),
		zap.String("token1", token1.Hex()),
		zap.Uint32("fee", fee),
		zap.Int32("tick_lower", tickLower),
		zap.Int32("tick_upper", tickUpper),
		zap.String("amount0", amount0.String()),
		zap.String("amount1", amount1.String()),
		zap.Float64("slippage", req.Slippage),
		zap.Int64("deadline", params.Deadline),
	)

	hash, receipt, err := s.submit(ctx, w, wallet.TxRequest{To: deployment.PositionManager, Data: data, Gas: MintGasLimit}, metrics.TxMint, rec)
	if err != nil {
		return "", creationFailure(ErrMint, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		s.metrics.RecordTxFailed(metrics.TxMint)
		return "", fail(ErrMint, nil, "Error: Liquidity position creation failed. Transaction hash: %s", hash.Hex())
	}
	s.metrics.RecordTxConfirmed(metrics.TxMint)

	var b strings.Builder
	fmt.Fprintf(&b, "Successfully created Uniswap V3 liquidity position with:\n")
	fmt.Fprintf(&b, "- %s WETH\n", req.AmountWETH)
	fmt.Fprintf(&b, "- %s USDC\n", req.AmountUSDC)
	fmt.Fprintf(&b, "- Price range ticks: %d to %d (aligned with fee tier spacing)\n", tickLower, tickUpper)
	fmt.Fprintf(&b, "- Fee tier: %d\n", fee)
	fmt.Fprintf(&b, "Transaction hash: %s", hash.Hex())

	if tokenID, ok := uniswap.FindMintedTokenID(receipt.Logs, deployment.PositionManager); ok && tokenID.Sign() > 0 {
		rec.TokenID = tokenID.String()
		fmt.Fprintf(&b, "\nPosition NFT ID: %s", tokenID.String())
	}
	increase, ok, err := uniswap.DecodeIncreaseLiquidity(receipt.Logs, deployment.PositionManager)
	if err != nil {
		s.logger.Debug("decode increase liquidity failed", zap.String("tx", hash.Hex()), zap.Error(err))
	} else if ok {
		fmt.Fprintf(&b, "\nLiquidity minted: %s", increase.Liquidity.String())
	}

	return b.String(), nil
}

// approve sends ERC20.approve(spender, value) and requires a successful receipt.
func (s *Service) approve(ctx context.Context, w wallet.Provider, token, spender common.Address, value *big.Int, rec *model.ActionRecord) error {
	data, err := uniswap.EncodeApprove(spender, value)
	if err != nil {
		return err
	}
	hash, receipt, err := s.submit(ctx, w, wallet.TxRequest{To: token, Data: data}, metrics.TxApprove, rec)
	if err != nil {
		return err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		s.metrics.RecordTxFailed(metrics.TxApprove)
		return fmt.Errorf("transaction %s reverted", hash.Hex())
	}
	s.metrics.RecordTxConfirmed(metrics.TxApprove)
	return nil
}

// submit sends a transaction and blocks until its receipt is available.
func (s *Service) submit(ctx context.Context, w wallet.Provider, req wallet.TxRequest, txType string, rec *model.ActionRecord) (common.Hash, *types.Receipt, error) {
	hash, err := w.SendTransaction(ctx, req)
	if err != nil {
		return common.Hash{}, nil, fmt.Errorf("send %s transaction: %w", txType, err)
	}
	rec.TxHashes = append(rec.TxHashes, hash.Hex())
	s.metrics.RecordTxSent(txType)

	receipt, err := w.WaitForReceipt(ctx, hash)
	if err != nil {
		s.metrics.RecordTxFailed(txType)
		return hash, nil, fmt.Errorf("wait for %s receipt %s: %w", txType, hash.Hex(), err)
	}
	if receipt == nil {
		s.metrics.RecordTxFailed(txType)
		return hash, nil, fmt.Errorf("empty %s receipt %s", txType, hash.Hex())
	}
	return hash, receipt, nil
}
