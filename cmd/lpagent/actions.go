package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"liquidityAgent/internal/liquidity"
)

func runPrice(cmd *cobra.Command, _ []string) error {
	fee, _ := cmd.Flags().GetUint32("fee-tier")
	return runAction(cmd, liquidity.ActionGetPrice, func(ctx context.Context, a *app) string {
		return a.svc.GetPrice(ctx, a.wallet, liquidity.GetPriceRequest{FeeTier: fee})
	})
}

func runCreate(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	req := liquidity.CreateLiquidityRequest{}
	req.AmountWETH, _ = f.GetString("amount-weth")
	req.AmountUSDC, _ = f.GetString("amount-usdc")
	req.TickLower, _ = f.GetInt64("tick-lower")
	req.TickUpper, _ = f.GetInt64("tick-upper")
	req.FeeTier, _ = f.GetInt64("fee-tier")
	req.Slippage, _ = f.GetFloat64("slippage")

	return runAction(cmd, liquidity.ActionCreateLiquidity, func(ctx context.Context, a *app) string {
		return a.svc.CreateLiquidity(ctx, a.wallet, req)
	})
}

func runPosition(cmd *cobra.Command, args []string) error {
	return runAction(cmd, liquidity.ActionGetPosition, func(ctx context.Context, a *app) string {
		return a.svc.GetPosition(ctx, a.wallet, liquidity.GetPositionRequest{TokenID: args[0]})
	})
}

// runAction prints the action result to stdout and fails the command when the
// result is an error message.
func runAction(cmd *cobra.Command, action string, fn func(context.Context, *app) string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	msg := fn(ctx, a)
	fmt.Fprintln(cmd.OutOrStdout(), msg)
	if strings.HasPrefix(msg, "Error") {
		return fmt.Errorf("%s failed", action)
	}
	return nil
}
