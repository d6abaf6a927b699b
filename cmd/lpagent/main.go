package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"liquidityAgent/internal/config"
	"liquidityAgent/internal/liquidity"
)

const version = "0.1.0"

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "dotenv: %v\n", err)
	}

	root := &cobra.Command{
		Use:          "lpagent",
		Short:        "Uniswap V3 liquidity agent for WETH/USDC on Ethereum mainnet",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file path")
	flags.String("rpc", "", "Ethereum JSON-RPC URL")
	flags.String("private-key", "", "hex private key of the signing wallet")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Duration("receipt-timeout", 5*time.Minute, "maximum wait for a transaction receipt")
	flags.Duration("receipt-poll-interval", 2*time.Second, "receipt polling interval")
	flags.Int("max-retries", 3, "maximum retry attempts for RPC reads")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	flags.String("journal", "", "append action records to this JSONL file")
	flags.String("pg-dsn", "", "record actions in Postgres")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the liquidity tools over MCP stdio",
		RunE:  runServe,
	}
	serveCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9102)")
	root.AddCommand(serveCmd)

	priceCmd := &cobra.Command{
		Use:   "price",
		Short: "Print the current WETH/USDC pool price",
		RunE:  runPrice,
	}
	priceCmd.Flags().Uint32("fee-tier", liquidity.DefaultFeeTier, "pool fee tier (500, 3000, 10000)")
	root.AddCommand(priceCmd)

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Approve WETH/USDC and mint a liquidity position",
		RunE:  runCreate,
	}
	createCmd.Flags().String("amount-weth", "", "WETH to deposit, human-readable")
	createCmd.Flags().String("amount-usdc", "", "USDC to deposit, human-readable")
	createCmd.Flags().Int64("tick-lower", 0, "lower tick")
	createCmd.Flags().Int64("tick-upper", 0, "upper tick")
	createCmd.Flags().Int64("fee-tier", int64(liquidity.DefaultFeeTier), "pool fee tier (500, 3000, 10000; others use 500)")
	createCmd.Flags().Float64("slippage", liquidity.DefaultSlippage, "maximum slippage in percent")
	_ = createCmd.MarkFlagRequired("amount-weth")
	_ = createCmd.MarkFlagRequired("amount-usdc")
	_ = createCmd.MarkFlagRequired("tick-lower")
	_ = createCmd.MarkFlagRequired("tick-upper")
	root.AddCommand(createCmd)

	positionCmd := &cobra.Command{
		Use:   "position <token-id>",
		Short: "Print a position NFT summary",
		Args:  cobra.ExactArgs(1),
		RunE:  runPosition,
	}
	root.AddCommand(positionCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
