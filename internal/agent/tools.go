// Package agent exposes the liquidity actions as MCP tools.
package agent

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	gomcp "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"liquidityAgent/internal/liquidity"
	"liquidityAgent/internal/wallet"
)

// Tools binds the liquidity service to one wallet provider.
type Tools struct {
	svc    *liquidity.Service
	wallet wallet.Provider
}

func NewTools(svc *liquidity.Service, w wallet.Provider) *Tools {
	return &Tools{svc: svc, wallet: w}
}

// RegisterTools registers the liquidity tools on the MCP server.
func RegisterTools(s *server.MCPServer, t *Tools) {
	s.AddTool(createLiquidityTool(), t.handleCreateLiquidity)
	s.AddTool(getPriceTool(), t.handleGetPrice)
	s.AddTool(getPositionTool(), t.handleGetPosition)
}

func createLiquidityTool() gomcp.Tool {
	return gomcp.NewTool(liquidity.ActionCreateLiquidity,
		gomcp.WithDescription(`Create a Uniswap V3 liquidity position for the WETH/USDC pair on Ethereum mainnet.
This is a MUTATING operation: it sends two ERC-20 approvals and a mint transaction.
Ticks are rounded down to the fee tier's tick spacing (500=10, 3000=60, 10000=200); unknown fee tiers fall back to 500.
A wider tick range (e.g. -60000 to 60000) earns less fees but stays in range longer. The position is minted as an NFT to your wallet.`),
		gomcp.WithString("amount_weth",
			gomcp.Required(),
			gomcp.Description("Amount of WETH to deposit, human-readable (e.g. '0.5')"),
		),
		gomcp.WithString("amount_usdc",
			gomcp.Required(),
			gomcp.Description("Amount of USDC to deposit, human-readable (e.g. '1000')"),
		),
		gomcp.WithNumber("tick_lower",
			gomcp.Required(),
			gomcp.Description("Lower tick boundary, typically negative (e.g. -60000)"),
		),
		gomcp.WithNumber("tick_upper",
			gomcp.Required(),
			gomcp.Description("Upper tick boundary, typically positive (e.g. 60000)"),
		),
		gomcp.WithNumber("fee_tier",
			gomcp.Description("Fee tier: 500 (0.05%), 3000 (0.3%) or 10000 (1%). Default 3000"),
			gomcp.DefaultNumber(float64(liquidity.DefaultFeeTier)),
		),
		gomcp.WithNumber("slippage",
			gomcp.Description("Maximum slippage in percent (e.g. 0.5 for 0.5%). Default 0.5"),
			gomcp.DefaultNumber(liquidity.DefaultSlippage),
		),
	)
}

func getPriceTool() gomcp.Tool {
	return gomcp.NewTool(liquidity.ActionGetPrice,
		gomcp.WithDescription("Fetch the current WETH/USDC price from the Uniswap V3 pool of a fee tier."),
		gomcp.WithNumber("fee_tier",
			gomcp.Description("Fee tier: 500 (0.05%), 3000 (0.3%) or 10000 (1%). Default 3000"),
			gomcp.DefaultNumber(float64(liquidity.DefaultFeeTier)),
		),
	)
}

func getPositionTool() gomcp.Tool {
	return gomcp.NewTool(liquidity.ActionGetPosition,
		gomcp.WithDescription("Read a Uniswap V3 position NFT: pair, fee tier, tick range, liquidity and uncollected tokens."),
		gomcp.WithString("token_id",
			gomcp.Required(),
			gomcp.Description("Position NFT id as a decimal string"),
		),
	)
}

func (t *Tools) handleCreateLiquidity(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	in, err := createLiquidityArgs(req)
	if err != nil {
		return gomcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}
	return result(t.svc.CreateLiquidity(ctx, t.wallet, in)), nil
}

func (t *Tools) handleGetPrice(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	fee, err := poolFeeArg(req)
	if err != nil {
		return gomcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}
	return result(t.svc.GetPrice(ctx, t.wallet, liquidity.GetPriceRequest{FeeTier: fee})), nil
}

func (t *Tools) handleGetPosition(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	id, err := stringArg(req, "token_id")
	if err != nil {
		return gomcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}
	return result(t.svc.GetPosition(ctx, t.wallet, liquidity.GetPositionRequest{TokenID: id})), nil
}

// result marks action failures as tool errors so clients can tell them apart.
func result(msg string) *gomcp.CallToolResult {
	if strings.HasPrefix(msg, "Error") {
		return gomcp.NewToolResultError(msg)
	}
	return gomcp.NewToolResultText(msg)
}

func createLiquidityArgs(req gomcp.CallToolRequest) (liquidity.CreateLiquidityRequest, error) {
	var in liquidity.CreateLiquidityRequest
	var err error

	if in.AmountWETH, err = stringArg(req, "amount_weth"); err != nil {
		return in, err
	}
	if in.AmountUSDC, err = stringArg(req, "amount_usdc"); err != nil {
		return in, err
	}
	if in.TickLower, err = intArg(req, "tick_lower"); err != nil {
		return in, err
	}
	if in.TickUpper, err = intArg(req, "tick_upper"); err != nil {
		return in, err
	}
	if in.FeeTier, err = feeTierArg(req); err != nil {
		return in, err
	}
	in.Slippage = req.GetFloat("slippage", liquidity.DefaultSlippage)
	return in, nil
}

// stringArg accepts strings and JSON numbers, since agents often send amounts
// unquoted.
func stringArg(req gomcp.CallToolRequest, name string) (string, error) {
	switch v := req.GetArguments()[name].(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case nil:
		return "", fmt.Errorf("%s is required", name)
	default:
		return "", fmt.Errorf("%s must be a string, got %T", name, v)
	}
}

func intArg(req gomcp.CallToolRequest, name string) (int64, error) {
	switch v := req.GetArguments()[name].(type) {
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%s must be an integer, got %v", name, v)
		}
		return int64(v), nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer: %w", name, err)
		}
		return n, nil
	case nil:
		return 0, fmt.Errorf("%s is required", name)
	default:
		return 0, fmt.Errorf("%s must be an integer, got %T", name, v)
	}
}

// feeTierArg returns the requested fee tier, or DefaultFeeTier when omitted.
func feeTierArg(req gomcp.CallToolRequest) (int64, error) {
	if v, ok := req.GetArguments()["fee_tier"]; !ok || v == nil {
		return int64(liquidity.DefaultFeeTier), nil
	}
	return intArg(req, "fee_tier")
}

// poolFeeArg is feeTierArg for calls that address a pool by its fee.
func poolFeeArg(req gomcp.CallToolRequest) (uint32, error) {
	fee, err := feeTierArg(req)
	if err != nil {
		return 0, err
	}
	if fee <= 0 || fee > math.MaxUint32 {
		return 0, fmt.Errorf("fee_tier must be positive, got %d", fee)
	}
	return uint32(fee), nil
}
