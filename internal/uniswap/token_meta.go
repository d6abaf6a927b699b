package uniswap

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"liquidityAgent/internal/model"
)

// FetchTokenMeta loads token decimals and symbol via ERC-20 calls.
// A missing symbol is logged and left empty; missing decimals is an error.
func FetchTokenMeta(ctx context.Context, reader ContractReader, token common.Address, logger *zap.Logger) (model.TokenMeta, error) {
	meta := model.TokenMeta{Address: token.Hex()}
	if reader == nil {
		return meta, fmt.Errorf("contract reader is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	erc20, err := ERC20ABI()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 abi: %w", err)
	}
	bytes32ABI, err := erc20ABIBytes32Instance()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	values, err := reader.ReadContract(ctx, token, erc20, "decimals")
	if err != nil {
		return meta, fmt.Errorf("call decimals: %w", err)
	}
	if len(values) != 1 {
		return meta, fmt.Errorf("decimals return size %d", len(values))
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return meta, err
	}
	meta.Decimals = decimals

	if values, err := reader.ReadContract(ctx, token, erc20, "symbol"); err == nil && len(values) == 1 {
		if symbol, ok := values[0].(string); ok {
			meta.Symbol = symbol
		}
	} else if values, err := reader.ReadContract(ctx, token, bytes32ABI, "symbol"); err == nil && len(values) == 1 {
		if symbol, ok := bytes32ToString(values[0]); ok {
			meta.Symbol = symbol
		}
	} else {
		logger.Debug("symbol call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	return meta, nil
}
