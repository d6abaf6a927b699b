package uniswap

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Position is the decoded result of NonfungiblePositionManager.positions(tokenId).
type Position struct {
	TokenID     *big.Int
	Operator    common.Address
	Token0      common.Address
	Token1      common.Address
	Fee         uint32
	TickLower   int32
	TickUpper   int32
	Liquidity   *big.Int
	TokensOwed0 *big.Int
	TokensOwed1 *big.Int
}

// ReadPosition loads a position NFT from the position manager.
func ReadPosition(ctx context.Context, reader ContractReader, positionManager common.Address, tokenID *big.Int) (Position, error) {
	pmABI, err := PositionManagerABI()
	if err != nil {
		return Position{}, fmt.Errorf("parse position manager abi: %w", err)
	}
	values, err := reader.ReadContract(ctx, positionManager, pmABI, "positions", tokenID)
	if err != nil {
		return Position{}, err
	}
	if len(values) != 12 {
		return Position{}, fmt.Errorf("positions return size %d", len(values))
	}

	pos := Position{TokenID: new(big.Int).Set(tokenID)}
	if pos.Operator, err = asAddress(values[1]); err != nil {
		return Position{}, fmt.Errorf("operator: %w", err)
	}
	if pos.Token0, err = asAddress(values[2]); err != nil {
		return Position{}, fmt.Errorf("token0: %w", err)
	}
	if pos.Token1, err = asAddress(values[3]); err != nil {
		return Position{}, fmt.Errorf("token1: %w", err)
	}
	fee, err := asBigInt(values[4])
	if err != nil {
		return Position{}, fmt.Errorf("fee: %w", err)
	}
	pos.Fee = uint32(fee.Uint64())

	tickLower, err := asBigInt(values[5])
	if err != nil {
		return Position{}, fmt.Errorf("tick lower: %w", err)
	}
	if pos.TickLower, err = int24FromBig(tickLower); err != nil {
		return Position{}, fmt.Errorf("tick lower: %w", err)
	}
	tickUpper, err := asBigInt(values[6])
	if err != nil {
		return Position{}, fmt.Errorf("tick upper: %w", err)
	}
	if pos.TickUpper, err = int24FromBig(tickUpper); err != nil {
		return Position{}, fmt.Errorf("tick upper: %w", err)
	}

	if pos.Liquidity, err = asBigInt(values[7]); err != nil {
		return Position{}, fmt.Errorf("liquidity: %w", err)
	}
	if pos.TokensOwed0, err = asBigInt(values[10]); err != nil {
		return Position{}, fmt.Errorf("tokens owed0: %w", err)
	}
	if pos.TokensOwed1, err = asBigInt(values[11]); err != nil {
		return Position{}, fmt.Errorf("tokens owed1: %w", err)
	}
	return pos, nil
}
