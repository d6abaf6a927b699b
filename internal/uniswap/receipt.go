package uniswap

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// IncreaseLiquidity is the decoded IncreaseLiquidity event of a mint.
type IncreaseLiquidity struct {
	TokenID   *big.Int
	Liquidity *big.Int
	Amount0   *big.Int
	Amount1   *big.Int
}

// FindMintedTokenID scans receipt logs for the first entry emitted by the
// position manager with at least four topics and reads topic 3 as the token
// id. This matches the ERC-721 Transfer emitted on mint. It is a heuristic:
// ok is false when nothing matches, which is not an error.
func FindMintedTokenID(logs []*types.Log, positionManager common.Address) (*big.Int, bool) {
	for _, log := range logs {
		if log == nil || log.Address != positionManager || len(log.Topics) < 4 {
			continue
		}
		return new(big.Int).SetBytes(log.Topics[3].Bytes()), true
	}
	return nil, false
}

// DecodeIncreaseLiquidity returns the first IncreaseLiquidity event emitted by
// the position manager, if any.
func DecodeIncreaseLiquidity(logs []*types.Log, positionManager common.Address) (IncreaseLiquidity, bool, error) {
	pmABI, err := PositionManagerABI()
	if err != nil {
		return IncreaseLiquidity{}, false, fmt.Errorf("parse position manager abi: %w", err)
	}
	event := pmABI.Events["IncreaseLiquidity"]

	for _, log := range logs {
		if log == nil || log.Address != positionManager || len(log.Topics) == 0 || log.Topics[0] != event.ID {
			continue
		}
		indexedArgs := indexedArguments(event.Inputs)
		if len(log.Topics) != len(indexedArgs)+1 {
			return IncreaseLiquidity{}, false, fmt.Errorf("expected %d topics, got %d", len(indexedArgs)+1, len(log.Topics))
		}

		var indexed struct {
			TokenId *big.Int
		}
		if err := abi.ParseTopics(&indexed, indexedArgs, log.Topics[1:]); err != nil {
			return IncreaseLiquidity{}, false, fmt.Errorf("parse topics: %w", err)
		}

		values, err := event.Inputs.NonIndexed().Unpack(log.Data)
		if err != nil {
			return IncreaseLiquidity{}, false, fmt.Errorf("unpack %s: %w", event.Name, err)
		}
		if len(values) != 3 {
			return IncreaseLiquidity{}, false, fmt.Errorf("unexpected increase liquidity values: %d", len(values))
		}

		out := IncreaseLiquidity{TokenID: indexed.TokenId}
		if out.Liquidity, err = asBigInt(values[0]); err != nil {
			return IncreaseLiquidity{}, false, err
		}
		if out.Amount0, err = asBigInt(values[1]); err != nil {
			return IncreaseLiquidity{}, false, err
		}
		if out.Amount1, err = asBigInt(values[2]); err != nil {
			return IncreaseLiquidity{}, false, err
		}
		return out, true, nil
	}
	return IncreaseLiquidity{}, false, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}
