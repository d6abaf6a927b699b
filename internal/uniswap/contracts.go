package uniswap

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ContractReader executes read-only contract calls and returns decoded outputs.
type ContractReader interface {
	ReadContract(ctx context.Context, contract common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error)
}

// GetPool asks the factory for the pool of a token pair and fee tier.
// The zero address means no pool exists.
func GetPool(ctx context.Context, reader ContractReader, factory, tokenA, tokenB common.Address, fee uint32) (common.Address, error) {
	factoryABI, err := FactoryABI()
	if err != nil {
		return common.Address{}, fmt.Errorf("parse factory abi: %w", err)
	}
	values, err := reader.ReadContract(ctx, factory, factoryABI, "getPool", tokenA, tokenB, new(big.Int).SetUint64(uint64(fee)))
	if err != nil {
		return common.Address{}, err
	}
	if len(values) != 1 {
		return common.Address{}, fmt.Errorf("getPool return size %d", len(values))
	}
	return asAddress(values[0])
}

// ReadSlot0 reads the current sqrt price and tick of a pool.
func ReadSlot0(ctx context.Context, reader ContractReader, pool common.Address) (Slot0, error) {
	poolABI, err := PoolABI()
	if err != nil {
		return Slot0{}, fmt.Errorf("parse pool abi: %w", err)
	}
	values, err := reader.ReadContract(ctx, pool, poolABI, "slot0")
	if err != nil {
		return Slot0{}, err
	}
	if len(values) < 2 {
		return Slot0{}, fmt.Errorf("slot0 return size %d", len(values))
	}
	sqrt, err := asBigInt(values[0])
	if err != nil {
		return Slot0{}, fmt.Errorf("sqrtPriceX96: %w", err)
	}
	tickInt, err := asBigInt(values[1])
	if err != nil {
		return Slot0{}, fmt.Errorf("tick: %w", err)
	}
	tick, err := int24FromBig(tickInt)
	if err != nil {
		return Slot0{}, fmt.Errorf("tick: %w", err)
	}
	return Slot0{SqrtPriceX96: sqrt, Tick: tick}, nil
}

// BalanceOf reads an ERC-20 balance.
func BalanceOf(ctx context.Context, reader ContractReader, token, owner common.Address) (*big.Int, error) {
	erc20, err := ERC20ABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := reader.ReadContract(ctx, token, erc20, "balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("could not get token balance: %w", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("balanceOf return size %d", len(values))
	}
	return asBigInt(values[0])
}

// EncodeApprove builds calldata for ERC20.approve(spender, amount).
func EncodeApprove(spender common.Address, amount *big.Int) ([]byte, error) {
	erc20, err := ERC20ABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	data, err := erc20.Pack("approve", spender, amount)
	if err != nil {
		return nil, fmt.Errorf("pack approve: %w", err)
	}
	return data, nil
}

// SortTokens orders two tokens the way pools do: numerically by address.
// swapped reports whether a and b were exchanged.
func SortTokens(a, b common.Address) (token0, token1 common.Address, swapped bool) {
	if bytes.Compare(a.Bytes(), b.Bytes()) > 0 {
		return b, a, true
	}
	return a, b, false
}

// MintParams mirrors INonfungiblePositionManager.MintParams.
type MintParams struct {
	Token0         common.Address
	Token1         common.Address
	Fee            uint32
	TickLower      int32
	TickUpper      int32
	Amount0Desired *big.Int
	Amount1Desired *big.Int
	Amount0Min     *big.Int
	Amount1Min     *big.Int
	Recipient      common.Address
	Deadline       int64
}

// mintTuple is the ABI-shaped form of MintParams; uint24/int24 pack from *big.Int.
type mintTuple struct {
	Token0         common.Address
	Token1         common.Address
	Fee            *big.Int
	TickLower      *big.Int
	TickUpper      *big.Int
	Amount0Desired *big.Int
	Amount1Desired *big.Int
	Amount0Min     *big.Int
	Amount1Min     *big.Int
	Recipient      common.Address
	Deadline       *big.Int
}

// EncodeMint builds calldata for NonfungiblePositionManager.mint(params).
func EncodeMint(p MintParams) ([]byte, error) {
	pmABI, err := PositionManagerABI()
	if err != nil {
		return nil, fmt.Errorf("parse position manager abi: %w", err)
	}
	tuple := mintTuple{
		Token0:         p.Token0,
		Token1:         p.Token1,
		Fee:            new(big.Int).SetUint64(uint64(p.Fee)),
		TickLower:      big.NewInt(int64(p.TickLower)),
		TickUpper:      big.NewInt(int64(p.TickUpper)),
		Amount0Desired: nonNil(p.Amount0Desired),
		Amount1Desired: nonNil(p.Amount1Desired),
		Amount0Min:     nonNil(p.Amount0Min),
		Amount1Min:     nonNil(p.Amount1Min),
		Recipient:      p.Recipient,
		Deadline:       big.NewInt(p.Deadline),
	}
	data, err := pmABI.Pack("mint", tuple)
	if err != nil {
		return nil, fmt.Errorf("pack mint: %w", err)
	}
	return data, nil
}

func nonNil(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
