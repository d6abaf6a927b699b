// Package wallet defines the wallet provider consumed by the liquidity actions
// and ships an EVM implementation backed by a private key and JSON-RPC node.
package wallet

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ProtocolFamilyEVM is the protocol family reported by EVM wallets.
const ProtocolFamilyEVM = "evm"

// Network describes the chain a wallet is connected to.
type Network struct {
	ChainID        string
	NetworkID      string
	ProtocolFamily string
}

// IsEVM reports whether the network belongs to the EVM protocol family.
func (n Network) IsEVM() bool {
	return strings.EqualFold(n.ProtocolFamily, ProtocolFamilyEVM)
}

// TxRequest is an unsigned contract call. Gas of zero asks the provider to
// estimate.
type TxRequest struct {
	To   common.Address
	Data []byte
	Gas  uint64
}

// Provider is the wallet surface the actions depend on.
type Provider interface {
	Network(ctx context.Context) (Network, error)
	Address() common.Address
	ReadContract(ctx context.Context, contract common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error)
	SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error)
	WaitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

var networkIDs = map[string]string{
	"1":        "ethereum-mainnet",
	"11155111": "ethereum-sepolia",
	"10":       "optimism-mainnet",
	"137":      "polygon-mainnet",
	"8453":     "base-mainnet",
	"84532":    "base-sepolia",
	"42161":    "arbitrum-mainnet",
}

// NetworkForChainID builds the EVM network descriptor for a chain id.
// Unknown chains get an empty network id.
func NetworkForChainID(chainID string) Network {
	return Network{
		ChainID:        chainID,
		NetworkID:      networkIDs[chainID],
		ProtocolFamily: ProtocolFamilyEVM,
	}
}
