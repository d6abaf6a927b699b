package liquidity

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"liquidityAgent/internal/wallet"
)

type readCall struct {
	contract common.Address
	method   string
	args     []interface{}
}

// fakeWallet answers reads from canned outputs keyed by method, or by
// contract and method, and records every transaction. Reads go through real
// ABI packing so argument types are checked.
type fakeWallet struct {
	network  wallet.Network
	netErr   error
	address  common.Address
	outputs  map[string][]interface{}
	readErrs map[string]error
	sendErrs map[int]error
	statuses map[int]uint64
	logs     map[int][]*types.Log

	reads []readCall
	sent  []wallet.TxRequest
}

func newFakeWallet() *fakeWallet {
	return &fakeWallet{
		network:  wallet.Network{ChainID: "1", NetworkID: "ethereum-mainnet", ProtocolFamily: "evm"},
		address:  common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		outputs:  make(map[string][]interface{}),
		readErrs: make(map[string]error),
		sendErrs: make(map[int]error),
		statuses: make(map[int]uint64),
		logs:     make(map[int][]*types.Log),
	}
}

func (f *fakeWallet) Network(context.Context) (wallet.Network, error) {
	return f.network, f.netErr
}

func (f *fakeWallet) Address() common.Address {
	return f.address
}

func (f *fakeWallet) ReadContract(_ context.Context, contract common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	f.reads = append(f.reads, readCall{contract: contract, method: method, args: args})
	if _, err := parsed.Pack(method, args...); err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	key := contract.Hex() + "." + method
	if err, ok := f.readErrs[key]; ok {
		return nil, err
	}
	if err, ok := f.readErrs[method]; ok {
		return nil, err
	}
	out, ok := f.outputs[key]
	if !ok {
		out, ok = f.outputs[method]
	}
	if !ok {
		return nil, fmt.Errorf("execution reverted: %s", key)
	}
	data, err := parsed.Methods[method].Outputs.Pack(out...)
	if err != nil {
		return nil, fmt.Errorf("pack outputs %s: %w", method, err)
	}
	return parsed.Unpack(method, data)
}

func (f *fakeWallet) SendTransaction(_ context.Context, req wallet.TxRequest) (common.Hash, error) {
	idx := len(f.sent)
	if err := f.sendErrs[idx]; err != nil {
		return common.Hash{}, err
	}
	f.sent = append(f.sent, req)
	return txHash(idx), nil
}

func (f *fakeWallet) WaitForReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	idx := int(new(big.Int).SetBytes(hash.Bytes()).Int64()) - 1
	status, ok := f.statuses[idx]
	if !ok {
		status = types.ReceiptStatusSuccessful
	}
	return &types.Receipt{Status: status, TxHash: hash, Logs: f.logs[idx]}, nil
}

func (f *fakeWallet) readCount(method string) int {
	n := 0
	for _, r := range f.reads {
		if r.method == method {
			n++
		}
	}
	return n
}

func txHash(idx int) common.Hash {
	return common.BigToHash(big.NewInt(int64(idx + 1)))
}
