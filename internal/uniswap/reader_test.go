package uniswap

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// abiReader answers contract reads from canned outputs. Inputs and outputs go
// through real ABI packing so type mismatches surface the way they would on
// chain.
type abiReader struct {
	outputs map[string][]interface{}
	errs    map[string]error
	calls   []string
}

func (r *abiReader) ReadContract(_ context.Context, contract common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	r.calls = append(r.calls, method)
	if _, err := parsed.Pack(method, args...); err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	if err := r.errs[method]; err != nil {
		return nil, err
	}
	out, ok := r.outputs[method]
	if !ok {
		return nil, fmt.Errorf("no output for %s on %s", method, contract.Hex())
	}
	data, err := parsed.Methods[method].Outputs.Pack(out...)
	if err != nil {
		return nil, fmt.Errorf("pack outputs %s: %w", method, err)
	}
	return parsed.Unpack(method, data)
}
