package liquidity

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedNetwork  = errors.New("unsupported network")
	ErrAddressResolution   = errors.New("address resolution failed")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrApproval            = errors.New("approval failed")
	ErrMint                = errors.New("mint failed")
	ErrPoolNotFound        = errors.New("pool not found")
	ErrPoolRead            = errors.New("pool read failed")
	ErrContractRead        = errors.New("contract read failed")
	ErrInvalidRequest      = errors.New("invalid request")
)

// creationHint is appended to create_liquidity failures that happen after
// validation. The ticks are a known-good 0.05% range near the mainnet price.
const creationHint = "Try using ticks that align with 0.05% fee tier spacing (10): tickLower=202540, tickUpper=202640"

// Failure is an action error together with the text returned to the agent.
type Failure struct {
	Kind    error
	Message string
	Err     error
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() []error {
	errs := make([]error, 0, 2)
	if f.Kind != nil {
		errs = append(errs, f.Kind)
	}
	if f.Err != nil {
		errs = append(errs, f.Err)
	}
	return errs
}

func fail(kind, err error, format string, args ...interface{}) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func creationFailure(kind, err error) *Failure {
	return fail(kind, err, "Error creating Uniswap V3 liquidity position: %v\n%s", err, creationHint)
}

var reasons = []struct {
	kind  error
	label string
}{
	{ErrUnsupportedNetwork, "unsupported_network"},
	{ErrAddressResolution, "address_resolution"},
	{ErrInsufficientBalance, "insufficient_balance"},
	{ErrApproval, "approval"},
	{ErrMint, "mint"},
	{ErrPoolNotFound, "pool_not_found"},
	{ErrPoolRead, "pool_read"},
	{ErrContractRead, "contract_read"},
	{ErrInvalidRequest, "invalid_request"},
}

// Reason returns the metrics/journal label for an action error.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	for _, r := range reasons {
		if errors.Is(err, r.kind) {
			return r.label
		}
	}
	return "internal"
}

// Message returns the agent-facing text of an action error.
func Message(err error) string {
	var f *Failure
	if errors.As(err, &f) {
		return f.Message
	}
	return "Error: " + err.Error()
}
