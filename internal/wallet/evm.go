package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// Backend is the node surface the EVM wallet needs. *chain.Client satisfies it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// Options tunes RPC retries and receipt polling.
type Options struct {
	ReceiptTimeout time.Duration
	PollInterval   time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
}

func (o Options) withDefaults() Options {
	if o.ReceiptTimeout <= 0 {
		o.ReceiptTimeout = 5 * time.Minute
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 2 * time.Second
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 500 * time.Millisecond
	}
	return o
}

// EVM signs and sends EIP-1559 transactions with a single private key.
type EVM struct {
	backend Backend
	key     *ecdsa.PrivateKey
	address common.Address
	opts    Options
	logger  *zap.Logger

	mu          sync.Mutex
	nonce       uint64
	nonceLoaded bool
}

// NewEVM creates a wallet from a hex private key (0x prefix optional).
func NewEVM(backend Backend, hexKey string, opts Options, logger *zap.Logger) (*EVM, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is nil")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EVM{
		backend: backend,
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		opts:    opts.withDefaults(),
		logger:  logger,
	}, nil
}

// Address returns the wallet account.
func (w *EVM) Address() common.Address {
	return w.address
}

// Network reports the connected chain.
func (w *EVM) Network(ctx context.Context) (Network, error) {
	chainID, err := w.chainID(ctx)
	if err != nil {
		return Network{}, err
	}
	return NetworkForChainID(chainID.String()), nil
}

// ReadContract packs method with args, performs eth_call from the wallet
// address against latest state and unpacks the outputs.
func (w *EVM) ReadContract(ctx context.Context, contract common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	msg := ethereum.CallMsg{From: w.address, To: &contract, Data: data}
	var out []byte
	err = withRetry(ctx, w.opts.MaxRetries, w.opts.RetryBackoff, func(ctx context.Context) error {
		var callErr error
		out, callErr = w.backend.CallContract(ctx, msg, nil)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("call %s on %s: %w", method, contract.Hex(), err)
	}

	values, err := parsed.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

// SendTransaction signs and broadcasts req. Nonces are tracked locally after
// the first pending-nonce lookup and reloaded after a failed broadcast.
func (w *EVM) SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error) {
	chainID, err := w.chainID(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.nonceLoaded {
		var nonce uint64
		err := withRetry(ctx, w.opts.MaxRetries, w.opts.RetryBackoff, func(ctx context.Context) error {
			var callErr error
			nonce, callErr = w.backend.PendingNonceAt(ctx, w.address)
			return callErr
		})
		if err != nil {
			return common.Hash{}, fmt.Errorf("pending nonce: %w", err)
		}
		w.nonce = nonce
		w.nonceLoaded = true
	}

	to := req.To
	gas := req.Gas
	if gas == 0 {
		estimated, err := w.backend.EstimateGas(ctx, ethereum.CallMsg{From: w.address, To: &to, Data: req.Data})
		if err != nil {
			return common.Hash{}, fmt.Errorf("estimate gas: %w", err)
		}
		gas = estimated
	}

	tipCap, feeCap, err := w.fees(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     w.nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &to,
		Value:     new(big.Int),
		Data:      req.Data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), w.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign transaction: %w", err)
	}

	if err := w.backend.SendTransaction(ctx, signed); err != nil {
		w.nonceLoaded = false
		return common.Hash{}, fmt.Errorf("send transaction: %w", err)
	}
	w.nonce++

	w.logger.Info("transaction sent",
		zap.String("hash", signed.Hash().Hex()),
		zap.String("to", to.Hex()),
		zap.Uint64("nonce", signed.Nonce()),
		zap.Uint64("gas", gas),
	)
	return signed.Hash(), nil
}

// WaitForReceipt polls until the transaction is mined or ReceiptTimeout
// elapses. Lookup errors other than NotFound are logged and polling continues.
func (w *EVM) WaitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, w.opts.ReceiptTimeout)
	defer cancel()

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		receipt, err := w.backend.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) && ctx.Err() == nil {
			w.logger.Debug("receipt lookup failed", zap.String("hash", hash.Hex()), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for receipt %s: %w", hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

func (w *EVM) chainID(ctx context.Context) (*big.Int, error) {
	var id *big.Int
	err := withRetry(ctx, w.opts.MaxRetries, w.opts.RetryBackoff, func(ctx context.Context) error {
		var callErr error
		id, callErr = w.backend.ChainID(ctx)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}
	return id, nil
}

// fees returns the tip cap and a fee cap of twice the latest base fee plus tip.
func (w *EVM) fees(ctx context.Context) (*big.Int, *big.Int, error) {
	tipCap, err := w.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("suggest gas tip: %w", err)
	}
	header, err := w.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("latest header: %w", err)
	}
	if header.BaseFee == nil {
		return tipCap, new(big.Int).Set(tipCap), nil
	}
	feeCap := new(big.Int).Mul(header.BaseFee, big.NewInt(2))
	feeCap.Add(feeCap, tipCap)
	return tipCap, feeCap, nil
}
