// Package liquidity implements the Uniswap V3 agent actions: opening a
// WETH/USDC liquidity position, quoting the pool price and reading a position.
//
// Every action returns a human-readable string. Failures are reported in that
// string and never returned as Go errors, so partial on-chain effects such as
// a committed approval are visible to the caller but not rolled back.
package liquidity

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"liquidityAgent/internal/metrics"
	"liquidityAgent/internal/model"
	"liquidityAgent/internal/storage"
	"liquidityAgent/internal/uniswap"
	"liquidityAgent/internal/wallet"
)

// Action names as exposed to the agent framework.
const (
	ActionCreateLiquidity = "create_liquidity"
	ActionGetPrice        = "get_price"
	ActionGetPosition     = "get_position"
)

// Service runs the liquidity actions against a wallet provider.
type Service struct {
	registry *uniswap.Registry
	logger   *zap.Logger
	metrics  *metrics.Metrics
	journal  storage.Journal
	now      func() time.Time
}

// NewService wires a service. logger, m and journal may be nil.
func NewService(registry *uniswap.Registry, logger *zap.Logger, m *metrics.Metrics, journal storage.Journal) (*Service, error) {
	if registry == nil {
		return nil, errors.New("registry is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if journal == nil {
		journal = storage.Nop{}
	}
	return &Service{
		registry: registry,
		logger:   logger,
		metrics:  m,
		journal:  journal,
		now:      time.Now,
	}, nil
}

func (s *Service) newRecord(action string, w wallet.Provider) model.ActionRecord {
	rec := model.ActionRecord{Action: action}
	if w != nil {
		rec.Wallet = w.Address().Hex()
	}
	return rec
}

// finish turns the action result into the returned string and records it.
func (s *Service) finish(ctx context.Context, rec *model.ActionRecord, start time.Time, msg string, err error) string {
	outcome := model.OutcomeSuccess
	label := model.OutcomeSuccess
	if err != nil {
		msg = Message(err)
		outcome = model.OutcomeFailure
		rec.Reason = Reason(err)
		label = rec.Reason
		fields := []zap.Field{
			zap.String("action", rec.Action),
			zap.String("reason", rec.Reason),
			zap.Strings("txs", rec.TxHashes),
			zap.String("message", msg),
		}
		var f *Failure
		if errors.As(err, &f) && f.Err != nil {
			fields = append(fields, zap.Error(f.Err))
		}
		s.logger.Warn("action failed", fields...)
	} else {
		s.logger.Info("action completed",
			zap.String("action", rec.Action),
			zap.Strings("txs", rec.TxHashes),
			zap.String("token_id", rec.TokenID),
		)
	}

	rec.Outcome = outcome
	rec.Message = msg
	rec.CreatedAt = start.UTC().Format(time.RFC3339Nano)
	s.metrics.RecordAction(rec.Action, label, s.now().Sub(start))

	if jerr := s.journal.Record(context.WithoutCancel(ctx), *rec); jerr != nil {
		s.logger.Warn("journal write failed", zap.String("action", rec.Action), zap.Error(jerr))
	}
	return msg
}

// resolveDeployment checks the wallet network and looks up its deployment.
func (s *Service) resolveDeployment(ctx context.Context, w wallet.Provider, rec *model.ActionRecord) (uniswap.Deployment, error) {
	network, err := w.Network(ctx)
	if err != nil {
		return uniswap.Deployment{}, fail(ErrUnsupportedNetwork, err, "Error: Could not determine wallet network: %v", err)
	}
	rec.ChainID = network.ChainID
	rec.Network = network.NetworkID

	if !network.IsEVM() || !s.registry.Supports(network.ChainID, network.NetworkID) {
		return uniswap.Deployment{}, fail(ErrUnsupportedNetwork, nil, "Error: Network %s is not supported by Uniswap V3", networkLabel(network))
	}

	deployment, err := s.registry.Resolve(network.ChainID, network.NetworkID)
	if err != nil {
		return uniswap.Deployment{}, fail(ErrAddressResolution, err, "Error: Could not get Uniswap V3 Position Manager address for %s: %v", networkLabel(network), err)
	}
	rec.Network = deployment.Key
	return deployment, nil
}

func resolvePair(deployment uniswap.Deployment) (weth, usdc uniswap.Asset, err error) {
	if weth, err = deployment.Asset(uniswap.SymbolWETH); err != nil {
		return
	}
	usdc, err = deployment.Asset(uniswap.SymbolUSDC)
	return
}

func networkLabel(n wallet.Network) string {
	if n.NetworkID != "" {
		return n.NetworkID
	}
	return "chain " + n.ChainID
}

func requireWallet(w wallet.Provider) error {
	if w == nil {
		return fail(ErrInvalidRequest, nil, "Error: wallet provider is required")
	}
	return nil
}
