package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityAgent/internal/chain"
	"liquidityAgent/internal/config"
	"liquidityAgent/internal/liquidity"
	"liquidityAgent/internal/metrics"
	"liquidityAgent/internal/storage"
	"liquidityAgent/internal/storage/postgres"
	"liquidityAgent/internal/uniswap"
	"liquidityAgent/internal/wallet"
)

// app holds the wired dependencies shared by every subcommand.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	client   *chain.Client
	wallet   *wallet.EVM
	journal  storage.Journal
	registry *prometheus.Registry
	svc      *liquidity.Service
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}
	if err := a.wire(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context) error {
	deployments, err := uniswap.DefaultRegistry()
	if err != nil {
		return fmt.Errorf("build registry: %w", err)
	}

	a.client, err = chain.NewClient(ctx, a.cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}

	a.wallet, err = wallet.NewEVM(a.client, a.cfg.PrivateKey, wallet.Options{
		ReceiptTimeout: a.cfg.ReceiptTimeout,
		PollInterval:   a.cfg.ReceiptPollInterval,
		MaxRetries:     a.cfg.MaxRetries,
		RetryBackoff:   a.cfg.RetryBackoff,
	}, a.logger.Named("wallet"))
	if err != nil {
		return err
	}

	a.journal, err = openJournal(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a.svc, err = liquidity.NewService(deployments, a.logger.Named("liquidity"), metrics.New(a.registry), a.journal)
	if err != nil {
		return err
	}

	a.logger.Info("agent ready",
		zap.String("wallet", a.wallet.Address().Hex()),
		zap.String("journal", journalKind(a.cfg)),
	)
	return nil
}

func openJournal(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.Journal, error) {
	switch {
	case cfg.PGDSN != "":
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	case cfg.Journal != "":
		return storage.NewJsonlJournal(cfg.Journal), nil
	default:
		logger.Debug("action journal disabled")
		return storage.Nop{}, nil
	}
}

func journalKind(cfg config.Config) string {
	switch {
	case cfg.PGDSN != "":
		return "postgres"
	case cfg.Journal != "":
		return "jsonl"
	default:
		return "none"
	}
}

func (a *app) close() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.logger.Warn("close journal", zap.Error(err))
		}
	}
	if a.client != nil {
		a.client.Close()
	}
	_ = a.logger.Sync()
}
