package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"liquidityAgent/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS agent_actions (
	id          BIGSERIAL PRIMARY KEY,
	action      TEXT        NOT NULL,
	chain_id    TEXT        NOT NULL,
	network     TEXT        NOT NULL,
	wallet      TEXT        NOT NULL,
	outcome     TEXT        NOT NULL,
	reason      TEXT        NOT NULL DEFAULT '',
	message     TEXT        NOT NULL,
	token_id    TEXT        NOT NULL DEFAULT '',
	fee_tier    INTEGER,
	tick_lower  INTEGER,
	tick_upper  INTEGER,
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS agent_action_txs (
	action_id BIGINT NOT NULL REFERENCES agent_actions(id) ON DELETE CASCADE,
	seq       INTEGER NOT NULL,
	tx_hash   TEXT    NOT NULL,
	PRIMARY KEY (action_id, seq)
);
`

// Store persists the action journal in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Migrate creates the journal tables when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate journal schema: %w", err)
	}
	return nil
}

// Record inserts an action and its transaction hashes in one transaction.
func (s *Store) Record(ctx context.Context, record model.ActionRecord) error {
	createdAt, err := parseCreatedAt(record.CreatedAt)
	if err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var id int64
		row := tx.QueryRow(ctx, `
			INSERT INTO agent_actions (
				action, chain_id, network, wallet, outcome, reason, message, token_id, fee_tier, tick_lower, tick_upper, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
			RETURNING id
		`,
			record.Action,
			record.ChainID,
			record.Network,
			record.Wallet,
			record.Outcome,
			record.Reason,
			record.Message,
			record.TokenID,
			nullableFee(record.FeeTier),
			record.TickLower,
			record.TickUpper,
			createdAt,
		)
		if err := row.Scan(&id); err != nil {
			return fmt.Errorf("insert action: %w", err)
		}

		if len(record.TxHashes) == 0 {
			return nil
		}
		batch := &pgx.Batch{}
		for i, hash := range record.TxHashes {
			batch.Queue(`INSERT INTO agent_action_txs (action_id, seq, tx_hash) VALUES ($1, $2, $3)`, id, i, hash)
		}
		br := tx.SendBatch(ctx, batch)
		defer br.Close()

		for range record.TxHashes {
			if _, err := br.Exec(); err != nil {
				return fmt.Errorf("insert action tx: %w", err)
			}
		}
		return nil
	})
}

func nullableFee(fee uint32) *int32 {
	if fee == 0 {
		return nil
	}
	v := int32(fee)
	return &v
}

func parseCreatedAt(value string) (time.Time, error) {
	if value == "" {
		return time.Now().UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse created_at: %w", err)
	}
	return ts, nil
}
