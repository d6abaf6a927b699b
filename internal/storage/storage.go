package storage

import (
	"context"

	"liquidityAgent/internal/model"
)

// Journal records finished agent actions.
type Journal interface {
	Record(ctx context.Context, record model.ActionRecord) error
	Close() error
}

// Nop discards every record.
type Nop struct{}

func (Nop) Record(context.Context, model.ActionRecord) error { return nil }

func (Nop) Close() error { return nil }
