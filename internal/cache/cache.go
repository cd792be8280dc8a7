// Package cache provides a read-through cache for customer ledger statements.
// The service invalidates a customer's entry whenever a posting touches them,
// so a cached statement never outlives the balance it was computed against.
package cache

import (
	"context"
	"time"

	"commission-ledger/internal/core"
)

// Statement is the cached read model for one customer's ledger view.
type Statement struct {
	Customer     core.Customer            `json:"customer"`
	Transactions []core.LedgerTransaction `json:"transactions"`
}

type StatementCache interface {
	Get(ctx context.Context, customerID string) (*Statement, bool, error)
	Set(ctx context.Context, customerID string, st *Statement, ttl time.Duration) error
	Invalidate(ctx context.Context, customerID string) error
}

// NoopStatementCache is used when no redis address is configured.
type NoopStatementCache struct{}

func (NoopStatementCache) Get(_ context.Context, _ string) (*Statement, bool, error) {
	return nil, false, nil
}

func (NoopStatementCache) Set(_ context.Context, _ string, _ *Statement, _ time.Duration) error {
	return nil
}

func (NoopStatementCache) Invalidate(_ context.Context, _ string) error {
	return nil
}
