// Package store defines the persistence boundary of the ledger engine.
//
// The posting operations are the only writers of Customer.CurrentBalance and
// InventoryItem.CurrentStock. Each one is a single atomic unit of work: the
// ledger row, the balance mutation, and any stock movement land together or
// not at all, and concurrent postings against the same customer or inventory
// item serialize. Implementations return *core.Error for every precondition
// violation so the caller can map kinds without parsing messages.
package store

import (
	"context"

	"github.com/shopspring/decimal"

	"commission-ledger/internal/core"
)

// DefaultListLimit is the page size list methods fall back to when the caller
// passes limit <= 0. Both implementations apply it, so they page identically.
const DefaultListLimit = 100

// StockAdjustment describes a stock change applied atomically with a
// business-level ledger record.
type StockAdjustment struct {
	InventoryID string
	Delta       decimal.Decimal
	Reason      core.MovementReason
	Note        string
}

// Repository is the storage contract consumed by the service layer.
type Repository interface {
	// Customers.
	CreateCustomer(ctx context.Context, c core.Customer) (*core.Customer, error)
	GetCustomer(ctx context.Context, id string) (*core.Customer, error)
	ListCustomers(ctx context.Context) ([]core.Customer, error)
	SetCustomerActive(ctx context.Context, id string, active bool) (*core.Customer, error)

	// Inventory.
	CreateInventoryItem(ctx context.Context, item core.InventoryItem) (*core.InventoryItem, error)
	GetInventoryItem(ctx context.Context, id string) (*core.InventoryItem, error)
	ListInventoryItems(ctx context.Context) ([]core.InventoryItem, error)
	// AdjustStock applies a signed delta to an item's stock, rejecting any
	// change that would drive it negative, and appends a movement record.
	AdjustStock(ctx context.Context, inventoryID string, delta decimal.Decimal, reason core.MovementReason, note string) (*core.InventoryItem, error)
	ListStockMovements(ctx context.Context, inventoryID string, limit int) ([]core.StockMovement, error)

	// Commission candidates.
	CreateCandidate(ctx context.Context, c core.CommissionCandidate) (*core.CommissionCandidate, error)
	GetCandidate(ctx context.Context, id string) (*core.CommissionCandidate, error)
	ListCandidates(ctx context.Context) ([]core.CommissionCandidate, error)
	SetCandidateActive(ctx context.Context, id string, active bool) (*core.CommissionCandidate, error)

	// Atomic postings. Each fills RemainingBalanceAfter from the balance as
	// mutated inside the same unit of work and returns the stored transaction.

	// PostPurchase re-checks customer activity and per-line stock under lock,
	// decrements stock for every line, moves the customer balance by
	// (Amount − PaidAmount), and appends the transaction.
	PostPurchase(ctx context.Context, tx core.LedgerTransaction) (*core.LedgerTransaction, error)
	// PostPayment decreases the customer balance by tx.Amount after verifying
	// 0 < amount ≤ current balance.
	PostPayment(ctx context.Context, tx core.LedgerTransaction) (*core.LedgerTransaction, error)
	// PostReminder appends an informational record for a customer with dues.
	// The balance is untouched.
	PostReminder(ctx context.Context, tx core.LedgerTransaction) (*core.LedgerTransaction, error)
	// PostBusinessRecord appends a customer-less record (expense, commission
	// received, stock purchase, damage write-off), applying adj — when not
	// nil — atomically with it.
	PostBusinessRecord(ctx context.Context, tx core.LedgerTransaction, adj *StockAdjustment) (*core.LedgerTransaction, error)

	// Ledger reads.
	ListTransactionsForCustomer(ctx context.Context, customerID string, limit int) ([]core.LedgerTransaction, error)
	ListTransactions(ctx context.Context, txType core.TransactionType, limit int) ([]core.LedgerTransaction, error)
}
