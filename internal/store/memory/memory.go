// Package memory is an in-memory Repository used by tests and by the server
// when no DATABASE_URL is configured. A single mutex serializes every posting,
// which trivially satisfies the per-customer and per-inventory serialization
// contract of the store package.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"commission-ledger/internal/core"
	"commission-ledger/internal/store"
	"commission-ledger/internal/xid"
)

type Store struct {
	mu sync.Mutex

	customers  map[string]*core.Customer
	items      map[string]*core.InventoryItem
	candidates map[string]*core.CommissionCandidate

	transactions []core.LedgerTransaction
	movements    []core.StockMovement
}

func New() *Store {
	return &Store{
		customers:  make(map[string]*core.Customer),
		items:      make(map[string]*core.InventoryItem),
		candidates: make(map[string]*core.CommissionCandidate),
	}
}

// ── Customers ────────────────────────────────────────────────────────────────

func (s *Store) CreateCustomer(ctx context.Context, c core.Customer) (*core.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if c.ID == "" {
		c.ID = xid.New("cust")
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	c.CurrentBalance = decimal.Zero
	stored := c
	s.customers[c.ID] = &stored
	out := stored
	return &out, nil
}

func (s *Store) GetCustomer(ctx context.Context, id string) (*core.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getCustomerLocked(id)
}

func (s *Store) getCustomerLocked(id string) (*core.Customer, error) {
	c, ok := s.customers[id]
	if !ok {
		return nil, core.Errf(core.KindCustomerNotFound, "customer_id", "customer %s not found", id)
	}
	out := *c
	return &out, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]core.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) SetCustomerActive(ctx context.Context, id string, active bool) (*core.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, ok := s.customers[id]
	if !ok {
		return nil, core.Errf(core.KindCustomerNotFound, "customer_id", "customer %s not found", id)
	}
	c.IsActive = active
	out := *c
	return &out, nil
}

// ── Inventory ────────────────────────────────────────────────────────────────

func (s *Store) CreateInventoryItem(ctx context.Context, item core.InventoryItem) (*core.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if item.ID == "" {
		item.ID = xid.New("inv")
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	if item.CurrentStock.IsNegative() {
		return nil, core.Errf(core.KindInvalidQuantity, "current_stock", "initial stock cannot be negative, got %s", item.CurrentStock)
	}
	stored := item
	s.items[item.ID] = &stored
	out := stored
	return &out, nil
}

func (s *Store) GetInventoryItem(ctx context.Context, id string) (*core.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, core.Errf(core.KindInventoryNotFound, "inventory_id", "inventory item %s not found", id)
	}
	out := *item
	return &out, nil
}

func (s *Store) ListInventoryItems(ctx context.Context) ([]core.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.InventoryItem, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductName < out[j].ProductName })
	return out, nil
}

func (s *Store) AdjustStock(ctx context.Context, inventoryID string, delta decimal.Decimal, reason core.MovementReason, note string) (*core.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.adjustStockLocked(inventoryID, delta, reason, note)
}

// adjustStockLocked mutates stock and appends the movement record. Callers
// hold s.mu and have validated the adjustment when atomicity with other
// mutations matters.
func (s *Store) adjustStockLocked(inventoryID string, delta decimal.Decimal, reason core.MovementReason, note string) (*core.InventoryItem, error) {
	item, ok := s.items[inventoryID]
	if !ok {
		return nil, core.Errf(core.KindInventoryNotFound, "inventory_id", "inventory item %s not found", inventoryID)
	}

	next := item.CurrentStock.Add(delta)
	if next.IsNegative() {
		return nil, core.Errf(core.KindInsufficientStock, "delta",
			"adjustment %s would drive stock of %s below zero (current %s)", delta, item.ProductName, item.CurrentStock)
	}

	item.CurrentStock = next
	s.movements = append(s.movements, core.StockMovement{
		ID:          xid.New("mov"),
		InventoryID: inventoryID,
		Delta:       delta,
		Reason:      reason,
		StockAfter:  next,
		Note:        note,
		CreatedAt:   time.Now(),
	})

	out := *item
	return &out, nil
}

func (s *Store) ListStockMovements(ctx context.Context, inventoryID string, limit int) ([]core.StockMovement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = store.DefaultListLimit
	}
	var out []core.StockMovement
	for i := len(s.movements) - 1; i >= 0; i-- {
		m := s.movements[i]
		if inventoryID != "" && m.InventoryID != inventoryID {
			continue
		}
		out = append(out, m)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// ── Commission candidates ────────────────────────────────────────────────────

func (s *Store) CreateCandidate(ctx context.Context, c core.CommissionCandidate) (*core.CommissionCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if c.ID == "" {
		c.ID = xid.New("cand")
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	stored := c
	s.candidates[c.ID] = &stored
	out := stored
	return &out, nil
}

func (s *Store) GetCandidate(ctx context.Context, id string) (*core.CommissionCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.candidates[id]
	if !ok {
		return nil, core.Errf(core.KindCandidateNotFound, "candidate_id", "commission candidate %s not found", id)
	}
	out := *c
	return &out, nil
}

func (s *Store) ListCandidates(ctx context.Context) ([]core.CommissionCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.CommissionCandidate, 0, len(s.candidates))
	for _, c := range s.candidates {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) SetCandidateActive(ctx context.Context, id string, active bool) (*core.CommissionCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, ok := s.candidates[id]
	if !ok {
		return nil, core.Errf(core.KindCandidateNotFound, "candidate_id", "commission candidate %s not found", id)
	}
	c.IsActive = active
	out := *c
	return &out, nil
}

// ── Atomic postings ──────────────────────────────────────────────────────────

func (s *Store) PostPurchase(ctx context.Context, tx core.LedgerTransaction) (*core.LedgerTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	customer, ok := s.customers[tx.CustomerID]
	if !ok {
		return nil, core.Errf(core.KindCustomerNotFound, "customer_id", "customer %s not found", tx.CustomerID)
	}
	if !customer.IsActive {
		return nil, core.Errf(core.KindCustomerInactive, "customer_id", "customer %s is inactive", customer.Name)
	}

	// Validate every line before touching any stock figure, so a failure on
	// line N leaves lines 1..N-1 unapplied. Requirements are summed per item:
	// two lines naming the same item must not each pass against full stock.
	required := make(map[string]decimal.Decimal, len(tx.Items))
	for _, line := range tx.Items {
		item, ok := s.items[line.InventoryID]
		if !ok {
			return nil, core.Errf(core.KindInventoryNotFound, "inventory_id", "inventory item %s not found", line.InventoryID)
		}
		sum := required[line.InventoryID].Add(line.Quantity)
		if sum.GreaterThan(item.CurrentStock) {
			return nil, core.Errf(core.KindInsufficientStock, "quantity",
				"requested %s %s of %s but only %s in stock",
				sum, item.Unit, item.ProductName, item.CurrentStock)
		}
		required[line.InventoryID] = sum
	}

	for _, line := range tx.Items {
		if _, err := s.adjustStockLocked(line.InventoryID, line.Quantity.Neg(), core.MovementSale,
			"sale against purchase "+tx.ID); err != nil {
			return nil, err
		}
	}

	customer.CurrentBalance = customer.CurrentBalance.Add(tx.Amount.Sub(tx.PaidAmount))
	tx.RemainingBalanceAfter = customer.CurrentBalance
	return s.appendTxLocked(tx), nil
}

func (s *Store) PostPayment(ctx context.Context, tx core.LedgerTransaction) (*core.LedgerTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	customer, ok := s.customers[tx.CustomerID]
	if !ok {
		return nil, core.Errf(core.KindCustomerNotFound, "customer_id", "customer %s not found", tx.CustomerID)
	}
	if tx.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, core.Errf(core.KindInvalidPaymentAmount, "amount", "payment must be positive, got %s", tx.Amount)
	}
	if tx.Amount.GreaterThan(customer.CurrentBalance) {
		return nil, core.Errf(core.KindInvalidPaymentAmount, "amount",
			"payment %s exceeds current balance %s", tx.Amount, customer.CurrentBalance)
	}

	customer.CurrentBalance = customer.CurrentBalance.Sub(tx.Amount)
	tx.RemainingBalanceAfter = customer.CurrentBalance
	return s.appendTxLocked(tx), nil
}

func (s *Store) PostReminder(ctx context.Context, tx core.LedgerTransaction) (*core.LedgerTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	customer, ok := s.customers[tx.CustomerID]
	if !ok {
		return nil, core.Errf(core.KindCustomerNotFound, "customer_id", "customer %s not found", tx.CustomerID)
	}
	if !customer.CurrentBalance.IsPositive() {
		return nil, core.Errf(core.KindNoBalanceDue, "customer_id",
			"customer %s has no outstanding balance", customer.Name)
	}

	tx.RemainingBalanceAfter = customer.CurrentBalance
	return s.appendTxLocked(tx), nil
}

func (s *Store) PostBusinessRecord(ctx context.Context, tx core.LedgerTransaction, adj *store.StockAdjustment) (*core.LedgerTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if adj != nil {
		if _, err := s.adjustStockLocked(adj.InventoryID, adj.Delta, adj.Reason, adj.Note); err != nil {
			return nil, err
		}
	}
	return s.appendTxLocked(tx), nil
}

func (s *Store) appendTxLocked(tx core.LedgerTransaction) *core.LedgerTransaction {
	if tx.ID == "" {
		tx.ID = xid.New("txn")
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	s.transactions = append(s.transactions, tx)
	out := tx
	return &out
}

// ── Ledger reads ─────────────────────────────────────────────────────────────

func (s *Store) ListTransactionsForCustomer(ctx context.Context, customerID string, limit int) ([]core.LedgerTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = store.DefaultListLimit
	}
	var out []core.LedgerTransaction
	for i := len(s.transactions) - 1; i >= 0; i-- {
		tx := s.transactions[i]
		if tx.CustomerID != customerID {
			continue
		}
		out = append(out, tx)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) ListTransactions(ctx context.Context, txType core.TransactionType, limit int) ([]core.LedgerTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = store.DefaultListLimit
	}
	var out []core.LedgerTransaction
	for i := len(s.transactions) - 1; i >= 0; i-- {
		tx := s.transactions[i]
		if txType != "" && tx.Type != txType {
			continue
		}
		out = append(out, tx)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
