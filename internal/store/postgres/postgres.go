// Package postgres implements the store.Repository against PostgreSQL.
//
// Every posting runs in a single transaction; the customer row and each
// touched inventory row are locked with SELECT … FOR UPDATE before any
// precondition is checked, so concurrent postings against the same entity
// serialize on the row lock and never read a stale balance or stock figure.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"commission-ledger/internal/core"
	"commission-ledger/internal/store"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared
// query helpers.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ── Customers ────────────────────────────────────────────────────────────────

func (s *Store) CreateCustomer(ctx context.Context, c core.Customer) (*core.Customer, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO customers (id, name, phone, is_active, current_balance)
		VALUES ($1, $2, $3, $4, 0)
		RETURNING id, name, phone, is_active, current_balance, created_at
	`, c.ID, c.Name, c.Phone, c.IsActive).Scan(
		&c.ID, &c.Name, &c.Phone, &c.IsActive, &c.CurrentBalance, &c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return &c, nil
}

func (s *Store) GetCustomer(ctx context.Context, id string) (*core.Customer, error) {
	return s.fetchCustomer(ctx, s.pool, id, false)
}

func (s *Store) fetchCustomer(ctx context.Context, q pgxQuerier, id string, forUpdate bool) (*core.Customer, error) {
	query := `
		SELECT id, name, phone, is_active, current_balance, created_at
		FROM customers WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var c core.Customer
	err := q.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Phone, &c.IsActive, &c.CurrentBalance, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.Errf(core.KindCustomerNotFound, "customer_id", "customer %s not found", id)
		}
		return nil, fmt.Errorf("failed to fetch customer %s: %w", id, err)
	}
	return &c, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]core.Customer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, phone, is_active, current_balance, created_at
		FROM customers
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []core.Customer
	for rows.Next() {
		var c core.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.IsActive, &c.CurrentBalance, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (s *Store) SetCustomerActive(ctx context.Context, id string, active bool) (*core.Customer, error) {
	var c core.Customer
	err := s.pool.QueryRow(ctx, `
		UPDATE customers SET is_active = $1 WHERE id = $2
		RETURNING id, name, phone, is_active, current_balance, created_at
	`, active, id).Scan(&c.ID, &c.Name, &c.Phone, &c.IsActive, &c.CurrentBalance, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.Errf(core.KindCustomerNotFound, "customer_id", "customer %s not found", id)
		}
		return nil, fmt.Errorf("failed to update customer %s: %w", id, err)
	}
	return &c, nil
}

// ── Inventory ────────────────────────────────────────────────────────────────

func (s *Store) CreateInventoryItem(ctx context.Context, item core.InventoryItem) (*core.InventoryItem, error) {
	if item.CurrentStock.IsNegative() {
		return nil, core.Errf(core.KindInvalidQuantity, "current_stock", "initial stock cannot be negative, got %s", item.CurrentStock)
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO inventory_items (id, product_name, category, current_stock, unit, cost_price, min_stock_level)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, product_name, category, current_stock, unit, cost_price, min_stock_level, created_at
	`, item.ID, item.ProductName, item.Category, item.CurrentStock, item.Unit, item.CostPrice, item.MinStockLevel).Scan(
		&item.ID, &item.ProductName, &item.Category, &item.CurrentStock,
		&item.Unit, &item.CostPrice, &item.MinStockLevel, &item.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create inventory item: %w", err)
	}
	return &item, nil
}

func (s *Store) GetInventoryItem(ctx context.Context, id string) (*core.InventoryItem, error) {
	return s.fetchInventoryItem(ctx, s.pool, id, false)
}

func (s *Store) fetchInventoryItem(ctx context.Context, q pgxQuerier, id string, forUpdate bool) (*core.InventoryItem, error) {
	query := `
		SELECT id, product_name, category, current_stock, unit, cost_price, min_stock_level, created_at
		FROM inventory_items WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var item core.InventoryItem
	err := q.QueryRow(ctx, query, id).Scan(
		&item.ID, &item.ProductName, &item.Category, &item.CurrentStock,
		&item.Unit, &item.CostPrice, &item.MinStockLevel, &item.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.Errf(core.KindInventoryNotFound, "inventory_id", "inventory item %s not found", id)
		}
		return nil, fmt.Errorf("failed to fetch inventory item %s: %w", id, err)
	}
	return &item, nil
}

func (s *Store) ListInventoryItems(ctx context.Context) ([]core.InventoryItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, product_name, category, current_stock, unit, cost_price, min_stock_level, created_at
		FROM inventory_items
		ORDER BY product_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory items: %w", err)
	}
	defer rows.Close()

	var items []core.InventoryItem
	for rows.Next() {
		var item core.InventoryItem
		if err := rows.Scan(&item.ID, &item.ProductName, &item.Category, &item.CurrentStock,
			&item.Unit, &item.CostPrice, &item.MinStockLevel, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *Store) AdjustStock(ctx context.Context, inventoryID string, delta decimal.Decimal, reason core.MovementReason, note string) (*core.InventoryItem, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	item, err := s.adjustStockTx(ctx, tx, inventoryID, delta, reason, note)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit stock adjustment: %w", err)
	}
	return item, nil
}

// adjustStockTx locks the inventory row, applies the delta, and appends the
// movement record, all within the caller's transaction.
func (s *Store) adjustStockTx(ctx context.Context, tx pgx.Tx, inventoryID string, delta decimal.Decimal, reason core.MovementReason, note string) (*core.InventoryItem, error) {
	item, err := s.fetchInventoryItem(ctx, tx, inventoryID, true)
	if err != nil {
		return nil, err
	}

	next := item.CurrentStock.Add(delta)
	if next.IsNegative() {
		return nil, core.Errf(core.KindInsufficientStock, "delta",
			"adjustment %s would drive stock of %s below zero (current %s)", delta, item.ProductName, item.CurrentStock)
	}

	_, err = tx.Exec(ctx,
		"UPDATE inventory_items SET current_stock = $1 WHERE id = $2",
		next, inventoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update stock for %s: %w", inventoryID, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO stock_movements (id, inventory_id, delta, reason, stock_after, note)
		VALUES (gen_random_uuid()::text, $1, $2, $3, $4, $5)
	`, inventoryID, delta, string(reason), next, note)
	if err != nil {
		return nil, fmt.Errorf("failed to insert stock movement: %w", err)
	}

	item.CurrentStock = next
	return item, nil
}

func (s *Store) ListStockMovements(ctx context.Context, inventoryID string, limit int) ([]core.StockMovement, error) {
	if limit <= 0 {
		limit = store.DefaultListLimit
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, inventory_id, delta, reason, stock_after, note, created_at
		FROM stock_movements
		WHERE ($1 = '' OR inventory_id = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`, inventoryID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock movements: %w", err)
	}
	defer rows.Close()

	var movements []core.StockMovement
	for rows.Next() {
		var m core.StockMovement
		if err := rows.Scan(&m.ID, &m.InventoryID, &m.Delta, &m.Reason, &m.StockAfter, &m.Note, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock movement: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// ── Commission candidates ────────────────────────────────────────────────────

func (s *Store) CreateCandidate(ctx context.Context, c core.CommissionCandidate) (*core.CommissionCandidate, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO commission_candidates (id, name, type, default_commission_rate, contact_number, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, name, type, default_commission_rate, contact_number, is_active, created_at
	`, c.ID, c.Name, string(c.Type), c.DefaultCommissionRate, c.ContactNumber, c.IsActive).Scan(
		&c.ID, &c.Name, &c.Type, &c.DefaultCommissionRate, &c.ContactNumber, &c.IsActive, &c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create commission candidate: %w", err)
	}
	return &c, nil
}

func (s *Store) GetCandidate(ctx context.Context, id string) (*core.CommissionCandidate, error) {
	var c core.CommissionCandidate
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, type, default_commission_rate, contact_number, is_active, created_at
		FROM commission_candidates WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Type, &c.DefaultCommissionRate, &c.ContactNumber, &c.IsActive, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.Errf(core.KindCandidateNotFound, "candidate_id", "commission candidate %s not found", id)
		}
		return nil, fmt.Errorf("failed to fetch commission candidate %s: %w", id, err)
	}
	return &c, nil
}

func (s *Store) ListCandidates(ctx context.Context) ([]core.CommissionCandidate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, type, default_commission_rate, contact_number, is_active, created_at
		FROM commission_candidates
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query commission candidates: %w", err)
	}
	defer rows.Close()

	var candidates []core.CommissionCandidate
	for rows.Next() {
		var c core.CommissionCandidate
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.DefaultCommissionRate, &c.ContactNumber, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan commission candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

func (s *Store) SetCandidateActive(ctx context.Context, id string, active bool) (*core.CommissionCandidate, error) {
	var c core.CommissionCandidate
	err := s.pool.QueryRow(ctx, `
		UPDATE commission_candidates SET is_active = $1 WHERE id = $2
		RETURNING id, name, type, default_commission_rate, contact_number, is_active, created_at
	`, active, id).Scan(&c.ID, &c.Name, &c.Type, &c.DefaultCommissionRate, &c.ContactNumber, &c.IsActive, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.Errf(core.KindCandidateNotFound, "candidate_id", "commission candidate %s not found", id)
		}
		return nil, fmt.Errorf("failed to update commission candidate %s: %w", id, err)
	}
	return &c, nil
}

// ── Atomic postings ──────────────────────────────────────────────────────────

func (s *Store) PostPurchase(ctx context.Context, ltx core.LedgerTransaction) (*core.LedgerTransaction, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the customer row first: purchases against the same customer
	// serialize here, before any stock row is touched.
	customer, err := s.fetchCustomer(ctx, tx, ltx.CustomerID, true)
	if err != nil {
		return nil, err
	}
	if !customer.IsActive {
		return nil, core.Errf(core.KindCustomerInactive, "customer_id", "customer %s is inactive", customer.Name)
	}

	for _, line := range ltx.Items {
		if _, err := s.adjustStockTx(ctx, tx, line.InventoryID, line.Quantity.Neg(), core.MovementSale,
			"sale against purchase "+ltx.ID); err != nil {
			return nil, err
		}
	}

	newBalance := customer.CurrentBalance.Add(ltx.Amount.Sub(ltx.PaidAmount))
	if _, err := tx.Exec(ctx,
		"UPDATE customers SET current_balance = $1 WHERE id = $2",
		newBalance, ltx.CustomerID,
	); err != nil {
		return nil, fmt.Errorf("failed to update customer balance: %w", err)
	}

	ltx.RemainingBalanceAfter = newBalance
	stored, err := s.insertTransactionTx(ctx, tx, ltx)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit purchase: %w", err)
	}
	return stored, nil
}

func (s *Store) PostPayment(ctx context.Context, ltx core.LedgerTransaction) (*core.LedgerTransaction, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	customer, err := s.fetchCustomer(ctx, tx, ltx.CustomerID, true)
	if err != nil {
		return nil, err
	}
	if ltx.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, core.Errf(core.KindInvalidPaymentAmount, "amount", "payment must be positive, got %s", ltx.Amount)
	}
	if ltx.Amount.GreaterThan(customer.CurrentBalance) {
		return nil, core.Errf(core.KindInvalidPaymentAmount, "amount",
			"payment %s exceeds current balance %s", ltx.Amount, customer.CurrentBalance)
	}

	newBalance := customer.CurrentBalance.Sub(ltx.Amount)
	if _, err := tx.Exec(ctx,
		"UPDATE customers SET current_balance = $1 WHERE id = $2",
		newBalance, ltx.CustomerID,
	); err != nil {
		return nil, fmt.Errorf("failed to update customer balance: %w", err)
	}

	ltx.RemainingBalanceAfter = newBalance
	stored, err := s.insertTransactionTx(ctx, tx, ltx)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit payment: %w", err)
	}
	return stored, nil
}

func (s *Store) PostReminder(ctx context.Context, ltx core.LedgerTransaction) (*core.LedgerTransaction, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	customer, err := s.fetchCustomer(ctx, tx, ltx.CustomerID, true)
	if err != nil {
		return nil, err
	}
	if !customer.CurrentBalance.IsPositive() {
		return nil, core.Errf(core.KindNoBalanceDue, "customer_id",
			"customer %s has no outstanding balance", customer.Name)
	}

	ltx.RemainingBalanceAfter = customer.CurrentBalance
	stored, err := s.insertTransactionTx(ctx, tx, ltx)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit reminder: %w", err)
	}
	return stored, nil
}

func (s *Store) PostBusinessRecord(ctx context.Context, ltx core.LedgerTransaction, adj *store.StockAdjustment) (*core.LedgerTransaction, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if adj != nil {
		if _, err := s.adjustStockTx(ctx, tx, adj.InventoryID, adj.Delta, adj.Reason, adj.Note); err != nil {
			return nil, err
		}
	}

	stored, err := s.insertTransactionTx(ctx, tx, ltx)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit business record: %w", err)
	}
	return stored, nil
}

func (s *Store) insertTransactionTx(ctx context.Context, tx pgx.Tx, ltx core.LedgerTransaction) (*core.LedgerTransaction, error) {
	var items []byte
	if len(ltx.Items) > 0 {
		var err error
		items, err = json.Marshal(ltx.Items)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal purchase items: %w", err)
		}
	}

	var customerID *string
	if ltx.CustomerID != "" {
		customerID = &ltx.CustomerID
	}

	err := tx.QueryRow(ctx, `
		INSERT INTO ledger_transactions
			(id, customer_id, type, amount, paid_amount, total_commission, remaining_balance_after, items, payment_method, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`, ltx.ID, customerID, string(ltx.Type), ltx.Amount, ltx.PaidAmount, ltx.TotalCommission,
		ltx.RemainingBalanceAfter, items, ltx.PaymentMethod, ltx.Note,
	).Scan(&ltx.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert ledger transaction: %w", err)
	}
	return &ltx, nil
}

// ── Ledger reads ─────────────────────────────────────────────────────────────

func (s *Store) ListTransactionsForCustomer(ctx context.Context, customerID string, limit int) ([]core.LedgerTransaction, error) {
	if limit <= 0 {
		limit = store.DefaultListLimit
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, customer_id, type, amount, paid_amount, total_commission, remaining_balance_after, items, payment_method, note, created_at
		FROM ledger_transactions
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger for customer %s: %w", customerID, err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (s *Store) ListTransactions(ctx context.Context, txType core.TransactionType, limit int) ([]core.LedgerTransaction, error) {
	if limit <= 0 {
		limit = store.DefaultListLimit
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, customer_id, type, amount, paid_amount, total_commission, remaining_balance_after, items, payment_method, note, created_at
		FROM ledger_transactions
		WHERE ($1 = '' OR type = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`, string(txType), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func scanTransactions(rows pgx.Rows) ([]core.LedgerTransaction, error) {
	var txs []core.LedgerTransaction
	for rows.Next() {
		var ltx core.LedgerTransaction
		var customerID *string
		var items []byte
		if err := rows.Scan(&ltx.ID, &customerID, &ltx.Type, &ltx.Amount, &ltx.PaidAmount,
			&ltx.TotalCommission, &ltx.RemainingBalanceAfter, &items, &ltx.PaymentMethod, &ltx.Note, &ltx.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger transaction: %w", err)
		}
		if customerID != nil {
			ltx.CustomerID = *customerID
		}
		if len(items) > 0 {
			if err := json.Unmarshal(items, &ltx.Items); err != nil {
				return nil, fmt.Errorf("failed to unmarshal items for transaction %s: %w", ltx.ID, err)
			}
		}
		txs = append(txs, ltx)
	}
	return txs, rows.Err()
}
