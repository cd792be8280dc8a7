// Package service orchestrates the purchase/commission ledger engine: it
// resolves inputs, runs the pure calculators, and hands fully-built ledger
// transactions to the store's atomic posting operations. It holds no mutable
// state of its own — the caller decides when to compute, the store decides
// what commits.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"commission-ledger/internal/cache"
	"commission-ledger/internal/core"
	"commission-ledger/internal/store"
)

const statementTTL = 5 * time.Minute

type Service struct {
	repo       store.Repository
	statements cache.StatementCache
}

func New(repo store.Repository, statements cache.StatementCache) *Service {
	if statements == nil {
		statements = cache.NoopStatementCache{}
	}
	return &Service{repo: repo, statements: statements}
}

// ── Purchases ────────────────────────────────────────────────────────────────

// PreviewPurchase resolves and aggregates a purchase request without posting
// anything. The calling layer invokes it explicitly whenever it wants fresh
// totals; the engine has no notion of live recomputation.
func (s *Service) PreviewPurchase(ctx context.Context, req PurchaseRequest) (*core.PurchaseSummary, []core.PurchaseLineItem, error) {
	_, summary, lines, err := s.resolvePurchase(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	return summary, lines, nil
}

// CommitPurchase resolves, aggregates, and atomically posts a purchase:
// stock is decremented for every line, the customer balance moves by
// (finalAmount − paidAmount), and the ledger transaction is appended — all
// inside one store-level unit of work. Any failure leaves balance and stock
// exactly as before the call.
func (s *Service) CommitPurchase(ctx context.Context, req PurchaseRequest) (*core.LedgerTransaction, error) {
	customer, summary, lines, err := s.resolvePurchase(ctx, req)
	if err != nil {
		return nil, err
	}

	tx := core.LedgerTransaction{
		ID:              uuid.NewString(),
		CustomerID:      customer.ID,
		Type:            core.TxPurchase,
		Amount:          summary.FinalAmount,
		PaidAmount:      req.PaidAmount,
		TotalCommission: summary.TotalCommission,
		Items:           lines,
		Note:            strings.TrimSpace(req.Note),
	}

	stored, err := s.repo.PostPurchase(ctx, tx)
	if err != nil {
		return nil, err
	}

	_ = s.statements.Invalidate(ctx, customer.ID)
	return stored, nil
}

func (s *Service) resolvePurchase(ctx context.Context, req PurchaseRequest) (*core.Customer, *core.PurchaseSummary, []core.PurchaseLineItem, error) {
	if len(req.Lines) == 0 {
		return nil, nil, nil, core.Errf(core.KindInvalidInput, "lines", "purchase must have at least one line")
	}

	customer, err := s.repo.GetCustomer(ctx, req.CustomerID)
	if err != nil {
		return nil, nil, nil, err
	}
	if !customer.IsActive {
		return nil, nil, nil, core.Errf(core.KindCustomerInactive, "customer_id", "customer %s is inactive", customer.Name)
	}

	lookup := func(id string) (*core.InventoryItem, error) {
		return s.repo.GetInventoryItem(ctx, id)
	}

	lines := make([]core.PurchaseLineItem, 0, len(req.Lines))
	for i, lineReq := range req.Lines {
		itemCommissions, err := s.resolveCommissions(ctx, lineReq.ItemCommissions)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("line %d: %w", i+1, err)
		}

		line, err := core.BuildLine(core.PurchaseLineInput{
			InventoryID:      lineReq.InventoryID,
			Quantity:         lineReq.Quantity,
			Unit:             lineReq.Unit,
			UnitSellingPrice: lineReq.UnitSellingPrice,
			ItemCommissions:  itemCommissions,
		}, lookup)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		lines = append(lines, line)
	}

	purchaseCommissions, err := s.resolveCommissions(ctx, req.PurchaseCommissions)
	if err != nil {
		return nil, nil, nil, err
	}

	summary, err := core.Aggregate(lines, purchaseCommissions, req.PaidAmount)
	if err != nil {
		return nil, nil, nil, err
	}
	return customer, &summary, lines, nil
}

// resolveCommissions expands candidate references into full commission entries
// and validates the rest. A referenced candidate must exist and be active;
// a zero value falls back to the candidate's default percentage rate.
func (s *Service) resolveCommissions(ctx context.Context, inputs []CommissionInput) ([]core.CommissionEntry, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	entries := make([]core.CommissionEntry, 0, len(inputs))
	for i, in := range inputs {
		entry := core.CommissionEntry{
			RecipientType:  in.RecipientType,
			RecipientLabel: in.RecipientLabel,
			Method:         in.Method,
			Value:          in.Value,
		}

		if in.CandidateID != "" {
			candidate, err := s.repo.GetCandidate(ctx, in.CandidateID)
			if err != nil {
				return nil, fmt.Errorf("commission entry %d: %w", i+1, err)
			}
			if !candidate.IsActive {
				return nil, core.Errf(core.KindInvalidInput, "candidate_id",
					"commission candidate %s is inactive", candidate.Name)
			}
			entry.RecipientType = candidate.Type
			entry.RecipientLabel = candidate.Name
			if entry.Method == "" {
				entry.Method = core.CommissionPercentage
			}
			if entry.Value.IsZero() && entry.Method == core.CommissionPercentage {
				entry.Value = candidate.DefaultCommissionRate
			}
		}

		if err := core.ValidateCommissionEntry(entry); err != nil {
			return nil, fmt.Errorf("commission entry %d: %w", i+1, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ── Payments and customer records ────────────────────────────────────────────

// ApplyPayment records a payment against a customer's dues. Payments above
// the current balance are rejected — customers are never driven into credit.
func (s *Service) ApplyPayment(ctx context.Context, req PaymentRequest) (*core.LedgerTransaction, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, core.Errf(core.KindInvalidPaymentAmount, "amount", "payment must be positive, got %s", req.Amount)
	}

	stored, err := s.repo.PostPayment(ctx, core.LedgerTransaction{
		ID:            uuid.NewString(),
		CustomerID:    req.CustomerID,
		Type:          core.TxPayment,
		Amount:        core.RoundMoney(req.Amount),
		PaymentMethod: req.PaymentMethod,
		Note:          strings.TrimSpace(req.Note),
	})
	if err != nil {
		return nil, err
	}

	_ = s.statements.Invalidate(ctx, req.CustomerID)
	return stored, nil
}

// RecordReminder appends an informational dues reminder for a customer with a
// positive balance. The balance is untouched.
func (s *Service) RecordReminder(ctx context.Context, customerID, note string) (*core.LedgerTransaction, error) {
	stored, err := s.repo.PostReminder(ctx, core.LedgerTransaction{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		Type:       core.TxReminder,
		Amount:     decimal.Zero,
		Note:       strings.TrimSpace(note),
	})
	if err != nil {
		return nil, err
	}

	_ = s.statements.Invalidate(ctx, customerID)
	return stored, nil
}

// ── Business records ─────────────────────────────────────────────────────────

// RecordExpense records a business cost. No customer balance is affected.
func (s *Service) RecordExpense(ctx context.Context, req BusinessRecordRequest) (*core.LedgerTransaction, error) {
	return s.postBusinessAmount(ctx, core.TxExpense, req)
}

// RecordCommissionReceived records commission income earned by the business.
func (s *Service) RecordCommissionReceived(ctx context.Context, req BusinessRecordRequest) (*core.LedgerTransaction, error) {
	return s.postBusinessAmount(ctx, core.TxCommissionReceived, req)
}

func (s *Service) postBusinessAmount(ctx context.Context, txType core.TransactionType, req BusinessRecordRequest) (*core.LedgerTransaction, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, core.Errf(core.KindInvalidAmount, "amount", "amount must be positive, got %s", req.Amount)
	}
	return s.repo.PostBusinessRecord(ctx, core.LedgerTransaction{
		ID:     uuid.NewString(),
		Type:   txType,
		Amount: core.RoundMoney(req.Amount),
		Note:   strings.TrimSpace(req.Note),
	}, nil)
}

// ── Stock operations ─────────────────────────────────────────────────────────

// ReceiveStock records a stock purchase: inventory goes up by the received
// quantity and a ledger record captures the business cost, atomically.
func (s *Service) ReceiveStock(ctx context.Context, req StockPurchaseRequest) (*core.LedgerTransaction, error) {
	if req.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, core.Errf(core.KindInvalidQuantity, "quantity", "quantity must be positive, got %s", req.Quantity)
	}
	if req.UnitCost.IsNegative() {
		return nil, core.Errf(core.KindInvalidPrice, "unit_cost", "unit cost cannot be negative, got %s", req.UnitCost)
	}

	item, err := s.repo.GetInventoryItem(ctx, req.InventoryID)
	if err != nil {
		return nil, err
	}

	unitCost := req.UnitCost
	if unitCost.IsZero() {
		unitCost = item.CostPrice
	}

	txType := core.TxStockPurchase
	if req.Bully {
		txType = core.TxBullyPurchase
	}

	return s.repo.PostBusinessRecord(ctx, core.LedgerTransaction{
		ID:     uuid.NewString(),
		Type:   txType,
		Amount: core.RoundMoney(req.Quantity.Mul(unitCost)),
		Note:   strings.TrimSpace(req.Note),
	}, &store.StockAdjustment{
		InventoryID: req.InventoryID,
		Delta:       req.Quantity,
		Reason:      core.MovementStockPurchase,
		Note:        fmt.Sprintf("received %s %s of %s", req.Quantity, item.Unit, item.ProductName),
	})
}

// WriteOffDamagedGoods removes damaged stock and records the loss at the
// item's cost price. Fails if the write-off exceeds current stock.
func (s *Service) WriteOffDamagedGoods(ctx context.Context, req DamagedGoodsRequest) (*core.LedgerTransaction, error) {
	if req.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, core.Errf(core.KindInvalidQuantity, "quantity", "quantity must be positive, got %s", req.Quantity)
	}

	item, err := s.repo.GetInventoryItem(ctx, req.InventoryID)
	if err != nil {
		return nil, err
	}

	return s.repo.PostBusinessRecord(ctx, core.LedgerTransaction{
		ID:     uuid.NewString(),
		Type:   core.TxDamagedGoods,
		Amount: core.RoundMoney(req.Quantity.Mul(item.CostPrice)),
		Note:   strings.TrimSpace(req.Note),
	}, &store.StockAdjustment{
		InventoryID: req.InventoryID,
		Delta:       req.Quantity.Neg(),
		Reason:      core.MovementDamage,
		Note:        fmt.Sprintf("damage write-off of %s %s of %s", req.Quantity, item.Unit, item.ProductName),
	})
}

// ── Master data ──────────────────────────────────────────────────────────────

func (s *Service) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*core.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, core.Errf(core.KindInvalidInput, "name", "customer name is required")
	}
	return s.repo.CreateCustomer(ctx, core.Customer{
		ID:       uuid.NewString(),
		Name:     name,
		Phone:    strings.TrimSpace(req.Phone),
		IsActive: true,
	})
}

func (s *Service) GetCustomer(ctx context.Context, id string) (*core.Customer, error) {
	return s.repo.GetCustomer(ctx, id)
}

func (s *Service) ListCustomers(ctx context.Context) ([]core.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

func (s *Service) SetCustomerActive(ctx context.Context, id string, active bool) (*core.Customer, error) {
	c, err := s.repo.SetCustomerActive(ctx, id, active)
	if err != nil {
		return nil, err
	}
	_ = s.statements.Invalidate(ctx, id)
	return c, nil
}

func (s *Service) CreateInventoryItem(ctx context.Context, req CreateInventoryItemRequest) (*core.InventoryItem, error) {
	name := strings.TrimSpace(req.ProductName)
	if name == "" {
		return nil, core.Errf(core.KindInvalidInput, "product_name", "product name is required")
	}
	if !core.ValidUnit(req.Unit) {
		return nil, core.Errf(core.KindInvalidInput, "unit", "unknown unit %q", req.Unit)
	}
	if req.InitialStock.IsNegative() {
		return nil, core.Errf(core.KindInvalidQuantity, "initial_stock", "initial stock cannot be negative, got %s", req.InitialStock)
	}
	if req.CostPrice.IsNegative() {
		return nil, core.Errf(core.KindInvalidPrice, "cost_price", "cost price cannot be negative, got %s", req.CostPrice)
	}

	return s.repo.CreateInventoryItem(ctx, core.InventoryItem{
		ID:            uuid.NewString(),
		ProductName:   name,
		Category:      strings.TrimSpace(req.Category),
		CurrentStock:  req.InitialStock,
		Unit:          req.Unit,
		CostPrice:     core.RoundMoney(req.CostPrice),
		MinStockLevel: req.MinStockLevel,
	})
}

func (s *Service) GetInventoryItem(ctx context.Context, id string) (*core.InventoryItem, error) {
	return s.repo.GetInventoryItem(ctx, id)
}

func (s *Service) ListInventoryItems(ctx context.Context) ([]core.InventoryItem, error) {
	return s.repo.ListInventoryItems(ctx)
}

// ListLowStockItems returns the items at or below their minimum stock level.
func (s *Service) ListLowStockItems(ctx context.Context) ([]core.InventoryItem, error) {
	items, err := s.repo.ListInventoryItems(ctx)
	if err != nil {
		return nil, err
	}
	low := items[:0:0]
	for _, item := range items {
		if item.IsLowStock() {
			low = append(low, item)
		}
	}
	return low, nil
}

func (s *Service) ListStockMovements(ctx context.Context, inventoryID string, limit int) ([]core.StockMovement, error) {
	return s.repo.ListStockMovements(ctx, inventoryID, limit)
}

func (s *Service) CreateCandidate(ctx context.Context, req CreateCandidateRequest) (*core.CommissionCandidate, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, core.Errf(core.KindInvalidInput, "name", "candidate name is required")
	}
	if !core.ValidRecipientType(req.Type) {
		return nil, core.Errf(core.KindInvalidInput, "type", "unknown recipient type %q", req.Type)
	}
	if req.DefaultCommissionRate.IsNegative() || req.DefaultCommissionRate.GreaterThan(decimal.NewFromInt(100)) {
		return nil, core.Errf(core.KindCommissionOutOfRange, "default_commission_rate",
			"default rate must be between 0 and 100, got %s", req.DefaultCommissionRate)
	}

	return s.repo.CreateCandidate(ctx, core.CommissionCandidate{
		ID:                    uuid.NewString(),
		Name:                  name,
		Type:                  req.Type,
		DefaultCommissionRate: req.DefaultCommissionRate,
		ContactNumber:         strings.TrimSpace(req.ContactNumber),
		IsActive:              true,
	})
}

func (s *Service) ListCandidates(ctx context.Context) ([]core.CommissionCandidate, error) {
	return s.repo.ListCandidates(ctx)
}

func (s *Service) SetCandidateActive(ctx context.Context, id string, active bool) (*core.CommissionCandidate, error) {
	return s.repo.SetCandidateActive(ctx, id, active)
}

// ── Ledger reads ─────────────────────────────────────────────────────────────

// GetStatement returns a customer's current balance and recent transactions.
// Results are cached briefly; every posting against the customer invalidates
// the cached entry.
func (s *Service) GetStatement(ctx context.Context, customerID string, limit int) (*cache.Statement, error) {
	if st, hit, err := s.statements.Get(ctx, customerID); err == nil && hit {
		return st, nil
	}

	customer, err := s.repo.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	txs, err := s.repo.ListTransactionsForCustomer(ctx, customerID, limit)
	if err != nil {
		return nil, err
	}

	st := &cache.Statement{Customer: *customer, Transactions: txs}
	_ = s.statements.Set(ctx, customerID, st, statementTTL)
	return st, nil
}

func (s *Service) ListTransactions(ctx context.Context, txType core.TransactionType, limit int) ([]core.LedgerTransaction, error) {
	if txType != "" {
		switch txType {
		case core.TxPurchase, core.TxPayment, core.TxStockPurchase, core.TxExpense,
			core.TxCommissionReceived, core.TxDamagedGoods, core.TxReminder, core.TxBullyPurchase:
		default:
			return nil, core.Errf(core.KindInvalidInput, "type", "unknown transaction type %q", txType)
		}
	}
	return s.repo.ListTransactions(ctx, txType, limit)
}
