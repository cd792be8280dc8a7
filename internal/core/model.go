package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecipientType identifies who receives a commission cut of a sale.
type RecipientType string

const (
	RecipientExporter RecipientType = "exporter"
	RecipientDelivery RecipientType = "delivery"
	RecipientAgent    RecipientType = "agent"
	RecipientBroker   RecipientType = "broker"
	RecipientOther    RecipientType = "other"
)

// CommissionMethod selects how a commission entry is computed.
type CommissionMethod string

const (
	CommissionPercentage CommissionMethod = "percentage"
	CommissionFixed      CommissionMethod = "fixed"
)

// Unit is the measurement unit for inventory stock and purchase quantities.
type Unit string

const (
	UnitKg    Unit = "kg"
	UnitTon   Unit = "ton"
	UnitPiece Unit = "piece"
	UnitBag   Unit = "bag"
	UnitLiter Unit = "liter"
)

// TransactionType classifies a ledger transaction.
type TransactionType string

const (
	TxPurchase           TransactionType = "purchase"
	TxPayment            TransactionType = "payment"
	TxStockPurchase      TransactionType = "stock_purchase"
	TxExpense            TransactionType = "expense"
	TxCommissionReceived TransactionType = "commission"
	TxDamagedGoods       TransactionType = "damaged_goods"
	TxReminder           TransactionType = "reminder"
	TxBullyPurchase      TransactionType = "bully_purchase"
)

// MovementReason classifies a stock movement.
type MovementReason string

const (
	MovementSale          MovementReason = "sale"
	MovementStockPurchase MovementReason = "stock_purchase"
	MovementDamage        MovementReason = "damage"
)

// CommissionEntry is one commission deduction against a base amount, either a
// percentage of the base or a fixed value. RecipientLabel is required only when
// RecipientType is "other" (a free-typed recipient outside the candidate list).
type CommissionEntry struct {
	RecipientType  RecipientType    `json:"recipient_type"`
	RecipientLabel string           `json:"recipient_label,omitempty"`
	Method         CommissionMethod `json:"method"`
	Value          decimal.Decimal  `json:"value"`
}

// PurchaseLineItem is a resolved purchase line: quantity of one inventory item
// at a selling price, with its item-level commissions already computed.
type PurchaseLineItem struct {
	InventoryID      string            `json:"inventory_id"`
	ProductName      string            `json:"product_name"`
	Quantity         decimal.Decimal   `json:"quantity"`
	Unit             Unit              `json:"unit"`
	UnitSellingPrice decimal.Decimal   `json:"unit_selling_price"`
	ItemCommissions  []CommissionEntry `json:"item_commissions,omitempty"`
	LineTotal        decimal.Decimal   `json:"line_total"`
	LineCommission   decimal.Decimal   `json:"line_commission"`
}

// PurchaseSummary is the aggregate of all purchase lines plus purchase-level
// commissions, as produced by Aggregate.
type PurchaseSummary struct {
	Subtotal         decimal.Decimal `json:"subtotal"`
	TotalCommission  decimal.Decimal `json:"total_commission"`
	FinalAmount      decimal.Decimal `json:"final_amount"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

// Customer carries a running signed balance: positive means the customer owes
// the business (due), negative means the business owes the customer (credit).
// CurrentBalance is mutated exclusively by ledger postings.
type Customer struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone"`
	IsActive       bool            `json:"is_active"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	CreatedAt      time.Time       `json:"created_at"`
}

// InventoryItem is a stocked product. CurrentStock never goes below zero.
type InventoryItem struct {
	ID            string          `json:"id"`
	ProductName   string          `json:"product_name"`
	Category      string          `json:"category"`
	CurrentStock  decimal.Decimal `json:"current_stock"`
	Unit          Unit            `json:"unit"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	MinStockLevel decimal.Decimal `json:"min_stock_level"`
	CreatedAt     time.Time       `json:"created_at"`
}

// IsLowStock reports whether the item is at or below its minimum stock level.
func (i InventoryItem) IsLowStock() bool {
	return i.CurrentStock.LessThanOrEqual(i.MinStockLevel)
}

// LedgerTransaction is one immutable entry in the append-only ledger.
// Corrections are new offsetting transactions, never edits. CustomerID is
// empty for business-level records (expenses, commissions received, stock
// purchases, damage write-offs).
type LedgerTransaction struct {
	ID                    string             `json:"id"`
	CustomerID            string             `json:"customer_id,omitempty"`
	Type                  TransactionType    `json:"type"`
	Amount                decimal.Decimal    `json:"amount"`
	PaidAmount            decimal.Decimal    `json:"paid_amount"`
	TotalCommission       decimal.Decimal    `json:"total_commission"`
	RemainingBalanceAfter decimal.Decimal    `json:"remaining_balance_after"`
	Items                 []PurchaseLineItem `json:"items,omitempty"`
	PaymentMethod         string             `json:"payment_method,omitempty"`
	Note                  string             `json:"note,omitempty"`
	CreatedAt             time.Time          `json:"created_at"`
}

// StockMovement is the audit record emitted for every stock adjustment.
// Delta is negative for sales and damage write-offs, positive for receipts.
type StockMovement struct {
	ID          string          `json:"id"`
	InventoryID string          `json:"inventory_id"`
	Delta       decimal.Decimal `json:"delta"`
	Reason      MovementReason  `json:"reason"`
	StockAfter  decimal.Decimal `json:"stock_after"`
	Note        string          `json:"note,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CommissionCandidate is a reusable named recipient eligible to receive a cut
// of a sale. Purchases reference candidates by label only; a free-typed "other"
// recipient needs no candidate record.
type CommissionCandidate struct {
	ID                    string          `json:"id"`
	Name                  string          `json:"name"`
	Type                  RecipientType   `json:"type"`
	DefaultCommissionRate decimal.Decimal `json:"default_commission_rate"`
	ContactNumber         string          `json:"contact_number,omitempty"`
	IsActive              bool            `json:"is_active"`
	CreatedAt             time.Time       `json:"created_at"`
}

// ValidRecipientType reports whether t is one of the closed set of recipient tags.
func ValidRecipientType(t RecipientType) bool {
	switch t {
	case RecipientExporter, RecipientDelivery, RecipientAgent, RecipientBroker, RecipientOther:
		return true
	}
	return false
}

// ValidUnit reports whether u is one of the supported measurement units.
func ValidUnit(u Unit) bool {
	switch u {
	case UnitKg, UnitTon, UnitPiece, UnitBag, UnitLiter:
		return true
	}
	return false
}
