package service

import (
	"github.com/shopspring/decimal"

	"commission-ledger/internal/core"
)

// CommissionInput is a commission entry as submitted by the calling layer.
// It either references a saved commission candidate by ID (recipient type,
// label, and — when Value is zero — the default percentage rate are taken from
// the candidate) or spells the entry out in full.
type CommissionInput struct {
	CandidateID    string                `json:"candidate_id,omitempty"`
	RecipientType  core.RecipientType    `json:"recipient_type,omitempty"`
	RecipientLabel string                `json:"recipient_label,omitempty"`
	Method         core.CommissionMethod `json:"method,omitempty"`
	Value          decimal.Decimal       `json:"value"`
}

// PurchaseLineRequest is one submitted purchase line.
type PurchaseLineRequest struct {
	InventoryID      string            `json:"inventory_id"`
	Quantity         decimal.Decimal   `json:"quantity"`
	Unit             core.Unit         `json:"unit,omitempty"`
	UnitSellingPrice decimal.Decimal   `json:"unit_selling_price"`
	ItemCommissions  []CommissionInput `json:"item_commissions,omitempty"`
}

// PurchaseRequest is the input for committing a customer purchase.
type PurchaseRequest struct {
	CustomerID          string                `json:"customer_id"`
	Lines               []PurchaseLineRequest `json:"lines"`
	PurchaseCommissions []CommissionInput     `json:"purchase_commissions,omitempty"`
	PaidAmount          decimal.Decimal       `json:"paid_amount"`
	Note                string                `json:"note,omitempty"`
}

// PaymentRequest is the input for recording a customer payment against dues.
type PaymentRequest struct {
	CustomerID    string          `json:"customer_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Note          string          `json:"note,omitempty"`
}

// BusinessRecordRequest is the input for recording an expense or a commission
// received — business-level records with no customer balance effect.
type BusinessRecordRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note,omitempty"`
}

// StockPurchaseRequest is the input for receiving stock into inventory.
// UnitCost zero means "use the item's recorded cost price". Bully marks the
// receipt as a bully purchase, which posts under its own transaction type but
// moves stock identically.
type StockPurchaseRequest struct {
	InventoryID string          `json:"inventory_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Bully       bool            `json:"bully,omitempty"`
	Note        string          `json:"note,omitempty"`
}

// DamagedGoodsRequest is the input for writing off damaged stock, valued at
// the item's cost price.
type DamagedGoodsRequest struct {
	InventoryID string          `json:"inventory_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Note        string          `json:"note,omitempty"`
}

// CreateCustomerRequest is the input for registering a customer.
type CreateCustomerRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// CreateInventoryItemRequest is the input for registering a stocked product.
type CreateInventoryItemRequest struct {
	ProductName   string          `json:"product_name"`
	Category      string          `json:"category,omitempty"`
	InitialStock  decimal.Decimal `json:"initial_stock"`
	Unit          core.Unit       `json:"unit"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	MinStockLevel decimal.Decimal `json:"min_stock_level"`
}

// CreateCandidateRequest is the input for registering a commission candidate.
type CreateCandidateRequest struct {
	Name                  string             `json:"name"`
	Type                  core.RecipientType `json:"type"`
	DefaultCommissionRate decimal.Decimal    `json:"default_commission_rate"`
	ContactNumber         string             `json:"contact_number,omitempty"`
}
