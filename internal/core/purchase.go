package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PurchaseLineInput is the unresolved form of a purchase line as submitted by
// the calling layer.
type PurchaseLineInput struct {
	InventoryID      string            `json:"inventory_id"`
	Quantity         decimal.Decimal   `json:"quantity"`
	Unit             Unit              `json:"unit"`
	UnitSellingPrice decimal.Decimal   `json:"unit_selling_price"`
	ItemCommissions  []CommissionEntry `json:"item_commissions,omitempty"`
}

// InventoryLookup resolves an inventory id to its item. Implementations return
// a KindInventoryNotFound domain error when the id does not resolve.
type InventoryLookup func(id string) (*InventoryItem, error)

// BuildLine resolves a purchase line input against inventory and computes its
// total and item-level commission. The stock check here is advisory — the
// store re-checks it under lock at commit time to close the race window.
func BuildLine(input PurchaseLineInput, lookup InventoryLookup) (PurchaseLineItem, error) {
	if input.Quantity.LessThanOrEqual(decimal.Zero) {
		return PurchaseLineItem{}, Errf(KindInvalidQuantity, "quantity", "quantity must be positive, got %s", input.Quantity)
	}
	if input.UnitSellingPrice.LessThanOrEqual(decimal.Zero) {
		return PurchaseLineItem{}, Errf(KindInvalidPrice, "unit_selling_price", "unit price must be positive, got %s", input.UnitSellingPrice)
	}
	if input.Unit != "" && !ValidUnit(input.Unit) {
		return PurchaseLineItem{}, Errf(KindInvalidInput, "unit", "unknown unit %q", input.Unit)
	}

	item, err := lookup(input.InventoryID)
	if err != nil {
		return PurchaseLineItem{}, err
	}

	if input.Quantity.GreaterThan(item.CurrentStock) {
		return PurchaseLineItem{}, Errf(KindInsufficientStock, "quantity",
			"requested %s %s of %s but only %s in stock",
			input.Quantity, item.Unit, item.ProductName, item.CurrentStock)
	}

	unit := input.Unit
	if unit == "" {
		unit = item.Unit
	}

	lineTotal := RoundMoney(input.Quantity.Mul(input.UnitSellingPrice))
	lineCommission, err := ComputeTotalCommission(lineTotal, input.ItemCommissions)
	if err != nil {
		return PurchaseLineItem{}, fmt.Errorf("item %s: %w", item.ProductName, err)
	}

	return PurchaseLineItem{
		InventoryID:      item.ID,
		ProductName:      item.ProductName,
		Quantity:         input.Quantity,
		Unit:             unit,
		UnitSellingPrice: input.UnitSellingPrice,
		ItemCommissions:  input.ItemCommissions,
		LineTotal:        lineTotal,
		LineCommission:   lineCommission,
	}, nil
}

// Aggregate combines resolved lines and purchase-level commissions into the
// purchase summary. Commission exceeding the subtotal is a data-entry error
// and is rejected, never clamped.
func Aggregate(lines []PurchaseLineItem, purchaseCommissions []CommissionEntry, paidAmount decimal.Decimal) (PurchaseSummary, error) {
	if len(lines) == 0 {
		return PurchaseSummary{}, Errf(KindInvalidInput, "lines", "purchase must have at least one line")
	}
	if paidAmount.IsNegative() {
		return PurchaseSummary{}, Errf(KindInvalidPaidAmount, "paid_amount", "paid amount cannot be negative, got %s", paidAmount)
	}

	subtotal := decimal.Zero
	totalCommission := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.LineTotal)
		totalCommission = totalCommission.Add(line.LineCommission)
	}

	purchaseLevel, err := ComputeTotalCommission(subtotal, purchaseCommissions)
	if err != nil {
		return PurchaseSummary{}, err
	}
	totalCommission = totalCommission.Add(purchaseLevel)

	finalAmount := subtotal.Sub(totalCommission)
	if finalAmount.IsNegative() {
		return PurchaseSummary{}, Errf(KindCommissionExceedsSubtotal, "total_commission",
			"total commission %s exceeds subtotal %s", totalCommission, subtotal)
	}

	if paidAmount.GreaterThan(finalAmount) {
		return PurchaseSummary{}, Errf(KindInvalidPaidAmount, "paid_amount",
			"paid amount %s exceeds final amount %s", paidAmount, finalAmount)
	}

	return PurchaseSummary{
		Subtotal:         subtotal,
		TotalCommission:  totalCommission,
		FinalAmount:      finalAmount,
		RemainingBalance: finalAmount.Sub(paidAmount),
	}, nil
}
