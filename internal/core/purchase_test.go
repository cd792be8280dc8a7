package core_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"commission-ledger/internal/core"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testLookup(items ...core.InventoryItem) core.InventoryLookup {
	byID := make(map[string]core.InventoryItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	return func(id string) (*core.InventoryItem, error) {
		item, ok := byID[id]
		if !ok {
			return nil, core.Errf(core.KindInventoryNotFound, "inventory_id", "inventory item %s not found", id)
		}
		return &item, nil
	}
}

func riceItem() core.InventoryItem {
	return core.InventoryItem{
		ID:           "inv-rice",
		ProductName:  "Rice",
		CurrentStock: d("100"),
		Unit:         core.UnitKg,
		CostPrice:    d("40"),
	}
}

func TestBuildLine(t *testing.T) {
	lookup := testLookup(riceItem())

	line, err := core.BuildLine(core.PurchaseLineInput{
		InventoryID:      "inv-rice",
		Quantity:         d("10"),
		UnitSellingPrice: d("50"),
		ItemCommissions:  []core.CommissionEntry{pct(5)},
	}, lookup)
	if err != nil {
		t.Fatalf("BuildLine failed: %v", err)
	}

	if !line.LineTotal.Equal(d("500")) {
		t.Errorf("expected line total 500, got %s", line.LineTotal)
	}
	if !line.LineCommission.Equal(d("25")) {
		t.Errorf("expected line commission 25, got %s", line.LineCommission)
	}
	if line.Unit != core.UnitKg {
		t.Errorf("expected unit to default to the item's kg, got %q", line.Unit)
	}
	if line.ProductName != "Rice" {
		t.Errorf("expected product name from inventory, got %q", line.ProductName)
	}
}

func TestBuildLine_Rejections(t *testing.T) {
	lookup := testLookup(riceItem())

	tests := []struct {
		name  string
		input core.PurchaseLineInput
		kind  core.ErrorKind
	}{
		{
			"zero quantity",
			core.PurchaseLineInput{InventoryID: "inv-rice", Quantity: decimal.Zero, UnitSellingPrice: d("50")},
			core.KindInvalidQuantity,
		},
		{
			"negative quantity",
			core.PurchaseLineInput{InventoryID: "inv-rice", Quantity: d("-1"), UnitSellingPrice: d("50")},
			core.KindInvalidQuantity,
		},
		{
			"zero price",
			core.PurchaseLineInput{InventoryID: "inv-rice", Quantity: d("1"), UnitSellingPrice: decimal.Zero},
			core.KindInvalidPrice,
		},
		{
			"unknown unit",
			core.PurchaseLineInput{InventoryID: "inv-rice", Quantity: d("1"), Unit: "crate", UnitSellingPrice: d("50")},
			core.KindInvalidInput,
		},
		{
			"unknown inventory id",
			core.PurchaseLineInput{InventoryID: "inv-missing", Quantity: d("1"), UnitSellingPrice: d("50")},
			core.KindInventoryNotFound,
		},
		{
			"quantity above stock",
			core.PurchaseLineInput{InventoryID: "inv-rice", Quantity: d("100.5"), UnitSellingPrice: d("50")},
			core.KindInsufficientStock,
		},
		{
			"bad item commission",
			core.PurchaseLineInput{
				InventoryID:      "inv-rice",
				Quantity:         d("1"),
				UnitSellingPrice: d("50"),
				ItemCommissions:  []core.CommissionEntry{pct(150)},
			},
			core.KindCommissionOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := core.BuildLine(tt.input, lookup)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !core.IsKind(err, tt.kind) {
				t.Errorf("expected kind %s, got %s (%v)", tt.kind, core.KindOf(err), err)
			}
		})
	}
}

func TestAggregate(t *testing.T) {
	lines := []core.PurchaseLineItem{
		{LineTotal: d("500"), LineCommission: d("25")},
		{LineTotal: d("300"), LineCommission: decimal.Zero},
	}

	summary, err := core.Aggregate(lines, []core.CommissionEntry{fixed(15)}, d("400"))
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	if !summary.Subtotal.Equal(d("800")) {
		t.Errorf("expected subtotal 800, got %s", summary.Subtotal)
	}
	if !summary.TotalCommission.Equal(d("40")) {
		t.Errorf("expected total commission 40, got %s", summary.TotalCommission)
	}
	if !summary.FinalAmount.Equal(d("760")) {
		t.Errorf("expected final amount 760, got %s", summary.FinalAmount)
	}
	if !summary.RemainingBalance.Equal(d("360")) {
		t.Errorf("expected remaining balance 360, got %s", summary.RemainingBalance)
	}
}

func TestAggregate_NoCommissions(t *testing.T) {
	lines := []core.PurchaseLineItem{{LineTotal: d("250"), LineCommission: decimal.Zero}}

	summary, err := core.Aggregate(lines, nil, decimal.Zero)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if !summary.FinalAmount.Equal(summary.Subtotal) {
		t.Errorf("with no commissions final amount must equal subtotal, got %s vs %s",
			summary.FinalAmount, summary.Subtotal)
	}
	if !summary.RemainingBalance.Equal(d("250")) {
		t.Errorf("expected remaining balance 250, got %s", summary.RemainingBalance)
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	lines := []core.PurchaseLineItem{{LineTotal: d("123.45"), LineCommission: d("6.17")}}
	commissions := []core.CommissionEntry{pct(2.5)}

	first, err := core.Aggregate(lines, commissions, d("10"))
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	second, err := core.Aggregate(lines, commissions, d("10"))
	if err != nil {
		t.Fatalf("Aggregate failed on second call: %v", err)
	}
	if !first.FinalAmount.Equal(second.FinalAmount) || !first.TotalCommission.Equal(second.TotalCommission) {
		t.Errorf("same inputs produced different summaries: %+v vs %+v", first, second)
	}
}

func TestAggregate_Rejections(t *testing.T) {
	oneLine := []core.PurchaseLineItem{{LineTotal: d("100"), LineCommission: decimal.Zero}}

	tests := []struct {
		name        string
		lines       []core.PurchaseLineItem
		commissions []core.CommissionEntry
		paid        decimal.Decimal
		kind        core.ErrorKind
	}{
		{"no lines", nil, nil, decimal.Zero, core.KindInvalidInput},
		{"negative paid amount", oneLine, nil, d("-1"), core.KindInvalidPaidAmount},
		{"commission above subtotal", oneLine, []core.CommissionEntry{fixed(150)}, decimal.Zero, core.KindCommissionExceedsSubtotal},
		{"paid above final amount", oneLine, []core.CommissionEntry{fixed(30)}, d("80"), core.KindInvalidPaidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := core.Aggregate(tt.lines, tt.commissions, tt.paid)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !core.IsKind(err, tt.kind) {
				t.Errorf("expected kind %s, got %s (%v)", tt.kind, core.KindOf(err), err)
			}
		})
	}
}

// Commission exactly equal to the subtotal is the boundary: final amount zero
// is allowed, one paisa over is not.
func TestAggregate_CommissionBoundary(t *testing.T) {
	lines := []core.PurchaseLineItem{{LineTotal: d("100"), LineCommission: decimal.Zero}}

	summary, err := core.Aggregate(lines, []core.CommissionEntry{fixed(100)}, decimal.Zero)
	if err != nil {
		t.Fatalf("commission equal to subtotal must be accepted: %v", err)
	}
	if !summary.FinalAmount.IsZero() {
		t.Errorf("expected zero final amount, got %s", summary.FinalAmount)
	}

	_, err = core.Aggregate(lines, []core.CommissionEntry{fixed(100.01)}, decimal.Zero)
	if !core.IsKind(err, core.KindCommissionExceedsSubtotal) {
		t.Errorf("expected COMMISSION_EXCEEDS_SUBTOTAL, got %v", err)
	}
}
