package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds an amount half-up at the minor unit (two decimal places).
// Every derived money figure in the engine passes through this one rule so
// that stored amounts never carry sub-paisa precision.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ValidateCommissionEntry enforces the closed tagged-variant rules for a
// commission entry: known recipient and method tags, a label for free-typed
// recipients, percentage values in [0,100], fixed values ≥ 0.
func ValidateCommissionEntry(entry CommissionEntry) error {
	if !ValidRecipientType(entry.RecipientType) {
		return Errf(KindInvalidInput, "recipient_type", "unknown recipient type %q", entry.RecipientType)
	}
	if entry.RecipientType == RecipientOther && entry.RecipientLabel == "" {
		return Errf(KindInvalidInput, "recipient_label", "label is required for recipient type %q", RecipientOther)
	}
	switch entry.Method {
	case CommissionPercentage:
		if entry.Value.IsNegative() || entry.Value.GreaterThan(hundred) {
			return Errf(KindCommissionOutOfRange, "value", "percentage must be between 0 and 100, got %s", entry.Value)
		}
	case CommissionFixed:
		if entry.Value.IsNegative() {
			return Errf(KindCommissionOutOfRange, "value", "fixed commission cannot be negative, got %s", entry.Value)
		}
	default:
		return Errf(KindInvalidInput, "method", "unknown commission method %q", entry.Method)
	}
	return nil
}

// ComputeCommission computes the commission amount a single entry deducts from
// baseAmount. Percentage entries round half-up at the minor unit; fixed entries
// return their value unchanged, independent of the base.
func ComputeCommission(baseAmount decimal.Decimal, entry CommissionEntry) (decimal.Decimal, error) {
	if err := ValidateCommissionEntry(entry); err != nil {
		return decimal.Zero, err
	}
	if entry.Method == CommissionFixed {
		return RoundMoney(entry.Value), nil
	}
	return RoundMoney(baseAmount.Mul(entry.Value).Div(hundred)), nil
}

// ComputeTotalCommission sums ComputeCommission over all entries.
// An empty list yields zero.
func ComputeTotalCommission(baseAmount decimal.Decimal, entries []CommissionEntry) (decimal.Decimal, error) {
	total := decimal.Zero
	for i, entry := range entries {
		amount, err := ComputeCommission(baseAmount, entry)
		if err != nil {
			return decimal.Zero, fmt.Errorf("commission entry %d: %w", i+1, err)
		}
		total = total.Add(amount)
	}
	return total, nil
}
