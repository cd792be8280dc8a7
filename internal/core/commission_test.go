package core_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"commission-ledger/internal/core"
)

func pct(v float64) core.CommissionEntry {
	return core.CommissionEntry{
		RecipientType: core.RecipientAgent,
		Method:        core.CommissionPercentage,
		Value:         decimal.NewFromFloat(v),
	}
}

func fixed(v float64) core.CommissionEntry {
	return core.CommissionEntry{
		RecipientType: core.RecipientBroker,
		Method:        core.CommissionFixed,
		Value:         decimal.NewFromFloat(v),
	}
}

func TestComputeCommission_Percentage(t *testing.T) {
	tests := []struct {
		name string
		base float64
		rate float64
		want string
	}{
		{"ten percent of 1000", 1000, 10, "100"},
		{"half-up at the minor unit", 9.99, 10, "1"},
		{"half-up on exact half", 0.05, 50, "0.03"},
		{"zero rate", 500, 0, "0"},
		{"full rate", 500, 100, "500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := core.ComputeCommission(decimal.NewFromFloat(tt.base), pct(tt.rate))
			if err != nil {
				t.Fatalf("ComputeCommission failed: %v", err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestComputeCommission_FixedIgnoresBase(t *testing.T) {
	for _, base := range []int64{0, 1, 1000, 999999} {
		got, err := core.ComputeCommission(decimal.NewFromInt(base), fixed(75))
		if err != nil {
			t.Fatalf("ComputeCommission failed for base %d: %v", base, err)
		}
		if !got.Equal(decimal.NewFromInt(75)) {
			t.Errorf("base %d: expected 75, got %s", base, got)
		}
	}
}

func TestComputeCommission_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		entry core.CommissionEntry
		kind  core.ErrorKind
	}{
		{"percentage above 100", pct(101), core.KindCommissionOutOfRange},
		{"negative percentage", pct(-1), core.KindCommissionOutOfRange},
		{"negative fixed", fixed(-5), core.KindCommissionOutOfRange},
		{
			"unknown method",
			core.CommissionEntry{RecipientType: core.RecipientAgent, Method: "markup", Value: decimal.NewFromInt(5)},
			core.KindInvalidInput,
		},
		{
			"unknown recipient type",
			core.CommissionEntry{RecipientType: "middleman", Method: core.CommissionFixed, Value: decimal.NewFromInt(5)},
			core.KindInvalidInput,
		},
		{
			"other recipient without label",
			core.CommissionEntry{RecipientType: core.RecipientOther, Method: core.CommissionFixed, Value: decimal.NewFromInt(5)},
			core.KindInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := core.ComputeCommission(decimal.NewFromInt(1000), tt.entry)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !core.IsKind(err, tt.kind) {
				t.Errorf("expected kind %s, got %s (%v)", tt.kind, core.KindOf(err), err)
			}
		})
	}
}

// For fixed-only entry lists the total must be the plain arithmetic sum,
// for any list length including zero.
func TestComputeTotalCommission_FixedSum(t *testing.T) {
	values := []float64{10, 2.50, 0, 99.99, 400}

	for n := 0; n <= len(values); n++ {
		entries := make([]core.CommissionEntry, 0, n)
		want := decimal.Zero
		for _, v := range values[:n] {
			entries = append(entries, fixed(v))
			want = want.Add(decimal.NewFromFloat(v))
		}

		got, err := core.ComputeTotalCommission(decimal.NewFromInt(10000), entries)
		if err != nil {
			t.Fatalf("n=%d: ComputeTotalCommission failed: %v", n, err)
		}
		if !got.Equal(want) {
			t.Errorf("n=%d: expected %s, got %s", n, want, got)
		}
	}
}

func TestComputeTotalCommission_Mixed(t *testing.T) {
	entries := []core.CommissionEntry{pct(5), fixed(20)}
	got, err := core.ComputeTotalCommission(decimal.NewFromInt(500), entries)
	if err != nil {
		t.Fatalf("ComputeTotalCommission failed: %v", err)
	}
	// 5% of 500 = 25, plus fixed 20
	if !got.Equal(decimal.NewFromInt(45)) {
		t.Errorf("expected 45, got %s", got)
	}
}

func TestComputeTotalCommission_BadEntryPosition(t *testing.T) {
	entries := []core.CommissionEntry{pct(5), pct(120)}
	_, err := core.ComputeTotalCommission(decimal.NewFromInt(500), entries)
	if err == nil {
		t.Fatal("expected error for out-of-range entry, got nil")
	}
	if !core.IsKind(err, core.KindCommissionOutOfRange) {
		t.Errorf("expected COMMISSION_OUT_OF_RANGE, got %v", err)
	}
}
