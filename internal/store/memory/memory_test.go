package memory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commission-ledger/internal/core"
	"commission-ledger/internal/store"
	"commission-ledger/internal/store/memory"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seed(t *testing.T) (*memory.Store, *core.Customer, *core.InventoryItem) {
	t.Helper()
	ctx := context.Background()
	st := memory.New()

	customer, err := st.CreateCustomer(ctx, core.Customer{Name: "Rahim Traders", IsActive: true})
	require.NoError(t, err)

	item, err := st.CreateInventoryItem(ctx, core.InventoryItem{
		ProductName:  "Rice",
		CurrentStock: d("100"),
		Unit:         core.UnitKg,
		CostPrice:    d("40"),
	})
	require.NoError(t, err)

	return st, customer, item
}

func purchaseTx(customerID, inventoryID string, qty, amount, paid decimal.Decimal) core.LedgerTransaction {
	return core.LedgerTransaction{
		CustomerID: customerID,
		Type:       core.TxPurchase,
		Amount:     amount,
		PaidAmount: paid,
		Items: []core.PurchaseLineItem{{
			InventoryID: inventoryID,
			Quantity:    qty,
			LineTotal:   amount,
		}},
	}
}

func TestPostPurchase(t *testing.T) {
	st, customer, item := seed(t)
	ctx := context.Background()

	stored, err := st.PostPurchase(ctx, purchaseTx(customer.ID, item.ID, d("10"), d("500"), d("200")))
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)
	assert.False(t, stored.CreatedAt.IsZero())
	assert.True(t, stored.RemainingBalanceAfter.Equal(d("300")), "got %s", stored.RemainingBalanceAfter)

	got, err := st.GetCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentBalance.Equal(d("300")), "got %s", got.CurrentBalance)

	after, err := st.GetInventoryItem(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, after.CurrentStock.Equal(d("90")), "got %s", after.CurrentStock)
}

func TestPostPurchase_RejectsWithoutMutating(t *testing.T) {
	st, customer, item := seed(t)
	ctx := context.Background()

	tx := core.LedgerTransaction{
		CustomerID: customer.ID,
		Type:       core.TxPurchase,
		Amount:     d("99999"),
		Items: []core.PurchaseLineItem{
			{InventoryID: item.ID, Quantity: d("50")},
			{InventoryID: item.ID, Quantity: d("60")},
		},
	}
	_, err := st.PostPurchase(ctx, tx)
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindInsufficientStock), "got %v", err)

	after, err := st.GetInventoryItem(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, after.CurrentStock.Equal(d("100")), "stock must be untouched, got %s", after.CurrentStock)

	got, err := st.GetCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentBalance.IsZero(), "balance must be untouched, got %s", got.CurrentBalance)

	txs, err := st.ListTransactions(ctx, "", 0)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

// Two lines naming the same item must be checked against their summed
// quantity: each passing individually is not enough, and a rejection must
// leave no partial decrement behind.
func TestPostPurchase_DuplicateItemLinesOverdraw(t *testing.T) {
	st, customer, _ := seed(t)
	ctx := context.Background()

	item, err := st.CreateInventoryItem(ctx, core.InventoryItem{
		ProductName:  "Lentils",
		CurrentStock: d("5"),
		Unit:         core.UnitKg,
		CostPrice:    d("90"),
	})
	require.NoError(t, err)

	tx := core.LedgerTransaction{
		CustomerID: customer.ID,
		Type:       core.TxPurchase,
		Amount:     d("800"),
		Items: []core.PurchaseLineItem{
			{InventoryID: item.ID, Quantity: d("4")},
			{InventoryID: item.ID, Quantity: d("4")},
		},
	}
	_, err = st.PostPurchase(ctx, tx)
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindInsufficientStock), "got %v", err)

	after, err := st.GetInventoryItem(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, after.CurrentStock.Equal(d("5")), "stock must be untouched, got %s", after.CurrentStock)

	got, err := st.GetCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentBalance.IsZero(), "balance must be untouched, got %s", got.CurrentBalance)

	movements, err := st.ListStockMovements(ctx, item.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, movements, "no movement may survive a rejected purchase")

	txs, err := st.ListTransactions(ctx, "", 0)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

// The summed check still admits duplicate-item lines that fit together.
func TestPostPurchase_DuplicateItemLinesWithinStock(t *testing.T) {
	st, customer, item := seed(t)
	ctx := context.Background()

	tx := core.LedgerTransaction{
		CustomerID: customer.ID,
		Type:       core.TxPurchase,
		Amount:     d("5000"),
		Items: []core.PurchaseLineItem{
			{InventoryID: item.ID, Quantity: d("60")},
			{InventoryID: item.ID, Quantity: d("40")},
		},
	}
	_, err := st.PostPurchase(ctx, tx)
	require.NoError(t, err)

	after, err := st.GetInventoryItem(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, after.CurrentStock.IsZero(), "got %s", after.CurrentStock)

	movements, err := st.ListStockMovements(ctx, item.ID, 0)
	require.NoError(t, err)
	assert.Len(t, movements, 2, "one movement per line")
}

func TestPostPurchase_InactiveCustomer(t *testing.T) {
	st, customer, item := seed(t)
	ctx := context.Background()

	_, err := st.SetCustomerActive(ctx, customer.ID, false)
	require.NoError(t, err)

	_, err = st.PostPurchase(ctx, purchaseTx(customer.ID, item.ID, d("1"), d("50"), decimal.Zero))
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindCustomerInactive), "got %v", err)
}

func TestAdjustStock_NeverNegative(t *testing.T) {
	st, _, item := seed(t)
	ctx := context.Background()

	_, err := st.AdjustStock(ctx, item.ID, d("-100.5"), core.MovementDamage, "")
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindInsufficientStock), "got %v", err)

	after, err := st.AdjustStock(ctx, item.ID, d("-100"), core.MovementDamage, "")
	require.NoError(t, err)
	assert.True(t, after.CurrentStock.IsZero(), "got %s", after.CurrentStock)
}

func TestPostPayment_Bounds(t *testing.T) {
	st, customer, item := seed(t)
	ctx := context.Background()

	_, err := st.PostPurchase(ctx, purchaseTx(customer.ID, item.ID, d("10"), d("500"), decimal.Zero))
	require.NoError(t, err)

	_, err = st.PostPayment(ctx, core.LedgerTransaction{
		CustomerID: customer.ID, Type: core.TxPayment, Amount: d("500.01"),
	})
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindInvalidPaymentAmount), "got %v", err)

	stored, err := st.PostPayment(ctx, core.LedgerTransaction{
		CustomerID: customer.ID, Type: core.TxPayment, Amount: d("500"),
	})
	require.NoError(t, err)
	assert.True(t, stored.RemainingBalanceAfter.IsZero(), "got %s", stored.RemainingBalanceAfter)
}

func TestCancelledContextPostsNothing(t *testing.T) {
	st, customer, item := seed(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := st.PostPurchase(ctx, purchaseTx(customer.ID, item.ID, d("10"), d("500"), decimal.Zero))
	require.Error(t, err)

	after, err := st.GetInventoryItem(context.Background(), item.ID)
	require.NoError(t, err)
	assert.True(t, after.CurrentStock.Equal(d("100")), "got %s", after.CurrentStock)

	txs, err := st.ListTransactions(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

// A non-positive limit falls back to the shared default page size, the same
// as the SQL-backed implementation.
func TestListTransactions_DefaultLimit(t *testing.T) {
	st, _, _ := seed(t)
	ctx := context.Background()

	for i := 0; i < store.DefaultListLimit+5; i++ {
		_, err := st.PostBusinessRecord(ctx, core.LedgerTransaction{
			Type:   core.TxExpense,
			Amount: d("1"),
		}, nil)
		require.NoError(t, err)
	}

	txs, err := st.ListTransactions(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, txs, store.DefaultListLimit)

	txs, err = st.ListTransactions(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, txs, 10)
}

// With 100 units in stock and twenty concurrent 10-unit purchases, exactly ten
// may commit. Stock must land on zero, never below, and the balance must match
// the committed purchases exactly.
func TestConcurrentPurchases_NoOverdraw(t *testing.T) {
	st, customer, item := seed(t)
	ctx := context.Background()

	const attempts = 20
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = st.PostPurchase(ctx, purchaseTx(customer.ID, item.ID, d("10"), d("500"), decimal.Zero))
		}(i)
	}
	wg.Wait()

	committed := 0
	for _, err := range errs {
		if err == nil {
			committed++
			continue
		}
		assert.True(t, core.IsKind(err, core.KindInsufficientStock), "unexpected failure: %v", err)
	}
	assert.Equal(t, 10, committed)

	after, err := st.GetInventoryItem(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, after.CurrentStock.IsZero(), "got %s", after.CurrentStock)

	got, err := st.GetCustomer(ctx, customer.ID)
	require.NoError(t, err)
	want := d("500").Mul(decimal.NewFromInt(int64(committed)))
	assert.True(t, got.CurrentBalance.Equal(want), "expected %s, got %s", want, got.CurrentBalance)

	txs, err := st.ListTransactions(ctx, core.TxPurchase, 0)
	require.NoError(t, err)
	assert.Len(t, txs, committed)
}

// Concurrent payments against a fixed balance must never drive it negative.
func TestConcurrentPayments_NoOvershoot(t *testing.T) {
	st, customer, item := seed(t)
	ctx := context.Background()

	_, err := st.PostPurchase(ctx, purchaseTx(customer.ID, item.ID, d("10"), d("1000"), decimal.Zero))
	require.NoError(t, err)

	const attempts = 20
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = st.PostPayment(ctx, core.LedgerTransaction{
				CustomerID: customer.ID, Type: core.TxPayment, Amount: d("100"),
			})
		}(i)
	}
	wg.Wait()

	committed := 0
	for _, err := range errs {
		if err == nil {
			committed++
		}
	}
	assert.Equal(t, 10, committed)

	got, err := st.GetCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentBalance.IsZero(), "got %s", got.CurrentBalance)
}
