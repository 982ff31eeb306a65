package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/electrostore/internal/domain/cart"
	"github.com/xenking/electrostore/internal/domain/customer"
	"github.com/xenking/electrostore/internal/domain/inventory"
	"github.com/xenking/electrostore/internal/domain/product"
	"github.com/xenking/electrostore/internal/domain/storeerr"
)

// --- Fakes ---

// racyInventory wraps a real inventory and can make Reserve fail for chosen
// products, simulating stock vanishing between the pre-flight check and the
// reservation.
type racyInventory struct {
	*inventory.Inventory
	failReserve map[string]error
	released    []string
}

func (r *racyInventory) Reserve(id string, qty int) error {
	if err, ok := r.failReserve[id]; ok {
		return err
	}
	return r.Inventory.Reserve(id, qty)
}

func (r *racyInventory) Release(id string, qty int) error {
	r.released = append(r.released, id)
	return r.Inventory.Release(id, qty)
}

// --- Helpers ---

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newTestProduct(id, price string, stock int) product.Product {
	return product.Product{
		ID:          id,
		Name:        "Item " + id,
		Description: "test",
		Price:       d(price),
		Stock:       stock,
		Category:    "electronics",
	}
}

func newInventory(t *testing.T, products ...product.Product) *inventory.Inventory {
	t.Helper()
	inv := inventory.New()
	for _, p := range products {
		require.NoError(t, inv.Add(p))
	}
	return inv
}

func newTestService(t *testing.T, inv Inventory) (*Service, *Log) {
	t.Helper()
	log := NewLog()
	svc, err := NewService(inv, log, tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	require.NoError(t, err)
	svc.now = func() time.Time { return fixedNow }
	return svc, log
}

func newCustomer(balance string) *customer.Customer {
	return &customer.Customer{Email: "alice@example.com", Name: "Alice", Balance: d(balance)}
}

func stockOf(t *testing.T, inv *inventory.Inventory, id string) int {
	t.Helper()
	p, ok := inv.Find(id)
	require.True(t, ok)
	return p.Stock
}

// --- Tests ---

func TestPurchase_Success(t *testing.T) {
	inv := newInventory(t, newTestProduct("p1", "10.0", 5))
	svc, log := newTestService(t, inv)
	c := newCustomer("100.0")

	o, err := svc.Purchase(context.Background(), c, "p1", 2)
	require.NoError(t, err)

	assert.Equal(t, 3, stockOf(t, inv, "p1"))
	assert.True(t, d("80").Equal(c.Balance), "balance %s", c.Balance)
	assert.True(t, d("20").Equal(o.Total()))
	assert.Equal(t, StatusCreated, o.Status)
	assert.Equal(t, "alice@example.com", o.CustomerID)
	assert.Equal(t, fixedNow, o.CreatedAt)
	assert.Regexp(t, `^o[0-9a-f]{8}$`, o.ID)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "p1", o.Items[0].ProductID)
	assert.Equal(t, 2, o.Items[0].Quantity)

	require.Equal(t, 1, log.Len())
	assert.Same(t, o, log.List()[0])
	assert.Equal(t, []string{o.ID}, c.OrderIDs)
}

func TestPurchase_InsufficientFunds(t *testing.T) {
	inv := newInventory(t, newTestProduct("p1", "5.0", 10))
	svc, log := newTestService(t, inv)
	c := newCustomer("20.0")

	_, err := svc.Purchase(context.Background(), c, "p1", 5)

	var ife *storeerr.InsufficientFundsError
	require.ErrorAs(t, err, &ife)
	assert.True(t, d("25").Equal(ife.Total))
	assert.True(t, d("20").Equal(c.Balance))
	assert.Equal(t, 10, stockOf(t, inv, "p1"))
	assert.Equal(t, 0, log.Len())
	assert.Empty(t, c.OrderIDs)
}

func TestPurchase_RejectedBeforeSideEffects(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		qty     int
		wantErr error
	}{
		{name: "zero quantity", id: "p1", qty: 0, wantErr: storeerr.ErrInvalidQuantity},
		{name: "negative quantity", id: "p1", qty: -2, wantErr: storeerr.ErrInvalidQuantity},
		{name: "unknown product", id: "missing", qty: 1, wantErr: storeerr.ErrNotFound},
		{name: "not enough stock", id: "p1", qty: 4, wantErr: storeerr.ErrOutOfStock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := newInventory(t, newTestProduct("p1", "1.0", 3))
			svc, log := newTestService(t, inv)
			c := newCustomer("1000")

			_, err := svc.Purchase(context.Background(), c, tt.id, tt.qty)

			require.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, storeerr.ErrStore)
			assert.Equal(t, 3, stockOf(t, inv, "p1"))
			assert.True(t, d("1000").Equal(c.Balance))
			assert.Equal(t, 0, log.Len())
		})
	}
}

func TestPurchase_ReservationFailureIsAuthoritative(t *testing.T) {
	base := newInventory(t, newTestProduct("p1", "10", 5))
	inv := &racyInventory{
		Inventory: base,
		failReserve: map[string]error{
			"p1": &storeerr.OutOfStockError{ProductID: "p1", Available: 0, Requested: 1},
		},
	}
	svc, log := newTestService(t, inv)
	c := newCustomer("100")

	_, err := svc.Purchase(context.Background(), c, "p1", 1)

	require.ErrorIs(t, err, storeerr.ErrOutOfStock)
	assert.Contains(t, err.Error(), "reserve stock")
	assert.Equal(t, 0, log.Len())
	assert.True(t, d("100").Equal(c.Balance))
	assert.Empty(t, c.OrderIDs)
	assert.Empty(t, inv.released)
}

func TestPurchase_PriceSnapshot(t *testing.T) {
	inv := newInventory(t, newTestProduct("p1", "10.00", 5))
	svc, _ := newTestService(t, inv)
	c := newCustomer("100")

	o, err := svc.Purchase(context.Background(), c, "p1", 2)
	require.NoError(t, err)

	require.NoError(t, inv.SetPrice("p1", d("99.99")))

	assert.True(t, d("10").Equal(o.Items[0].Price))
	assert.True(t, d("20").Equal(o.Total()))
}

func TestPurchase_ExactBalanceAndStock(t *testing.T) {
	inv := newInventory(t, newTestProduct("p1", "0.10", 3))
	svc, _ := newTestService(t, inv)
	c := newCustomer("0.30")

	_, err := svc.Purchase(context.Background(), c, "p1", 3)
	require.NoError(t, err)

	assert.True(t, c.Balance.IsZero())
	assert.Equal(t, 0, stockOf(t, inv, "p1"))
}

func TestPurchase_RepeatedCalls(t *testing.T) {
	inv := newInventory(t, newTestProduct("p1", "1", 2))
	svc, log := newTestService(t, inv)
	c := newCustomer("10")

	first, err := svc.Purchase(context.Background(), c, "p1", 1)
	require.NoError(t, err)
	second, err := svc.Purchase(context.Background(), c, "p1", 1)
	require.NoError(t, err)
	_, err = svc.Purchase(context.Background(), c, "p1", 1)
	require.ErrorIs(t, err, storeerr.ErrOutOfStock)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, log.Len())
	assert.True(t, d("8").Equal(c.Balance))
	assert.Len(t, log.ByCustomer(c.Email), 2)
}

func TestCheckout_Success(t *testing.T) {
	inv := newInventory(t,
		newTestProduct("p1", "10.00", 5),
		newTestProduct("p2", "2.50", 4),
	)
	svc, log := newTestService(t, inv)
	c := newCustomer("100")

	crt := cart.New(c.Email)
	require.NoError(t, crt.Add("p1", 2))
	require.NoError(t, crt.Add("p2", 4))

	o, err := svc.Checkout(context.Background(), c, crt)
	require.NoError(t, err)

	assert.True(t, d("30").Equal(o.Total()))
	require.Len(t, o.Items, 2)
	assert.Equal(t, "p1", o.Items[0].ProductID)
	assert.Equal(t, "p2", o.Items[1].ProductID)
	assert.Equal(t, 3, stockOf(t, inv, "p1"))
	assert.Equal(t, 0, stockOf(t, inv, "p2"))
	assert.True(t, d("70").Equal(c.Balance))
	assert.Equal(t, 1, log.Len())
	assert.Equal(t, 0, crt.Len())
}

func TestCheckout_EmptyCart(t *testing.T) {
	svc, _ := newTestService(t, newInventory(t))

	_, err := svc.Checkout(context.Background(), newCustomer("1"), cart.New("alice@example.com"))
	require.ErrorIs(t, err, ErrEmptyCart)
	assert.ErrorIs(t, err, storeerr.ErrInvalidQuantity)
}

func TestCheckout_ValidationLeavesCartAndStock(t *testing.T) {
	tests := []struct {
		name    string
		balance string
		lines   map[string]int
		wantErr error
	}{
		{name: "unknown product", balance: "100", lines: map[string]int{"p1": 1, "zz": 1}, wantErr: storeerr.ErrNotFound},
		{name: "out of stock line", balance: "100", lines: map[string]int{"p1": 1, "p2": 9}, wantErr: storeerr.ErrOutOfStock},
		{name: "total exceeds balance", balance: "12", lines: map[string]int{"p1": 1, "p2": 1}, wantErr: storeerr.ErrInsufficientFunds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := newInventory(t, newTestProduct("p1", "10", 5), newTestProduct("p2", "5", 3))
			svc, log := newTestService(t, inv)
			c := newCustomer(tt.balance)
			crt := cart.New(c.Email)
			for id, qty := range tt.lines {
				require.NoError(t, crt.Add(id, qty))
			}

			_, err := svc.Checkout(context.Background(), c, crt)

			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 5, stockOf(t, inv, "p1"))
			assert.Equal(t, 3, stockOf(t, inv, "p2"))
			assert.True(t, d(tt.balance).Equal(c.Balance))
			assert.Equal(t, 0, log.Len())
			assert.Equal(t, len(tt.lines), crt.Len())
		})
	}
}

func TestCheckout_CompensatesEarlierReservations(t *testing.T) {
	base := newInventory(t,
		newTestProduct("p1", "1", 5),
		newTestProduct("p2", "1", 5),
		newTestProduct("p3", "1", 5),
	)
	inv := &racyInventory{
		Inventory:   base,
		failReserve: map[string]error{"p3": errors.New("stock vanished")},
	}
	svc, log := newTestService(t, inv)
	c := newCustomer("100")
	crt := cart.New(c.Email)
	require.NoError(t, crt.Add("p1", 2))
	require.NoError(t, crt.Add("p2", 3))
	require.NoError(t, crt.Add("p3", 1))

	_, err := svc.Checkout(context.Background(), c, crt)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "reserve p3")
	assert.Equal(t, []string{"p2", "p1"}, inv.released)
	for _, id := range []string{"p1", "p2", "p3"} {
		assert.Equal(t, 5, stockOf(t, base, id), id)
	}
	assert.True(t, d("100").Equal(c.Balance))
	assert.Equal(t, 0, log.Len())
	assert.Equal(t, 3, crt.Len())
}

func TestFailureReason(t *testing.T) {
	assert.Equal(t, "out_of_stock", failureReason(errors.Wrap(storeerr.ErrOutOfStock, "x")))
	assert.Equal(t, "insufficient_funds", failureReason(&storeerr.InsufficientFundsError{}))
	assert.Equal(t, "not_found", failureReason(&storeerr.NotFoundError{}))
	assert.Equal(t, "invalid_quantity", failureReason(ErrEmptyCart))
	assert.Equal(t, "internal", failureReason(errors.New("boom")))
}
