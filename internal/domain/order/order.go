package order

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/electrostore/internal/domain/storeerr"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusCreated   Status = "created"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// Order is a purchase fixed at creation time. Only Status may change later.
type Order struct {
	ID         string
	CustomerID string
	Items      []OrderItem
	Status     Status
	CreatedAt  time.Time
}

// Total returns the sum of the item subtotals.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// OrderItem is a single line of an order. Price is the unit price captured
// when the order was placed, independent of later catalog changes.
type OrderItem struct {
	ProductID string
	Quantity  int
	Price     decimal.Decimal
}

// Subtotal returns Quantity × Price.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Log is the append-only record of all orders, in placement order.
type Log struct {
	orders []*Order
	byID   map[string]*Order
}

// NewLog creates an empty Log.
func NewLog() *Log {
	return &Log{byID: make(map[string]*Order)}
}

// Append records an order.
func (l *Log) Append(o *Order) {
	l.orders = append(l.orders, o)
	l.byID[o.ID] = o
}

// Get returns the order with the given identifier.
func (l *Log) Get(id string) (*Order, error) {
	o, ok := l.byID[id]
	if !ok {
		return nil, &storeerr.NotFoundError{Entity: "order", ID: id}
	}
	return o, nil
}

// List returns all orders in placement order.
func (l *Log) List() []*Order {
	return slices.Clone(l.orders)
}

// ByCustomer returns the orders placed by the given customer.
func (l *Log) ByCustomer(customerID string) []*Order {
	var out []*Order
	for _, o := range l.orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out
}

// Len returns the number of recorded orders.
func (l *Log) Len() int {
	return len(l.orders)
}
