package order

import (
	"context"
	"encoding/hex"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/electrostore/internal/domain/cart"
	"github.com/xenking/electrostore/internal/domain/customer"
	"github.com/xenking/electrostore/internal/domain/product"
	"github.com/xenking/electrostore/internal/domain/storeerr"
)

const instrumentationName = "github.com/xenking/electrostore/internal/domain/order"

// ErrEmptyCart is returned when checking out a cart with no items.
var ErrEmptyCart = errors.Wrap(storeerr.ErrInvalidQuantity, "cart is empty")

// Inventory is the subset of the catalog the workflow depends on.
type Inventory interface {
	Find(id string) (product.Product, bool)
	Reserve(id string, qty int) error
	Release(id string, qty int) error
}

// Service turns purchase intents into orders while keeping stock and
// balances consistent. Purchases are serialized so that the pre-flight
// checks and the reservation form one critical section.
type Service struct {
	mu        sync.Mutex
	inventory Inventory
	orders    *Log

	now   func() time.Time
	newID func() string

	tracer   trace.Tracer
	created  metric.Int64Counter
	failures metric.Int64Counter
}

// NewService creates an order Service.
func NewService(
	inventory Inventory,
	orders *Log,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
) (*Service, error) {
	meter := mp.Meter(instrumentationName)

	created, err := meter.Int64Counter("store.orders.created",
		metric.WithDescription("Orders placed"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders created counter")
	}
	failures, err := meter.Int64Counter("store.purchase.failures",
		metric.WithDescription("Rejected purchase attempts by reason"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "purchase failures counter")
	}

	return &Service{
		inventory: inventory,
		orders:    orders,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     newOrderID,
		tracer:    tp.Tracer(instrumentationName),
		created:   created,
		failures:  failures,
	}, nil
}

// Purchase buys qty units of a product for a customer.
//
// The order of effects matters: nothing is mutated until the reservation
// succeeds, and once it does the order is recorded, the balance debited and
// the order attached to the customer. A failed reservation leaves no order
// and no debit behind.
func (s *Service) Purchase(ctx context.Context, c *customer.Customer, productID string, qty int) (_ *Order, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.Purchase", trace.WithAttributes(
		attribute.String("customer.email", c.Email),
		attribute.String("product.id", productID),
		attribute.Int("product.quantity", qty),
	))
	defer func() { s.finish(ctx, span, rerr) }()

	if qty <= 0 {
		return nil, &storeerr.InvalidQuantityError{ProductID: productID, Quantity: qty}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.inventory.Find(productID)
	if !ok {
		return nil, &storeerr.NotFoundError{Entity: "product", ID: productID}
	}

	// The unit price read here is frozen into the order line.
	item := OrderItem{ProductID: p.ID, Quantity: qty, Price: p.Price}
	total := item.Subtotal()

	if p.Stock < qty {
		return nil, &storeerr.OutOfStockError{ProductID: p.ID, Available: p.Stock, Requested: qty}
	}
	if !c.CanAfford(total) {
		return nil, &storeerr.InsufficientFundsError{Email: c.Email, Balance: c.Balance, Total: total}
	}

	// Reserve re-checks stock atomically; its verdict is authoritative.
	if err := s.inventory.Reserve(p.ID, qty); err != nil {
		return nil, errors.Wrap(err, "reserve stock")
	}

	return s.place(ctx, c, []OrderItem{item}, total), nil
}

// Checkout places a single order for every line of the cart. Lines are
// reserved in cart order; if any reservation fails, the lines already
// reserved are released in reverse order and no order is created. The cart
// is emptied on success.
func (s *Service) Checkout(ctx context.Context, c *customer.Customer, crt *cart.Cart) (_ *Order, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.Checkout", trace.WithAttributes(
		attribute.String("customer.email", c.Email),
		attribute.Int("cart.lines", crt.Len()),
	))
	defer func() { s.finish(ctx, span, rerr) }()

	lines := crt.Items()
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]OrderItem, 0, len(lines))
	total := decimal.Zero
	for _, line := range lines {
		p, ok := s.inventory.Find(line.ProductID)
		if !ok {
			return nil, &storeerr.NotFoundError{Entity: "product", ID: line.ProductID}
		}
		if p.Stock < line.Quantity {
			return nil, &storeerr.OutOfStockError{ProductID: p.ID, Available: p.Stock, Requested: line.Quantity}
		}
		item := OrderItem{ProductID: p.ID, Quantity: line.Quantity, Price: p.Price}
		items = append(items, item)
		total = total.Add(item.Subtotal())
	}
	if !c.CanAfford(total) {
		return nil, &storeerr.InsufficientFundsError{Email: c.Email, Balance: c.Balance, Total: total}
	}

	for i, item := range items {
		if err := s.inventory.Reserve(item.ProductID, item.Quantity); err != nil {
			s.release(ctx, items[:i])
			return nil, errors.Wrapf(err, "reserve %s", item.ProductID)
		}
	}

	o := s.place(ctx, c, items, total)
	crt.Clear()
	return o, nil
}

// place records the order and settles the customer side. It runs only after
// every line has been reserved and cannot fail.
func (s *Service) place(ctx context.Context, c *customer.Customer, items []OrderItem, total decimal.Decimal) *Order {
	o := &Order{
		ID:         s.newID(),
		CustomerID: c.Email,
		Items:      items,
		Status:     StatusCreated,
		CreatedAt:  s.now(),
	}
	s.orders.Append(o)
	c.Debit(total)
	c.AddOrder(o.ID)

	s.created.Add(ctx, 1)
	zctx.From(ctx).Info("Order created",
		zap.String("order_id", o.ID),
		zap.String("customer", c.Email),
		zap.Int("lines", len(items)),
		zap.Stringer("total", total),
	)
	return o
}

// release undoes reservations in reverse order.
func (s *Service) release(ctx context.Context, items []OrderItem) {
	lg := zctx.From(ctx)
	for i := len(items) - 1; i >= 0; i-- {
		it := items[i]
		if err := s.inventory.Release(it.ProductID, it.Quantity); err != nil {
			lg.Error("Release reservation",
				zap.String("product_id", it.ProductID),
				zap.Int("quantity", it.Quantity),
				zap.Error(err),
			)
		}
	}
}

func (s *Service) finish(ctx context.Context, span trace.Span, err error) {
	defer span.End()
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	reason := failureReason(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	s.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	zctx.From(ctx).Debug("Purchase rejected", zap.String("reason", reason), zap.Error(err))
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, storeerr.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, storeerr.ErrNotFound):
		return "not_found"
	case errors.Is(err, storeerr.ErrOutOfStock):
		return "out_of_stock"
	case errors.Is(err, storeerr.ErrInsufficientFunds):
		return "insufficient_funds"
	default:
		return "internal"
	}
}

func newOrderID() string {
	id := uuid.New()
	return "o" + hex.EncodeToString(id[:4])
}
