// Package store assembles the back-office state into one explicit object
// and converts it to and from the backend-neutral Snapshot.
package store

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/electrostore/internal/domain/customer"
	"github.com/xenking/electrostore/internal/domain/inventory"
	"github.com/xenking/electrostore/internal/domain/order"
	"github.com/xenking/electrostore/internal/domain/product"
	"github.com/xenking/electrostore/internal/domain/storeerr"
	"github.com/xenking/electrostore/internal/domain/supplier"
)

// Store holds the catalog, customers, suppliers and order log.
type Store struct {
	Inventory *inventory.Inventory
	Customers *customer.Registry
	Suppliers *supplier.Registry
	Orders    *order.Log
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		Inventory: inventory.New(),
		Customers: customer.NewRegistry(),
		Suppliers: supplier.NewRegistry(),
		Orders:    order.NewLog(),
	}
}

// Snapshot is the persisted form of a Store.
type Snapshot struct {
	Products  []product.Product
	Customers []CustomerRecord
	Suppliers []SupplierRecord
	Orders    []order.Order
}

// CustomerRecord is the persisted part of a customer. Order history is
// rebuilt from the orders on load.
type CustomerRecord struct {
	Email   string
	Name    string
	Balance decimal.Decimal
}

// SupplierRecord is the persisted part of a supplier.
type SupplierRecord struct {
	Name    string
	Contact string
}

// Repository loads and saves snapshots.
type Repository interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
}

// Snapshot captures the current state.
func (s *Store) Snapshot() *Snapshot {
	snap := &Snapshot{Products: s.Inventory.List()}
	for _, c := range s.Customers.List() {
		snap.Customers = append(snap.Customers, CustomerRecord{
			Email:   c.Email,
			Name:    c.Name,
			Balance: c.Balance,
		})
	}
	for _, sp := range s.Suppliers.List() {
		snap.Suppliers = append(snap.Suppliers, SupplierRecord{Name: sp.Name, Contact: sp.Contact})
	}
	for _, o := range s.Orders.List() {
		snap.Orders = append(snap.Orders, *o)
	}
	return snap
}

// FromSnapshot rebuilds a Store. Orders are re-attached to the history of
// the customer they reference, when that customer exists.
func FromSnapshot(snap *Snapshot) (*Store, error) {
	s := New()
	for _, p := range snap.Products {
		if err := s.Inventory.Add(p); err != nil {
			return nil, errors.Wrap(err, "restore product")
		}
	}
	for _, c := range snap.Customers {
		if _, err := s.Customers.Register(c.Email, c.Name, c.Balance); err != nil {
			return nil, errors.Wrap(err, "restore customer")
		}
	}
	for _, sp := range snap.Suppliers {
		s.Suppliers.Add(sp.Name, sp.Contact)
	}
	for i := range snap.Orders {
		o := snap.Orders[i]
		for _, it := range o.Items {
			if it.Quantity <= 0 {
				return nil, errors.Wrapf(&storeerr.InvalidQuantityError{ProductID: it.ProductID, Quantity: it.Quantity},
					"restore order %s", o.ID)
			}
		}
		s.Orders.Append(&o)
		if c, ok := s.Customers.Find(o.CustomerID); ok {
			c.AddOrder(o.ID)
		}
	}
	return s, nil
}

// Load reads a snapshot from repo and rebuilds the Store. A snapshot that
// decodes but cannot be restored is reported as a SerializationError.
func Load(ctx context.Context, repo Repository) (*Store, error) {
	snap, err := repo.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load snapshot")
	}
	s, err := FromSnapshot(snap)
	if err != nil {
		source := "snapshot"
		if p, ok := repo.(interface{ Path() string }); ok {
			source = p.Path()
		}
		return nil, &storeerr.SerializationError{Source: source, Err: err}
	}
	return s, nil
}

// DefaultCustomers are registered into a store that has no customers.
var DefaultCustomers = []CustomerRecord{
	{Email: "alice@example.com", Name: "Alice", Balance: decimal.NewFromInt(1000)},
	{Email: "bob@example.com", Name: "Bob", Balance: decimal.NewFromInt(500)},
}

// SeedCustomers registers DefaultCustomers when the store has none. It
// reports whether seeding happened.
func (s *Store) SeedCustomers() (bool, error) {
	if s.Customers.Len() > 0 {
		return false, nil
	}
	for _, c := range DefaultCustomers {
		if _, err := s.Customers.Register(c.Email, c.Name, c.Balance); err != nil {
			return false, errors.Wrap(err, "seed customer")
		}
	}
	return true, nil
}
