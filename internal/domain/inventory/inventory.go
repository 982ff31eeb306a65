// Package inventory owns the product catalog and is the sole authority over
// stock levels. No operation in this package ever leaves a product with
// negative stock, and a failed operation never leaves a partial mutation.
package inventory

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/xenking/electrostore/internal/domain/product"
	"github.com/xenking/electrostore/internal/domain/storeerr"
)

// Inventory maps product identifiers to products. Listing preserves
// insertion order.
//
// The zero value is not usable; create instances with New.
type Inventory struct {
	mu       sync.Mutex
	products map[string]*product.Product
	order    []string
}

// New creates an empty Inventory.
func New() *Inventory {
	return &Inventory{products: make(map[string]*product.Product)}
}

// Add inserts a product into the catalog.
func (inv *Inventory) Add(p product.Product) error {
	if p.Stock < 0 {
		return &storeerr.InvalidQuantityError{ProductID: p.ID, Quantity: p.Stock}
	}
	if p.Price.IsNegative() {
		return &storeerr.InvalidPriceError{ProductID: p.ID, Price: p.Price}
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	if _, ok := inv.products[p.ID]; ok {
		return &storeerr.DuplicateProductError{ProductID: p.ID}
	}
	inv.products[p.ID] = &p
	inv.order = append(inv.order, p.ID)
	return nil
}

// Find returns a copy of the product with the given identifier. The boolean
// is false when no such product exists.
func (inv *Inventory) Find(id string) (product.Product, bool) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	p, ok := inv.products[id]
	if !ok {
		return product.Product{}, false
	}
	return *p, true
}

// List returns copies of all products in insertion order.
func (inv *Inventory) List() []product.Product {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	out := make([]product.Product, 0, len(inv.order))
	for _, id := range inv.order {
		out = append(out, *inv.products[id])
	}
	return out
}

// Len returns the number of products in the catalog.
func (inv *Inventory) Len() int {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	return len(inv.products)
}

// Remove deletes a product from the catalog.
func (inv *Inventory) Remove(id string) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if _, ok := inv.products[id]; !ok {
		return notFound(id)
	}
	delete(inv.products, id)
	for i, pid := range inv.order {
		if pid == id {
			inv.order = append(inv.order[:i], inv.order[i+1:]...)
			break
		}
	}
	return nil
}

// UpdateStock resets the stock of a product to an absolute value.
func (inv *Inventory) UpdateStock(id string, stock int) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	p, ok := inv.products[id]
	if !ok {
		return notFound(id)
	}
	if stock < 0 {
		return &storeerr.InvalidQuantityError{ProductID: id, Quantity: stock}
	}
	p.Stock = stock
	return nil
}

// SetPrice changes the catalog price of a product. Orders already placed
// keep their own price snapshot.
func (inv *Inventory) SetPrice(id string, price decimal.Decimal) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	p, ok := inv.products[id]
	if !ok {
		return notFound(id)
	}
	if price.IsNegative() {
		return &storeerr.InvalidPriceError{ProductID: id, Price: price}
	}
	p.Price = price
	return nil
}

// Reserve decrements the stock of a product by qty. It is the only
// sanctioned way to remove stock for a sale. On failure stock is unchanged.
func (inv *Inventory) Reserve(id string, qty int) error {
	if qty <= 0 {
		return &storeerr.InvalidQuantityError{ProductID: id, Quantity: qty}
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	p, ok := inv.products[id]
	if !ok {
		return notFound(id)
	}
	if p.Stock < qty {
		return &storeerr.OutOfStockError{ProductID: id, Available: p.Stock, Requested: qty}
	}
	p.Stock -= qty
	return nil
}

// Release increments the stock of a product by qty, undoing a reservation.
func (inv *Inventory) Release(id string, qty int) error {
	if qty <= 0 {
		return &storeerr.InvalidQuantityError{ProductID: id, Quantity: qty}
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	p, ok := inv.products[id]
	if !ok {
		return notFound(id)
	}
	p.Stock += qty
	return nil
}

// Restock applies a supplier delivery of delta units. Any delta is accepted
// as long as the resulting stock stays non-negative.
func (inv *Inventory) Restock(id string, delta int) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	p, ok := inv.products[id]
	if !ok {
		return notFound(id)
	}
	if p.Stock+delta < 0 {
		return &storeerr.OutOfStockError{ProductID: id, Available: p.Stock, Requested: -delta}
	}
	p.Stock += delta
	return nil
}

func notFound(id string) error {
	return &storeerr.NotFoundError{Entity: "product", ID: id}
}
