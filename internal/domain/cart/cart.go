// Package cart provides the pre-checkout staging area owned by a customer.
package cart

import (
	"github.com/xenking/electrostore/internal/domain/storeerr"
)

// Item is a staged quantity of a product. Quantity is always positive.
type Item struct {
	ProductID string
	Quantity  int
}

// Cart maps product identifiers to staged items for one owner. Items keep
// the order in which they were first added.
type Cart struct {
	OwnerID string
	items   map[string]*Item
	order   []string
}

// New creates an empty cart for the given owner.
func New(ownerID string) *Cart {
	return &Cart{
		OwnerID: ownerID,
		items:   make(map[string]*Item),
	}
}

// Add stages qty more units of a product.
func (c *Cart) Add(productID string, qty int) error {
	if qty <= 0 {
		return &storeerr.InvalidQuantityError{ProductID: productID, Quantity: qty}
	}
	if it, ok := c.items[productID]; ok {
		it.Quantity += qty
		return nil
	}
	c.items[productID] = &Item{ProductID: productID, Quantity: qty}
	c.order = append(c.order, productID)
	return nil
}

// Remove takes qty units of a product out of the cart. The entry is deleted
// when qty is non-positive (meaning "all") or at least the staged quantity.
// Removing an absent product is a no-op.
func (c *Cart) Remove(productID string, qty int) {
	it, ok := c.items[productID]
	if !ok {
		return
	}
	if qty <= 0 || qty >= it.Quantity {
		c.delete(productID)
		return
	}
	it.Quantity -= qty
}

// Quantity returns the staged quantity of a product, zero if absent.
func (c *Cart) Quantity(productID string) int {
	if it, ok := c.items[productID]; ok {
		return it.Quantity
	}
	return 0
}

// Items returns copies of the staged items in insertion order.
func (c *Cart) Items() []Item {
	out := make([]Item, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.items[id])
	}
	return out
}

// Len returns the number of distinct products in the cart.
func (c *Cart) Len() int {
	return len(c.items)
}

// Clear empties the cart.
func (c *Cart) Clear() {
	clear(c.items)
	c.order = c.order[:0]
}

func (c *Cart) delete(productID string) {
	delete(c.items, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
