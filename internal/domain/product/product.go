package product

import (
	"github.com/shopspring/decimal"
)

// Product represents a catalog item with its stock count.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	// Category is an optional category reference; empty means none.
	Category string
}

// HasCategory reports whether the product references a category.
func (p Product) HasCategory() bool {
	return p.Category != ""
}
