package supplier

import (
	"slices"
	"strconv"

	"github.com/go-faster/errors"

	"github.com/xenking/electrostore/internal/domain/storeerr"
)

// Restocker applies supplier deliveries to the catalog.
type Restocker interface {
	Restock(productID string, delta int) error
}

// Supplier delivers products. Supplied lists the identifiers of products it
// has delivered at least once; it does not own them.
type Supplier struct {
	Name     string
	Contact  string
	Supplied []string
}

// Supply delivers qty units of a product through the inventory and records
// the association.
func (s *Supplier) Supply(inv Restocker, productID string, qty int) error {
	if err := inv.Restock(productID, qty); err != nil {
		return errors.Wrapf(err, "supply %s", productID)
	}
	if !slices.Contains(s.Supplied, productID) {
		s.Supplied = append(s.Supplied, productID)
	}
	return nil
}

// Registry holds suppliers in the order they were added.
type Registry struct {
	suppliers []*Supplier
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends a supplier and returns it.
func (r *Registry) Add(name, contact string) *Supplier {
	s := &Supplier{Name: name, Contact: contact}
	r.suppliers = append(r.suppliers, s)
	return s
}

// Get returns the supplier at a zero-based index.
func (r *Registry) Get(idx int) (*Supplier, error) {
	if idx < 0 || idx >= len(r.suppliers) {
		return nil, &storeerr.NotFoundError{Entity: "supplier", ID: "#" + strconv.Itoa(idx+1)}
	}
	return r.suppliers[idx], nil
}

// List returns all suppliers.
func (r *Registry) List() []*Supplier {
	return slices.Clone(r.suppliers)
}

// Len returns the number of suppliers.
func (r *Registry) Len() int {
	return len(r.suppliers)
}
