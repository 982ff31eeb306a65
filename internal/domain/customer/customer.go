package customer

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/electrostore/internal/domain/storeerr"
)

// Customer is a buyer identified by email. OrderIDs references orders held
// by the order log; the customer does not own them.
type Customer struct {
	Email    string
	Name     string
	Balance  decimal.Decimal
	OrderIDs []string
}

// CanAfford reports whether the balance covers amount.
func (c *Customer) CanAfford(amount decimal.Decimal) bool {
	return c.Balance.GreaterThanOrEqual(amount)
}

// Debit subtracts amount from the balance. Callers check CanAfford first.
func (c *Customer) Debit(amount decimal.Decimal) {
	c.Balance = c.Balance.Sub(amount)
}

// Credit adds amount to the balance.
func (c *Customer) Credit(amount decimal.Decimal) {
	c.Balance = c.Balance.Add(amount)
}

// AddOrder attaches an order to the customer's history.
func (c *Customer) AddOrder(orderID string) {
	c.OrderIDs = append(c.OrderIDs, orderID)
}

// Registry holds customers keyed by email, preserving registration order.
type Registry struct {
	byEmail map[string]*Customer
	order   []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byEmail: make(map[string]*Customer)}
}

// Register adds a new customer.
func (r *Registry) Register(email, name string, balance decimal.Decimal) (*Customer, error) {
	if _, ok := r.byEmail[email]; ok {
		return nil, &storeerr.DuplicateCustomerError{Email: email}
	}
	c := &Customer{Email: email, Name: name, Balance: balance}
	r.byEmail[email] = c
	r.order = append(r.order, email)
	return c, nil
}

// Find returns the customer with the given email.
func (r *Registry) Find(email string) (*Customer, bool) {
	c, ok := r.byEmail[email]
	return c, ok
}

// Get is like Find but returns a NotFoundError for unknown emails.
func (r *Registry) Get(email string) (*Customer, error) {
	c, ok := r.byEmail[email]
	if !ok {
		return nil, &storeerr.NotFoundError{Entity: "customer", ID: email}
	}
	return c, nil
}

// List returns all customers in registration order.
func (r *Registry) List() []*Customer {
	out := make([]*Customer, 0, len(r.order))
	for _, email := range r.order {
		out = append(out, r.byEmail[email])
	}
	return out
}

// Len returns the number of registered customers.
func (r *Registry) Len() int {
	return len(r.byEmail)
}
