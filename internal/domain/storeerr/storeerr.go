// Package storeerr defines the error taxonomy shared by every store
// component. Each kind matches ErrStore via errors.Is, so callers can
// handle store failures broadly, by kind, or structurally via errors.As
// on the detailed error types.
package storeerr

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrStore is the root of every store error kind.
var ErrStore = errors.New("store error")

// kind is a sentinel that also matches ErrStore.
type kind struct {
	msg string
}

func (k *kind) Error() string { return k.msg }

func (k *kind) Is(target error) bool { return target == ErrStore }

// Error kinds.
var (
	ErrDuplicateProduct  error = &kind{msg: "duplicate product"}
	ErrDuplicateCustomer error = &kind{msg: "duplicate customer"}
	ErrNotFound          error = &kind{msg: "not found"}
	ErrInvalidQuantity   error = &kind{msg: "invalid quantity"}
	ErrInvalidPrice      error = &kind{msg: "invalid price"}
	ErrOutOfStock        error = &kind{msg: "out of stock"}
	ErrInsufficientFunds error = &kind{msg: "insufficient funds"}
	ErrPayment           error = &kind{msg: "payment failed"}
	ErrSerialization     error = &kind{msg: "serialization failed"}
)

// DuplicateProductError indicates a product identifier is already taken.
type DuplicateProductError struct {
	ProductID string
}

func (e *DuplicateProductError) Error() string {
	return fmt.Sprintf("product %s already exists", e.ProductID)
}

func (e *DuplicateProductError) Unwrap() error { return ErrDuplicateProduct }

// DuplicateCustomerError indicates a customer email is already registered.
type DuplicateCustomerError struct {
	Email string
}

func (e *DuplicateCustomerError) Error() string {
	return fmt.Sprintf("customer %s already registered", e.Email)
}

func (e *DuplicateCustomerError) Unwrap() error { return ErrDuplicateCustomer }

// NotFoundError indicates a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InvalidQuantityError indicates a non-positive quantity where a positive
// one is required, or a negative absolute stock target.
type InvalidQuantityError struct {
	ProductID string
	Quantity  int
}

func (e *InvalidQuantityError) Error() string {
	if e.ProductID == "" {
		return fmt.Sprintf("invalid quantity %d", e.Quantity)
	}
	return fmt.Sprintf("invalid quantity %d for product %s", e.Quantity, e.ProductID)
}

func (e *InvalidQuantityError) Unwrap() error { return ErrInvalidQuantity }

// InvalidPriceError indicates a negative price.
type InvalidPriceError struct {
	ProductID string
	Price     decimal.Decimal
}

func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("invalid price %s for product %s", e.Price, e.ProductID)
}

func (e *InvalidPriceError) Unwrap() error { return ErrInvalidPrice }

// OutOfStockError indicates the requested quantity exceeds available stock.
// Stock is never partially decremented when this error is returned.
type OutOfStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("product %s: %d in stock, %d requested", e.ProductID, e.Available, e.Requested)
}

func (e *OutOfStockError) Unwrap() error { return ErrOutOfStock }

// InsufficientFundsError indicates a balance lower than the order total.
type InsufficientFundsError struct {
	Email   string
	Balance decimal.Decimal
	Total   decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("customer %s: balance %s, total %s", e.Email, e.Balance, e.Total)
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// PaymentError indicates a rejected simulated payment.
type PaymentError struct {
	PaymentID string
	Amount    decimal.Decimal
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("payment %s: amount %s must be greater than 0", e.PaymentID, e.Amount)
}

func (e *PaymentError) Unwrap() error { return ErrPayment }

// SerializationError indicates malformed or unreadable persisted state.
type SerializationError struct {
	Source string
	Err    error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialization %s: %v", e.Source, e.Err)
}

func (e *SerializationError) Unwrap() []error { return []error{ErrSerialization, e.Err} }
