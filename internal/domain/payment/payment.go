// Package payment simulates charge attempts. There is no gateway: a
// positive amount always succeeds.
package payment

import (
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/electrostore/internal/domain/storeerr"
)

// Status is the lifecycle state of a payment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Payment is a single charge attempt.
type Payment struct {
	ID      string
	OrderID string
	Amount  decimal.Decimal
	Method  string
	Status  Status
}

// New creates a pending payment with a fresh identifier. OrderID may be
// empty for charges not tied to an order, such as balance top-ups.
func New(orderID string, amount decimal.Decimal, method string) *Payment {
	id := uuid.New()
	return &Payment{
		ID:      "pay" + hex.EncodeToString(id[:4]),
		OrderID: orderID,
		Amount:  amount,
		Method:  method,
		Status:  StatusPending,
	}
}

// Process attempts the charge. A non-positive amount fails with a
// PaymentError and marks the payment failed.
func (p *Payment) Process() error {
	if !p.Amount.IsPositive() {
		p.Status = StatusFailed
		return &storeerr.PaymentError{PaymentID: p.ID, Amount: p.Amount}
	}
	p.Status = StatusCompleted
	return nil
}
