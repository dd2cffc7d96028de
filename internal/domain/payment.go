package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentValidated PaymentStatus = "validated"
	PaymentPending   PaymentStatus = "pending"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Payment is one collection event (encaissement) against a case.
// A validated payment is immutable and is the only kind that enters
// revenue distribution.
type Payment struct {
	ID            string
	CaseID        string
	Amount        decimal.Decimal
	Status        PaymentStatus
	ReceiptNumber *string
	CollectorID   *int64
	PaymentDate   *time.Time

	CreatedAt *time.Time
	UpdatedAt *time.Time
}

func (p Payment) Validated() bool {
	return p.Status == PaymentValidated
}
