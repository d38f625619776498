// Package sale holds the sale transaction domain: the record itself, the
// lifecycle status machine, discount pricing, the monthly order number
// sequence, and the orchestrating Service.
package sale

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when no sale matches the given key.
	ErrNotFound = errors.New("sale not found")
	// ErrInvalidGrossAmount is returned when the gross amount is zero or
	// negative.
	ErrInvalidGrossAmount = errors.New("gross amount must be positive")
	// ErrDiscountExceedsGross is returned when the computed discount would
	// exceed the gross amount.
	ErrDiscountExceedsGross = errors.New("discount exceeds gross amount")
	// ErrOrderNumberTaken signals a uniqueness conflict on insert; the
	// caller may regenerate the number and retry.
	ErrOrderNumberTaken = errors.New("order number already taken")
	// ErrOrderNumberConflict is returned when regeneration retries are
	// exhausted.
	ErrOrderNumberConflict = errors.New("could not allocate a unique order number")
	// ErrSequenceExhausted is returned when the monthly sequence has no
	// numbers left.
	ErrSequenceExhausted = errors.New("order number sequence exhausted for month")
)

// Sale is a registered sale transaction. OrderNumber is the business key,
// unique across all sales and immutable once assigned. All amounts are in the
// store currency with two decimal places.
type Sale struct {
	ID                     int64
	OrderNumber            string
	Status                 Status
	GrossAmount            decimal.Decimal
	DiscountAmount         decimal.Decimal
	TotalAmount            decimal.Decimal
	SaleDate               *time.Time
	RegisteredAt           time.Time
	Note                   string
	PaymentProofRef        string
	PaymentProofUploadedAt *time.Time
	CustomerID             int64
	CouponID               *int64
	RegisteredBy           int64
}

// HasPaymentProof reports whether a payment proof is attached.
func (s *Sale) HasPaymentProof() bool {
	return s.PaymentProofRef != ""
}

// Repository is the persistence boundary for sales.
type Repository interface {
	Insert(ctx context.Context, s *Sale) error
	Update(ctx context.Context, s *Sale) error
	FindByID(ctx context.Context, id int64) (*Sale, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Sale, error)
	Delete(ctx context.Context, id int64) error
	// MaxOrderNumberForMonth returns the highest order number carrying the
	// given YYYYMM prefix, or "" when the month has none.
	MaxOrderNumberForMonth(ctx context.Context, prefix string) (string, error)
}
