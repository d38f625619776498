package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status enumerates coupon lifecycle states.
type Status string

const (
	// StatusActive marks a coupon eligible for redemption.
	StatusActive Status = "ACTIVE"
	// StatusInactive marks a disabled coupon.
	StatusInactive Status = "INACTIVE"
)

var (
	// ErrNotFound is returned when no coupon exists for the given code or id.
	ErrNotFound = errors.New("coupon not found")
	// ErrInactive is returned when redeeming a coupon whose status is not ACTIVE.
	ErrInactive = errors.New("coupon is not active")
	// ErrExpired is returned when redeeming a coupon past its validity date.
	ErrExpired = errors.New("coupon expired")
	// ErrUsageLimitReached is returned when a coupon has exhausted max_uses.
	ErrUsageLimitReached = errors.New("coupon usage limit reached")
	// ErrCodeTaken is returned when creating or renaming a coupon to a code
	// that already exists.
	ErrCodeTaken = errors.New("coupon code already exists")
	// ErrValidityInPast is returned when activating a coupon whose validity
	// date has already passed.
	ErrValidityInPast = errors.New("active coupon must have a future validity date")
	// ErrInvalidPercent is returned for a discount percent outside (0, 100].
	ErrInvalidPercent = errors.New("discount percent must be in (0, 100]")
)

// Coupon is a promotional code with usage and expiry limits.
//
// DiscountPercent drives pricing; DiscountAmount is a stored flat value kept
// for administrative bookkeeping. MaxUses of 0 means unlimited; a nil
// ValidUntil never expires. A zero MinimumAmount means no floor.
type Coupon struct {
	ID              int64
	Code            string
	Name            string
	Description     string
	DiscountPercent decimal.Decimal
	DiscountAmount  decimal.Decimal
	ValidUntil      *time.Time
	Status          Status
	MinimumAmount   decimal.Decimal
	MaxUses         int
	CurrentUses     int
}

// Usable reports whether the coupon could be redeemed on the given day.
// It returns nil when eligible, or the specific denial: ErrInactive,
// ErrExpired, or ErrUsageLimitReached.
func Usable(c *Coupon, today time.Time) error {
	if c.Status != StatusActive {
		return ErrInactive
	}
	if c.ValidUntil != nil && c.ValidUntil.Before(truncateToDay(today)) {
		return ErrExpired
	}
	if c.MaxUses > 0 && c.CurrentUses >= c.MaxUses {
		return ErrUsageLimitReached
	}
	return nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Repository provides lookup and mutation of coupons.
//
// Redeem must be implemented as a compare-and-increment: it increments
// current_uses by exactly one iff the coupon is ACTIVE, unexpired as of
// today, and under its usage cap, all evaluated atomically at the store.
// It returns (false, nil) when the conditions fail and ErrNotFound when the
// code is unknown. Insert and Update map duplicate codes to ErrCodeTaken.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	FindByID(ctx context.Context, id int64) (*Coupon, error)
	List(ctx context.Context, status Status) ([]Coupon, error)
	Insert(ctx context.Context, c *Coupon) error
	Update(ctx context.Context, c *Coupon) error
	Delete(ctx context.Context, id int64) error
	Redeem(ctx context.Context, code string, today time.Time) (bool, error)
	// DeactivateExpired flips ACTIVE coupons with valid_until < today to
	// INACTIVE and returns how many rows changed. Idempotent.
	DeactivateExpired(ctx context.Context, today time.Time) (int64, error)
}
