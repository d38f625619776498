package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Ledger owns coupon state and the can-use/consume protocol. It re-checks
// eligibility at redemption time (not at resolve time) and delegates the
// actual increment to the repository's atomic compare-and-increment, so
// concurrent redemptions of the same code can never push current_uses past
// max_uses.
type Ledger struct {
	repo Repository
	now  func() time.Time
}

// NewLedger creates a Ledger backed by the given repository.
func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo, now: time.Now}
}

// Resolve looks up a coupon by its code. Codes are case-sensitive.
func (l *Ledger) Resolve(ctx context.Context, code string) (*Coupon, error) {
	return l.repo.FindByCode(ctx, code)
}

// Get looks up a coupon by its surrogate id.
func (l *Ledger) Get(ctx context.Context, id int64) (*Coupon, error) {
	return l.repo.FindByID(ctx, id)
}

// CanRedeem reports whether the coupon is currently eligible for redemption:
// ACTIVE, within its validity window, and under its usage cap.
func (l *Ledger) CanRedeem(c *Coupon) bool {
	return Usable(c, l.now()) == nil
}

// Redeem consumes one use of the coupon. Eligibility is evaluated atomically
// at the store together with the increment; at most one redemption succeeds
// per remaining use even under concurrent callers.
//
// On refusal the coupon is re-read to classify the reason: ErrInactive,
// ErrExpired, or ErrUsageLimitReached. ErrNotFound for unknown codes.
func (l *Ledger) Redeem(ctx context.Context, code string) error {
	now := l.now()

	ok, err := l.repo.Redeem(ctx, code, now)
	if err != nil {
		return errors.Wrap(err, "redeem coupon")
	}
	if ok {
		return nil
	}

	// The conditional update matched no row. Re-read to name the reason.
	c, err := l.repo.FindByCode(ctx, code)
	if err != nil {
		return err
	}
	if denial := Usable(c, now); denial != nil {
		return denial
	}
	// The coupon became eligible again between the update and the re-read.
	// Report the race as a limit refusal rather than claiming success.
	return ErrUsageLimitReached
}

// DeactivateExpired flips ACTIVE coupons whose validity date has passed to
// INACTIVE. Safe to run repeatedly; eligibility is also enforced inline at
// redemption, so the sweep is an optimization, not a correctness requirement.
func (l *Ledger) DeactivateExpired(ctx context.Context) (int64, error) {
	return l.repo.DeactivateExpired(ctx, l.now())
}
