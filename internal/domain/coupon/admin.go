package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// AdminRequest carries the caller-editable coupon fields for create/update.
type AdminRequest struct {
	Code            string
	Name            string
	Description     string
	DiscountPercent decimal.Decimal
	DiscountAmount  decimal.Decimal
	ValidUntil      *time.Time
	Status          Status
	MinimumAmount   decimal.Decimal
	MaxUses         int
	// CurrentUses is applied only when non-nil: an administrative correction
	// of the usage counter. The engine itself only ever increments.
	CurrentUses *int
}

// Admin implements the administrative coupon operations: create, edit,
// toggle, delete. Consumption goes through the Ledger, never through here.
type Admin struct {
	repo Repository
	now  func() time.Time
}

// NewAdmin creates an Admin service backed by the given repository.
func NewAdmin(repo Repository) *Admin {
	return &Admin{repo: repo, now: time.Now}
}

// Create stores a new coupon. Duplicate codes are reported as ErrCodeTaken.
// An ACTIVE coupon must have a validity date that is absent or in the future.
func (a *Admin) Create(ctx context.Context, req AdminRequest) (*Coupon, error) {
	if req.Status == "" {
		req.Status = StatusActive
	}
	if err := a.validate(req); err != nil {
		return nil, err
	}

	c := &Coupon{
		Code:            req.Code,
		Name:            req.Name,
		Description:     req.Description,
		DiscountPercent: req.DiscountPercent,
		DiscountAmount:  req.DiscountAmount,
		ValidUntil:      req.ValidUntil,
		Status:          req.Status,
		MinimumAmount:   req.MinimumAmount,
		MaxUses:         req.MaxUses,
	}
	if err := a.repo.Insert(ctx, c); err != nil {
		return nil, errors.Wrap(err, "insert coupon")
	}
	return c, nil
}

// Update edits an existing coupon. Renaming to a code held by another coupon
// is reported as ErrCodeTaken. Activation revalidates the validity date;
// deactivating an expired coupon is always allowed. CurrentUses is preserved
// unless the request explicitly supplies a corrected counter.
func (a *Admin) Update(ctx context.Context, id int64, req AdminRequest) (*Coupon, error) {
	c, err := a.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Status == "" {
		req.Status = c.Status
	}
	// Only an activation attempt revalidates the date, so expired coupons
	// can still be edited or disabled.
	if req.Status == StatusActive {
		if err := a.validate(req); err != nil {
			return nil, err
		}
	} else if err := a.validatePercent(req.DiscountPercent); err != nil {
		return nil, err
	}

	c.Code = req.Code
	c.Name = req.Name
	c.Description = req.Description
	c.DiscountPercent = req.DiscountPercent
	c.DiscountAmount = req.DiscountAmount
	c.ValidUntil = req.ValidUntil
	c.Status = req.Status
	c.MinimumAmount = req.MinimumAmount
	c.MaxUses = req.MaxUses
	if req.CurrentUses != nil {
		c.CurrentUses = *req.CurrentUses
	}

	if err := a.repo.Update(ctx, c); err != nil {
		return nil, errors.Wrap(err, "update coupon")
	}
	return c, nil
}

// Toggle flips a coupon between ACTIVE and INACTIVE. Activating a coupon
// whose validity date has passed is refused with ErrValidityInPast.
func (a *Admin) Toggle(ctx context.Context, id int64) (*Coupon, error) {
	c, err := a.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.Status == StatusActive {
		c.Status = StatusInactive
	} else {
		if c.ValidUntil != nil && c.ValidUntil.Before(truncateToDay(a.now())) {
			return nil, ErrValidityInPast
		}
		c.Status = StatusActive
	}

	if err := a.repo.Update(ctx, c); err != nil {
		return nil, errors.Wrap(err, "toggle coupon")
	}
	return c, nil
}

// Get returns a coupon by id.
func (a *Admin) Get(ctx context.Context, id int64) (*Coupon, error) {
	return a.repo.FindByID(ctx, id)
}

// List returns coupons, optionally filtered by status (empty = all).
func (a *Admin) List(ctx context.Context, status Status) ([]Coupon, error) {
	return a.repo.List(ctx, status)
}

// Delete removes a coupon permanently.
func (a *Admin) Delete(ctx context.Context, id int64) error {
	return a.repo.Delete(ctx, id)
}

func (a *Admin) validate(req AdminRequest) error {
	if err := a.validatePercent(req.DiscountPercent); err != nil {
		return err
	}
	if req.Status == StatusActive && req.ValidUntil != nil && req.ValidUntil.Before(truncateToDay(a.now())) {
		return ErrValidityInPast
	}
	return nil
}

func (a *Admin) validatePercent(percent decimal.Decimal) error {
	if !percent.IsPositive() || percent.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidPercent
	}
	return nil
}
