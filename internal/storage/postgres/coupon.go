package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maiconsoft/backoffice/internal/domain/coupon"
)

const (
	selectCouponSQL = `SELECT id, code, name, description, discount_percent,
		discount_amount, valid_until, status, minimum_amount, max_uses,
		current_uses
		FROM coupons`

	insertCouponSQL = `INSERT INTO coupons (code, name, description,
		discount_percent, discount_amount, valid_until, status,
		minimum_amount, max_uses, current_uses)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	updateCouponSQL = `UPDATE coupons SET code = $2, name = $3,
		description = $4, discount_percent = $5, discount_amount = $6,
		valid_until = $7, status = $8, minimum_amount = $9, max_uses = $10,
		current_uses = $11
		WHERE id = $1`

	deleteCouponSQL = `DELETE FROM coupons WHERE id = $1`

	// The eligibility conditions and the increment are one statement, so
	// concurrent redemptions serialize on the row and the usage cap can
	// never be overshot. valid_until is a DATE; the parameter is cast down
	// to a date as well, otherwise the column gets promoted to midnight and
	// the coupon's last valid day is refused.
	redeemCouponSQL = `UPDATE coupons SET current_uses = current_uses + 1
		WHERE code = $1
		  AND status = 'ACTIVE'
		  AND (valid_until IS NULL OR valid_until >= ($2)::date)
		  AND (max_uses = 0 OR current_uses < max_uses)`

	couponExistsSQL = `SELECT EXISTS (SELECT 1 FROM coupons WHERE code = $1)`

	deactivateExpiredSQL = `UPDATE coupons SET status = 'INACTIVE'
		WHERE status = 'ACTIVE' AND valid_until IS NOT NULL
		  AND valid_until < ($1)::date`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up a coupon by its exact, case-sensitive code.
// Returns coupon.ErrNotFound when no such coupon exists.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	return r.findOne(ctx, selectCouponSQL+` WHERE code = $1`, code)
}

// FindByID returns the coupon with the given id, or coupon.ErrNotFound.
func (r *CouponRepository) FindByID(ctx context.Context, id int64) (*coupon.Coupon, error) {
	return r.findOne(ctx, selectCouponSQL+` WHERE id = $1`, id)
}

func (r *CouponRepository) findOne(ctx context.Context, query string, arg any) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("finding coupon: %w", err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon: %w", err)
	}
	return &c, nil
}

// List returns all coupons, optionally restricted to one status.
func (r *CouponRepository) List(ctx context.Context, status coupon.Status) ([]coupon.Coupon, error) {
	query := selectCouponSQL + ` ORDER BY id`
	args := []any{}
	if status != "" {
		query = selectCouponSQL + ` WHERE status = $1 ORDER BY id`
		args = append(args, status)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}

	coupons, err := pgx.CollectRows(rows, scanCoupon)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}
	return coupons, nil
}

// Insert persists a new coupon and fills in the generated id. A duplicate
// code is reported as coupon.ErrCodeTaken.
func (r *CouponRepository) Insert(ctx context.Context, c *coupon.Coupon) error {
	err := r.pool.QueryRow(ctx, insertCouponSQL,
		c.Code, c.Name, c.Description, c.DiscountPercent, c.DiscountAmount,
		c.ValidUntil, c.Status, c.MinimumAmount, c.MaxUses, c.CurrentUses,
	).Scan(&c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return coupon.ErrCodeTaken
		}
		return fmt.Errorf("inserting coupon %q: %w", c.Code, err)
	}
	return nil
}

// Update persists coupon edits. Renaming onto an existing code is reported
// as coupon.ErrCodeTaken.
func (r *CouponRepository) Update(ctx context.Context, c *coupon.Coupon) error {
	tag, err := r.pool.Exec(ctx, updateCouponSQL,
		c.ID, c.Code, c.Name, c.Description, c.DiscountPercent,
		c.DiscountAmount, c.ValidUntil, c.Status, c.MinimumAmount,
		c.MaxUses, c.CurrentUses,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return coupon.ErrCodeTaken
		}
		return fmt.Errorf("updating coupon %d: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

// Delete removes a coupon, reporting coupon.ErrNotFound when no row matched.
func (r *CouponRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteCouponSQL, id)
	if err != nil {
		return fmt.Errorf("deleting coupon %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

// Redeem atomically increments current_uses iff the coupon is ACTIVE,
// unexpired as of today, and under its usage cap. It returns (false, nil)
// when the conditions rejected the increment and coupon.ErrNotFound when
// the code does not exist at all.
func (r *CouponRepository) Redeem(ctx context.Context, code string, today time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, redeemCouponSQL, code, today)
	if err != nil {
		return false, fmt.Errorf("redeeming coupon %q: %w", code, err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, couponExistsSQL, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking coupon %q: %w", code, err)
	}
	if !exists {
		return false, coupon.ErrNotFound
	}
	return false, nil
}

// DeactivateExpired flips expired ACTIVE coupons to INACTIVE and returns the
// number of rows changed.
func (r *CouponRepository) DeactivateExpired(ctx context.Context, today time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, deactivateExpiredSQL, today)
	if err != nil {
		return 0, fmt.Errorf("deactivating expired coupons: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c      coupon.Coupon
		status string
	)
	err := row.Scan(
		&c.ID, &c.Code, &c.Name, &c.Description, &c.DiscountPercent,
		&c.DiscountAmount, &c.ValidUntil, &status, &c.MinimumAmount,
		&c.MaxUses, &c.CurrentUses,
	)
	c.Status = coupon.Status(status)
	return c, err
}
