package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maiconsoft/backoffice/internal/domain/sale"
)

const (
	insertSaleSQL = `INSERT INTO sales (
		order_number, status, gross_amount, discount_amount, total_amount,
		sale_date, registered_at, note, payment_proof_ref,
		payment_proof_uploaded_at, customer_id, coupon_id, registered_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`

	updateSaleSQL = `UPDATE sales SET
		status = $2, gross_amount = $3, discount_amount = $4, total_amount = $5,
		sale_date = $6, note = $7, payment_proof_ref = $8,
		payment_proof_uploaded_at = $9, customer_id = $10, coupon_id = $11
		WHERE id = $1`

	selectSaleSQL = `SELECT id, order_number, status, gross_amount,
		discount_amount, total_amount, sale_date, registered_at, note,
		payment_proof_ref, payment_proof_uploaded_at, customer_id, coupon_id,
		registered_by
		FROM sales`

	deleteSaleSQL = `DELETE FROM sales WHERE id = $1`

	maxOrderNumberSQL = `SELECT COALESCE(MAX(order_number), '')
		FROM sales WHERE order_number LIKE $1 || '%'`
)

var _ sale.Repository = (*SaleRepository)(nil)

// SaleRepository implements sale.Repository backed by PostgreSQL.
type SaleRepository struct {
	pool *pgxpool.Pool
}

// NewSaleRepository returns a SaleRepository that uses the given pool.
func NewSaleRepository(pool *pgxpool.Pool) *SaleRepository {
	return &SaleRepository{pool: pool}
}

// Insert persists a new sale and fills in the generated id. A duplicate
// order number is reported as sale.ErrOrderNumberTaken so the orchestrator
// can regenerate and retry.
func (r *SaleRepository) Insert(ctx context.Context, s *sale.Sale) error {
	err := r.pool.QueryRow(ctx, insertSaleSQL,
		s.OrderNumber, s.Status, s.GrossAmount, s.DiscountAmount, s.TotalAmount,
		s.SaleDate, s.RegisteredAt, s.Note, s.PaymentProofRef,
		s.PaymentProofUploadedAt, s.CustomerID, s.CouponID, s.RegisteredBy,
	).Scan(&s.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return sale.ErrOrderNumberTaken
		}
		return fmt.Errorf("inserting sale %q: %w", s.OrderNumber, err)
	}
	return nil
}

// Update persists the mutable fields of an existing sale. The order number,
// registration timestamp, and registering user are immutable and excluded.
func (r *SaleRepository) Update(ctx context.Context, s *sale.Sale) error {
	tag, err := r.pool.Exec(ctx, updateSaleSQL,
		s.ID, s.Status, s.GrossAmount, s.DiscountAmount, s.TotalAmount,
		s.SaleDate, s.Note, s.PaymentProofRef, s.PaymentProofUploadedAt,
		s.CustomerID, s.CouponID,
	)
	if err != nil {
		return fmt.Errorf("updating sale %d: %w", s.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return sale.ErrNotFound
	}
	return nil
}

// FindByID returns the sale with the given id, or sale.ErrNotFound.
func (r *SaleRepository) FindByID(ctx context.Context, id int64) (*sale.Sale, error) {
	return r.findOne(ctx, selectSaleSQL+` WHERE id = $1`, id)
}

// FindByOrderNumber returns the sale with the given business key, or
// sale.ErrNotFound.
func (r *SaleRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*sale.Sale, error) {
	return r.findOne(ctx, selectSaleSQL+` WHERE order_number = $1`, orderNumber)
}

func (r *SaleRepository) findOne(ctx context.Context, query string, arg any) (*sale.Sale, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("finding sale: %w", err)
	}

	s, err := pgx.CollectExactlyOneRow(rows, scanSale)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sale.ErrNotFound
		}
		return nil, fmt.Errorf("finding sale: %w", err)
	}
	return &s, nil
}

// Delete removes a sale permanently, reporting sale.ErrNotFound when no row
// matched.
func (r *SaleRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteSaleSQL, id)
	if err != nil {
		return fmt.Errorf("deleting sale %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return sale.ErrNotFound
	}
	return nil
}

// MaxOrderNumberForMonth returns the highest order number with the given
// YYYYMM prefix, or "" when the month has no sales.
func (r *SaleRepository) MaxOrderNumberForMonth(ctx context.Context, prefix string) (string, error) {
	var maxNumber string
	err := r.pool.QueryRow(ctx, maxOrderNumberSQL, prefix).Scan(&maxNumber)
	if err != nil {
		return "", fmt.Errorf("finding max order number for %q: %w", prefix, err)
	}
	return maxNumber, nil
}

func scanSale(row pgx.CollectableRow) (sale.Sale, error) {
	var (
		s      sale.Sale
		status string
	)
	err := row.Scan(
		&s.ID, &s.OrderNumber, &status, &s.GrossAmount,
		&s.DiscountAmount, &s.TotalAmount, &s.SaleDate, &s.RegisteredAt,
		&s.Note, &s.PaymentProofRef, &s.PaymentProofUploadedAt,
		&s.CustomerID, &s.CouponID, &s.RegisteredBy,
	)
	s.Status = sale.Status(status)
	return s, err
}
