package sale

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/maiconsoft/backoffice/internal/domain/coupon"
	"github.com/maiconsoft/backoffice/internal/domain/customer"
	"github.com/maiconsoft/backoffice/internal/domain/user"
	"github.com/maiconsoft/backoffice/internal/notify"
)

// orderNumberRetries bounds the regenerate-and-retry loop on insert
// conflicts before surfacing ErrOrderNumberConflict.
const orderNumberRetries = 3

// CreateRequest holds the input for registering a sale.
type CreateRequest struct {
	CustomerID      int64
	RegisteredBy    int64
	GrossAmount     decimal.Decimal
	Status          Status
	SaleDate        *time.Time
	Note            string
	CouponCode      string
	PaymentProofRef string
}

// UpdateRequest holds the input for editing a sale.
//
// An empty CouponCode preserves the sale's existing coupon association; only
// an explicitly supplied code replaces it. A nil PaymentProofRef leaves the
// proof untouched; a pointer to "" detaches it.
type UpdateRequest struct {
	CustomerID      int64
	GrossAmount     decimal.Decimal
	Status          Status
	SaleDate        *time.Time
	Note            string
	CouponCode      string
	PaymentProofRef *string
}

// Service is the sale transaction orchestrator. It composes the coupon
// ledger, pricing calculator, order identifier generator, and status machine
// into atomic create/update operations, with coupon consumption and
// notification running post-commit as best-effort side effects.
type Service struct {
	sales     Repository
	customers customer.Repository
	users     user.Repository
	coupons   *coupon.Ledger
	notifier  notify.Notifier
	now       func() time.Time

	salesCreated   metric.Int64Counter
	redeemFailures metric.Int64Counter
}

// NewService creates the orchestrator with its collaborators. The meter
// registers the service's counters; pass a noop meter in tests.
func NewService(
	sales Repository,
	customers customer.Repository,
	users user.Repository,
	coupons *coupon.Ledger,
	notifier notify.Notifier,
	meter metric.Meter,
) (*Service, error) {
	salesCreated, err := meter.Int64Counter("sales_created_total",
		metric.WithDescription("Sales successfully registered"))
	if err != nil {
		return nil, errors.Wrap(err, "create sales counter")
	}
	redeemFailures, err := meter.Int64Counter("coupon_redeem_failures_total",
		metric.WithDescription("Post-commit coupon redemptions that failed"))
	if err != nil {
		return nil, errors.Wrap(err, "create redeem failures counter")
	}

	return &Service{
		sales:          sales,
		customers:      customers,
		users:          users,
		coupons:        coupons,
		notifier:       notifier,
		now:            time.Now,
		salesCreated:   salesCreated,
		redeemFailures: redeemFailures,
	}, nil
}

// Create registers a new sale: resolves the customer and registering user,
// validates the coupon before any write, computes totals, allocates an order
// number (regenerating on uniqueness conflicts up to the retry bound),
// derives the lifecycle status from proof presence, and persists.
//
// Coupon consumption and the notification run after the sale is durable and
// never fail the operation. A redemption lost to a concurrent transaction
// leaves the sale discounted with the usage under-counted; that gap is a
// deliberate trade-off inherited from the source system.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Sale, error) {
	if !req.GrossAmount.IsPositive() {
		return nil, ErrInvalidGrossAmount
	}

	cust, err := s.customers.FindByID(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	seller, err := s.users.FindByID(ctx, req.RegisteredBy)
	if err != nil {
		return nil, err
	}

	var cpn *coupon.Coupon
	if req.CouponCode != "" {
		cpn, err = s.coupons.Resolve(ctx, req.CouponCode)
		if err != nil {
			return nil, err
		}
		if denial := coupon.Usable(cpn, s.now()); denial != nil {
			return nil, denial
		}
	}

	discount, err := ComputeDiscount(req.GrossAmount, cpn)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rec := &Sale{
		Status:          DeriveStatus(req.Status, req.PaymentProofRef != ""),
		GrossAmount:     req.GrossAmount,
		DiscountAmount:  discount,
		TotalAmount:     ComputeTotal(req.GrossAmount, discount),
		SaleDate:        req.SaleDate,
		RegisteredAt:    now,
		Note:            req.Note,
		PaymentProofRef: req.PaymentProofRef,
		CustomerID:      cust.ID,
		RegisteredBy:    seller.ID,
	}
	if cpn != nil {
		rec.CouponID = &cpn.ID
	}
	if rec.PaymentProofRef != "" {
		uploadedAt := now
		rec.PaymentProofUploadedAt = &uploadedAt
	}

	if err := s.insertWithFreshNumber(ctx, rec); err != nil {
		return nil, err
	}
	s.salesCreated.Add(ctx, 1)

	lg := zctx.From(ctx)
	if cpn != nil {
		if err := s.coupons.Redeem(ctx, cpn.Code); err != nil {
			// The sale is already committed; usage bookkeeping must not
			// undo it. Logged and counted, not propagated.
			lg.Warn("Coupon redemption failed after sale commit",
				zap.String("coupon", cpn.Code),
				zap.String("order_number", rec.OrderNumber),
				zap.Error(err),
			)
			s.redeemFailures.Add(ctx, 1)
			trace.SpanFromContext(ctx).AddEvent("coupon redeem failed",
				trace.WithAttributes(attribute.String("coupon.code", cpn.Code)))
		}
	}

	if err := s.notifier.NotifyNewSale(ctx, seller.Name, cust.TradeName, rec.TotalAmount); err != nil {
		lg.Error("New sale notification failed",
			zap.String("order_number", rec.OrderNumber),
			zap.Error(err),
		)
	}

	return rec, nil
}

// insertWithFreshNumber allocates an order number and inserts the sale,
// regenerating on a uniqueness conflict. Two writers in the same month can
// read the same maximum and compute the same successor; the unique
// constraint on order_number detects the loser, which retries with a fresh
// read.
func (s *Service) insertWithFreshNumber(ctx context.Context, rec *Sale) error {
	prefix := MonthPrefix(s.now())

	for attempt := 0; attempt < orderNumberRetries; attempt++ {
		last, err := s.sales.MaxOrderNumberForMonth(ctx, prefix)
		if err != nil {
			return errors.Wrap(err, "find max order number")
		}
		num, err := NextOrderNumber(prefix, last)
		if err != nil {
			return err
		}
		rec.OrderNumber = num

		err = s.sales.Insert(ctx, rec)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrOrderNumberTaken) {
			return errors.Wrap(err, "insert sale")
		}
		zctx.From(ctx).Debug("Order number taken, regenerating",
			zap.String("order_number", num), zap.Int("attempt", attempt+1))
	}

	return ErrOrderNumberConflict
}

// Update edits a sale. The order number and registering user are never
// touched. When the request carries no coupon code the existing coupon
// association is preserved; totals are always recomputed from whichever
// coupon ends up attached. The status machine re-runs against the sale's
// current payment-proof state.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*Sale, error) {
	if !req.GrossAmount.IsPositive() {
		return nil, ErrInvalidGrossAmount
	}

	rec, err := s.sales.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	cust, err := s.customers.FindByID(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	rec.CustomerID = cust.ID

	var cpn *coupon.Coupon
	switch {
	case req.CouponCode != "":
		cpn, err = s.coupons.Resolve(ctx, req.CouponCode)
		if err != nil {
			return nil, err
		}
		rec.CouponID = &cpn.ID
	case rec.CouponID != nil:
		cpn, err = s.coupons.Get(ctx, *rec.CouponID)
		if err != nil {
			return nil, err
		}
	}

	if req.PaymentProofRef != nil {
		rec.PaymentProofRef = *req.PaymentProofRef
		if rec.PaymentProofRef != "" {
			uploadedAt := s.now()
			rec.PaymentProofUploadedAt = &uploadedAt
		} else {
			rec.PaymentProofUploadedAt = nil
		}
	}

	discount, err := ComputeDiscount(req.GrossAmount, cpn)
	if err != nil {
		return nil, err
	}

	rec.GrossAmount = req.GrossAmount
	rec.DiscountAmount = discount
	rec.TotalAmount = ComputeTotal(req.GrossAmount, discount)
	rec.SaleDate = req.SaleDate
	rec.Note = req.Note
	rec.Status = DeriveStatus(req.Status, rec.HasPaymentProof())

	if err := s.sales.Update(ctx, rec); err != nil {
		return nil, errors.Wrap(err, "update sale")
	}
	return rec, nil
}

// Get returns a sale by id.
func (s *Service) Get(ctx context.Context, id int64) (*Sale, error) {
	return s.sales.FindByID(ctx, id)
}

// GetByOrderNumber returns a sale by its business key.
func (s *Service) GetByOrderNumber(ctx context.Context, orderNumber string) (*Sale, error) {
	return s.sales.FindByOrderNumber(ctx, orderNumber)
}

// Delete removes a sale permanently. There is no soft delete.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.sales.Delete(ctx, id)
}

// AttachProof records a payment proof reference on the sale and re-runs the
// status machine, which promotes a PENDING sale to CONFIRMED.
func (s *Service) AttachProof(ctx context.Context, id int64, proofRef string) (*Sale, error) {
	rec, err := s.sales.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rec.PaymentProofRef = proofRef
	if proofRef != "" {
		uploadedAt := s.now()
		rec.PaymentProofUploadedAt = &uploadedAt
	} else {
		rec.PaymentProofUploadedAt = nil
	}
	rec.Status = DeriveStatus(rec.Status, rec.HasPaymentProof())

	if err := s.sales.Update(ctx, rec); err != nil {
		return nil, errors.Wrap(err, "attach proof")
	}
	return rec, nil
}

// DetachProof clears the proof reference and upload timestamp; the status
// machine pushes the sale back to PENDING.
func (s *Service) DetachProof(ctx context.Context, id int64) (*Sale, error) {
	return s.AttachProof(ctx, id, "")
}
