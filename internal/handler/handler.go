// Package handler exposes the sale engine over a chi REST router.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/maiconsoft/backoffice/internal/domain/coupon"
	"github.com/maiconsoft/backoffice/internal/domain/sale"
)

// dateLayout is the wire format for calendar dates (sale date, coupon
// validity).
const dateLayout = "2006-01-02"

// Handler holds the domain services behind the REST surface.
type Handler struct {
	sales   *sale.Service
	coupons *coupon.Admin
}

// New constructs a Handler.
func New(sales *sale.Service, coupons *coupon.Admin) *Handler {
	return &Handler{sales: sales, coupons: coupons}
}

// Routes mounts all API endpoints on a fresh router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Route("/sales", func(r chi.Router) {
		r.Post("/", h.createSale)
		r.Get("/order/{orderNumber}", h.getSaleByOrderNumber)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getSale)
			r.Put("/", h.updateSale)
			r.Delete("/", h.deleteSale)
			r.Put("/proof", h.attachProof)
			r.Delete("/proof", h.detachProof)
		})
	})

	r.Route("/coupons", func(r chi.Router) {
		r.Post("/", h.createCoupon)
		r.Get("/", h.listCoupons)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getCoupon)
			r.Put("/", h.updateCoupon)
			r.Delete("/", h.deleteCoupon)
			r.Post("/toggle", h.toggleCoupon)
		})
	})

	return r
}

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
