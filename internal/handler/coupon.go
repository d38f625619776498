package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/maiconsoft/backoffice/internal/domain/coupon"
)

type couponRequest struct {
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	DiscountAmount  decimal.Decimal `json:"discountAmount,omitempty"`
	ValidUntil      string          `json:"validUntil,omitempty"`
	Status          string          `json:"status,omitempty"`
	MinimumAmount   decimal.Decimal `json:"minimumAmount,omitempty"`
	MaxUses         int             `json:"maxUses,omitempty"`
	CurrentUses     *int            `json:"currentUses,omitempty"`
}

type couponResponse struct {
	ID              int64           `json:"id"`
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	DiscountAmount  decimal.Decimal `json:"discountAmount"`
	ValidUntil      string          `json:"validUntil,omitempty"`
	Status          string          `json:"status"`
	MinimumAmount   decimal.Decimal `json:"minimumAmount"`
	MaxUses         int             `json:"maxUses"`
	CurrentUses     int             `json:"currentUses"`
}

func toCouponResponse(c *coupon.Coupon) couponResponse {
	return couponResponse{
		ID:              c.ID,
		Code:            c.Code,
		Name:            c.Name,
		Description:     c.Description,
		DiscountPercent: c.DiscountPercent,
		DiscountAmount:  c.DiscountAmount,
		ValidUntil:      formatDate(c.ValidUntil),
		Status:          string(c.Status),
		MinimumAmount:   c.MinimumAmount,
		MaxUses:         c.MaxUses,
		CurrentUses:     c.CurrentUses,
	}
}

func (h *Handler) couponAdminRequest(w http.ResponseWriter, r *http.Request) (coupon.AdminRequest, bool) {
	var req couponRequest
	if !decodeBody(w, r, &req) {
		return coupon.AdminRequest{}, false
	}

	validUntil, err := parseDate(req.ValidUntil)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid_valid_until", err)
		return coupon.AdminRequest{}, false
	}

	return coupon.AdminRequest{
		Code:            req.Code,
		Name:            req.Name,
		Description:     req.Description,
		DiscountPercent: req.DiscountPercent,
		DiscountAmount:  req.DiscountAmount,
		ValidUntil:      validUntil,
		Status:          coupon.Status(req.Status),
		MinimumAmount:   req.MinimumAmount,
		MaxUses:         req.MaxUses,
		CurrentUses:     req.CurrentUses,
	}, true
}

func (h *Handler) createCoupon(w http.ResponseWriter, r *http.Request) {
	req, ok := h.couponAdminRequest(w, r)
	if !ok {
		return
	}

	c, err := h.coupons.Create(r.Context(), req)
	if err != nil {
		mapError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toCouponResponse(c))
}

func (h *Handler) getCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_id", err)
		return
	}

	c, err := h.coupons.Get(r.Context(), id)
	if err != nil {
		mapError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCouponResponse(c))
}

func (h *Handler) listCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.coupons.List(r.Context(), coupon.Status(r.URL.Query().Get("status")))
	if err != nil {
		mapError(w, r, err)
		return
	}

	resp := make([]couponResponse, len(coupons))
	for i := range coupons {
		resp[i] = toCouponResponse(&coupons[i])
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) updateCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_id", err)
		return
	}

	req, ok := h.couponAdminRequest(w, r)
	if !ok {
		return
	}

	c, err := h.coupons.Update(r.Context(), id, req)
	if err != nil {
		mapError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCouponResponse(c))
}

func (h *Handler) toggleCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_id", err)
		return
	}

	c, err := h.coupons.Toggle(r.Context(), id)
	if err != nil {
		mapError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCouponResponse(c))
}

func (h *Handler) deleteCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_id", err)
		return
	}

	if err := h.coupons.Delete(r.Context(), id); err != nil {
		mapError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
