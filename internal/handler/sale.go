package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/maiconsoft/backoffice/internal/domain/sale"
)

// saleRequest is the create/update payload. Dates travel as YYYY-MM-DD
// strings; amounts as JSON numbers or strings, either of which decimal
// accepts.
type saleRequest struct {
	CustomerID      int64           `json:"customerId"`
	RegisteredBy    int64           `json:"registeredBy,omitempty"`
	GrossAmount     decimal.Decimal `json:"grossAmount"`
	Status          string          `json:"status,omitempty"`
	SaleDate        string          `json:"saleDate,omitempty"`
	Note            string          `json:"note,omitempty"`
	CouponCode      string          `json:"couponCode,omitempty"`
	PaymentProofRef *string         `json:"paymentProofRef,omitempty"`
}

type saleResponse struct {
	ID                     int64           `json:"id"`
	OrderNumber            string          `json:"orderNumber"`
	Status                 string          `json:"status"`
	GrossAmount            decimal.Decimal `json:"grossAmount"`
	DiscountAmount         decimal.Decimal `json:"discountAmount"`
	TotalAmount            decimal.Decimal `json:"totalAmount"`
	SaleDate               string          `json:"saleDate,omitempty"`
	RegisteredAt           time.Time       `json:"registeredAt"`
	Note                   string          `json:"note,omitempty"`
	PaymentProofRef        string          `json:"paymentProofRef,omitempty"`
	PaymentProofUploadedAt *time.Time      `json:"paymentProofUploadedAt,omitempty"`
	CustomerID             int64           `json:"customerId"`
	CouponID               *int64          `json:"couponId,omitempty"`
	RegisteredBy           int64           `json:"registeredBy"`
}

type proofRequest struct {
	ProofRef string `json:"proofRef"`
}

func toSaleResponse(s *sale.Sale) saleResponse {
	return saleResponse{
		ID:                     s.ID,
		OrderNumber:            s.OrderNumber,
		Status:                 string(s.Status),
		GrossAmount:            s.GrossAmount,
		DiscountAmount:         s.DiscountAmount,
		TotalAmount:            s.TotalAmount,
		SaleDate:               formatDate(s.SaleDate),
		RegisteredAt:           s.RegisteredAt,
		Note:                   s.Note,
		PaymentProofRef:        s.PaymentProofRef,
		PaymentProofUploadedAt: s.PaymentProofUploadedAt,
		CustomerID:             s.CustomerID,
		CouponID:               s.CouponID,
		RegisteredBy:           s.RegisteredBy,
	}
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	status, err := sale.ParseStatus(req.Status)
	if err != nil {
		mapError(w, r, err)
		return
	}
	saleDate, err := parseDate(req.SaleDate)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid_sale_date", err)
		return
	}

	proofRef := ""
	if req.PaymentProofRef != nil {
		proofRef = *req.PaymentProofRef
	}

	created, err := h.sales.Create(r.Context(), sale.CreateRequest{
		CustomerID:      req.CustomerID,
		RegisteredBy:    req.RegisteredBy,
		GrossAmount:     req.GrossAmount,
		Status:          status,
		SaleDate:        saleDate,
		Note:            req.Note,
		CouponCode:      req.CouponCode,
		PaymentProofRef: proofRef,
	})
	if err != nil {
		mapError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toSaleResponse(created))
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_id", err)
		return
	}

	s, err := h.sales.Get(r.Context(), id)
	if err != nil {
		mapError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toSaleResponse(s))
}

func (h *Handler) getSaleByOrderNumber(w http.ResponseWriter, r *http.Request) {
	s, err := h.sales.GetByOrderNumber(r.Context(), chi.URLParam(r, "orderNumber"))
	if err != nil {
		mapError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toSaleResponse(s))
}

func (h *Handler) updateSale(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_id", err)
		return
	}

	var req saleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	status, err := sale.ParseStatus(req.Status)
	if err != nil {
		mapError(w, r, err)
		return
	}
	saleDate, err := parseDate(req.SaleDate)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid_sale_date", err)
		return
	}

	updated, err := h.sales.Update(r.Context(), id, sale.UpdateRequest{
		CustomerID:      req.CustomerID,
		GrossAmount:     req.GrossAmount,
		Status:          status,
		SaleDate:        saleDate,
		Note:            req.Note,
		CouponCode:      req.CouponCode,
		PaymentProofRef: req.PaymentProofRef,
	})
	if err != nil {
		mapError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toSaleResponse(updated))
}

func (h *Handler) deleteSale(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_id", err)
		return
	}

	if err := h.sales.Delete(r.Context(), id); err != nil {
		mapError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) attachProof(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_id", err)
		return
	}

	var req proofRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s, err := h.sales.AttachProof(r.Context(), id, req.ProofRef)
	if err != nil {
		mapError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toSaleResponse(s))
}

func (h *Handler) detachProof(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_id", err)
		return
	}

	s, err := h.sales.DetachProof(r.Context(), id)
	if err != nil {
		mapError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toSaleResponse(s))
}
