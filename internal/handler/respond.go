package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/maiconsoft/backoffice/internal/domain/coupon"
	"github.com/maiconsoft/backoffice/internal/domain/customer"
	"github.com/maiconsoft/backoffice/internal/domain/sale"
	"github.com/maiconsoft/backoffice/internal/domain/user"
)

// errorResponse is the wire shape of every non-2xx response. Code is a
// stable machine-readable kind so API clients can tell "coupon expired"
// from "customer not found".
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, code string, err error) {
	respondJSON(w, status, errorResponse{Code: code, Message: err.Error()})
}

// mapError translates domain errors into HTTP responses. Unknown errors are
// logged and hidden behind a generic 500.
func mapError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, sale.ErrNotFound):
		respondError(w, http.StatusNotFound, "sale_not_found", err)
	case errors.Is(err, customer.ErrNotFound):
		respondError(w, http.StatusNotFound, "customer_not_found", err)
	case errors.Is(err, user.ErrNotFound):
		respondError(w, http.StatusNotFound, "user_not_found", err)
	case errors.Is(err, coupon.ErrNotFound):
		respondError(w, http.StatusNotFound, "coupon_not_found", err)

	case errors.Is(err, coupon.ErrInactive):
		respondError(w, http.StatusUnprocessableEntity, "coupon_inactive", err)
	case errors.Is(err, coupon.ErrExpired):
		respondError(w, http.StatusUnprocessableEntity, "coupon_expired", err)
	case errors.Is(err, coupon.ErrUsageLimitReached):
		respondError(w, http.StatusUnprocessableEntity, "coupon_limit_reached", err)

	case errors.Is(err, sale.ErrInvalidGrossAmount):
		respondError(w, http.StatusUnprocessableEntity, "invalid_gross_amount", err)
	case errors.Is(err, sale.ErrDiscountExceedsGross):
		respondError(w, http.StatusUnprocessableEntity, "discount_exceeds_gross", err)
	case errors.Is(err, sale.ErrInvalidStatus):
		respondError(w, http.StatusUnprocessableEntity, "invalid_status", err)
	case errors.Is(err, coupon.ErrInvalidPercent):
		respondError(w, http.StatusUnprocessableEntity, "invalid_discount_percent", err)
	case errors.Is(err, coupon.ErrValidityInPast):
		respondError(w, http.StatusUnprocessableEntity, "validity_in_past", err)

	case errors.Is(err, sale.ErrOrderNumberConflict):
		respondError(w, http.StatusConflict, "order_number_conflict", err)
	case errors.Is(err, sale.ErrSequenceExhausted):
		respondError(w, http.StatusConflict, "order_sequence_exhausted", err)
	case errors.Is(err, coupon.ErrCodeTaken):
		respondError(w, http.StatusConflict, "coupon_code_taken", err)

	default:
		zctx.From(r.Context()).Error("Unhandled error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error",
			errors.New("internal server error"))
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "malformed_body", err)
		return false
	}
	return true
}
