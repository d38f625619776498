package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maiconsoft/backoffice/internal/domain/coupon"
	"github.com/maiconsoft/backoffice/internal/domain/customer"
	"github.com/maiconsoft/backoffice/internal/domain/sale"
	"github.com/maiconsoft/backoffice/internal/domain/user"
)

func TestMapError(t *testing.T) {
	for _, tt := range []struct {
		err    error
		status int
		code   string
	}{
		{sale.ErrNotFound, http.StatusNotFound, "sale_not_found"},
		{customer.ErrNotFound, http.StatusNotFound, "customer_not_found"},
		{user.ErrNotFound, http.StatusNotFound, "user_not_found"},
		{coupon.ErrNotFound, http.StatusNotFound, "coupon_not_found"},

		{coupon.ErrInactive, http.StatusUnprocessableEntity, "coupon_inactive"},
		{coupon.ErrExpired, http.StatusUnprocessableEntity, "coupon_expired"},
		{coupon.ErrUsageLimitReached, http.StatusUnprocessableEntity, "coupon_limit_reached"},
		{sale.ErrInvalidGrossAmount, http.StatusUnprocessableEntity, "invalid_gross_amount"},
		{sale.ErrDiscountExceedsGross, http.StatusUnprocessableEntity, "discount_exceeds_gross"},
		{sale.ErrInvalidStatus, http.StatusUnprocessableEntity, "invalid_status"},
		{coupon.ErrInvalidPercent, http.StatusUnprocessableEntity, "invalid_discount_percent"},
		{coupon.ErrValidityInPast, http.StatusUnprocessableEntity, "validity_in_past"},

		{sale.ErrOrderNumberConflict, http.StatusConflict, "order_number_conflict"},
		{sale.ErrSequenceExhausted, http.StatusConflict, "order_sequence_exhausted"},
		{coupon.ErrCodeTaken, http.StatusConflict, "coupon_code_taken"},

		{errors.New("pool exhausted"), http.StatusInternalServerError, "internal_error"},
	} {
		t.Run(tt.code, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)

			// Wrapped errors must map the same as bare sentinels.
			mapError(rec, req, errors.Wrap(tt.err, "handling request"))

			assert.Equal(t, tt.status, rec.Code)

			var body errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestMapErrorHidesInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	mapError(rec, req, errors.New("dial tcp 10.0.0.3:5432: connection refused"))

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body.Message)
	assert.NotContains(t, rec.Body.String(), "10.0.0.3")
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = parseDate("2026-03-15")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2026-03-15", formatDate(got))

	_, err = parseDate("15/03/2026")
	require.Error(t, err)
}
