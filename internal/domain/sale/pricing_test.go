package sale

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maiconsoft/backoffice/internal/domain/coupon"
)

func percentCoupon(percent string) *coupon.Coupon {
	return &coupon.Coupon{
		ID:              1,
		Code:            "PROMO",
		DiscountPercent: decimal.RequireFromString(percent),
		Status:          coupon.StatusActive,
	}
}

func TestComputeDiscount(t *testing.T) {
	for _, tt := range []struct {
		name    string
		gross   string
		coupon  *coupon.Coupon
		want    string
		wantErr error
	}{
		{"no coupon", "1000.00", nil, "0", nil},
		{"ten percent", "1000.00", percentCoupon("10"), "100.00", nil},
		{"rounds half up", "33.33", percentCoupon("7.5"), "2.50", nil},
		{"full discount", "80.00", percentCoupon("100"), "80.00", nil},
		{"small amounts", "0.10", percentCoupon("5"), "0.01", nil},
		{"exceeds gross", "100.00", percentCoupon("150"), "", ErrDiscountExceedsGross},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeDiscount(decimal.RequireFromString(tt.gross), tt.coupon)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"got %s, want %s", got, tt.want)
		})
	}
}

func TestComputeTotal(t *testing.T) {
	gross := decimal.RequireFromString("1000.00")
	discount, err := ComputeDiscount(gross, percentCoupon("10"))
	require.NoError(t, err)

	total := ComputeTotal(gross, discount)
	assert.True(t, total.Equal(decimal.RequireFromString("900.00")), "got %s", total)
	assert.True(t, discount.Add(total).Equal(gross), "discount + total must equal gross")
}
