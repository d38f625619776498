package sale

import (
	"github.com/shopspring/decimal"

	"github.com/maiconsoft/backoffice/internal/domain/coupon"
)

var hundred = decimal.NewFromInt(100)

// ComputeDiscount calculates the discount a coupon grants on the gross
// amount, rounded half-up to two decimal places. A nil coupon yields zero.
func ComputeDiscount(gross decimal.Decimal, c *coupon.Coupon) (decimal.Decimal, error) {
	if c == nil {
		return decimal.Zero, nil
	}
	discount := gross.Mul(c.DiscountPercent).Div(hundred).Round(2)
	if discount.GreaterThan(gross) {
		return decimal.Zero, ErrDiscountExceedsGross
	}
	return discount, nil
}

// ComputeTotal returns the amount due after discount.
func ComputeTotal(gross, discount decimal.Decimal) decimal.Decimal {
	return gross.Sub(discount)
}
