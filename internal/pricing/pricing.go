// Package pricing computes checkout totals. Everything here is pure:
// no I/O, no mutation, deterministic for a given input.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/theatashaikh/locomeds/internal/coupon"
)

type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

type Quote struct {
	TotalAmount              decimal.Decimal
	DiscountPercentage       decimal.Decimal
	DiscountAmount           decimal.Decimal
	TotalAmountAfterDiscount decimal.Decimal
	DeliveryCharge           decimal.Decimal
}

var oneHundred = decimal.NewFromInt(100)

// Calculate sums the lines and applies the coupon, capping the discount at
// the coupon's maximum. A nil coupon means no discount. The delivery charge
// passes through unchanged; it is never discounted.
func Calculate(lines []Line, c *coupon.Coupon, deliveryCharge decimal.Decimal) Quote {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	q := Quote{
		TotalAmount:              total,
		DiscountPercentage:       decimal.Zero,
		DiscountAmount:           decimal.Zero,
		TotalAmountAfterDiscount: total,
		DeliveryCharge:           deliveryCharge,
	}

	if c == nil {
		return q
	}

	discount := total.Mul(c.DiscountPercentage).Div(oneHundred)
	if discount.GreaterThan(c.MaxDiscount) {
		discount = c.MaxDiscount
	}
	if discount.GreaterThan(total) {
		discount = total
	}

	q.DiscountPercentage = c.DiscountPercentage
	q.DiscountAmount = discount
	q.TotalAmountAfterDiscount = total.Sub(discount)
	return q
}
