package pricing

import (
	"math"

	"github.com/feastly/food_ordering/internal/models"
)

// 10 reward points are worth one currency unit.
const PointsPerUnit = 10

type Line struct {
	UnitPrice float64
	Quantity  uint
}

func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// PointsDiscount converts redeemed points to a currency discount, rounded
// down to 2 decimal places.
func PointsDiscount(points int64) float64 {
	return math.Floor(float64(points)/PointsPerUnit*100) / 100
}

// PointsFromAmount converts a currency amount to whole points at 10 points
// per unit, rounded half-up.
func PointsFromAmount(amount float64) int64 {
	return int64(math.Floor(amount*PointsPerUnit + 0.5))
}

// OrderTotal computes the final order total. Discounts are independent
// subtractions against the post-delivery-fee subtotal: the coupon is applied
// first, then the points discount, and the result never goes below zero.
func OrderTotal(lines []Line, deliveryFee float64, coupon *models.Coupon, pointsDiscount float64) float64 {
	total := 0.0
	for _, l := range lines {
		total += l.UnitPrice * float64(l.Quantity)
	}
	total += deliveryFee

	if coupon != nil {
		switch coupon.Type {
		case models.CouponTypeAmount:
			total -= coupon.Value
		case models.CouponTypeFreeShip:
			total -= deliveryFee
		}
	}
	total -= pointsDiscount

	if total < 0 {
		total = 0
	}
	return Round2(total)
}
