package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/feastly/food_ordering/internal/models"
)

func TestOrderTotal(t *testing.T) {
	lines := []Line{{UnitPrice: 10.00, Quantity: 2}}

	tests := []struct {
		name           string
		deliveryFee    float64
		coupon         *models.Coupon
		pointsDiscount float64
		want           float64
	}{
		{
			name:        "no discounts",
			deliveryFee: 2.50,
			want:        22.50,
		},
		{
			name:        "amount coupon",
			deliveryFee: 2.50,
			coupon:      &models.Coupon{Type: models.CouponTypeAmount, Value: 5.00},
			want:        17.50,
		},
		{
			name:        "free shipping coupon",
			deliveryFee: 2.50,
			coupon:      &models.Coupon{Type: models.CouponTypeFreeShip},
			want:        20.00,
		},
		{
			name:           "coupon and points together",
			deliveryFee:    2.50,
			coupon:         &models.Coupon{Type: models.CouponTypeAmount, Value: 5.00},
			pointsDiscount: 5.00,
			want:           12.50,
		},
		{
			name:           "discounts exceed subtotal",
			deliveryFee:    2.50,
			coupon:         &models.Coupon{Type: models.CouponTypeAmount, Value: 30.00},
			pointsDiscount: 10.00,
			want:           0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OrderTotal(lines, tt.deliveryFee, tt.coupon, tt.pointsDiscount)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestOrderTotalRounding(t *testing.T) {
	lines := []Line{{UnitPrice: 3.33, Quantity: 3}}
	got := OrderTotal(lines, 0, nil, 0)
	require.Equal(t, 9.99, got)
}

func TestPointsDiscount(t *testing.T) {
	require.Equal(t, 2.50, PointsDiscount(25))
	require.Equal(t, 1.00, PointsDiscount(10))
	require.Equal(t, 0.70, PointsDiscount(7))
	require.Equal(t, 10.00, PointsDiscount(100))
}

func TestPointsFromAmount(t *testing.T) {
	require.Equal(t, int64(10), PointsFromAmount(1.00))
	require.Equal(t, int64(225), PointsFromAmount(22.50))
	require.Equal(t, int64(1), PointsFromAmount(0.05)) // half rounds up
	require.Equal(t, int64(0), PointsFromAmount(0.04))
	require.Equal(t, int64(6), PointsFromAmount(0.60))
}
