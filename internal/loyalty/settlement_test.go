package loyalty

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/feastly/food_ordering/internal/models"
)

func TestSettleDeliveredBaseRate(t *testing.T) {
	db := newTestDB(t)
	restaurant := models.Restaurant{Name: "Trattoria", DeliveryFee: 2.50}
	require.NoError(t, db.Create(&restaurant).Error)
	order := models.Order{UserID: 1, RestaurantID: restaurant.ID, Status: models.OrderStatusDelivered, Total: 20.00}
	require.NoError(t, db.Create(&order).Error)

	points, err := SettleDelivered(db, &order, time.Now())
	require.NoError(t, err)
	// 20.00 x 3% = 0.60 reward = 6 points
	require.Equal(t, int64(6), points)

	balance, err := Balance(db, 1)
	require.NoError(t, err)
	require.Equal(t, int64(6), balance)

	entries, err := Transactions(db, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, models.RewardEarnedDelivery, entries[0].Type)
	require.NotNil(t, entries[0].OrderID)
	require.Equal(t, order.ID, *entries[0].OrderID)
}

func TestSettleDeliveredWithHappyHour(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	restaurant := models.Restaurant{Name: "Trattoria", DeliveryFee: 2.50}
	require.NoError(t, db.Create(&restaurant).Error)
	require.NoError(t, db.Create(&models.HappyHour{
		Rate: 0.02, StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour), Active: true,
	}).Error)
	order := models.Order{UserID: 1, RestaurantID: restaurant.ID, Status: models.OrderStatusDelivered, Total: 20.00}
	require.NoError(t, db.Create(&order).Error)

	points, err := SettleDelivered(db, &order, now)
	require.NoError(t, err)
	// base 0.60 + happy hour 0.40 = 1.00 reward = 10 points
	require.Equal(t, int64(10), points)
}

func TestSettleDeliveredWithCategoryBonus(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	restaurant := models.Restaurant{Name: "Sushi Bar", DeliveryFee: 2.50, Categories: "sushi,asian"}
	require.NoError(t, db.Create(&restaurant).Error)
	require.NoError(t, db.Create(&models.CategoryBonus{
		Category: "sushi", Rate: 0.02,
		StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour), Active: true,
	}).Error)
	order := models.Order{UserID: 1, RestaurantID: restaurant.ID, Status: models.OrderStatusDelivered, Total: 20.00}
	require.NoError(t, db.Create(&order).Error)

	points, err := SettleDelivered(db, &order, now)
	require.NoError(t, err)
	require.Equal(t, int64(10), points)
}

func TestSettleDeliveredZeroPointsSkipsCredit(t *testing.T) {
	db := newTestDB(t)
	restaurant := models.Restaurant{Name: "Trattoria", DeliveryFee: 2.50}
	require.NoError(t, db.Create(&restaurant).Error)
	// 0.10 x 3% = 0.003 = 0 points after rounding
	order := models.Order{UserID: 1, RestaurantID: restaurant.ID, Status: models.OrderStatusDelivered, Total: 0.10}
	require.NoError(t, db.Create(&order).Error)

	points, err := SettleDelivered(db, &order, time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(0), points)

	entries, err := Transactions(db, 1)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestSettleCancelled(t *testing.T) {
	db := newTestDB(t)
	order := models.Order{UserID: 1, RestaurantID: 1, Status: models.OrderStatusCancelled, Total: 17.50}
	require.NoError(t, db.Create(&order).Error)

	points, err := SettleCancelled(db, &order)
	require.NoError(t, err)
	// full total as points: 17.50 x 10 = 175
	require.Equal(t, int64(175), points)

	entries, err := Transactions(db, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, models.RewardEarnedCompensation, entries[0].Type)
	requireBalanceMatchesSum(t, db, 1)
}

func TestPromote(t *testing.T) {
	db := newTestDB(t)

	credited, err := Promote(db, []uint{1, 2, 3}, 20, "summer promo")
	require.NoError(t, err)
	require.Equal(t, 3, credited)

	for _, id := range []uint{1, 2, 3} {
		balance, err := Balance(db, id)
		require.NoError(t, err)
		require.Equal(t, int64(20), balance)
	}
}

func TestPromotePartialFailure(t *testing.T) {
	db := newTestDB(t)

	// corrupt the second customer's ledger so their credit fails
	require.NoError(t, Credit(db, 2, 10, models.RewardEarnedPromotion, "seed", nil))
	require.NoError(t, db.Model(&models.RewardPoint{}).
		Where("user_id = ?", 2).
		UpdateColumn("balance", 999).Error)

	credited, err := Promote(db, []uint{1, 2, 3}, 20, "promo")
	require.ErrorIs(t, err, ErrLedgerInconsistent)
	require.Equal(t, 1, credited)

	// the first customer keeps the credit, the third never got one
	balance, err := Balance(db, 1)
	require.NoError(t, err)
	require.Equal(t, int64(20), balance)
	balance, err = Balance(db, 3)
	require.NoError(t, err)
	require.Equal(t, int64(0), balance)
}

func TestSettleDeliveredUnknownRestaurant(t *testing.T) {
	db := newTestDB(t)
	order := models.Order{UserID: 1, RestaurantID: 99, Status: models.OrderStatusDelivered, Total: 20.00}
	require.NoError(t, db.Create(&order).Error)

	_, err := SettleDelivered(db, &order, time.Now())
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrLedgerInconsistent))
}
