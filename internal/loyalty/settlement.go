package loyalty

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/feastly/food_ordering/internal/models"
	"github.com/feastly/food_ordering/internal/pricing"
)

// SettleDelivered accrues reward points for a delivered order: base rate plus
// whatever happy-hour and category bonuses are active at settlement time,
// converted to whole points half-up. A zero-point reward writes nothing.
func SettleDelivered(tx *gorm.DB, order *models.Order, now time.Time) (int64, error) {
	var restaurant models.Restaurant
	if err := tx.First(&restaurant, order.RestaurantID).Error; err != nil {
		return 0, err
	}

	bonus, err := ResolveBonus(tx, now, restaurant.CategoryList())
	if err != nil {
		return 0, err
	}

	reward := order.Total * (BaseRewardRate + bonus)
	points := pricing.PointsFromAmount(reward)
	if points == 0 {
		return 0, nil
	}

	orderID := order.ID
	desc := fmt.Sprintf("delivery reward for order %d", order.ID)
	if err := Credit(tx, order.UserID, points, models.RewardEarnedDelivery, desc, &orderID); err != nil {
		return 0, err
	}
	return points, nil
}

// SettleCancelled compensates a cancelled order in full as points: the whole
// order total converted at 10 points per unit, half-up. No attempt is made to
// net out coupons or points spent on the original order.
func SettleCancelled(tx *gorm.DB, order *models.Order) (int64, error) {
	points := pricing.PointsFromAmount(order.Total)
	if points == 0 {
		return 0, nil
	}

	orderID := order.ID
	desc := fmt.Sprintf("compensation for cancelled order %d", order.ID)
	if err := Credit(tx, order.UserID, points, models.RewardEarnedCompensation, desc, &orderID); err != nil {
		return 0, err
	}
	return points, nil
}

// Promote credits promotion points to each listed customer. Every credit is
// its own transaction: a failure partway leaves earlier customers credited
// and reports how many succeeded.
func Promote(db *gorm.DB, userIDs []uint, points int64, description string) (int, error) {
	credited := 0
	for _, id := range userIDs {
		err := db.Transaction(func(tx *gorm.DB) error {
			return Credit(tx, id, points, models.RewardEarnedPromotion, description, nil)
		})
		if err != nil {
			return credited, fmt.Errorf("promotion credit for customer %d: %w", id, err)
		}
		credited++
	}
	return credited, nil
}
