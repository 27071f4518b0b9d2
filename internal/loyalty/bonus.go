package loyalty

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/feastly/food_ordering/internal/models"
)

// ResolveBonus returns the additive bonus rate in effect at now: at most one
// happy-hour rate plus at most one category bonus. When several of the
// restaurant's categories carry an active bonus, only the first category in
// the restaurant's list contributes; category bonuses never stack.
func ResolveBonus(db *gorm.DB, now time.Time, categories []string) (float64, error) {
	bonus := 0.0

	var hh models.HappyHour
	err := db.Where("active = ? AND starts_at <= ? AND ends_at > ?", true, now, now).
		Order("id ASC").First(&hh).Error
	if err == nil {
		bonus += hh.Rate
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	for _, cat := range categories {
		var cb models.CategoryBonus
		err := db.Where("category = ? AND active = ? AND starts_at <= ? AND ends_at > ?", cat, true, now, now).
			Order("id ASC").First(&cb).Error
		if err == nil {
			bonus += cb.Rate
			break
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, err
		}
	}

	return bonus, nil
}
