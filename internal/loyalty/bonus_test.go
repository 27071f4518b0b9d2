package loyalty

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/feastly/food_ordering/internal/models"
)

func TestResolveBonusHappyHour(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()

	require.NoError(t, db.Create(&models.HappyHour{
		Rate:     0.02,
		StartsAt: now.Add(-time.Hour),
		EndsAt:   now.Add(time.Hour),
		Active:   true,
	}).Error)

	bonus, err := ResolveBonus(db, now, nil)
	require.NoError(t, err)
	require.Equal(t, 0.02, bonus)
}

func TestResolveBonusOutsideWindow(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()

	require.NoError(t, db.Create(&models.HappyHour{
		Rate:     0.02,
		StartsAt: now.Add(time.Hour),
		EndsAt:   now.Add(2 * time.Hour),
		Active:   true,
	}).Error)

	bonus, err := ResolveBonus(db, now, nil)
	require.NoError(t, err)
	require.Equal(t, 0.0, bonus)
}

func TestResolveBonusInactiveIgnored(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()

	require.NoError(t, db.Create(&models.HappyHour{
		Rate:     0.02,
		StartsAt: now.Add(-time.Hour),
		EndsAt:   now.Add(time.Hour),
		Active:   false,
	}).Error)

	bonus, err := ResolveBonus(db, now, nil)
	require.NoError(t, err)
	require.Equal(t, 0.0, bonus)
}

func TestResolveBonusFirstCategoryWins(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()

	for _, cb := range []models.CategoryBonus{
		{Category: "pizza", Rate: 0.01, StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour), Active: true},
		{Category: "sushi", Rate: 0.05, StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour), Active: true},
	} {
		require.NoError(t, db.Create(&cb).Error)
	}

	// both categories carry an active bonus; only the first in the
	// restaurant's list applies
	bonus, err := ResolveBonus(db, now, []string{"pizza", "sushi"})
	require.NoError(t, err)
	require.Equal(t, 0.01, bonus)

	bonus, err = ResolveBonus(db, now, []string{"sushi", "pizza"})
	require.NoError(t, err)
	require.Equal(t, 0.05, bonus)
}

func TestResolveBonusSkipsCategoriesWithoutRule(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()

	require.NoError(t, db.Create(&models.CategoryBonus{
		Category: "sushi", Rate: 0.05,
		StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour), Active: true,
	}).Error)

	bonus, err := ResolveBonus(db, now, []string{"pizza", "sushi"})
	require.NoError(t, err)
	require.Equal(t, 0.05, bonus)
}

func TestResolveBonusAdditive(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()

	require.NoError(t, db.Create(&models.HappyHour{
		Rate: 0.02, StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour), Active: true,
	}).Error)
	require.NoError(t, db.Create(&models.CategoryBonus{
		Category: "pizza", Rate: 0.01,
		StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour), Active: true,
	}).Error)

	bonus, err := ResolveBonus(db, now, []string{"pizza"})
	require.NoError(t, err)
	require.InDelta(t, 0.03, bonus, 1e-9)
}
