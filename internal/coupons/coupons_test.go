package coupons

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/feastly/food_ordering/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func seedCoupon(t *testing.T, db *gorm.DB, code string, expiresAt time.Time) models.Coupon {
	t.Helper()
	coupon := models.Coupon{
		Code:      code,
		Type:      models.CouponTypeAmount,
		Value:     5.00,
		ExpiresAt: expiresAt,
	}
	require.NoError(t, db.Create(&coupon).Error)
	return coupon
}

func TestValidate(t *testing.T) {
	db := newTestDB(t)
	seedCoupon(t, db, "SAVE5", time.Now().Add(48*time.Hour))

	coupon, err := Validate(db, 1, "SAVE5")
	require.NoError(t, err)
	require.Equal(t, "SAVE5", coupon.Code)
	require.Equal(t, 5.00, coupon.Value)
}

func TestValidateCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	seedCoupon(t, db, "SAVE5", time.Now().Add(48*time.Hour))

	coupon, err := Validate(db, 1, "  save5 ")
	require.NoError(t, err)
	require.Equal(t, "SAVE5", coupon.Code)
}

func TestValidateNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := Validate(db, 1, "NOPE")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestValidateExpired(t *testing.T) {
	db := newTestDB(t)
	seedCoupon(t, db, "OLD", time.Now().Add(-48*time.Hour))

	_, err := Validate(db, 1, "OLD")
	require.ErrorIs(t, err, ErrExpired)
}

func TestValidateAlreadyUsed(t *testing.T) {
	db := newTestDB(t)
	coupon := seedCoupon(t, db, "ONCE", time.Now().Add(48*time.Hour))
	require.NoError(t, RecordUsage(db, coupon.ID, 1))

	_, err := Validate(db, 1, "ONCE")
	require.ErrorIs(t, err, ErrAlreadyUsed)

	// a different customer may still use it
	_, err = Validate(db, 2, "ONCE")
	require.NoError(t, err)
}

func TestValidateSoftDeleted(t *testing.T) {
	db := newTestDB(t)
	coupon := seedCoupon(t, db, "GONE", time.Now().Add(48*time.Hour))
	require.NoError(t, db.Delete(&coupon).Error)

	_, err := Validate(db, 1, "GONE")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRecordUsageDuplicate(t *testing.T) {
	db := newTestDB(t)
	coupon := seedCoupon(t, db, "ONCE", time.Now().Add(48*time.Hour))

	require.NoError(t, RecordUsage(db, coupon.ID, 1))
	require.ErrorIs(t, RecordUsage(db, coupon.ID, 1), ErrAlreadyUsed)

	var count int64
	require.NoError(t, db.Model(&models.CouponUsage{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}
