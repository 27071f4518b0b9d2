package coupons

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/feastly/food_ordering/internal/models"
)

var (
	ErrNotFound    = errors.New("coupon not found")
	ErrExpired     = errors.New("coupon expired")
	ErrAlreadyUsed = errors.New("coupon already used")
)

// Normalize upper-cases a code so lookups are case-insensitive.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks a code for the given customer. It is read-only: recording
// the usage is a separate step so a failed order never burns the coupon.
func Validate(tx *gorm.DB, userID uint, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := tx.Where("code = ?", Normalize(code)).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, code)
		}
		return nil, err
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	if coupon.ExpiresAt.Before(today) {
		return nil, fmt.Errorf("%w: %s", ErrExpired, coupon.Code)
	}

	var used int64
	if err := tx.Model(&models.CouponUsage{}).
		Where("coupon_id = ? AND user_id = ?", coupon.ID, userID).
		Count(&used).Error; err != nil {
		return nil, err
	}
	if used > 0 {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyUsed, coupon.Code)
	}

	return &coupon, nil
}

// RecordUsage consumes the coupon for the customer. The unique index on
// (coupon_id, user_id) makes exactly one of two concurrent attempts win.
func RecordUsage(tx *gorm.DB, couponID, userID uint) error {
	usage := models.CouponUsage{
		CouponID:  couponID,
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	if err := tx.Create(&usage).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return fmt.Errorf("%w: coupon %d", ErrAlreadyUsed, couponID)
		}
		return err
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
