package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/feastly/food_ordering/internal/coupons"
	"github.com/feastly/food_ordering/internal/models"
	"github.com/feastly/food_ordering/internal/mykafka"
)

type CouponHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

func (h *CouponHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "coupon_events", fmt.Sprint(event["code"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *CouponHandler) CreateCoupon(c echo.Context) error {
	var req struct {
		Code      string            `json:"code"`
		Type      models.CouponType `json:"type"`
		Value     float64           `json:"value"`
		ExpiresAt time.Time         `json:"expires_at"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	switch req.Type {
	case models.CouponTypeAmount:
		if req.Value <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "AMOUNT coupons need a positive value")
		}
	case models.CouponTypeFreeShip:
		// free shipping cancels the delivery fee instead of carrying a value
		req.Value = 0
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unknown coupon type")
	}

	coupon := models.Coupon{
		Code:      coupons.Normalize(req.Code),
		Type:      req.Type,
		Value:     req.Value,
		ExpiresAt: req.ExpiresAt,
	}
	if coupon.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code required")
	}
	if err := h.DB.Create(&coupon).Error; err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}

	h.publish(c, map[string]any{
		"type":  "coupon_created",
		"code":  coupon.Code,
		"value": coupon.Value,
	})
	return c.JSON(http.StatusCreated, coupon)
}

func (h *CouponHandler) GetCoupons(c echo.Context) error {
	var list []models.Coupon
	if err := h.DB.Order("id ASC").Find(&list).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, list)
}

// DeleteCoupon soft-deletes so historical usage rows keep a valid reference.
func (h *CouponHandler) DeleteCoupon(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var coupon models.Coupon
	if err := h.DB.First(&coupon, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "coupon not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.DB.Delete(&coupon).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type": "coupon_deleted",
		"code": coupon.Code,
	})
	return c.NoContent(http.StatusNoContent)
}
