package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/feastly/food_ordering/internal/logging"
	"github.com/feastly/food_ordering/internal/loyalty"
	"github.com/feastly/food_ordering/internal/models"
	"github.com/feastly/food_ordering/internal/mykafka"
)

type LoyaltyHandler struct {
	DB        *gorm.DB
	Producer  *mykafka.Producer
	JWTSecret []byte
}

func (h *LoyaltyHandler) publish(c echo.Context, key uint, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "loyalty_events", fmt.Sprint(key), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *LoyaltyHandler) GetBalance(c echo.Context) error {
	userID, err := GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	balance, err := loyalty.Balance(h.DB, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{"balance": balance})
}

func (h *LoyaltyHandler) GetTransactions(c echo.Context) error {
	userID, err := GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	entries, err := loyalty.Transactions(h.DB, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, entries)
}

// Redeem converts points to a discount outside of order placement.
func (h *LoyaltyHandler) Redeem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "loyalty.redeem")

	userID, err := GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var req struct {
		Points int64 `json:"points"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var discount float64
	txErr := h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		discount, err = loyalty.Debit(tx, userID, req.Points, "standalone redemption", nil)
		return err
	})
	if txErr != nil {
		switch {
		case errors.Is(txErr, loyalty.ErrInvalidPoints),
			errors.Is(txErr, loyalty.ErrBelowRedemptionFloor),
			errors.Is(txErr, loyalty.ErrInsufficientPoints):
			l.Warn("redeem_rejected", "error", txErr)
			return echo.NewHTTPError(http.StatusBadRequest, txErr.Error())
		case errors.Is(txErr, loyalty.ErrLedgerInconsistent):
			l.Error("redeem_halted", "error", txErr)
			return echo.NewHTTPError(http.StatusInternalServerError, "ledger inconsistent")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
	}

	l.Info("redeem_success", "points", req.Points, "discount", discount)
	h.publish(c, userID, map[string]any{
		"type":     "points_redeemed",
		"userID":   userID,
		"points":   req.Points,
		"discount": discount,
	})
	return c.JSON(http.StatusOK, map[string]any{"points": req.Points, "discount": discount})
}

// Promote credits promotion points to one customer or, with no customer_id,
// to every known customer. Credits are independent; a partial failure reports
// how many went through.
func (h *LoyaltyHandler) Promote(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "loyalty.promote")

	var req struct {
		CustomerID  *uint  `json:"customer_id,omitempty"`
		Points      int64  `json:"points"`
		Description string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Points <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "points must be positive")
	}

	var targets []uint
	if req.CustomerID != nil {
		targets = []uint{*req.CustomerID}
	} else {
		var users []models.User
		if err := h.DB.Where("role = ?", "customer").Find(&users).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		for _, u := range users {
			targets = append(targets, u.ID)
		}
	}

	credited, err := loyalty.Promote(h.DB.WithContext(ctx), targets, req.Points, req.Description)
	if err != nil {
		l.Error("promote_partial_failure", "credited", credited, "targets", len(targets), "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"credited": credited,
			"targets":  len(targets),
			"error":    err.Error(),
		})
	}

	l.Info("promote_success", "credited", credited, "points", req.Points)
	for _, id := range targets {
		h.publish(c, id, map[string]any{
			"type":   "points_earned",
			"userID": id,
			"points": req.Points,
			"reason": models.RewardEarnedPromotion,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"credited": credited, "points": req.Points})
}
