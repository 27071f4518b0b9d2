package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/feastly/food_ordering/internal/coupons"
	"github.com/feastly/food_ordering/internal/inventory"
	"github.com/feastly/food_ordering/internal/logging"
	"github.com/feastly/food_ordering/internal/loyalty"
	"github.com/feastly/food_ordering/internal/models"
	"github.com/feastly/food_ordering/internal/mykafka"
	"github.com/feastly/food_ordering/internal/orders"
	"github.com/feastly/food_ordering/internal/util"
)

type OrderHandler struct {
	Engine    *orders.Engine
	Producer  *mykafka.Producer
	JWTSecret []byte
}

func (h *OrderHandler) publish(c echo.Context, topic string, key uint, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, topic, fmt.Sprint(key), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *OrderHandler) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.place_order")

	userID, err := GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var req orders.PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("place_order_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Engine.PlaceOrder(ctx, userID, req)
	if err != nil {
		status := placementStatus(err)
		if status == http.StatusInternalServerError {
			l.Error("place_order_error", "status", status, "error", err)
			return echo.NewHTTPError(status, "internal error")
		}
		l.Warn("place_order_rejected", "status", status, "error", err)
		return echo.NewHTTPError(status, err.Error())
	}

	l.Info("place_order_success", "order_id", order.ID, "total", order.Total)
	h.publish(c, "order_events", userID, map[string]any{
		"type":    "order_created",
		"userID":  userID,
		"orderID": order.ID,
		"total":   order.Total,
		"status":  order.Status,
	})
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	userID, err := GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	order, err := h.Engine.GetOrder(c.Request().Context(), userID, uint(id))
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) GetOrders(c echo.Context) error {
	userID, err := GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	list, err := h.Engine.ListOrders(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, list)
}

// TransitionStatus is called by the fulfillment workflow, not by customers.
func (h *OrderHandler) TransitionStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.transition_status")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if !req.Status.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown status")
	}

	result, err := h.Engine.TransitionStatus(ctx, uint(id), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrOrderNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		case errors.Is(err, orders.ErrInvalidTransition):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, loyalty.ErrLedgerInconsistent):
			l.Error("transition_halted", "order_id", id, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "ledger inconsistent")
		}
		l.Error("transition_error", "order_id", id, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	l.Info("transition_success", "order_id", id, "status", req.Status, "points", result.SettledPoints)
	h.publish(c, "order_events", result.Order.UserID, map[string]any{
		"type":    "order_status_changed",
		"userID":  result.Order.UserID,
		"orderID": result.Order.ID,
		"status":  result.Order.Status,
	})
	if result.SettledPoints > 0 {
		h.publish(c, "loyalty_events", result.Order.UserID, map[string]any{
			"type":    "points_earned",
			"userID":  result.Order.UserID,
			"orderID": result.Order.ID,
			"points":  result.SettledPoints,
			"reason":  result.SettlementType,
		})
	}
	return c.JSON(http.StatusOK, result.Order)
}

func placementStatus(err error) int {
	switch {
	case errors.Is(err, orders.ErrEmptyCart),
		errors.Is(err, orders.ErrCrossRestaurantCart),
		errors.Is(err, coupons.ErrExpired),
		errors.Is(err, loyalty.ErrInvalidPoints),
		errors.Is(err, loyalty.ErrInsufficientPoints),
		errors.Is(err, loyalty.ErrBelowRedemptionFloor),
		errors.Is(err, inventory.ErrInsufficientStock):
		return http.StatusBadRequest
	case errors.Is(err, coupons.ErrNotFound),
		errors.Is(err, inventory.ErrProductNotFound),
		errors.Is(err, orders.ErrAddressNotFound),
		errors.Is(err, orders.ErrRestaurantNotFound),
		errors.Is(err, orders.ErrPaymentMethodNotFound):
		return http.StatusNotFound
	case errors.Is(err, coupons.ErrAlreadyUsed):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
