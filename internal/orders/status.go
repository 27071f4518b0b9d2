package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feastly/food_ordering/internal/loyalty"
	"github.com/feastly/food_ordering/internal/models"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// TransitionResult reports what a transition did, so callers can publish
// events after commit.
type TransitionResult struct {
	Order          *models.Order
	SettledPoints  int64
	SettlementType models.RewardTransactionType
}

// TransitionStatus advances an order through the fulfillment state machine.
// Settlement side effects run in the same transaction as the status change:
// DELIVERED accrues reward points, CANCELLED compensates the full total.
func (e *Engine) TransitionStatus(ctx context.Context, orderID uint, next models.OrderStatus) (*TransitionResult, error) {
	var (
		order  models.Order
		result TransitionResult
	)

	txErr := e.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOrder(tx, &order, orderID); err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, next)
		}

		if err := tx.Model(&order).Update("status", string(next)).Error; err != nil {
			return err
		}
		order.Status = next

		switch next {
		case models.OrderStatusDelivered:
			points, err := loyalty.SettleDelivered(tx, &order, time.Now())
			if err != nil {
				return err
			}
			result.SettledPoints = points
			result.SettlementType = models.RewardEarnedDelivery
		case models.OrderStatusCancelled:
			points, err := loyalty.SettleCancelled(tx, &order)
			if err != nil {
				return err
			}
			result.SettledPoints = points
			result.SettlementType = models.RewardEarnedCompensation
		}
		return nil
	})

	if txErr != nil {
		return nil, txErr
	}
	result.Order = &order
	return &result, nil
}

func (e *Engine) GetOrder(ctx context.Context, userID, orderID uint) (*models.Order, error) {
	var order models.Order
	err := e.DB.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrOrderNotFound, orderID)
		}
		return nil, err
	}
	return &order, nil
}

func (e *Engine) ListOrders(ctx context.Context, userID uint, limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	err := e.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").Limit(limit).Offset(offset).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func lockOrder(tx *gorm.DB, order *models.Order, orderID uint) error {
	q := tx
	// sqlite has no FOR UPDATE and serializes writers itself
	if tx.Dialector.Name() != "sqlite" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %d", ErrOrderNotFound, orderID)
		}
		return err
	}
	return nil
}
