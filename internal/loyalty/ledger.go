package loyalty

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feastly/food_ordering/internal/models"
	"github.com/feastly/food_ordering/internal/pricing"
)

const (
	// BaseRewardRate is earned on every delivered order.
	BaseRewardRate = 0.03
	// MinRedemptionValue is the smallest discount a redemption may produce.
	MinRedemptionValue = 2.50
)

var (
	ErrInvalidPoints        = errors.New("points must be positive")
	ErrInsufficientPoints   = errors.New("insufficient points")
	ErrBelowRedemptionFloor = errors.New("redemption below minimum value")
	ErrLedgerInconsistent   = errors.New("reward ledger inconsistent")
)

// lockAccount loads the customer's point account for update, creating it
// lazily on first touch. The row lock serializes concurrent balance mutations
// for the same customer.
func lockAccount(tx *gorm.DB, userID uint) (*models.RewardPoint, error) {
	var acct models.RewardPoint
	err := forUpdate(tx).Where("user_id = ?", userID).First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		acct = models.RewardPoint{UserID: userID}
		if err := tx.Create(&acct).Error; err != nil {
			return nil, err
		}
		return &acct, nil
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

func forUpdate(tx *gorm.DB) *gorm.DB {
	// sqlite has no FOR UPDATE and serializes writers itself
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// checkIntegrity verifies the invariant that the balance equals the sum of
// all transactions. A mismatch means the ledger is corrupt; no further writes
// may happen for this customer until it is reconciled.
func checkIntegrity(tx *gorm.DB, acct *models.RewardPoint) error {
	var sum int64
	if err := tx.Model(&models.RewardTransaction{}).
		Where("user_id = ?", acct.UserID).
		Select("COALESCE(SUM(points), 0)").
		Scan(&sum).Error; err != nil {
		return err
	}
	if sum != acct.Balance {
		return fmt.Errorf("%w: customer %d balance %d, transaction sum %d",
			ErrLedgerInconsistent, acct.UserID, acct.Balance, sum)
	}
	return nil
}

// Credit increases the customer's balance and appends a ledger transaction.
func Credit(tx *gorm.DB, userID uint, points int64, typ models.RewardTransactionType, description string, orderID *uint) error {
	if points <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPoints, points)
	}

	acct, err := lockAccount(tx, userID)
	if err != nil {
		return err
	}
	if err := checkIntegrity(tx, acct); err != nil {
		return err
	}

	if err := tx.Model(acct).
		UpdateColumn("balance", gorm.Expr("balance + ?", points)).Error; err != nil {
		return err
	}

	entry := models.RewardTransaction{
		UserID:      userID,
		Points:      points,
		Type:        typ,
		OrderID:     orderID,
		Description: description,
		CreatedAt:   time.Now(),
	}
	return tx.Create(&entry).Error
}

// Debit redeems points for a currency discount. It rejects non-positive
// amounts, redemptions whose discount falls below the floor, and balances
// smaller than the requested points. The returned discount is rounded down
// to 2 decimal places.
func Debit(tx *gorm.DB, userID uint, points int64, description string, orderID *uint) (float64, error) {
	if points <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPoints, points)
	}

	discount := pricing.PointsDiscount(points)
	if discount < MinRedemptionValue {
		return 0, fmt.Errorf("%w: %d points are worth %.2f", ErrBelowRedemptionFloor, points, discount)
	}

	acct, err := lockAccount(tx, userID)
	if err != nil {
		return 0, err
	}
	if err := checkIntegrity(tx, acct); err != nil {
		return 0, err
	}
	if acct.Balance < points {
		return 0, fmt.Errorf("%w: balance %d, requested %d", ErrInsufficientPoints, acct.Balance, points)
	}

	if err := tx.Model(acct).
		UpdateColumn("balance", gorm.Expr("balance - ?", points)).Error; err != nil {
		return 0, err
	}

	entry := models.RewardTransaction{
		UserID:      userID,
		Points:      -points,
		Type:        models.RewardUsedOrder,
		OrderID:     orderID,
		Description: description,
		CreatedAt:   time.Now(),
	}
	if err := tx.Create(&entry).Error; err != nil {
		return 0, err
	}
	return discount, nil
}

func Balance(db *gorm.DB, userID uint) (int64, error) {
	var acct models.RewardPoint
	if err := db.Where("user_id = ?", userID).First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return acct.Balance, nil
}

func Transactions(db *gorm.DB, userID uint) ([]models.RewardTransaction, error) {
	var entries []models.RewardTransaction
	if err := db.Where("user_id = ?", userID).
		Order("id ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
