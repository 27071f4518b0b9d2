package inventory

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/feastly/food_ordering/internal/models"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrProductNotFound   = errors.New("product not found")
)

// Reserve decrements the product's stock by qty if enough is available. The
// decrement is a single conditional UPDATE, so concurrent reservations against
// the same product never over-sell. Callers run it inside their own
// transaction; a rollback releases the reservation.
func Reserve(tx *gorm.DB, product *models.Product, qty uint) error {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND count >= ?", product.ID, qty).
		UpdateColumn("count", gorm.Expr("count - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrInsufficientStock, product.Name)
	}
	return nil
}

// Restock adds qty units back to a product. Used by the admin restock path.
func Restock(db *gorm.DB, productID uint, qty uint) (*models.Product, error) {
	var product models.Product
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", ErrProductNotFound, productID)
			}
			return err
		}
		if err := tx.Model(&product).
			UpdateColumn("count", gorm.Expr("count + ?", qty)).Error; err != nil {
			return err
		}
		return tx.First(&product, productID).Error
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}
