package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/feastly/food_ordering/internal/coupons"
	"github.com/feastly/food_ordering/internal/inventory"
	"github.com/feastly/food_ordering/internal/loyalty"
	"github.com/feastly/food_ordering/internal/models"
	"github.com/feastly/food_ordering/internal/pricing"
)

var (
	ErrEmptyCart             = errors.New("cart is empty")
	ErrCrossRestaurantCart   = errors.New("cart items span multiple restaurants")
	ErrAddressNotFound       = errors.New("address not found")
	ErrPaymentMethodNotFound = errors.New("payment method not found")
	ErrRestaurantNotFound    = errors.New("restaurant not found")
)

type PlaceOrderRequest struct {
	PaymentMethodID   uint   `json:"payment_method_id"`
	BillingAddressID  uint   `json:"billing_address_id"`
	ShippingAddressID *uint  `json:"shipping_address_id,omitempty"`
	CouponCode        string `json:"coupon_code,omitempty"`
	RedeemPoints      int64  `json:"redeem_points,omitempty"`
}

type Engine struct {
	DB *gorm.DB
}

// PlaceOrder turns the customer's cart into a committed order. The whole
// sequence runs in one transaction: any failure rolls back every inventory
// reservation, coupon usage, point debit and the order row, and leaves the
// cart untouched.
func (e *Engine) PlaceOrder(ctx context.Context, userID uint, req PlaceOrderRequest) (*models.Order, error) {
	var order models.Order

	txErr := e.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart models.Cart
		if err := tx.Where("user_id = ?", userID).First(&cart).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEmptyCart
			}
			return err
		}

		var items []models.CartItem
		if err := tx.Where("cart_id = ?", cart.ID).Order("id ASC").Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		// reserve stock line by line; the same-restaurant invariant is
		// enforced at add-to-cart time but re-checked here
		restaurantID := uint(0)
		lines := make([]pricing.Line, 0, len(items))
		orderItems := make([]models.OrderItem, 0, len(items))
		for _, it := range items {
			var product models.Product
			if err := tx.First(&product, it.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: %d", inventory.ErrProductNotFound, it.ProductID)
				}
				return err
			}
			if restaurantID == 0 {
				restaurantID = product.RestaurantID
			} else if product.RestaurantID != restaurantID {
				return ErrCrossRestaurantCart
			}
			if err := inventory.Reserve(tx, &product, it.Quantity); err != nil {
				return err
			}
			lines = append(lines, pricing.Line{UnitPrice: it.UnitPrice, Quantity: it.Quantity})
			orderItems = append(orderItems, models.OrderItem{
				ProductID: product.ID,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
			})
		}

		var restaurant models.Restaurant
		if err := tx.First(&restaurant, restaurantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", ErrRestaurantNotFound, restaurantID)
			}
			return err
		}

		billingID, shippingID, err := snapshotAddresses(tx, userID, req.BillingAddressID, req.ShippingAddressID)
		if err != nil {
			return err
		}

		var pm models.PaymentMethod
		if err := tx.Where("id = ? AND user_id = ?", req.PaymentMethodID, userID).First(&pm).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", ErrPaymentMethodNotFound, req.PaymentMethodID)
			}
			return err
		}

		var coupon *models.Coupon
		if req.CouponCode != "" {
			coupon, err = coupons.Validate(tx, userID, req.CouponCode)
			if err != nil {
				return err
			}
		}

		pointsDiscount := 0.0
		if req.RedeemPoints > 0 {
			pointsDiscount = pricing.PointsDiscount(req.RedeemPoints)
		}

		total := pricing.OrderTotal(lines, restaurant.DeliveryFee, coupon, pointsDiscount)

		order = models.Order{
			UserID:            userID,
			RestaurantID:      restaurant.ID,
			CreatedAt:         time.Now().Unix(),
			Status:            models.OrderStatusPending,
			Total:             total,
			BillingAddressID:  billingID,
			ShippingAddressID: shippingID,
			PaymentMethodID:   pm.ID,
			PointsRedeemed:    req.RedeemPoints,
		}
		if coupon != nil {
			order.CouponID = &coupon.ID
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		for i := range orderItems {
			orderItems[i].OrderID = order.ID
			if err := tx.Create(&orderItems[i]).Error; err != nil {
				return err
			}
		}
		order.Items = orderItems

		// the debit validates the floor and the balance; any rejection
		// aborts the whole placement
		if req.RedeemPoints > 0 {
			desc := fmt.Sprintf("redeemed on order %d", order.ID)
			orderID := order.ID
			if _, err := loyalty.Debit(tx, userID, req.RedeemPoints, desc, &orderID); err != nil {
				return err
			}
		}

		// only now is the coupon consumed
		if coupon != nil {
			if err := coupons.RecordUsage(tx, coupon.ID, userID); err != nil {
				return err
			}
		}

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return nil
	})

	if txErr != nil {
		return nil, txErr
	}
	return &order, nil
}

// snapshotAddresses copies the billing (and optional shipping) address into
// fresh rows owned by the order, so later edits to the customer's addresses
// cannot alter a placed order. Shipping defaults to the billing snapshot.
func snapshotAddresses(tx *gorm.DB, userID, billingID uint, shippingID *uint) (uint, uint, error) {
	snap, err := copyAddress(tx, userID, billingID)
	if err != nil {
		return 0, 0, err
	}
	if shippingID == nil {
		return snap.ID, snap.ID, nil
	}
	shipSnap, err := copyAddress(tx, userID, *shippingID)
	if err != nil {
		return 0, 0, err
	}
	return snap.ID, shipSnap.ID, nil
}

func copyAddress(tx *gorm.DB, userID, addressID uint) (*models.Address, error) {
	var src models.Address
	if err := tx.Where("id = ? AND user_id = ?", addressID, userID).First(&src).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrAddressNotFound, addressID)
		}
		return nil, err
	}
	snap := models.Address{
		UserID: userID,
		Street: src.Street,
		City:   src.City,
		Zip:    src.Zip,
	}
	if err := tx.Create(&snap).Error; err != nil {
		return nil, err
	}
	return &snap, nil
}
