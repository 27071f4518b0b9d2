package cart

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/feastly/food_ordering/internal/models"
	"github.com/feastly/food_ordering/internal/mykafka"
)

type CartHandler struct {
	DB        *gorm.DB
	Producer  *mykafka.Producer
	JWTSecret []byte
}

func (h *CartHandler) GetCart(c echo.Context) error {
	userID, err := GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	cart, items, err := h.loadCart(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"cart":  cart,
		"items": items,
	})
}

// AddToCart merges the product into the customer's cart. The unit price is
// snapshotted at add time, and a cart may only hold items from one restaurant.
func (h *CartHandler) AddToCart(c echo.Context) error {
	userID, err := GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var req struct {
		Quantity  uint `json:"quantity"`
		ProductID uint `json:"product_id"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, err)
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	var product models.Product
	if err := h.DB.First(&product, req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var item models.CartItem
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		cart, items, err := h.loadCartTx(tx, userID)
		if err != nil {
			return err
		}
		if len(items) > 0 && cart.RestaurantID != product.RestaurantID {
			return echo.NewHTTPError(http.StatusConflict, "cart is limited to one restaurant")
		}
		if cart.RestaurantID != product.RestaurantID {
			if err := tx.Model(cart).Update("restaurant_id", product.RestaurantID).Error; err != nil {
				return err
			}
		}

		err = tx.Where("cart_id = ? AND product_id = ?", cart.ID, req.ProductID).First(&item).Error
		if err == nil {
			// merge; the original price snapshot stays
			item.Quantity += req.Quantity
			return tx.Save(&item).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		item = models.CartItem{
			CartID:    cart.ID,
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
			UnitPrice: product.Price,
		}
		return tx.Create(&item).Error
	})
	if txErr != nil {
		if he, ok := txErr.(*echo.HTTPError); ok {
			return he
		}
		return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
	}

	h.publish(c, map[string]any{
		"type":      "add_cart_items",
		"userID":    userID,
		"productID": req.ProductID,
		"quantity":  item.Quantity,
	})
	return c.JSON(http.StatusOK, item)
}

func (h *CartHandler) DeleteOneFromCart(c echo.Context) error {
	userID, err := GetID(c, h.JWTSecret)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "invalid token")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, "invalid id")
	}

	cart, _, err := h.loadCart(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var item models.CartItem
	if err := h.DB.Where("id = ? AND cart_id = ?", id, cart.ID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, "item not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if item.Quantity > 1 {
		item.Quantity -= 1
		if err := h.DB.Save(&item).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		h.publish(c, map[string]any{
			"type":         "one_elem_deleted",
			"userID":       userID,
			"id":           item.ID,
			"new_quantity": item.Quantity,
		})
		return c.JSON(http.StatusOK, item)
	}

	if err := h.DB.Delete(&item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":         "cart_item_deleted",
		"userID":       userID,
		"deleted_item": id,
	})
	return c.JSON(http.StatusOK, map[string]any{"deleted_item": id})
}

func (h *CartHandler) DeleteAllFromCart(c echo.Context) error {
	userID, err := GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	idParam := c.Param("id")
	id, err := strconv.Atoi(idParam)
	if err != nil {
		return c.JSON(http.StatusBadRequest, err)
	}

	cart, _, err := h.loadCart(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.DB.
		Where("id = ? AND cart_id = ?", id, cart.ID).
		Delete(&models.CartItem{}).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, err)
	}

	var remaining []models.CartItem
	if err := h.DB.Where("cart_id = ?", cart.ID).Find(&remaining).Error; err != nil {
		c.Logger().Errorf("DB read after delete error: %v", err)
	}

	h.publish(c, map[string]any{
		"type":         "cart_item_deleted",
		"userID":       userID,
		"deleted_item": id,
		"remaining":    remaining,
	})
	return c.JSON(http.StatusOK, remaining)
}

func (h *CartHandler) loadCart(userID uint) (*models.Cart, []models.CartItem, error) {
	return h.loadCartTx(h.DB, userID)
}

// loadCartTx finds or lazily creates the customer's single open cart.
func (h *CartHandler) loadCartTx(tx *gorm.DB, userID uint) (*models.Cart, []models.CartItem, error) {
	var cart models.Cart
	err := tx.Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = models.Cart{UserID: userID}
		if err := tx.Create(&cart).Error; err != nil {
			return nil, nil, err
		}
		return &cart, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var items []models.CartItem
	if err := tx.Where("cart_id = ?", cart.ID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, nil, err
	}
	return &cart, items, nil
}
