package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/feastly/food_ordering/internal/models"
)

// AccountHandler covers the address and payment-method records the placement
// engine references. The user accounts themselves live in the external auth
// service.
type AccountHandler struct {
	DB        *gorm.DB
	JWTSecret []byte
}

func (h *AccountHandler) CreateAddress(c echo.Context) error {
	userID, err := GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var req struct {
		Street string `json:"street"`
		City   string `json:"city"`
		Zip    string `json:"zip"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Street == "" || req.City == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "street and city required")
	}

	address := models.Address{
		UserID: userID,
		Street: req.Street,
		City:   req.City,
		Zip:    req.Zip,
	}
	if err := h.DB.Create(&address).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, address)
}

func (h *AccountHandler) GetAddresses(c echo.Context) error {
	userID, err := GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var list []models.Address
	if err := h.DB.Where("user_id = ?", userID).Order("id ASC").Find(&list).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, list)
}

func (h *AccountHandler) CreatePaymentMethod(c echo.Context) error {
	userID, err := GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var req struct {
		Kind  string `json:"kind"`
		Label string `json:"label"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Kind == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "kind required")
	}

	pm := models.PaymentMethod{
		UserID: userID,
		Kind:   req.Kind,
		Label:  req.Label,
	}
	if err := h.DB.Create(&pm).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, pm)
}

func (h *AccountHandler) GetPaymentMethods(c echo.Context) error {
	userID, err := GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var list []models.PaymentMethod
	if err := h.DB.Where("user_id = ?", userID).Order("id ASC").Find(&list).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, list)
}
