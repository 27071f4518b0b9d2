package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/feastly/food_ordering/internal/models"
)

type RestaurantHandler struct {
	DB *gorm.DB
}

func (h *RestaurantHandler) CreateRestaurant(c echo.Context) error {
	var req struct {
		Name        string   `json:"name"`
		DeliveryFee float64  `json:"delivery_fee"`
		Categories  []string `json:"categories"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name required")
	}
	if req.DeliveryFee < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "delivery fee must be non-negative")
	}

	restaurant := models.Restaurant{
		Name:        req.Name,
		DeliveryFee: req.DeliveryFee,
		Categories:  strings.Join(req.Categories, ","),
	}
	if err := h.DB.Create(&restaurant).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, restaurant)
}

func (h *RestaurantHandler) GetRestaurant(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var restaurant models.Restaurant
	if err := h.DB.First(&restaurant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "restaurant not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, restaurant)
}

func (h *RestaurantHandler) GetRestaurants(c echo.Context) error {
	var list []models.Restaurant
	if err := h.DB.Order("id ASC").Find(&list).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, list)
}
