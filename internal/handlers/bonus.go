package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/feastly/food_ordering/internal/models"
)

// BonusHandler manages the time-bounded bonus-rate rules. The rules are
// evaluated reactively at reward time; there is no background sweep.
type BonusHandler struct {
	DB *gorm.DB
}

type bonusRuleRequest struct {
	Category string    `json:"category,omitempty"`
	Rate     float64   `json:"rate"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	Active   *bool     `json:"active,omitempty"`
}

func (r *bonusRuleRequest) validate() error {
	if r.Rate <= 0 || r.Rate >= 1 {
		return errors.New("rate must be a fraction between 0 and 1")
	}
	if !r.EndsAt.After(r.StartsAt) {
		return errors.New("ends_at must be after starts_at")
	}
	return nil
}

func (r *bonusRuleRequest) active() bool {
	if r.Active == nil {
		return true
	}
	return *r.Active
}

func (h *BonusHandler) CreateHappyHour(c echo.Context) error {
	var req bonusRuleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	rule := models.HappyHour{
		Rate:     req.Rate,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
		Active:   req.active(),
	}
	if err := h.DB.Create(&rule).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, rule)
}

func (h *BonusHandler) DeleteHappyHour(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	res := h.DB.Delete(&models.HappyHour{}, id)
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "rule not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *BonusHandler) CreateCategoryBonus(c echo.Context) error {
	var req bonusRuleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Category == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "category required")
	}
	if err := req.validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	rule := models.CategoryBonus{
		Category: req.Category,
		Rate:     req.Rate,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
		Active:   req.active(),
	}
	if err := h.DB.Create(&rule).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, rule)
}

func (h *BonusHandler) DeleteCategoryBonus(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	res := h.DB.Delete(&models.CategoryBonus{}, id)
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "rule not found")
	}
	return c.NoContent(http.StatusNoContent)
}
