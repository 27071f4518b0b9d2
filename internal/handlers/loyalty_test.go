package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/feastly/food_ordering/internal/loyalty"
	"github.com/feastly/food_ordering/internal/models"
)

var testSecret = []byte("test-secret")

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func mintCookie(t *testing.T, userID uint, role string) *http.Cookie {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  float64(userID),
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return &http.Cookie{Name: "accessToken", Value: signed, Path: "/"}
}

func doJSONRequest(t *testing.T, e *echo.Echo, method, target string, body any, cookies ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	return rec, e.NewContext(req, rec)
}

func TestGetBalance(t *testing.T) {
	db := newTestDB(t)
	h := &LoyaltyHandler{DB: db, JWTSecret: testSecret}
	e := echo.New()
	require.NoError(t, loyalty.Credit(db, 1, 80, models.RewardEarnedPromotion, "seed", nil))

	rec, c := doJSONRequest(t, e, http.MethodGet, "/api/v1/loyalty/balance", nil, mintCookie(t, 1, "customer"))
	require.NoError(t, h.GetBalance(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Balance int64 `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, int64(80), resp.Balance)
}

func TestRedeem(t *testing.T) {
	db := newTestDB(t)
	h := &LoyaltyHandler{DB: db, JWTSecret: testSecret}
	e := echo.New()
	require.NoError(t, loyalty.Credit(db, 1, 100, models.RewardEarnedPromotion, "seed", nil))

	rec, c := doJSONRequest(t, e, http.MethodPost, "/api/v1/loyalty/redeem",
		map[string]int64{"points": 40}, mintCookie(t, 1, "customer"))
	require.NoError(t, h.Redeem(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Points   int64   `json:"points"`
		Discount float64 `json:"discount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, int64(40), resp.Points)
	require.Equal(t, 4.00, resp.Discount)

	balance, err := loyalty.Balance(db, 1)
	require.NoError(t, err)
	require.Equal(t, int64(60), balance)
}

func TestRedeemBelowFloor(t *testing.T) {
	db := newTestDB(t)
	h := &LoyaltyHandler{DB: db, JWTSecret: testSecret}
	e := echo.New()
	require.NoError(t, loyalty.Credit(db, 1, 100, models.RewardEarnedPromotion, "seed", nil))

	_, c := doJSONRequest(t, e, http.MethodPost, "/api/v1/loyalty/redeem",
		map[string]int64{"points": 10}, mintCookie(t, 1, "customer"))
	err := h.Redeem(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, he.Code)

	balance, err := loyalty.Balance(db, 1)
	require.NoError(t, err)
	require.Equal(t, int64(100), balance)
}

func TestPromoteSingleCustomer(t *testing.T) {
	db := newTestDB(t)
	h := &LoyaltyHandler{DB: db, JWTSecret: testSecret}
	e := echo.New()

	rec, c := doJSONRequest(t, e, http.MethodPost, "/api/v1/admin/loyalty/promotions",
		map[string]any{"customer_id": 7, "points": 25, "description": "welcome back"},
		mintCookie(t, 99, "admin"))
	require.NoError(t, h.Promote(c))
	require.Equal(t, http.StatusOK, rec.Code)

	balance, err := loyalty.Balance(db, 7)
	require.NoError(t, err)
	require.Equal(t, int64(25), balance)

	entries, err := loyalty.Transactions(db, 7)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, models.RewardEarnedPromotion, entries[0].Type)
	require.Equal(t, "welcome back", entries[0].Description)
}

func TestPromoteAllCustomers(t *testing.T) {
	db := newTestDB(t)
	h := &LoyaltyHandler{DB: db, JWTSecret: testSecret}
	e := echo.New()
	for _, u := range []models.User{
		{Username: "alice", Role: "customer"},
		{Username: "bob", Role: "customer"},
		{Username: "root", Role: "admin"},
	} {
		require.NoError(t, db.Create(&u).Error)
	}

	rec, c := doJSONRequest(t, e, http.MethodPost, "/api/v1/admin/loyalty/promotions",
		map[string]any{"points": 10, "description": "anniversary"},
		mintCookie(t, 99, "admin"))
	require.NoError(t, h.Promote(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Credited int `json:"credited"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Credited)

	// admins get nothing
	balance, err := loyalty.Balance(db, 3)
	require.NoError(t, err)
	require.Zero(t, balance)
}

func TestPromoteRejectsNonPositivePoints(t *testing.T) {
	db := newTestDB(t)
	h := &LoyaltyHandler{DB: db, JWTSecret: testSecret}
	e := echo.New()

	_, c := doJSONRequest(t, e, http.MethodPost, "/api/v1/admin/loyalty/promotions",
		map[string]any{"points": 0}, mintCookie(t, 99, "admin"))
	err := h.Promote(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestAdminOnlyMiddleware(t *testing.T) {
	e := echo.New()
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	mw := AdminOnly(testSecret)(next)

	rec, c := doJSONRequest(t, e, http.MethodGet, "/api/v1/admin/coupons", nil, mintCookie(t, 1, "admin"))
	require.NoError(t, mw(c))
	require.Equal(t, http.StatusOK, rec.Code)

	_, c = doJSONRequest(t, e, http.MethodGet, "/api/v1/admin/coupons", nil, mintCookie(t, 1, "customer"))
	err := mw(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusForbidden, he.Code)

	_, c = doJSONRequest(t, e, http.MethodGet, "/api/v1/admin/coupons", nil)
	err = mw(c)
	he, ok = err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, he.Code)
}
