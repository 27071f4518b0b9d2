package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/feastly/food_ordering/internal/handlers"
	"github.com/feastly/food_ordering/internal/handlers/cart"
)

type Deps struct {
	DB                *gorm.DB
	JWTSecret         []byte
	ProductHandler    *handlers.ProductHandler
	RestaurantHandler *handlers.RestaurantHandler
	CartHandler       *cart.CartHandler
	OrderHandler      *handlers.OrderHandler
	LoyaltyHandler    *handlers.LoyaltyHandler
	CouponHandler     *handlers.CouponHandler
	BonusHandler      *handlers.BonusHandler
	AccountHandler    *handlers.AccountHandler
	SearchHandler     *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	v1.GET("/search", d.SearchHandler.Search)

	v1.GET("/restaurants", d.RestaurantHandler.GetRestaurants)
	v1.GET("/restaurants/:id", d.RestaurantHandler.GetRestaurant)

	products := v1.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/:id", d.ProductHandler.GetProduct)

	cartGroup := v1.Group("/cart")
	cartGroup.GET("", d.CartHandler.GetCart)
	cartGroup.POST("", d.CartHandler.AddToCart)
	cartGroup.DELETE("/:id", d.CartHandler.DeleteOneFromCart)
	cartGroup.DELETE("/:id/all", d.CartHandler.DeleteAllFromCart)

	ordersGroup := v1.Group("/orders")
	ordersGroup.POST("", d.OrderHandler.PlaceOrder)
	ordersGroup.GET("", d.OrderHandler.GetOrders)
	ordersGroup.GET("/:id", d.OrderHandler.GetOrder)

	loyalty := v1.Group("/loyalty")
	loyalty.GET("/balance", d.LoyaltyHandler.GetBalance)
	loyalty.GET("/transactions", d.LoyaltyHandler.GetTransactions)
	loyalty.POST("/redeem", d.LoyaltyHandler.Redeem)

	account := v1.Group("/account")
	account.POST("/addresses", d.AccountHandler.CreateAddress)
	account.GET("/addresses", d.AccountHandler.GetAddresses)
	account.POST("/payment-methods", d.AccountHandler.CreatePaymentMethod)
	account.GET("/payment-methods", d.AccountHandler.GetPaymentMethods)

	admin := v1.Group("/admin", handlers.AdminOnly(d.JWTSecret))

	admin.POST("/restaurants", d.RestaurantHandler.CreateRestaurant)

	admin.POST("/products", d.ProductHandler.CreateProduct)
	admin.PATCH("/products/:id", d.ProductHandler.PatchProduct)
	admin.DELETE("/products/:id", d.ProductHandler.DeleteProduct)
	admin.POST("/products/:id/restock", d.ProductHandler.Restock)

	admin.POST("/orders/:id/status", d.OrderHandler.TransitionStatus)

	admin.POST("/coupons", d.CouponHandler.CreateCoupon)
	admin.GET("/coupons", d.CouponHandler.GetCoupons)
	admin.DELETE("/coupons/:id", d.CouponHandler.DeleteCoupon)

	admin.POST("/happy-hours", d.BonusHandler.CreateHappyHour)
	admin.DELETE("/happy-hours/:id", d.BonusHandler.DeleteHappyHour)
	admin.POST("/category-bonuses", d.BonusHandler.CreateCategoryBonus)
	admin.DELETE("/category-bonuses/:id", d.BonusHandler.DeleteCategoryBonus)

	admin.POST("/loyalty/promotions", d.LoyaltyHandler.Promote)
}
