package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username string `gorm:"unique;not null"          json:"username"`
	Role     string `gorm:"not null;default:customer" json:"role"`
}

type Restaurant struct {
	ID          uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string  `gorm:"not null"                 json:"name"`
	DeliveryFee float64 `gorm:"not null"                 json:"delivery_fee"`
	Categories  string  `gorm:"not null;default:''"      json:"categories"`
}

// CategoryList returns the restaurant's categories in declaration order.
// The order matters: category bonuses apply to the first matching entry.
func (r *Restaurant) CategoryList() []string {
	var out []string
	for _, c := range strings.Split(r.Categories, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

type Product struct {
	ID           uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	RestaurantID uint    `gorm:"index;not null"           json:"restaurant_id"`
	Name         string  `gorm:"not null"                 json:"name"`
	Description  string  `gorm:"not null"                 json:"description"`
	Price        float64 `gorm:"not null"                 json:"price"`
	Count        uint    `json:"count"`
}

type Cart struct {
	ID           uint `gorm:"primaryKey"           json:"id"`
	UserID       uint `gorm:"uniqueIndex;not null" json:"user_id"`
	RestaurantID uint `json:"restaurant_id"`
}

type CartItem struct {
	ID        uint    `gorm:"primaryKey"                  json:"id"`
	CartID    uint    `gorm:"index;not null"              json:"cart_id"`
	ProductID uint    `gorm:"not null"                    json:"product_id"`
	Quantity  uint    `gorm:"default:1;check:quantity>0"  json:"quantity"`
	UnitPrice float64 `gorm:"not null"                    json:"unit_price"`
}

type Address struct {
	ID     uint   `gorm:"primaryKey"     json:"id"`
	UserID uint   `gorm:"index;not null" json:"user_id"`
	Street string `gorm:"not null"       json:"street"`
	City   string `gorm:"not null"       json:"city"`
	Zip    string `gorm:"not null"       json:"zip"`
}

type PaymentMethod struct {
	ID     uint   `gorm:"primaryKey"     json:"id"`
	UserID uint   `gorm:"index;not null" json:"user_id"`
	Kind   string `gorm:"not null"       json:"kind"`
	Label  string `json:"label"`
}

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "PENDING"
	OrderStatusConfirmed      OrderStatus = "CONFIRMED"
	OrderStatusPreparing      OrderStatus = "PREPARING"
	OrderStatusReadyForPickup OrderStatus = "READY_FOR_PICKUP"
	OrderStatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	OrderStatusDelivered      OrderStatus = "DELIVERED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
	OrderStatusCompensated    OrderStatus = "COMPENSATED"
)

// next step of the fulfillment sequence
var nextStatus = map[OrderStatus]OrderStatus{
	OrderStatusPending:        OrderStatusConfirmed,
	OrderStatusConfirmed:      OrderStatusPreparing,
	OrderStatusPreparing:      OrderStatusReadyForPickup,
	OrderStatusReadyForPickup: OrderStatusOutForDelivery,
	OrderStatusOutForDelivery: OrderStatusDelivered,
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusReadyForPickup, OrderStatusOutForDelivery,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusCompensated:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusDelivered, OrderStatusCancelled, OrderStatusCompensated:
		return true
	}
	return false
}

// CanTransitionTo reports whether next is a legal move: one step forward along
// the fulfillment sequence, or CANCELLED/COMPENSATED from any non-terminal state.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.Terminal() || !next.Valid() {
		return false
	}
	if next == OrderStatusCancelled || next == OrderStatusCompensated {
		return true
	}
	return nextStatus[s] == next
}

type Order struct {
	ID                uint        `gorm:"primaryKey"     json:"id"`
	UserID            uint        `gorm:"index;not null" json:"user_id"`
	RestaurantID      uint        `gorm:"not null"       json:"restaurant_id"`
	CreatedAt         int64       `gorm:"not null"       json:"created_at"`
	Status            OrderStatus `gorm:"not null"       json:"status"`
	Total             float64     `gorm:"not null"       json:"total"`
	BillingAddressID  uint        `gorm:"not null"       json:"billing_address_id"`
	ShippingAddressID uint        `gorm:"not null"       json:"shipping_address_id"`
	PaymentMethodID   uint        `gorm:"not null"       json:"payment_method_id"`
	CouponID          *uint       `json:"coupon_id,omitempty"`
	PointsRedeemed    int64       `gorm:"not null;default:0" json:"points_redeemed"`
	Items             []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

type OrderItem struct {
	ID        uint    `gorm:"primaryKey"                  json:"id"`
	OrderID   uint    `gorm:"index;not null"              json:"order_id"`
	ProductID uint    `gorm:"not null"                    json:"product_id"`
	Quantity  uint    `gorm:"default:1;check:quantity>0"  json:"quantity"`
	UnitPrice float64 `gorm:"not null"                    json:"unit_price"`
}

type CouponType string

const (
	CouponTypeAmount   CouponType = "AMOUNT"
	CouponTypeFreeShip CouponType = "FREE_SHIP"
)

type Coupon struct {
	ID        uint           `gorm:"primaryKey"           json:"id"`
	Code      string         `gorm:"uniqueIndex;not null" json:"code"`
	Type      CouponType     `gorm:"not null"             json:"type"`
	Value     float64        `gorm:"not null;default:0"   json:"value"`
	ExpiresAt time.Time      `gorm:"not null"             json:"expires_at"`
	DeletedAt gorm.DeletedAt `gorm:"index"                json:"-"`
}

type CouponUsage struct {
	ID        uint      `gorm:"primaryKey"                           json:"id"`
	CouponID  uint      `gorm:"not null;uniqueIndex:idx_coupon_user" json:"coupon_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_coupon_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type RewardPoint struct {
	ID      uint  `gorm:"primaryKey"           json:"id"`
	UserID  uint  `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance int64 `gorm:"not null;default:0"   json:"balance"`
}

type RewardTransactionType string

const (
	RewardEarnedDelivery     RewardTransactionType = "EARNED_DELIVERY"
	RewardEarnedCompensation RewardTransactionType = "EARNED_COMPENSATION"
	RewardEarnedPromotion    RewardTransactionType = "EARNED_PROMOTION"
	RewardUsedOrder          RewardTransactionType = "USED_ORDER"
)

// RewardTransaction rows are append-only: every credit or debit adds one and
// nothing ever mutates or deletes them.
type RewardTransaction struct {
	ID          uint                  `gorm:"primaryKey"     json:"id"`
	UserID      uint                  `gorm:"index;not null" json:"user_id"`
	Points      int64                 `gorm:"not null"       json:"points"`
	Type        RewardTransactionType `gorm:"not null"       json:"type"`
	OrderID     *uint                 `json:"order_id,omitempty"`
	Description string                `json:"description"`
	CreatedAt   time.Time             `json:"created_at"`
}

type HappyHour struct {
	ID       uint      `gorm:"primaryKey"            json:"id"`
	Rate     float64   `gorm:"not null"              json:"rate"`
	StartsAt time.Time `gorm:"not null"              json:"starts_at"`
	EndsAt   time.Time `gorm:"not null"              json:"ends_at"`
	Active   bool      `gorm:"not null;default:true" json:"active"`
}

type CategoryBonus struct {
	ID       uint      `gorm:"primaryKey"            json:"id"`
	Category string    `gorm:"index;not null"        json:"category"`
	Rate     float64   `gorm:"not null"              json:"rate"`
	StartsAt time.Time `gorm:"not null"              json:"starts_at"`
	EndsAt   time.Time `gorm:"not null"              json:"ends_at"`
	Active   bool      `gorm:"not null;default:true" json:"active"`
}

// All is the migration set, in FK dependency order.
func All() []interface{} {
	return []interface{}{
		&User{}, &Restaurant{}, &Product{}, &Cart{}, &CartItem{},
		&Address{}, &PaymentMethod{}, &Order{}, &OrderItem{},
		&Coupon{}, &CouponUsage{}, &RewardPoint{}, &RewardTransaction{},
		&HappyHour{}, &CategoryBonus{},
	}
}
