package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers, matching what storefront clients send.
	decimal.MarshalJSONWithoutQuotes = true
}

// NoSize marks a cart line for a product sold without sizes.
const NoSize = "NO SIZE"

type User struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"displayName"`
	Role        Role       `json:"role"`
	Status      UserStatus `json:"status"`
	Joined      time.Time  `json:"joined"`
}

type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

type UserStatus string

const (
	UserStatusActive   UserStatus = "Active"
	UserStatusInactive UserStatus = "Inactive"
)

type Product struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	Description       string           `json:"description"`
	Category          string           `json:"category"`
	Subcategory       string           `json:"subcategory,omitempty"`
	Brand             string           `json:"brand,omitempty"`
	Price             decimal.Decimal  `json:"price"`
	OriginalPrice     *decimal.Decimal `json:"originalPrice,omitempty"`
	Stock             int              `json:"stock"`
	Images            []string         `json:"images"`
	Sizes             []string         `json:"sizes,omitempty"`
	Features          []string         `json:"features,omitempty"`
	Specifications    []string         `json:"specifications,omitempty"`
	Status            string           `json:"status"`
	Rating            decimal.Decimal  `json:"rating"`
	ReviewCount       int              `json:"reviewCount"`
	SoldCount         int              `json:"soldCount"`
	EstimatedDelivery string           `json:"estimatedDelivery,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

// Validate applies the back-office product form rules.
func (p *Product) Validate() error {
	var fields []string
	if p.Name == "" {
		fields = append(fields, "name")
	}
	if p.Category == "" {
		fields = append(fields, "category")
	}
	if len(fields) > 0 {
		return NewValidationError("required fields missing", fields...)
	}
	if p.Price.IsNegative() {
		return NewValidationError("price must be non-negative", "price")
	}
	if p.Stock < 0 {
		return NewValidationError("stock must be non-negative", "stock")
	}
	return nil
}

// CartItem is one line of a session cart.
type CartItem struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	Price             decimal.Decimal  `json:"price"`
	Quantity          int              `json:"quantity"`
	Size              string           `json:"selectedSize,omitempty"`
	Variant           int              `json:"selectedVariant"`
	Images            []string         `json:"images"`
	OriginalPrice     *decimal.Decimal `json:"originalPrice,omitempty"`
	EstimatedDelivery string           `json:"estimatedDelivery,omitempty"`
}

func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID             string          `json:"id"`
	UserID         string          `json:"userId"`
	Status         OrderStatus     `json:"status"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	Items          []OrderItem     `json:"items"`
	Shipping       *Shipping       `json:"shipping,omitempty"`
	Customer       *Customer       `json:"customer,omitempty"`
	Total          decimal.Decimal `json:"total"`
	IdempotencyKey string          `json:"idempotencyKey,omitempty"`
}

// ShippingCost returns the recorded shipping cost, zero when no shipping was recorded.
func (o *Order) ShippingCost() decimal.Decimal {
	if o.Shipping == nil {
		return decimal.Zero
	}
	return o.Shipping.Cost
}

type OrderItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Size      string          `json:"size"`
	Images    []string        `json:"images"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Shipping struct {
	Method     ShippingMethod  `json:"method"`
	Cost       decimal.Decimal `json:"cost"`
	Address    string          `json:"address"`
	City       string          `json:"city"`
	Country    string          `json:"country"`
	PostalCode string          `json:"postalCode"`
	Notes      string          `json:"notes"`
}

type Customer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

func (s OrderStatus) String() string {
	return string(s)
}

type ShippingMethod string

const (
	ShippingStandard ShippingMethod = "standard"
	ShippingExpress  ShippingMethod = "express"
)

var expressCost = decimal.NewFromInt(15)

func (m ShippingMethod) Valid() bool {
	return m == ShippingStandard || m == ShippingExpress
}

// Cost is the flat shipping fee in the store's base currency.
func (m ShippingMethod) Cost() decimal.Decimal {
	if m == ShippingExpress {
		return expressCost
	}
	return decimal.Zero
}

type Stats struct {
	TotalOrders   int64           `json:"totalOrders"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	TotalUsers    int64           `json:"totalUsers"`
	TotalProducts int64           `json:"totalProducts"`
}
