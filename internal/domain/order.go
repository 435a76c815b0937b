package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus enumerates fulfillment states. Only the initial state is set here.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// CartItem is a single checkout line.
type CartItem struct {
	ProductID string
	Quantity  int
}

// ShippingInfo is the delivery address captured at checkout.
type ShippingInfo struct {
	Recipient  string `json:"recipient"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

// Order is one committed cart line. Total is captured at order time.
type Order struct {
	ID            string
	ProductID     string
	BuyerID       string
	Quantity      int
	UnitPrice     decimal.Decimal
	Total         decimal.Decimal
	Shipping      ShippingInfo
	PaymentMethod string
	Status        OrderStatus
	CreatedAt     time.Time
}
