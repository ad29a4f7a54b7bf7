package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusAccepted  OrderStatus = "accepted"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusAccepted, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID         string      `json:"id"`
	ProductID  string      `json:"product_id"`
	CustomerID string      `json:"customer_id"`
	ArtisanID  string      `json:"artisan_id"`
	Status     OrderStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

type OrderProduct struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	PhotoURL    *string         `json:"photo_url"`
}

// OrderView is an order joined with its product and both parties.
type OrderView struct {
	Order
	Product  OrderProduct `json:"product"`
	Customer Owner        `json:"customer"`
	Artisan  Owner        `json:"artisan"`

	// Actions lists the statuses the viewing artisan may move the order to.
	Actions []OrderStatus `json:"actions,omitempty"`
}
