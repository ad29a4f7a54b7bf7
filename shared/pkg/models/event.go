package models

import (
	"time"

	"github.com/google/uuid"
)

type Event[T any] struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Version int       `json:"version"`
	Time    time.Time `json:"time"`
	OrderID string    `json:"order_id"`
	Payload T         `json:"payload"`
}

const (
	EventOrderCreated   = "orders.created"
	EventOrderAccepted  = "order.accepted"
	EventOrderCompleted = "order.completed"
	EventOrderCancelled = "order.cancelled"
)

// OrderEventPayload carries both parties so consumers need no lookups.
type OrderEventPayload struct {
	ProductID  string      `json:"product_id"`
	CustomerID string      `json:"customer_id"`
	ArtisanID  string      `json:"artisan_id"`
	Status     OrderStatus `json:"status"`
	Previous   OrderStatus `json:"previous,omitempty"`
}

// EventTypeForStatus maps an order status to the routing key announcing it.
func EventTypeForStatus(s OrderStatus) string {
	switch s {
	case OrderStatusPending:
		return EventOrderCreated
	case OrderStatusAccepted:
		return EventOrderAccepted
	case OrderStatusCompleted:
		return EventOrderCompleted
	case OrderStatusCancelled:
		return EventOrderCancelled
	default:
		return ""
	}
}

func NewOrderEvent(o Order, previous OrderStatus) Event[OrderEventPayload] {
	return Event[OrderEventPayload]{
		ID:      uuid.NewString(),
		Type:    EventTypeForStatus(o.Status),
		Version: 1,
		Time:    time.Now().UTC(),
		OrderID: o.ID,
		Payload: OrderEventPayload{
			ProductID:  o.ProductID,
			CustomerID: o.CustomerID,
			ArtisanID:  o.ArtisanID,
			Status:     o.Status,
			Previous:   previous,
		},
	}
}
