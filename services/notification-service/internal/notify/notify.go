// Package notify turns order events into messages for the parties involved.
package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"artisanhub/shared/pkg/models"
)

type Notification struct {
	RecipientID string
	Role        models.Role
	OrderID     string
	EventType   string
	Subject     string
	Body        string
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Compose returns the notifications owed for evt. Unknown event types yield none.
func Compose(evt models.Event[models.OrderEventPayload]) []Notification {
	p := evt.Payload
	toCustomer := func(subject, body string) []Notification {
		return []Notification{{
			RecipientID: p.CustomerID,
			Role:        models.RoleCustomer,
			OrderID:     evt.OrderID,
			EventType:   evt.Type,
			Subject:     subject,
			Body:        body,
		}}
	}

	switch evt.Type {
	case models.EventOrderCreated:
		return []Notification{{
			RecipientID: p.ArtisanID,
			Role:        models.RoleArtisan,
			OrderID:     evt.OrderID,
			EventType:   evt.Type,
			Subject:     "New order",
			Body:        fmt.Sprintf("A customer ordered product %s.", p.ProductID),
		}}
	case models.EventOrderAccepted:
		return toCustomer("Order accepted", "The artisan accepted your order.")
	case models.EventOrderCompleted:
		return toCustomer("Order completed", "Your order is complete.")
	case models.EventOrderCancelled:
		return toCustomer("Order cancelled", "The artisan cancelled your order.")
	default:
		return nil
	}
}

// LogNotifier writes notifications to the service log.
type LogNotifier struct {
	Log zerolog.Logger
}

func (l LogNotifier) Notify(_ context.Context, n Notification) error {
	l.Log.Info().
		Str("recipient_id", n.RecipientID).
		Str("role", string(n.Role)).
		Str("order_id", n.OrderID).
		Str("type", n.EventType).
		Str("subject", n.Subject).
		Msg(n.Body)
	return nil
}
