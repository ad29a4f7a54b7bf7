package orders

import (
	"fmt"

	"artisanhub/services/marketplace-api/internal/apperr"
	"artisanhub/shared/pkg/models"
)

var ErrInvalidTransition = fmt.Errorf("invalid status transition: %w", apperr.ErrConflict)

var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:  {models.OrderStatusAccepted, models.OrderStatusCancelled},
	models.OrderStatusAccepted: {models.OrderStatusCompleted},
}

// CanTransition allows pending -> accepted|cancelled and accepted -> completed.
// Completed and cancelled are terminal.
func CanTransition(from, to models.OrderStatus) error {
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%s -> %s: %w", from, to, ErrInvalidTransition)
}

// Next lists the statuses reachable from s. It is empty for terminal states.
func Next(s models.OrderStatus) []models.OrderStatus {
	return append([]models.OrderStatus{}, transitions[s]...)
}
