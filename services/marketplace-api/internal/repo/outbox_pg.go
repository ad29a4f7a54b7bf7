package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"artisanhub/shared/pkg/models"
)

type OutboxPG struct{}

// Enqueue writes evt to outbox_events inside tx so it commits with the order change.
func (o *OutboxPG) Enqueue(ctx context.Context, tx pgx.Tx, evt models.Event[models.OrderEventPayload]) error {
	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		insert into outbox_events(
			id, order_id, event_type, payload,
			attempts, next_attempt_at, created_at
		)
		values (
			$1::uuid, $2::uuid, $3, $4::jsonb,
			0, now(), now()
		)
	`, evt.ID, evt.OrderID, evt.Type, string(b))
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", evt.Type, err)
	}
	return nil
}
