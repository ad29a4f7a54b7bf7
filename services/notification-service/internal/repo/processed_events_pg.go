package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ProcessedEventsPG struct {
	DB *pgxpool.Pool
}

// Once runs fn unless eventID was already processed. The processed mark
// commits only when fn succeeds, so a failed run is retried later.
func (r *ProcessedEventsPG) Once(ctx context.Context, eventID, eventType, orderID string, fn func(context.Context) error) (duplicate bool, err error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `
		insert into processed_events(event_id, event_type, order_id)
		values ($1::uuid, $2, $3::uuid)
		on conflict (event_id) do nothing
	`, eventID, eventType, orderID)
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() == 0 {
		return true, nil
	}
	if err := fn(ctx); err != nil {
		return false, err
	}
	return false, tx.Commit(ctx)
}
