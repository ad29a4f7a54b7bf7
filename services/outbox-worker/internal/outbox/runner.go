package outbox

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"artisanhub/services/outbox-worker/internal/metrics"
	"artisanhub/shared/pkg/rabbit"
)

// Publisher is the bus side of the relay.
type Publisher = rabbit.Sender

type Runner struct {
	Log zerolog.Logger
	DB  *pgxpool.Pool
	Pub Publisher

	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	BackoffMax   time.Duration

	now func() time.Time
}

type EventRow struct {
	ID        string
	OrderID   string
	EventType string
	Payload   []byte
	Attempts  int
}

// Action is what the relay does with a row after one delivery attempt.
type Action int

const (
	ActionSent Action = iota
	ActionRetry
	ActionDrop
)

// Outcome describes the row update that follows a delivery attempt.
type Outcome struct {
	Action Action
	Next   time.Time
	Err    error
}

func (r *Runner) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

func (r *Runner) Run(ctx context.Context) {
	t := time.NewTicker(r.PollInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Log.Info().Msg("outbox runner stopped")
			return
		case <-t.C:
			if err := r.tick(ctx); err != nil {
				r.Log.Error().Err(err).Msg("outbox tick failed")
			}
		}
	}
}

func (r *Runner) tick(ctx context.Context) error {
	if n, err := Pending(ctx, r.DB); err == nil {
		metrics.OutboxPending.Set(float64(n))
	}

	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch, err := claim(ctx, tx, r.BatchSize)
	if err != nil {
		return err
	}

	for _, e := range batch {
		out := r.Deliver(ctx, e)
		if err := record(ctx, tx, e, out); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// claim locks a batch of due rows so that concurrent relays skip them.
func claim(ctx context.Context, tx pgx.Tx, limit int) ([]EventRow, error) {
	rows, err := tx.Query(ctx, `
		select id::text, order_id::text, event_type, payload::text, attempts
		from outbox_events
		where sent_at is null and next_attempt_at <= now()
		order by created_at
		limit $1
		for update skip locked
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batch []EventRow
	for rows.Next() {
		var e EventRow
		var payload string
		if err := rows.Scan(&e.ID, &e.OrderID, &e.EventType, &payload, &e.Attempts); err != nil {
			return nil, err
		}
		e.Payload = []byte(payload)
		batch = append(batch, e)
	}
	return batch, rows.Err()
}

// Deliver publishes one row and decides how the row is updated.
func (r *Runner) Deliver(ctx context.Context, e EventRow) Outcome {
	if e.Attempts >= r.MaxAttempts {
		metrics.OutboxDroppedTotal.Inc()
		r.Log.Warn().Str("id", e.ID).Int("attempts", e.Attempts).Msg("outbox drop (max attempts), marked sent")
		return Outcome{Action: ActionDrop}
	}

	err := r.Pub.Publish(ctx, e.EventType, e.Payload, amqp.Table{
		"x-outbox-id": e.ID,
		"x-order-id":  e.OrderID,
	})

	if err == nil {
		metrics.OutboxSentTotal.WithLabelValues(e.EventType).Inc()
		r.Log.Debug().Str("id", e.ID).Str("type", e.EventType).Msg("outbox event published")
		return Outcome{Action: ActionSent}
	}

	metrics.OutboxPublishErrorsTotal.Inc()
	next := r.clock().Add(Backoff(e.Attempts+1, r.BackoffMax))
	r.Log.Error().Err(err).
		Str("id", e.ID).
		Str("type", e.EventType).
		Int("attempts", e.Attempts+1).
		Time("next", next).
		Msg("publish failed -> retry scheduled")
	return Outcome{Action: ActionRetry, Next: next, Err: err}
}

func record(ctx context.Context, tx pgx.Tx, e EventRow, out Outcome) error {
	var err error
	switch out.Action {
	case ActionSent:
		_, err = tx.Exec(ctx, `update outbox_events set sent_at=now(), last_error=null where id=$1`, e.ID)
	case ActionDrop:
		_, err = tx.Exec(ctx, `update outbox_events set sent_at=now(), last_error=$2 where id=$1`, e.ID, "max attempts reached")
	case ActionRetry:
		_, err = tx.Exec(ctx, `
			update outbox_events
			set attempts = attempts + 1,
			    next_attempt_at = $2,
			    last_error = $3
			where id = $1
		`, e.ID, out.Next, out.Err.Error())
	}
	return err
}

// Pending counts rows that have not been published yet.
func Pending(ctx context.Context, db *pgxpool.Pool) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	var n int
	err := db.QueryRow(ctx, `select count(*) from outbox_events where sent_at is null`).Scan(&n)
	return n, err
}

// Backoff doubles per attempt, clamped to [1s, max].
func Backoff(attempt int, max time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 30 {
		return max
	}
	d := time.Duration(1<<attempt) * time.Second
	if d > max {
		return max
	}
	return d
}
