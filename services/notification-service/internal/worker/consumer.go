package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"artisanhub/services/notification-service/internal/notify"
	"artisanhub/shared/pkg/models"
	"artisanhub/shared/pkg/rabbit"
)

// Processed guards handlers against redelivered events.
type Processed interface {
	Once(ctx context.Context, eventID, eventType, orderID string, fn func(context.Context) error) (bool, error)
}

var errMalformed = errors.New("malformed event")

type Consumer struct {
	Log       zerolog.Logger
	Processed Processed
	Notifier  notify.Notifier
	Redeliver rabbit.Redeliver
}

func (c *Consumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	c.Log.Info().Msg("notification consumer started")
	for {
		select {
		case <-ctx.Done():
			c.Log.Info().Msg("notification consumer stopped")
			return
		case d, ok := <-deliveries:
			if !ok {
				c.Log.Info().Msg("deliveries closed")
				return
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	err := c.Process(ctx, d.RoutingKey, d.Body)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, errMalformed):
		c.Log.Error().Err(err).Str("rk", d.RoutingKey).Msg("bad event -> dlq")
		c.fail(ctx, d, true)
	default:
		c.Log.Error().Err(err).Str("rk", d.RoutingKey).Int32("attempts", rabbit.Attempts(d.Headers)).Msg("notify failed -> retry/dlq")
		c.fail(ctx, d, false)
	}
}

func (c *Consumer) fail(ctx context.Context, d amqp.Delivery, poison bool) {
	if err := c.Redeliver.Fail(ctx, d, poison); err != nil {
		c.Log.Error().Err(err).Str("rk", d.RoutingKey).Msg("redeliver failed")
	}
}

// Process decodes one event body and delivers its notifications once.
func (c *Consumer) Process(ctx context.Context, routingKey string, body []byte) error {
	var evt models.Event[models.OrderEventPayload]
	if err := json.Unmarshal(body, &evt); err != nil {
		return errors.Join(errMalformed, err)
	}
	if evt.ID == "" || evt.OrderID == "" {
		return errMalformed
	}
	if _, err := uuid.Parse(evt.ID); err != nil {
		return fmt.Errorf("%w: event id: %v", errMalformed, err)
	}
	if _, err := uuid.Parse(evt.OrderID); err != nil {
		return fmt.Errorf("%w: order id: %v", errMalformed, err)
	}
	if evt.Type == "" {
		evt.Type = routingKey
	}

	out := notify.Compose(evt)
	if len(out) == 0 {
		c.Log.Debug().Str("rk", routingKey).Str("type", evt.Type).Msg("no notification for event")
		return nil
	}

	dup, err := c.Processed.Once(ctx, evt.ID, evt.Type, evt.OrderID, func(ctx context.Context) error {
		for _, n := range out {
			if err := c.Notifier.Notify(ctx, n); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if dup {
		c.Log.Debug().Str("event_id", evt.ID).Msg("duplicate event ignored")
	}
	return nil
}
