package rabbit

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeEvents = "orders.events"
	ExchangeRetry  = "orders.retry"
	ExchangeDLX    = "orders.dlx"

	headerAttempts = "x-attempts"

	publishTimeout = 5 * time.Second
)

type Conn struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

// Connect dials the broker, opens one channel and declares the shared exchanges.
func Connect(url string) (*Conn, error) {
	c, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := c.Channel()
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	for _, name := range []string{ExchangeEvents, ExchangeRetry, ExchangeDLX} {
		if err := ch.ExchangeDeclare(name, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			_ = c.Close()
			return nil, fmt.Errorf("declare exchange %s: %w", name, err)
		}
	}
	return &Conn{Conn: c, Ch: ch}, nil
}

func (c *Conn) Close() error {
	if c.Ch != nil {
		_ = c.Ch.Close()
	}
	if c.Conn != nil {
		return c.Conn.Close()
	}
	return nil
}

// Topology describes one consumer: its work queue bound to Keys on the events
// exchange, a dead-letter queue, and one delay queue per key that returns
// messages to the events exchange after RetryDelay.
type Topology struct {
	Service    string
	Queue      string
	Keys       []string
	RetryDelay time.Duration
	Prefetch   int
}

func (t Topology) DLQKey() string             { return t.Queue + ".dlq" }
func (t Topology) RetryKey(key string) string { return t.Service + "." + key }

func (t Topology) retryQueue(key string) string {
	return fmt.Sprintf("%s.retry.%s.%s", t.Service, key, t.RetryDelay)
}

// Declare creates every queue and binding of t. It is idempotent.
func (t Topology) Declare(ch *amqp.Channel) error {
	dlq := t.DLQKey()
	if _, err := ch.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", dlq, err)
	}
	if err := ch.QueueBind(dlq, dlq, ExchangeDLX, false, nil); err != nil {
		return fmt.Errorf("bind %s: %w", dlq, err)
	}

	args := amqp.Table{
		"x-dead-letter-exchange":    ExchangeDLX,
		"x-dead-letter-routing-key": dlq,
	}
	if _, err := ch.QueueDeclare(t.Queue, true, false, false, false, args); err != nil {
		return fmt.Errorf("declare %s: %w", t.Queue, err)
	}
	for _, key := range t.Keys {
		if err := ch.QueueBind(t.Queue, key, ExchangeEvents, false, nil); err != nil {
			return fmt.Errorf("bind %s to %s: %w", t.Queue, key, err)
		}
		rq := t.retryQueue(key)
		delay := amqp.Table{
			"x-message-ttl":             int32(t.RetryDelay / time.Millisecond),
			"x-dead-letter-exchange":    ExchangeEvents,
			"x-dead-letter-routing-key": key,
		}
		if _, err := ch.QueueDeclare(rq, true, false, false, false, delay); err != nil {
			return fmt.Errorf("declare %s: %w", rq, err)
		}
		if err := ch.QueueBind(rq, t.RetryKey(key), ExchangeRetry, false, nil); err != nil {
			return fmt.Errorf("bind %s: %w", rq, err)
		}
	}
	return nil
}

// Consume starts an unacknowledged consumer on t.Queue.
func (t Topology) Consume(ctx context.Context, ch *amqp.Channel) (<-chan amqp.Delivery, error) {
	if t.Prefetch > 0 {
		if err := ch.Qos(t.Prefetch, 0, false); err != nil {
			return nil, fmt.Errorf("qos: %w", err)
		}
	}
	return ch.ConsumeWithContext(ctx, t.Queue, "", false, false, false, false, nil)
}

type Publisher struct {
	ch       *amqp.Channel
	exchange string
}

func NewPublisher(ch *amqp.Channel, exchange string) *Publisher {
	return &Publisher{ch: ch, exchange: exchange}
}

// Publish sends a persistent JSON message. A zero-deadline ctx gets a short timeout.
func (p *Publisher) Publish(ctx context.Context, routingKey string, body []byte, headers amqp.Table) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, publishTimeout)
		defer cancel()
	}
	return p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
		Headers:      headers,
		Timestamp:    time.Now(),
	})
}

// Sender is the publishing side needed to redeliver a message.
type Sender interface {
	Publish(ctx context.Context, routingKey string, body []byte, headers amqp.Table) error
}

// Attempts reads the delivery attempt counter set by Redeliver.
func Attempts(h amqp.Table) int32 {
	switch t := h[headerAttempts].(type) {
	case int32:
		return t
	case int64:
		return int32(t)
	case int:
		return int32(t)
	}
	return 0
}

// Redeliver routes failed deliveries of one Topology to its delay queues,
// or to the dead-letter queue once MaxAttempts is spent.
type Redeliver struct {
	Topology    Topology
	Retry       Sender
	Dead        Sender
	MaxAttempts int32
}

// Decide returns whether a message failing for the attempts-th time is
// retried, and the routing key it is sent with.
func (r Redeliver) Decide(routingKey string, attempts int32, poison bool) (retry bool, key string) {
	if !poison && attempts <= r.MaxAttempts {
		return true, r.Topology.RetryKey(routingKey)
	}
	return false, r.Topology.DLQKey()
}

// Fail acks d and republishes it with an incremented attempt counter.
// Poison messages skip the retry path.
func (r Redeliver) Fail(ctx context.Context, d amqp.Delivery, poison bool) error {
	attempts := Attempts(d.Headers) + 1
	h := amqp.Table{}
	for k, v := range d.Headers {
		h[k] = v
	}
	h[headerAttempts] = attempts

	_ = d.Ack(false)
	retry, key := r.Decide(d.RoutingKey, attempts, poison)
	if retry {
		return r.Retry.Publish(ctx, key, d.Body, h)
	}
	return r.Dead.Publish(ctx, key, d.Body, h)
}
