package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

// ReservationWriter persists a decoded reservation event inside a single
// transaction and returns the internal reservation id.  It must be safe to
// call again with the same event: the uuid is the idempotency key.
type ReservationWriter interface {
    Persist(ctx context.Context, ev *ReservationEvent) (uint64, error)
}

// acknowledger is the slice of amqp.Delivery the handler needs.  Keeping it
// narrow lets tests drive the ack/nack routing without a broker.
type acknowledger interface {
    Ack(multiple bool) error
    Nack(multiple, requeue bool) error
}

// Consumer receives reservation events from RabbitMQ and drives the writer.
// Messages are acknowledged only after the transaction commits; any failure
// results in a negative-acknowledge with requeue so the broker redelivers.
type Consumer struct {
    url      string
    queue    string
    prefetch int
    writer   ReservationWriter
    log      *logrus.Logger
}

// NewConsumer builds a Consumer bound to the given broker URL and queue.
func NewConsumer(url, queue string, prefetch int, writer ReservationWriter, log *logrus.Logger) *Consumer {
    return &Consumer{url: url, queue: queue, prefetch: prefetch, writer: writer, log: log}
}

// Start connects to RabbitMQ, declares the queue (durable), and starts
// consuming messages.  It runs a reconnect loop with capped exponential
// backoff and returns only when ctx is cancelled; transient broker failures
// are logged and retried so the service keeps operating.
func (c *Consumer) Start(ctx context.Context) error {
    backoff := time.Second
    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        default:
        }

        conn, err := amqp.Dial(c.url)
        if err != nil {
            c.log.WithError(err).Warnf("reservation-consumer: failed to dial broker; retrying in %s", backoff)
            time.Sleep(backoff)
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        if err := c.consumeLoop(ctx, conn); err != nil {
            if errors.Is(err, context.Canceled) {
                return err
            }
            c.log.WithError(err).Warn("reservation-consumer: consume loop ended; reconnecting")
            time.Sleep(2 * time.Second)
        }
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(c.prefetch, 0, false); err != nil {
        c.log.WithError(err).Warn("reservation-consumer: set QoS failed")
    }

    if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            c.handleDelivery(ctx, d, d.Body)
        }
    }
}

// handleDelivery decodes and persists one message, then routes the outcome:
// ack after a committed transaction, nack(requeue) on decode or persistence
// failure.  Retry policy lives entirely in the broker's redelivery; nothing
// is retried in-process.
func (c *Consumer) handleDelivery(ctx context.Context, ack acknowledger, body []byte) {
    var ev ReservationEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        c.log.WithError(err).Error("reservation-consumer: decode failed")
        _ = ack.Nack(false, true)
        return
    }
    if ev.UUID == "" {
        c.log.Error("reservation-consumer: event has no uuid")
        _ = ack.Nack(false, true)
        return
    }

    id, err := c.writer.Persist(ctx, &ev)
    if err != nil {
        c.log.WithField("uuid", ev.UUID).WithError(err).Error("reservation-consumer: persist failed")
        _ = ack.Nack(false, true)
        return
    }

    c.log.WithFields(logrus.Fields{"uuid": ev.UUID, "reservation_id": id}).Info("reservation-consumer: persisted")
    _ = ack.Ack(false)
}
