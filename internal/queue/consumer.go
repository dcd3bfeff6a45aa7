package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AuditConsumer drains the domain event queues into a dedicated audit log.
type AuditConsumer struct {
	URL   string
	Audit *zap.Logger // one JSON line per event
	Log   *zap.Logger // connection problems
}

// Run connects to the broker and consumes until ctx is cancelled. Lost
// connections are retried with exponential backoff capped at 30s.
func (a *AuditConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(a.URL)
		if err != nil {
			a.Log.Warn("audit consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = a.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		a.Log.Warn("audit consumer: consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (a *AuditConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		a.Log.Warn("audit consumer: set QoS failed", zap.Error(err))
	}

	products, err := declareAndConsume(ch, ProductChangedQueue)
	if err != nil {
		return err
	}
	subs, err := declareAndConsume(ch, SubscriptionUpdatedQueue)
	if err != nil {
		return err
	}

	for {
		var (
			d  amqp.Delivery
			ok bool
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok = <-products:
		case d, ok = <-subs:
		}
		if !ok {
			return errors.New("deliveries channel closed")
		}
		if err := handleMessage(a.Audit, d.RoutingKey, d.Body); err != nil {
			a.Log.Error("audit consumer: handle message failed", zap.String("queue", d.RoutingKey), zap.Error(err))
			_ = d.Nack(false, false) // do not requeue malformed payloads
			continue
		}
		_ = d.Ack(false)
	}
}

func declareAndConsume(ch *amqp.Channel, queue string) (<-chan amqp.Delivery, error) {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("queue declare %s: %w", queue, err)
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("queue consume %s: %w", queue, err)
	}
	return msgs, nil
}

// handleMessage decodes body according to queue and writes one audit entry.
func handleMessage(audit *zap.Logger, queue string, body []byte) error {
	switch queue {
	case ProductChangedQueue:
		var ev ProductChangedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		if ev.ProductID == 0 || ev.Action == "" {
			return errors.New("product event without id or action")
		}
		audit.Info("product "+ev.Action,
			zap.Uint64("product_id", ev.ProductID),
			zap.Uint64("pharmacy_owner_id", ev.OwnerID),
			zap.String("name", ev.Name),
			zap.String("category", ev.Category),
			zap.Time("at", ev.At),
		)
	case SubscriptionUpdatedQueue:
		var ev SubscriptionUpdatedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		fields := []zap.Field{
			zap.Uint64("pharmacy_owner_id", ev.PharmacyID),
			zap.Uint64("user_id", ev.UserID),
			zap.String("plan_type", ev.PlanType),
			zap.Time("at", ev.At),
		}
		if ev.ExpiresAt != nil {
			fields = append(fields, zap.Time("expires_at", *ev.ExpiresAt))
		}
		audit.Info("subscription updated", fields...)
	default:
		return fmt.Errorf("unexpected queue %q", queue)
	}
	return nil
}
