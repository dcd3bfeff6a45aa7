// Package service publishes domain events to RabbitMQ. Publish failures are
// logged and returned so callers can ignore them without failing the request
// that produced the event.
package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/pharmacy-marketplace/internal/metrics"
	"github.com/iliyamo/pharmacy-marketplace/internal/queue"
)

// EventPublisher is what handlers use to announce domain changes.
type EventPublisher interface {
	PublishProductChanged(ctx context.Context, ev queue.ProductChangedEvent) error
	PublishSubscriptionUpdated(ctx context.Context, ev queue.SubscriptionUpdatedEvent) error
}

// NewEventPublisher returns an AMQP publisher, or a no-op one when the
// broker is disabled.
func NewEventPublisher(enabled bool, url string, log *zap.Logger) EventPublisher {
	if !enabled {
		return NopPublisher{}
	}
	return &AMQPPublisher{URL: url, Log: log}
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishProductChanged(context.Context, queue.ProductChangedEvent) error {
	return nil
}

func (NopPublisher) PublishSubscriptionUpdated(context.Context, queue.SubscriptionUpdatedEvent) error {
	return nil
}

// AMQPPublisher opens a connection per event. Event volume is a few
// messages per write request, so no pooling is done.
type AMQPPublisher struct {
	URL string
	Log *zap.Logger
}

func (p *AMQPPublisher) PublishProductChanged(ctx context.Context, ev queue.ProductChangedEvent) error {
	return p.publish(ctx, queue.ProductChangedQueue, ev)
}

func (p *AMQPPublisher) PublishSubscriptionUpdated(ctx context.Context, ev queue.SubscriptionUpdatedEvent) error {
	return p.publish(ctx, queue.SubscriptionUpdatedQueue, ev)
}

func (p *AMQPPublisher) publish(ctx context.Context, name string, event any) (err error) {
	defer func() {
		metrics.EventPublished(name, err)
		if err != nil {
			p.Log.Warn("rabbitmq: publish failed", zap.String("queue", name), zap.Error(err))
		}
	}()

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	// idempotent; durable so messages survive broker restarts
	if _, err = ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		return err
	}

	return ch.PublishWithContext(ctx,
		"",    // default exchange
		name,  // routing key = queue name
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}
