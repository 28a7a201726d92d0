package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/training-events/internal/logger"
)

const publishTimeout = 5 * time.Second

// Publisher sends JSON events to durable queues on the default exchange.
// Each call dials its own connection; publishing is rare enough that a
// pooled channel is not worth the reconnect handling.
type Publisher struct {
	url string
	log *logger.Logger
}

func NewPublisher(url string, log *logger.Logger) *Publisher {
	if log == nil {
		log = logger.Nop()
	}
	return &Publisher{url: url, log: log}
}

// Publish declares queue and publishes event to it as a persistent message.
// Errors are logged and returned; callers decide whether they are fatal.
func (p *Publisher) Publish(ctx context.Context, queue string, event any) error {
	msg, err := newPublishing(event, time.Now().UTC())
	if err != nil {
		p.log.Error("marshal event failed", "queue", queue, "error", err)
		return err
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn("rabbitmq dial failed", "queue", queue, "error", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("rabbitmq channel open failed", "queue", queue, "error", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		p.log.Warn("rabbitmq queue declare failed", "queue", queue, "error", err)
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := ch.PublishWithContext(ctx, "", queue, false, false, msg); err != nil {
		p.log.Warn("rabbitmq publish failed", "queue", queue, "error", err)
		return err
	}
	p.log.Debug("event published", "queue", queue)
	return nil
}

func newPublishing(event any, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    now,
		Body:         body,
	}, nil
}
