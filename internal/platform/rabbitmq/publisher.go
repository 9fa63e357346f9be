// Package rabbitmq provides an AMQP-backed implementation of the
// events.Publisher interface.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/tasktrack/tasktrack-api/internal/events"
)

// publishTimeout bounds a single broker publish when the caller's
// context has no deadline of its own.
const publishTimeout = 10 * time.Second

// Publisher delivers task events to a RabbitMQ topic exchange.
type Publisher struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *slog.Logger
}

// Ensure Publisher implements the events.Publisher interface.
var _ events.Publisher = (*Publisher)(nil)

// NewPublisher dials the broker, opens a channel and declares the
// target exchange. The returned Publisher must be closed with Close.
func NewPublisher(url, exchange, routingKey string, logger *slog.Logger) (*Publisher, error) {
	if url == "" {
		return nil, fmt.Errorf("rabbitmq: broker URL cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: failed to dial broker: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: failed to declare exchange %q: %w", exchange, err)
	}

	return &Publisher{
		conn:       conn,
		channel:    channel,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     logger.With(slog.String("component", "rabbitmq_publisher")),
	}, nil
}

// PublishTaskCreated publishes the event as a persistent JSON message.
func (p *Publisher) PublishTaskCreated(ctx context.Context, event *events.TaskCreatedEvent) error {
	if p.channel == nil || p.conn == nil || p.conn.IsClosed() {
		return fmt.Errorf("rabbitmq: publisher is not connected")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("rabbitmq: failed to marshal event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.channel.PublishWithContext(
		publishCtx,
		p.exchange,
		p.routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID.String(),
			Timestamp:    event.CreatedAt,
		},
	)
	if err != nil {
		return fmt.Errorf("rabbitmq: failed to publish event %s: %w", event.ID, err)
	}

	p.logger.Debug("published task created event",
		slog.String("event_id", event.ID.String()),
		slog.String("task_id", event.TaskID.String()),
		slog.String("routing_key", p.routingKey))
	return nil
}

// Close closes the channel and the underlying connection.
func (p *Publisher) Close() error {
	var firstErr error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			firstErr = err
		}
		p.channel = nil
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		p.conn = nil
	}
	return firstErr
}
