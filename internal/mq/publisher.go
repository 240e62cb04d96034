package mq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher handles message publishing to RabbitMQ
type Publisher struct {
	conn     *Connection
	channel  *amqp.Channel
	exchange string
	logger   *zap.Logger
}

// NewPublisher creates a new RabbitMQ publisher
func NewPublisher(conn *Connection, exchange string, logger *zap.Logger) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	// Declare exchange
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Publisher{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		logger:   logger,
	}, nil
}

// ConfirmedEvent represents the event published after a reading is
// confirmed
type ConfirmedEvent struct {
	MeasureUUID    string  `json:"measure_uuid"`
	ConfirmedValue float64 `json:"confirmed_value"`
	ConfirmedAt    string  `json:"confirmed_at"`
}

// PublishConfirmedEvent publishes a reading-confirmed event
func (p *Publisher) PublishConfirmedEvent(ctx context.Context, event ConfirmedEvent, routingKey string) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)

	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("published confirmation event",
		zap.String("routing_key", routingKey),
		zap.String("measure_uuid", event.MeasureUUID),
	)

	return nil
}

// Close closes the publisher channel
func (p *Publisher) Close() error {
	if p.channel != nil {
		return p.channel.Close()
	}
	return nil
}

// NopPublisher discards confirmation events. Wired when no broker is
// configured, so the service runs as a plain request/response process.
type NopPublisher struct{}

// PublishConfirmedEvent drops the event.
func (NopPublisher) PublishConfirmedEvent(ctx context.Context, event ConfirmedEvent, routingKey string) error {
	return nil
}
