package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tienda-be/internal/logger"

	amqp "github.com/streadway/amqp"
)

const orderApprovedQueue = "order.approved"

// Publisher pushes order lifecycle events to the broker for downstream
// fulfillment (the process that moves deliveries to in_transit and
// delivered).
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewPublisher(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		orderApprovedQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s queue: %w", orderApprovedQueue, err)
	}

	logger.L().Info("RabbitMQ publisher connected")

	return &Publisher{conn: conn, channel: ch}, nil
}

type orderApprovedEvent struct {
	Reference  string    `json:"reference"`
	ApprovedAt time.Time `json:"approved_at"`
}

func (p *Publisher) OrderApproved(ctx context.Context, reference string) error {
	body, err := json.Marshal(orderApprovedEvent{
		Reference:  reference,
		ApprovedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	return p.channel.Publish(
		"",                 // default exchange
		orderApprovedQueue, // routing key
		false,              // mandatory
		false,              // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

func (p *Publisher) Close() error {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			return fmt.Errorf("failed to close channel: %w", err)
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("failed to close connection: %w", err)
		}
	}
	return nil
}
