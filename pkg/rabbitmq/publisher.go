package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// PublisherConfig holds RabbitMQ publisher configuration
type PublisherConfig struct {
	URL      string
	Exchange string
	// ConfirmTimeout bounds the wait for a broker confirm
	ConfirmTimeout time.Duration
}

// Publisher publishes persistent messages to a durable topic exchange with publisher confirms.
// Routing keys are event types, so consumers bind by pattern (booking.*, availability.*).
type Publisher struct {
	conn    *amqp.Connection
	ch      *amqp.Channel
	config  *PublisherConfig
	mu      sync.Mutex
	confirm chan amqp.Confirmation
}

// NewPublisher dials the broker and declares the exchange
func NewPublisher(cfg *PublisherConfig) (*Publisher, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, fmt.Errorf("rabbitmq url is required")
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = 5 * time.Second
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		cfg.Exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	return &Publisher{
		conn:    conn,
		ch:      ch,
		config:  cfg,
		confirm: ch.NotifyPublish(make(chan amqp.Confirmation, 1)),
	}, nil
}

// Publish sends body under routingKey and waits for the broker confirm
func (p *Publisher) Publish(ctx context.Context, routingKey string, messageID string, body []byte, headers map[string]string) error {
	table := amqp.Table{}
	for k, v := range headers {
		table[k] = v
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.PublishWithContext(ctx, p.config.Exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    messageID,
		Timestamp:    time.Now().UTC(),
		Headers:      table,
		Body:         body,
	}); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", routingKey, err)
	}

	timer := time.NewTimer(p.config.ConfirmTimeout)
	defer timer.Stop()

	select {
	case c, ok := <-p.confirm:
		if !ok {
			return fmt.Errorf("rabbitmq channel closed before confirm")
		}
		if !c.Ack {
			return fmt.Errorf("rabbitmq nacked message %s", messageID)
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("timed out waiting for rabbitmq confirm")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ProduceJSON marshals data and publishes it with topic as routing key
func (p *Publisher) ProduceJSON(ctx context.Context, topic string, key string, data interface{}, headers map[string]string) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return p.Publish(ctx, topic, key, body, headers)
}

// Close closes the channel and connection
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
