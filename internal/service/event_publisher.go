package service

import (
	"context"
	"fmt"
	"time"

	"github.com/prohmpiriya/rental-booking/internal/domain"
	"github.com/prohmpiriya/rental-booking/pkg/kafka"
	"github.com/prohmpiriya/rental-booking/pkg/rabbitmq"
)

// EventPublisher relays stored outbox messages to a broker
type EventPublisher interface {
	// Publish sends one outbox message and waits for the broker acknowledgement
	Publish(ctx context.Context, msg *domain.OutboxMessage) error

	// Close closes the event publisher
	Close() error
}

// EventPublisherConfig contains configuration for the Kafka event publisher
type EventPublisherConfig struct {
	Brokers     []string
	ServiceName string
	ClientID    string
}

// KafkaEventPublisher implements EventPublisher using Kafka
type KafkaEventPublisher struct {
	producer    *kafka.Producer
	serviceName string
}

// NewKafkaEventPublisher creates a new Kafka event publisher
func NewKafkaEventPublisher(ctx context.Context, cfg *EventPublisherConfig) (*KafkaEventPublisher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("event publisher config is required")
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "rental-booking"
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = serviceName + "-outbox"
	}

	producerCfg := kafka.DefaultProducerConfig()
	producerCfg.Brokers = cfg.Brokers
	producerCfg.ClientID = clientID

	producer, err := kafka.NewProducer(ctx, producerCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return NewKafkaEventPublisherWithProducer(producer, serviceName), nil
}

// NewKafkaEventPublisherWithProducer wraps an existing producer
func NewKafkaEventPublisherWithProducer(producer *kafka.Producer, serviceName string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, serviceName: serviceName}
}

// Producer exposes the underlying producer so the DLQ can share the connection
func (p *KafkaEventPublisher) Producer() *kafka.Producer {
	return p.producer
}

// Publish produces the message keyed by its partition key
func (p *KafkaEventPublisher) Publish(ctx context.Context, msg *domain.OutboxMessage) error {
	return p.producer.Produce(ctx, &kafka.Message{
		Topic:     msg.Topic,
		Key:       []byte(msg.PartitionKey),
		Value:     msg.Payload,
		Headers:   publishHeaders(msg, p.serviceName),
		Timestamp: msg.CreatedAt,
	})
}

// Close closes the Kafka producer
func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		p.producer.Close()
	}
	return nil
}

// RabbitMQEventPublisher implements EventPublisher on a RabbitMQ topic exchange.
// The event type is the routing key.
type RabbitMQEventPublisher struct {
	publisher   *rabbitmq.Publisher
	serviceName string
}

// NewRabbitMQEventPublisher wraps a RabbitMQ publisher
func NewRabbitMQEventPublisher(publisher *rabbitmq.Publisher, serviceName string) *RabbitMQEventPublisher {
	return &RabbitMQEventPublisher{publisher: publisher, serviceName: serviceName}
}

// Publish sends the message with its event type as routing key
func (p *RabbitMQEventPublisher) Publish(ctx context.Context, msg *domain.OutboxMessage) error {
	return p.publisher.Publish(ctx, msg.EventType, msg.ID, msg.Payload, publishHeaders(msg, p.serviceName))
}

// Close closes the RabbitMQ connection
func (p *RabbitMQEventPublisher) Close() error {
	if p.publisher != nil {
		return p.publisher.Close()
	}
	return nil
}

// NoOpEventPublisher is a no-op implementation of EventPublisher
type NoOpEventPublisher struct{}

// NewNoOpEventPublisher creates a new no-op event publisher
func NewNoOpEventPublisher() *NoOpEventPublisher {
	return &NoOpEventPublisher{}
}

func (p *NoOpEventPublisher) Publish(ctx context.Context, msg *domain.OutboxMessage) error {
	return nil
}

func (p *NoOpEventPublisher) Close() error {
	return nil
}

func publishHeaders(msg *domain.OutboxMessage, serviceName string) map[string]string {
	headers := msg.Headers()
	headers["source"] = serviceName
	headers["published_at"] = time.Now().UTC().Format(time.RFC3339)
	return headers
}

// Ensure implementations satisfy EventPublisher
var (
	_ EventPublisher = (*KafkaEventPublisher)(nil)
	_ EventPublisher = (*RabbitMQEventPublisher)(nil)
	_ EventPublisher = (*NoOpEventPublisher)(nil)
)
