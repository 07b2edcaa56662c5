package di

import (
	"context"
	"fmt"

	"github.com/prohmpiriya/rental-booking/internal/service"
	"github.com/prohmpiriya/rental-booking/pkg/config"
	"github.com/prohmpiriya/rental-booking/pkg/rabbitmq"
	"github.com/prohmpiriya/rental-booking/pkg/retry"
)

// NewEventRelay connects the broker selected by EVENTS_BROKER and returns the
// publisher for outbox rows together with a DLQ publisher on the same connection
func NewEventRelay(ctx context.Context, cfg *config.Config, serviceName string) (service.EventPublisher, retry.DLQPublisher, error) {
	dlqCfg := &retry.DLQConfig{
		TopicSuffix: cfg.Kafka.DLQSuffix,
		Source:      serviceName,
	}
	if dlqCfg.TopicSuffix == "" {
		dlqCfg.TopicSuffix = retry.DefaultDLQConfig().TopicSuffix
	}

	switch cfg.Events.Broker {
	case config.BrokerKafka:
		publisher, err := service.NewKafkaEventPublisher(ctx, &service.EventPublisherConfig{
			Brokers:     cfg.Kafka.Brokers,
			ServiceName: serviceName,
			ClientID:    cfg.Kafka.ClientID,
		})
		if err != nil {
			return nil, nil, err
		}
		return publisher, retry.NewProducerDLQPublisher(publisher.Producer(), dlqCfg), nil

	case config.BrokerRabbitMQ:
		pub, err := rabbitmq.NewPublisher(&rabbitmq.PublisherConfig{
			URL:      cfg.RabbitMQ.URL,
			Exchange: cfg.RabbitMQ.Exchange,
		})
		if err != nil {
			return nil, nil, err
		}
		return service.NewRabbitMQEventPublisher(pub, serviceName), retry.NewProducerDLQPublisher(pub, dlqCfg), nil

	case config.BrokerNone:
		return service.NewNoOpEventPublisher(), retry.NewNoOpDLQPublisher(), nil
	}

	return nil, nil, fmt.Errorf("unknown events broker: %q", cfg.Events.Broker)
}
