package eventpub

import (
	"context"
	"fmt"
)

// Supported brokers.
const (
	BrokerNone     = "none"
	BrokerKafka    = "kafka"
	BrokerRabbitMQ = "rabbitmq"
)

// Publisher publishes events and releases its broker connection on Close.
type Publisher interface {
	Publish(ctx context.Context, name, key string, event any) error
	Close() error
}

// Config selects and configures the broker.
type Config struct {
	Broker       string
	KafkaBrokers []string
	KafkaTopic   string
	AMQPURL      string
	AMQPExchange string
}

// New returns the Publisher for cfg.Broker. BrokerNone yields a publisher that drops events.
func New(cfg Config) (Publisher, error) {
	switch cfg.Broker {
	case "", BrokerNone:
		return Nop{}, nil
	case BrokerKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("kafka publisher needs at least one broker")
		}

		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case BrokerRabbitMQ:
		return NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	}

	return nil, fmt.Errorf("unsupported events broker %q", cfg.Broker)
}

// Nop drops every event.
type Nop struct{}

// Publish does nothing.
func (Nop) Publish(context.Context, string, string, any) error { return nil }

// Close does nothing.
func (Nop) Close() error { return nil }
