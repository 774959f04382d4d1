package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Channel is the subset of *amqp.Channel used by the publisher.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends JSON messages to one exchange.
type Publisher struct {
	cfg     Config
	conn    *amqp.Connection
	channel Channel
	logger  *zap.Logger
}

// Dial connects to the broker, opens a channel and declares the exchange.
func Dial(cfg Config, logger *zap.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("broker: failed to dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("broker: failed to open a channel: %w", err)
	}

	p, err := NewPublisher(ch, cfg, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// NewPublisher declares the configured exchange on ch.
func NewPublisher(ch Channel, cfg Config, logger *zap.Logger) (*Publisher, error) {
	if cfg.Exchange == "" {
		return nil, fmt.Errorf("broker: exchange name is required")
	}
	if cfg.ExchangeType == "" {
		cfg.ExchangeType = amqp.ExchangeTopic
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	logger.Debug("Declaring exchange",
		zap.String("name", cfg.Exchange),
		zap.String("type", cfg.ExchangeType),
	)
	if err := ch.ExchangeDeclare(cfg.Exchange, cfg.ExchangeType, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("broker: failed to declare exchange '%s': %w", cfg.Exchange, err)
	}

	return &Publisher{cfg: cfg, channel: ch, logger: logger}, nil
}

// PublishJSON encodes v and publishes it as a persistent message.
func (p *Publisher) PublishJSON(ctx context.Context, routingKey string, messageID string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("broker: failed to encode message: %w", err)
	}

	err = p.channel.PublishWithContext(ctx, p.cfg.Exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    messageID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("broker: failed to publish message: %w", err)
	}
	return nil
}

// RoutingKey returns the configured routing key for run notifications.
func (p *Publisher) RoutingKey() string {
	return p.cfg.RoutingKey
}

// Close closes the channel and the owned connection.
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
	p.logger.Debug("Publisher closed")
	return firstErr
}
