package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/vaidashi/catering-api/pkg/logger"
)

// Channel is the part of *amqp.Channel the publisher uses
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Dialer opens a connection and returns a channel on it
type Dialer func() (Channel, func() error, error)

// Publisher sends messages to a durable fanout exchange
type Publisher struct {
	exchange string
	dial     Dialer
	logger   logger.Logger

	mu        sync.Mutex
	channel   Channel
	closeConn func() error
}

// DialURL returns a Dialer for an amqp:// URL
func DialURL(url string) Dialer {
	return func() (Channel, func() error, error) {
		conn, err := amqp.Dial(url)

		if err != nil {
			return nil, nil, err
		}

		ch, err := conn.Channel()

		if err != nil {
			conn.Close()
			return nil, nil, err
		}

		return ch, conn.Close, nil
	}
}

// NewPublisher connects and declares the exchange
func NewPublisher(dial Dialer, exchange string, logger logger.Logger) (*Publisher, error) {
	p := &Publisher{
		exchange: exchange,
		dial:     dial,
		logger:   logger,
	}

	if err := p.connect(); err != nil {
		return nil, err
	}

	logger.Info("Connected to RabbitMQ", "exchange", exchange)
	return p, nil
}

func (p *Publisher) connect() error {
	ch, closeConn, err := p.dial()

	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	err = ch.ExchangeDeclare(
		p.exchange, // name
		"fanout",   // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)

	if err != nil {
		ch.Close()
		if closeConn != nil {
			closeConn()
		}
		return fmt.Errorf("failed to declare exchange %s: %w", p.exchange, err)
	}

	p.channel = ch
	p.closeConn = closeConn
	return nil
}

// Publish sends a persistent JSON message. A closed channel is reopened once.
func (p *Publisher) Publish(ctx context.Context, routingKey string, body []byte, headers map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	msg := amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Body:         body,
		Timestamp:    time.Now().UTC(),
	}

	if len(headers) > 0 {
		msg.Headers = amqp.Table{}
		for k, v := range headers {
			msg.Headers[k] = v
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil {
		if err := p.connect(); err != nil {
			return err
		}
	}

	err := p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg)

	if errors.Is(err, amqp.ErrClosed) {
		p.logger.Warn("RabbitMQ channel closed, reconnecting", "exchange", p.exchange)
		p.release()

		if err := p.connect(); err != nil {
			return err
		}
		err = p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg)
	}

	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.exchange, err)
	}

	p.logger.Debug("Message published to RabbitMQ", "exchange", p.exchange, "routingKey", routingKey)
	return nil
}

// Close closes the channel and the connection
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.release()
}

func (p *Publisher) release() error {
	var errs []error

	if p.channel != nil {
		errs = append(errs, p.channel.Close())
		p.channel = nil
	}
	if p.closeConn != nil {
		errs = append(errs, p.closeConn())
		p.closeConn = nil
	}

	return errors.Join(errs...)
}
