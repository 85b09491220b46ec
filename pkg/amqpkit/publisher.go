// Package amqpkit publishes JSON messages to a RabbitMQ topic exchange.
package amqpkit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Sentinel errors for publisher operations
var (
	ErrDialFailed     = errors.New("failed to connect to message broker")
	ErrChannelFailed  = errors.New("failed to open broker channel")
	ErrDeclareFailed  = errors.New("failed to declare exchange")
	ErrEncodeFailed   = errors.New("failed to encode message")
	ErrPublishFailed  = errors.New("failed to publish message")
	ErrPublisherClose = errors.New("failed to close publisher")
)

const (
	exchangeKind    = "topic"
	jsonContentType = "application/json"
)

// Channel is the subset of *amqp.Channel the publisher needs
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends persistent JSON messages to a single exchange
type Publisher struct {
	ch       Channel
	exchange string
	closers  []func() error
}

// Dial connects to the broker at url and declares a durable topic exchange
func Dial(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDialFailed, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %w", ErrChannelFailed, err)
	}

	p, err := NewPublisher(ch, exchange)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.closers = append(p.closers, conn.Close)
	return p, nil
}

// NewPublisher declares the exchange on an existing channel
func NewPublisher(ch Channel, exchange string) (*Publisher, error) {
	if err := ch.ExchangeDeclare(exchange, exchangeKind, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrDeclareFailed, exchange, err)
	}
	return &Publisher{
		ch:       ch,
		exchange: exchange,
		closers:  []func() error{ch.Close},
	}, nil
}

// Publish encodes payload as JSON and sends it with the given routing key
func (p *Publisher) Publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncodeFailed, err)
	}

	msg := amqp.Publishing{
		ContentType:  jsonContentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Type:         routingKey,
		Body:         body,
	}

	if err := p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, routingKey, err)
	}
	return nil
}

// Close releases the channel and, when dialled, the connection
func (p *Publisher) Close() error {
	var errs []error
	for _, closeFn := range p.closers {
		if err := closeFn(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrPublisherClose, errors.Join(errs...))
	}
	return nil
}
