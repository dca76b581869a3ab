package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultExchange is the topic exchange events are published to.
const DefaultExchange = "studyloop.events"

// publishTimeout bounds a single publish.
const publishTimeout = 5 * time.Second

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// openFunc opens a channel with the exchange declared and returns the
// channel's close notifications.
type openFunc func() (channel, <-chan *amqp.Error, error)

// AMQPPublisher publishes JSON events to a RabbitMQ topic exchange.
// A channel closed by the broker is reopened on the next Publish, and
// the connection is redialed when it has dropped too.
type AMQPPublisher struct {
	mu       sync.Mutex
	url      string
	exchange string
	logger   *slog.Logger

	conn    *amqp.Connection
	channel channel
	closed  <-chan *amqp.Error
	open    openFunc
}

// NewAMQPPublisher connects to url and declares a durable topic exchange.
// An empty url returns Nop.
func NewAMQPPublisher(url, exchange string, logger *slog.Logger) (Publisher, error) {
	if url == "" {
		logger.Warn("AMQP URL is empty, event publishing is disabled")
		return Nop{}, nil
	}
	if exchange == "" {
		exchange = DefaultExchange
	}

	p := &AMQPPublisher{url: url, exchange: exchange, logger: logger}
	p.open = p.dialChannel
	if err := p.ensureChannel(); err != nil {
		if p.conn != nil {
			p.conn.Close()
		}
		return nil, err
	}
	return p, nil
}

// dialChannel opens a channel on the current connection, redialing the
// broker first if the connection is gone.
func (p *AMQPPublisher) dialChannel() (channel, <-chan *amqp.Error, error) {
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := amqp.Dial(p.url)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to broker: %w", err)
		}
		p.conn = conn
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		p.exchange, // name
		"topic",    // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		ch.Close()
		return nil, nil, fmt.Errorf("declare exchange: %w", err)
	}
	return ch, ch.NotifyClose(make(chan *amqp.Error, 1)), nil
}

// ensureChannel drops a channel the broker has closed and opens a new
// one when none is held. Callers hold p.mu.
func (p *AMQPPublisher) ensureChannel() error {
	if p.channel != nil {
		select {
		case reason := <-p.closed:
			p.logger.Warn("AMQP channel closed, reopening", "reason", reason)
			p.channel = nil
		default:
			return nil
		}
	}
	ch, closed, err := p.open()
	if err != nil {
		return err
	}
	p.channel, p.closed = ch, closed
	return nil
}

// publishing builds the AMQP message for e. Each event carries its own
// id so consumers can deduplicate redeliveries.
func publishing(e Event, body []byte) amqp.Publishing {
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    e.Timestamp,
		MessageId:    e.ID,
		Type:         e.Type,
		Body:         body,
	}
}

// Publish sends e with its type as the routing key.
func (p *AMQPPublisher) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensureChannel(); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	err = p.channel.PublishWithContext(ctx,
		p.exchange, // exchange
		e.Type,     // routing key
		false,      // mandatory
		false,      // immediate
		publishing(e, body),
	)
	if err != nil {
		if errors.Is(err, amqp.ErrClosed) {
			p.channel = nil
		}
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	p.logger.Debug("published event", "type", e.Type, "event_id", e.ID, "session_id", e.SessionID)
	return nil
}

// Close closes the channel and the connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.logger.Warn("close AMQP channel", "error", err)
		}
		p.channel = nil
	}
	if p.conn == nil {
		return nil
	}
	if err := p.conn.Close(); err != nil {
		return fmt.Errorf("close AMQP connection: %w", err)
	}
	return nil
}
