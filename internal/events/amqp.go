package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	applog "storefront/internal/log"
)

const (
	dialTimeout      = 5 * time.Second
	reconnectInitial = 500 * time.Millisecond
	reconnectMax     = 30 * time.Second
)

// AMQPPublisher sends events to a durable RabbitMQ queue over one long-lived
// connection. The channel is not safe for concurrent publishes, hence mu.
// When the broker drops the channel a watcher re-dials in the background, and
// a publish that finds the channel closed re-dials inline.
type AMQPPublisher struct {
	url   string
	queue string

	mu     sync.Mutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	closed bool
	done   chan struct{}
}

func DialAMQP(url, queue string) (*AMQPPublisher, error) {
	p := &AMQPPublisher{url: url, queue: queue, done: make(chan struct{})}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

// connect replaces the connection and channel. Callers hold mu, except the
// constructor which owns p exclusively.
func (p *AMQPPublisher) connect() error {
	if p.conn != nil && !p.conn.IsClosed() {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil

	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(dialTimeout),
	})
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	go p.watch(ch.NotifyClose(make(chan *amqp.Error, 1)))
	return nil
}

// watch waits for ch to close and re-dials with exponential backoff until a
// channel is open again or the publisher is closed.
func (p *AMQPPublisher) watch(notify <-chan *amqp.Error) {
	cause, ok := <-notify
	if !ok || cause == nil {
		// closed by us
		return
	}
	applog.Error(nil, "events.amqp.closed", cause, map[string]any{"queue": p.queue})

	backoff := reconnectInitial
	for {
		select {
		case <-p.done:
			return
		case <-time.After(backoff):
		}

		p.mu.Lock()
		if p.closed || (p.ch != nil && !p.ch.IsClosed()) {
			p.mu.Unlock()
			return
		}
		err := p.connect()
		p.mu.Unlock()
		if err == nil {
			applog.Info(nil, "events.amqp.reconnected", map[string]any{"queue": p.queue})
			return
		}
		backoff = min(backoff*2, reconnectMax)
		applog.Error(nil, "events.amqp.reconnect", err, map[string]any{"queue": p.queue, "retry_in": backoff.String()})
	}
}

func (p *AMQPPublisher) PublishOrderPlaced(ctx context.Context, e OrderPlaced) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    e.OrderID,
		Type:         "order.placed",
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return amqp.ErrClosed
	}
	if p.ch == nil || p.ch.IsClosed() {
		if err := p.connect(); err != nil {
			return err
		}
	}
	return p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg)
}

// Close stops reconnecting and shuts the connection. It is safe to call twice.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.done)
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		return err
	}
	return nil
}
