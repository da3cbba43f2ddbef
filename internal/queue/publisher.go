package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// DefaultDialTimeout bounds connecting to the broker when the caller's
// context carries no earlier deadline.
const DefaultDialTimeout = 5 * time.Second

// ErrReconnecting is returned by Publish while another call is dialling.
var ErrReconnecting = errors.New("broker reconnect in progress")

// Publisher sends BookingConfirmedEvents to the broker. The connection is
// opened lazily and re-opened after the broker drops it. Safe for
// concurrent use; p.mu is never held while dialling.
type Publisher struct {
	url         string
	queue       string
	log         *zap.Logger
	dialTimeout time.Duration

	mu      sync.Mutex
	conn    *amqp.Connection
	ch      *amqp.Channel
	dialing bool
}

// NewPublisher returns a Publisher for url. Nothing is dialled until the
// first Publish.
func NewPublisher(url string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{url: url, queue: BookingConfirmedQueue, log: logger, dialTimeout: DefaultDialTimeout}
}

// channel returns an open channel with the queue declared. Only one
// caller dials at a time; the others fail fast with ErrReconnecting.
func (p *Publisher) channel(ctx context.Context) (*amqp.Channel, error) {
	p.mu.Lock()
	if p.ch != nil && !p.ch.IsClosed() {
		ch := p.ch
		p.mu.Unlock()
		return ch, nil
	}
	if p.dialing {
		p.mu.Unlock()
		return nil, ErrReconnecting
	}
	p.dialing = true
	conn := p.conn
	p.mu.Unlock()

	conn, ch, err := p.open(ctx, conn)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.dialing = false
	if conn != nil {
		p.conn = conn
	}
	if err != nil {
		return nil, err
	}
	p.ch = ch
	return ch, nil
}

func (p *Publisher) open(ctx context.Context, conn *amqp.Connection) (*amqp.Connection, *amqp.Channel, error) {
	if conn == nil || conn.IsClosed() {
		timeout := p.dialTimeout
		if dl, ok := ctx.Deadline(); ok {
			if left := time.Until(dl); left < timeout {
				timeout = left
			}
		}
		if timeout <= 0 {
			return nil, nil, fmt.Errorf("dial broker: %w", context.DeadlineExceeded)
		}
		c, err := amqp.DialConfig(p.url, amqp.Config{
			Heartbeat: 10 * time.Second,
			Locale:    "en_US",
			Dial:      amqp.DefaultDial(timeout),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("dial broker: %w", err)
		}
		conn = c
	}
	ch, err := conn.Channel()
	if err != nil {
		return conn, nil, fmt.Errorf("open channel: %w", err)
	}
	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return conn, nil, fmt.Errorf("declare queue: %w", err)
	}
	return conn, ch, nil
}

// Publish sends ev as a persistent JSON message to the default exchange.
func (p *Publisher) Publish(ctx context.Context, ev BookingConfirmedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ch, err := p.channel(ctx)
	if err != nil {
		p.log.Warn("rabbitmq unavailable", zap.Error(err))
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.BookingID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.log.Warn("rabbitmq publish failed", zap.String("booking_id", ev.BookingID), zap.Error(err))
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
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
