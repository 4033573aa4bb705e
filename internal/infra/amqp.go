package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// OrderPlacedEvent is published after a checkout commits.
type OrderPlacedEvent struct {
	OrderID     string    `json:"order_id"`
	DriverCode  uint      `json:"driver_code"`
	SponsorCode uint      `json:"sponsor_code"`
	TotalPoints int       `json:"total_points"`
	ItemCount   int       `json:"item_count"`
	PlacedAt    time.Time `json:"placed_at"`
}

// EventPublisher publishes domain events to a durable RabbitMQ queue over one
// long-lived channel. A publisher with an empty URL is disabled and drops
// events. A broken connection is discarded and redialled on the next publish.
type EventPublisher struct {
	url         string
	queue       string
	dialTimeout time.Duration

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

const defaultBrokerDialTimeout = 3 * time.Second

func NewEventPublisher(url, queue string) *EventPublisher {
	return &EventPublisher{url: url, queue: queue, dialTimeout: defaultBrokerDialTimeout}
}

func (p *EventPublisher) Enabled() bool { return p != nil && p.url != "" }

// channel returns the open channel, dialling and declaring the queue when
// there is none. Callers hold p.mu.
func (p *EventPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() && !p.conn.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(p.dialTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: declare %s: %w", p.queue, err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *EventPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

// Close releases the broker connection.
func (p *EventPublisher) Close() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
}

// PublishOrderPlaced publishes one persistent message. Errors are returned so
// the caller can report them softly.
func (p *EventPublisher) PublishOrderPlaced(ctx context.Context, ev OrderPlacedEvent) error {
	if !p.Enabled() {
		return nil
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	ch, err := p.channel()
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         "order.placed",
		Body:         body,
	})
	if err != nil {
		p.reset()
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	log.Debug().Str("order_id", ev.OrderID).Str("queue", p.queue).Msg("rabbitmq: order.placed published")
	return nil
}
