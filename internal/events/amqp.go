package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPPublisher publishes each event type to a durable queue of the same name
// on the default exchange. The connection is opened lazily and reopened after
// a failure.
type AMQPPublisher struct {
	URL string

	mu      sync.Mutex
	conn    *amqp.Connection
	ch      *amqp.Channel
	queues  map[string]bool
	dialFn  func(url string) (*amqp.Connection, error)
	timeout time.Duration
}

func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{URL: url, queues: map[string]bool{}, dialFn: amqp.Dial, timeout: 5 * time.Second}
}

func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := p.dialFn(p.URL)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq dial: %w", err)
		}
		p.conn = conn
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	p.ch = ch
	p.queues = map[string]bool{}
	return ch, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		log.Printf("[EVENTS] action=publish type=%s msg=%v", ev.Type, err)
		return err
	}
	if !p.queues[ev.Type] {
		if _, err := ch.QueueDeclare(ev.Type, true, false, false, false, nil); err != nil {
			log.Printf("[EVENTS] action=queue_declare type=%s msg=%v", ev.Type, err)
			return err
		}
		p.queues[ev.Type] = true
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	err = ch.PublishWithContext(ctx, "", ev.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.OccurredAt,
		Body:         body,
	})
	if err != nil {
		log.Printf("[EVENTS] action=publish type=%s msg=%v", ev.Type, err)
		return err
	}
	return nil
}

// Close releases the channel and connection.
func (p *AMQPPublisher) Close() error {
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

// New picks the AMQP publisher when url is set and the no-op one otherwise.
func New(url string) Publisher {
	if url == "" {
		return NopPublisher{}
	}
	return NewAMQPPublisher(url)
}
