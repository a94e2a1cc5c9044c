// Package service holds integrations with systems outside the request path.
// Publishing is best effort: callers log a failed publish and carry on.
package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/gameforge-studio/internal/metrics"
	"github.com/iliyamo/gameforge-studio/internal/queue"
)

// Publisher emits domain events.
type Publisher interface {
	PublishPurchaseCompleted(ctx context.Context, ev queue.PurchaseCompletedEvent) error
	Close() error
}

// NewPublisher returns an AMQPPublisher for url, or a NoopPublisher when
// url is empty.
func NewPublisher(url string, log logrus.FieldLogger) Publisher {
	if url == "" {
		return NoopPublisher{}
	}
	return NewAMQPPublisher(url, log)
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) PublishPurchaseCompleted(context.Context, queue.PurchaseCompletedEvent) error {
	return nil
}

func (NoopPublisher) Close() error { return nil }

// AMQPPublisher publishes persistent JSON messages to the default exchange.
// The connection is opened on first use and reopened after it drops.
type AMQPPublisher struct {
	url  string
	log  logrus.FieldLogger
	dial func(url string) (*amqp.Connection, error)

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPPublisher does not dial until the first publish.
func NewAMQPPublisher(url string, log logrus.FieldLogger) *AMQPPublisher {
	return &AMQPPublisher{
		url: url,
		log: log,
		dial: func(url string) (*amqp.Connection, error) {
			return amqp.DialConfig(url, amqp.Config{Dial: amqp.DefaultDial(3 * time.Second)})
		},
	}
}

// channelLocked returns an open channel with the purchase queue declared.
func (p *AMQPPublisher) channelLocked() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.resetLocked()

	conn, err := p.dial(p.url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(queue.PurchaseQueue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *AMQPPublisher) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

// PublishPurchaseCompleted sends ev to the purchase.completed queue.
func (p *AMQPPublisher) PublishPurchaseCompleted(ctx context.Context, ev queue.PurchaseCompletedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channelLocked()
	if err != nil {
		p.log.WithError(err).Warn("rabbitmq: connect failed")
		metrics.PurchaseEvent("publish_failed")
		return err
	}
	err = ch.PublishWithContext(ctx, "", queue.PurchaseQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.PurchaseID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		p.log.WithError(err).WithField("purchase_id", ev.PurchaseID).Warn("rabbitmq: publish failed")
		metrics.PurchaseEvent("publish_failed")
		p.resetLocked()
		return err
	}
	metrics.PurchaseEvent("published")
	return nil
}

// Close releases the broker connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
	return nil
}
