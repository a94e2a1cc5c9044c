package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/gameforge-studio/internal/metrics"
)

// Handler processes one decoded purchase event.
type Handler func(ctx context.Context, ev PurchaseCompletedEvent) error

const (
	minReconnect = time.Second
	maxReconnect = 30 * time.Second
)

// StartPurchaseConsumer consumes purchase.completed until ctx is cancelled,
// redialing the broker with doubling backoff whenever the connection drops.
// A message is acked when handle succeeds and rejected without requeue
// otherwise, so a poison message cannot spin the loop.
func StartPurchaseConsumer(ctx context.Context, url string, handle Handler, log logrus.FieldLogger) {
	wait := minReconnect
	for ctx.Err() == nil {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.WithError(err).Warnf("purchase consumer: dial failed, retrying in %s", wait)
			if !sleep(ctx, wait) {
				return
			}
			wait *= 2
			if wait > maxReconnect {
				wait = maxReconnect
			}
			continue
		}
		wait = minReconnect

		err = consume(ctx, conn, handle, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return
		}
		log.WithError(err).Warn("purchase consumer: consume loop ended, reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return
		}
	}
}

func consume(ctx context.Context, conn *amqp.Connection, handle Handler, log logrus.FieldLogger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.WithError(err).Warn("purchase consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(PurchaseQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(PurchaseQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := handleDelivery(ctx, d.Body, handle); err != nil {
				log.WithError(err).Warn("purchase consumer: rejecting message")
				metrics.PurchaseEvent("rejected")
				_ = d.Nack(false, false)
				continue
			}
			metrics.PurchaseEvent("consumed")
			_ = d.Ack(false)
		}
	}
}

func handleDelivery(ctx context.Context, body []byte, handle Handler) error {
	var ev PurchaseCompletedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.PurchaseID == "" {
		return errors.New("event without purchase_id")
	}
	return handle(ctx, ev)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
