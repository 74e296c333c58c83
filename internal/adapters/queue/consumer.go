package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"eventlottery/internal/domain"
)

// Handler processes one notification message.
type Handler func(ctx context.Context, msg domain.NotificationMessage) error

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
	prefetch   = 50
)

// Consumer reads NotificationQueue and hands each message to a Handler.
type Consumer struct {
	url     string
	handle  Handler
	logger  *slog.Logger
	backoff time.Duration
}

func NewConsumer(url string, handle Handler, logger *slog.Logger) *Consumer {
	return &Consumer{url: url, handle: handle, logger: logger, backoff: minBackoff}
}

// Run consumes until ctx is done, redialing with exponential backoff whenever
// the broker connection drops.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := c.backoff
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.logger.Warn("notification consumer dial failed", "error", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return nil
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = c.backoff

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		c.logger.Warn("notification consumer loop ended, reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return nil
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(prefetch, 0, false); err != nil {
		c.logger.Warn("notification consumer set QoS failed", "error", err)
	}
	if err := declare(ch); err != nil {
		return err
	}
	msgs, err := ch.ConsumeWithContext(ctx, NotificationQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	c.logger.Info("notification consumer started", "queue", NotificationQueue)

	for d := range msgs {
		c.process(ctx, d)
	}
	return errors.New("deliveries channel closed")
}

// process acks handled messages. Malformed or failing messages are rejected
// without requeue to avoid a hot redelivery loop.
func (c *Consumer) process(ctx context.Context, d amqp.Delivery) {
	msg, err := decodeMessage(d.Body)
	if err == nil {
		err = c.handle(ctx, msg)
	}
	if err != nil {
		c.logger.Error("notification delivery failed", "message_id", d.MessageId, "error", err)
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
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
