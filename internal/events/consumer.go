package events

import (
	"context"
	"errors"
	"log"
	"time"

	"product-catalog-api/internal/domain"
)

// ProductWriter is the read-store side the consumer applies events to.
type ProductWriter interface {
	Save(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// ErrSubscriptionClosed is returned by Run when the broker ends the stream.
var ErrSubscriptionClosed = errors.New("events: subscription closed")

// Consumer applies ProductChanged events to a read store. A message that
// fails to decode or apply is logged and dropped; it is not retried.
type Consumer struct {
	subscriber Subscriber
	channel    string
	writer     ProductWriter
	logger     *log.Logger
	timeout    time.Duration
}

func NewConsumer(subscriber Subscriber, channel string, writer ProductWriter, timeout time.Duration, logger *log.Logger) *Consumer {
	return &Consumer{
		subscriber: subscriber,
		channel:    channel,
		writer:     writer,
		logger:     logger,
		timeout:    timeout,
	}
}

// Run consumes until ctx is cancelled (returning nil) or the subscription
// ends.
func (c *Consumer) Run(ctx context.Context) error {
	sub, err := c.subscriber.Subscribe(ctx, c.channel)
	if err != nil {
		return err
	}
	defer sub.Close()

	c.logger.Printf("INFO: Consuming product changes from %s", c.channel)
	for {
		select {
		case <-ctx.Done():
			return nil
		case payload, ok := <-sub.Messages():
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return ErrSubscriptionClosed
			}
			c.handle(ctx, payload)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, payload []byte) {
	event, err := Decode(payload)
	if err != nil {
		c.logger.Printf("ERROR: Dropping undecodable message on %s: %v", c.channel, err)
		return
	}
	product, err := event.ToDomain()
	if err != nil {
		c.logger.Printf("ERROR: Dropping %s event %s: %v", event.Type, event.EventID, err)
		return
	}

	applyCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if _, err := c.writer.Save(applyCtx, product); err != nil {
		c.logger.Printf("ERROR: Failed to apply %s event %s for product %s: %v", event.Type, event.EventID, event.Key, err)
		return
	}
	c.logger.Printf("INFO: Applied %s event %s for product %s", event.Type, event.EventID, event.Key)
}
