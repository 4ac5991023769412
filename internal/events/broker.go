package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
)

// Broker delivers encoded events to a channel.
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Subscriber opens a stream of payloads from a channel.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (Subscription, error)
}

// Subscription is an open channel subscription. Messages is closed after Close.
type Subscription interface {
	Messages() <-chan []byte
	Close() error
}

// RedisBroker is a Broker and Subscriber on Redis pub/sub. Delivery is
// at-most-once: subscribers that are not connected miss the message.
type RedisBroker struct {
	rdb *redis.Client
}

func NewRedisBroker(rdb *redis.Client) *RedisBroker {
	return &RedisBroker{rdb: rdb}
}

func (b *RedisBroker) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := b.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("events: publish to %s failed: %w", channel, err)
	}
	return nil
}

// Subscribe returns once Redis has confirmed the subscription, so messages
// published after it returns are delivered.
func (b *RedisBroker) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	ps := b.rdb.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("events: subscribe to %s failed: %w", channel, err)
	}

	sub := &redisSubscription{
		ps:   ps,
		out:  make(chan []byte),
		done: make(chan struct{}),
	}
	go sub.forward()
	return sub, nil
}

type redisSubscription struct {
	ps        *redis.PubSub
	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func (s *redisSubscription) forward() {
	defer close(s.out)
	for msg := range s.ps.Channel() {
		select {
		case s.out <- []byte(msg.Payload):
		case <-s.done:
			return
		}
	}
}

func (s *redisSubscription) Messages() <-chan []byte { return s.out }

func (s *redisSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}
