package events

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Publisher emits product change events. Publishing never fails the caller;
// delivery problems are logged.
type Publisher interface {
	Publish(ctx context.Context, event ProductChanged)
}

// NopPublisher discards events. Used when no read store is fed.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ProductChanged) {}

const publishTimeout = 5 * time.Second

// AsyncPublisher hands events to a bounded queue drained by a single worker,
// so request latency never includes the broker round trip. When the queue is
// full the event is dropped.
type AsyncPublisher struct {
	broker  Broker
	channel string
	logger  *log.Logger

	queue     chan ProductChanged
	done      chan struct{}
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once

	dropped atomic.Uint64
	failed  atomic.Uint64
}

// NewAsyncPublisher starts the worker. Call Close to drain and stop it.
func NewAsyncPublisher(broker Broker, channel string, queueSize int, logger *log.Logger) *AsyncPublisher {
	if queueSize < 1 {
		queueSize = 1
	}
	p := &AsyncPublisher{
		broker:  broker,
		channel: channel,
		logger:  logger,
		queue:   make(chan ProductChanged, queueSize),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *AsyncPublisher) Publish(_ context.Context, event ProductChanged) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.dropped.Add(1)
		p.logger.Printf("WARN: Publisher closed, dropping %s event for product %s", event.Type, event.Key)
		return
	}
	select {
	case p.queue <- event:
	default:
		p.dropped.Add(1)
		p.logger.Printf("WARN: Publish queue full, dropping %s event for product %s", event.Type, event.Key)
	}
}

func (p *AsyncPublisher) run() {
	defer close(p.done)
	for event := range p.queue {
		p.send(event)
	}
}

func (p *AsyncPublisher) send(event ProductChanged) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.failed.Add(1)
		p.logger.Printf("ERROR: Failed to encode %s event %s: %v", event.Type, event.EventID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := p.broker.Publish(ctx, p.channel, payload); err != nil {
		p.failed.Add(1)
		p.logger.Printf("ERROR: Failed to publish %s event %s for product %s: %v", event.Type, event.EventID, event.Key, err)
		return
	}
	p.logger.Printf("INFO: Published %s event %s for product %s", event.Type, event.EventID, event.Key)
}

// Close stops accepting events, waits for queued ones to be sent, and stops
// the worker. Safe to call more than once.
func (p *AsyncPublisher) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.queue)
		p.mu.Unlock()
	})
	<-p.done
}

// Dropped counts events discarded because the queue was full or closed.
func (p *AsyncPublisher) Dropped() uint64 { return p.dropped.Load() }

// Failed counts events the broker rejected.
func (p *AsyncPublisher) Failed() uint64 { return p.failed.Load() }
