package messenger

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
)

// Broker is a single subscriber's notification feed: an unbounded FIFO plus a
// liveness flag. Producers never block; Next suspends while the queue is empty.
type Broker struct {
	id string

	mu    sync.Mutex
	queue []Notification
	alive bool
	wake  chan struct{}
}

func newBroker() *Broker {
	b := &Broker{
		id:    uuid.NewString()[:4],
		alive: true,
		wake:  make(chan struct{}, 1),
	}
	log.Printf("message broker %s created", b.id)
	return b
}

// ID returns the broker's short identifier.
func (b *Broker) ID() string { return b.id }

// Alive reports whether the broker still accepts notifications.
func (b *Broker) Alive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.alive
}

// push appends a notification to the queue and wakes a pending Next.
func (b *Broker) push(n Notification) {
	b.mu.Lock()
	b.queue = append(b.queue, n)
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Next returns the oldest queued notification, blocking until one arrives or
// the context is cancelled.
func (b *Broker) Next(ctx context.Context) (Notification, error) {
	for {
		b.mu.Lock()
		if len(b.queue) > 0 {
			n := b.queue[0]
			b.queue = b.queue[1:]
			b.mu.Unlock()
			return n, nil
		}
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return Notification{}, ctx.Err()
		case <-b.wake:
		}
	}
}

// Retire marks the broker dead. Idempotent; the hub prunes it on the next emit.
func (b *Broker) Retire() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.alive {
		return
	}
	b.alive = false
	log.Printf("message broker %s retired", b.id)
}
