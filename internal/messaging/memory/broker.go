package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/feral-file/title-scrutiny/internal/domain"
	"github.com/feral-file/title-scrutiny/internal/messaging"
)

// DefaultBufferSize is the channel capacity of a subscription
const DefaultBufferSize = 256

// ErrBrokerClosed is returned when the broker has been closed
var ErrBrokerClosed = errors.New("broker closed")

var (
	_ messaging.Publisher  = (*Broker)(nil)
	_ messaging.Subscriber = (*Broker)(nil)
)

// Broker is an in-process change feed. Publish returns once the event is queued
// on every current subscription, so subscribers observe events in publish order.
type Broker struct {
	bufferSize int

	publishMu sync.Mutex
	mu        sync.RWMutex
	subs      map[string]*subscription
	closed    bool
}

type subscription struct {
	id string
	*messaging.Channel
}

// NewBroker creates a broker. A non-positive bufferSize uses DefaultBufferSize.
func NewBroker(bufferSize int) *Broker {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Broker{
		bufferSize: bufferSize,
		subs:       make(map[string]*subscription),
	}
}

// Subscribe registers a subscription that ends when ctx is done or Unsubscribe is called
func (b *Broker) Subscribe(ctx context.Context) (<-chan domain.ChangeEvent, messaging.Unsubscribe, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, nil, ErrBrokerClosed
	}

	sub := &subscription{
		id:      uuid.NewString(),
		Channel: messaging.NewChannel(b.bufferSize),
	}
	b.subs[sub.id] = sub

	unsubscribe := func() {
		b.remove(sub.id)
		sub.Close()
	}

	go func() {
		select {
		case <-ctx.Done():
			unsubscribe()
		case <-sub.Done():
		}
	}()

	return sub.Events(), unsubscribe, nil
}

// Publish delivers the event to every current subscription.
// A full subscription blocks the publisher until it drains, unsubscribes or ctx is done.
func (b *Broker) Publish(ctx context.Context, event domain.ChangeEvent) error {
	b.publishMu.Lock()
	defer b.publishMu.Unlock()

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBrokerClosed
	}
	subs := make([]*subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		if err := sub.Deliver(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// Close ends every subscription
func (b *Broker) Close() {
	b.mu.Lock()
	b.closed = true
	subs := b.subs
	b.subs = make(map[string]*subscription)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}

// SubscriberCount returns the number of live subscriptions
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Broker) remove(id string) {
	b.mu.Lock()
	delete(b.subs, id)
	b.mu.Unlock()
}
