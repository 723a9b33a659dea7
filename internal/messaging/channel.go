package messaging

import (
	"context"
	"sync"

	"github.com/feral-file/title-scrutiny/internal/domain"
)

// Channel is the receiving end of one subscription. Deliver and Close may race;
// Close waits for an in-flight Deliver so the events channel is never written after close.
type Channel struct {
	events chan domain.ChangeEvent
	done   chan struct{}
	once   sync.Once
	mu     sync.RWMutex
	closed bool
}

// NewChannel creates a subscription channel with the given buffer
func NewChannel(size int) *Channel {
	return &Channel{
		events: make(chan domain.ChangeEvent, size),
		done:   make(chan struct{}),
	}
}

// Events returns the channel read by the subscriber
func (c *Channel) Events() <-chan domain.ChangeEvent {
	return c.events
}

// Done is closed once Close has been called
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

// Deliver queues an event, blocking while the buffer is full.
// Delivering to a closed channel drops the event.
func (c *Channel) Deliver(ctx context.Context, event domain.ChangeEvent) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil
	}

	select {
	case c.events <- event:
		return nil
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes the events channel. It is safe to call more than once.
func (c *Channel) Close() {
	c.once.Do(func() {
		// Release a blocked Deliver before taking the write lock
		close(c.done)
		c.mu.Lock()
		c.closed = true
		close(c.events)
		c.mu.Unlock()
	})
}
