package messaging

import (
	"context"

	"github.com/feral-file/title-scrutiny/internal/domain"
)

// Unsubscribe stops a subscription and closes its channel. It is safe to call more than once.
type Unsubscribe func()

// Subscriber defines the interface for following the deed change feed
//
//go:generate mockgen -source=subscriber.go -destination=../mocks/subscriber.go -package=mocks -mock_names=Subscriber=MockSubscriber
type Subscriber interface {
	// Subscribe returns a channel receiving every change committed after the call, in commit order.
	// The channel is closed once the subscription ends.
	Subscribe(ctx context.Context) (<-chan domain.ChangeEvent, Unsubscribe, error)
}
