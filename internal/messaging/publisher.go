package messaging

import (
	"context"

	"github.com/feral-file/title-scrutiny/internal/domain"
)

// Publisher defines the interface for publishing committed deed changes to the change feed
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// Publish delivers a change event to every current subscriber, in call order
	Publish(ctx context.Context, event domain.ChangeEvent) error
	// Close closes the connection
	Close()
}
