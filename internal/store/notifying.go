package store

import (
	"context"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/feral-file/title-scrutiny/internal/adapter"
	"github.com/feral-file/title-scrutiny/internal/domain"
	"github.com/feral-file/title-scrutiny/internal/logger"
	"github.com/feral-file/title-scrutiny/internal/messaging"
)

// notifyingStore wraps a Store and publishes a change event after every committed deed write
type notifyingStore struct {
	Store
	publisher messaging.Publisher
	clock     adapter.Clock
}

// NewNotifyingStore returns a Store whose deed writes are published on the change feed.
// Publish failures are logged; the write itself has already been committed.
func NewNotifyingStore(inner Store, publisher messaging.Publisher, clock adapter.Clock) Store {
	return &notifyingStore{
		Store:     inner,
		publisher: publisher,
		clock:     clock,
	}
}

func (s *notifyingStore) InsertDeed(ctx context.Context, deed domain.Deed) (*domain.Deed, error) {
	inserted, err := s.Store.InsertDeed(ctx, deed)
	if err != nil {
		return nil, err
	}

	record := inserted.Clone()
	s.publish(ctx, domain.ChangeInsert, &record, nil)
	return inserted, nil
}

func (s *notifyingStore) UpdateDeed(ctx context.Context, id string, patch domain.DeedPatch) error {
	if err := s.Store.UpdateDeed(ctx, id, patch); err != nil {
		return err
	}
	if patch.IsEmpty() {
		return nil
	}

	// Publish the committed row rather than the patch
	updated, err := s.Store.GetDeed(ctx, id)
	if err != nil {
		logger.ErrorCtx(ctx, err, zap.String("deed_id", id))
		return nil
	}
	if updated == nil {
		return nil
	}

	s.publish(ctx, domain.ChangeUpdate, updated, nil)
	return nil
}

func (s *notifyingStore) DeleteDeed(ctx context.Context, id string) error {
	old, err := s.Store.GetDeed(ctx, id)
	if err != nil {
		return err
	}

	if err := s.Store.DeleteDeed(ctx, id); err != nil {
		return err
	}
	if old == nil {
		return nil
	}

	s.publish(ctx, domain.ChangeDelete, nil, old)
	return nil
}

func (s *notifyingStore) publish(ctx context.Context, changeType domain.ChangeType, record, oldRecord *domain.Deed) {
	now := s.clock.Now()
	event := domain.ChangeEvent{
		ID:          ulid.MustNewDefault(now).String(),
		Type:        changeType,
		Table:       domain.DeedsTable,
		Record:      record,
		OldRecord:   oldRecord,
		CommittedAt: now.UTC(),
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.ErrorCtx(ctx, err,
			zap.String("event_id", event.ID),
			zap.String("change_type", string(changeType)),
			zap.String("deed_id", event.DeedID()))
	}
}
