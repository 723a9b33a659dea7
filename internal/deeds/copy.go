package deeds

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/title-scrutiny/internal/domain"
	"github.com/feral-file/title-scrutiny/internal/logger"
	"github.com/feral-file/title-scrutiny/internal/notify"
	"github.com/feral-file/title-scrutiny/internal/store"
)

// CopyFromTable copies the deeds of source that this table does not have yet, in
// source order, and returns how many were copied. Deeds are the same when deed type,
// parties, date and document number match.
func (m *Manager) CopyFromTable(ctx context.Context, source domain.TableType) (int, error) {
	ctx = logger.WithFields(m.logCtx(ctx), zap.String("source_table_type", string(source)))

	if source == m.cfg.TableType {
		return 0, fmt.Errorf("%w: cannot copy %s onto itself", domain.ErrInvalidInput, source)
	}

	sourceDeeds, err := m.store.QueryDeeds(ctx, store.ForTable(source))
	if err != nil {
		err = fmt.Errorf("failed to query source deeds: %w", err)
		m.report(ctx, "Failed to copy deeds from previous table", err)
		return 0, err
	}
	sourceDeeds = slices.DeleteFunc(sourceDeeds, func(d domain.Deed) bool {
		return !source.Matches(d.TableType)
	})
	if len(sourceDeeds) == 0 {
		m.notifier.Notify(ctx, notify.Toast(notify.LevelInfo, m.cfg.TableType, "No deeds found in the source table to copy"))
		return 0, nil
	}

	existing, err := m.store.QueryDeeds(ctx, store.ForTable(m.cfg.TableType))
	if err != nil {
		err = fmt.Errorf("failed to query destination deeds: %w", err)
		m.report(ctx, "Failed to copy deeds from previous table", err)
		return 0, err
	}

	copied := make(map[domain.DeedKey]struct{}, len(existing))
	for _, d := range existing {
		if m.cfg.TableType.Matches(d.TableType) {
			copied[d.Key()] = struct{}{}
		}
	}

	var pending []domain.Deed
	for _, d := range sourceDeeds {
		if _, ok := copied[d.Key()]; !ok {
			pending = append(pending, d)
		}
	}
	if len(pending) == 0 {
		m.notifier.Notify(ctx, notify.Toast(notify.LevelInfo, m.cfg.TableType, "All deeds from source table have already been copied"))
		return 0, nil
	}

	inserted, err := m.insertCopies(ctx, pending)
	m.appendCopies(inserted)
	if len(inserted) > 0 {
		m.notifier.Notify(ctx, notify.TableChanged(m.cfg.TableType))
	}
	if err != nil {
		m.report(ctx, "Failed to copy deeds from previous table", err, zap.Int("copied", len(inserted)))
		return len(inserted), err
	}

	logger.InfoCtx(ctx, "deeds copied", zap.Int("count", len(inserted)))
	m.notifier.Notify(ctx, notify.Toast(notify.LevelSuccess, m.cfg.TableType,
		fmt.Sprintf("Copied %d new deed(s) successfully", len(inserted))))
	return len(inserted), nil
}

// insertCopies inserts the deeds one by one while feed inserts are suppressed.
// It returns the deeds inserted before any failure.
func (m *Manager) insertCopies(ctx context.Context, deeds []domain.Deed) ([]domain.Deed, error) {
	m.setCopying(true)
	defer m.setCopying(false)

	// consecutive order keys keep the source order on the next load
	base := m.clock.Now().UTC()
	inserted := make([]domain.Deed, 0, len(deeds))
	for i, d := range deeds {
		c := d.Clone()
		c.ID = ""
		c.TableType = m.cfg.TableType.Tag()
		c.CreatedAt = base.Add(time.Duration(i) * time.Millisecond)

		rec, err := m.store.InsertDeed(ctx, c)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert copied deed: %w", err)
		}

		m.mu.Lock()
		gen := m.markLocked(m.inserted, rec.ID)
		m.mu.Unlock()
		m.clearAfter(m.inserted, rec.ID, gen, m.cfg.CopyGrace)

		inserted = append(inserted, *rec)
	}
	return inserted, nil
}

func (m *Manager) setCopying(copying bool) {
	m.mu.Lock()
	m.copying = copying
	m.mu.Unlock()
}

// appendCopies appends copied deeds in order, skipping any already listed
func (m *Manager) appendCopies(deeds []domain.Deed) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, d := range deeds {
		if m.indexLocked(d.ID) < 0 {
			m.deeds = append(m.deeds, d.Clone())
		}
	}
}

// Copying reports whether a bulk copy is running
func (m *Manager) Copying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.copying
}
