package deeds

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/feral-file/title-scrutiny/internal/domain"
	"github.com/feral-file/title-scrutiny/internal/logger"
	"github.com/feral-file/title-scrutiny/internal/notify"
)

// Run applies change feed events one at a time until ctx is done or events is closed
func (m *Manager) Run(ctx context.Context, events <-chan domain.ChangeEvent) error {
	ctx = m.logCtx(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if m.HandleChange(ev) {
				m.notifier.Notify(ctx, notify.TableChanged(m.cfg.TableType))
			}
		}
	}
}

// HandleChange reconciles the list with one committed change and reports whether
// the list changed. Echoes of the manager's own inserts and updates to deeds
// with local edits in flight are ignored. Changes arriving while a load is in
// flight are held back and applied on top of the loaded list.
func (m *Manager) HandleChange(ev domain.ChangeEvent) bool {
	if ev.Table != "" && ev.Table != domain.DeedsTable {
		return false
	}

	change := heldChange{event: ev}
	// checked before taking the lock; the scheduler has its own
	if ev.Type == domain.ChangeUpdate && ev.Record != nil {
		change.pendingWrite = m.HasPendingWrite(ev.Record.ID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loading {
		m.held = append(m.held, change)
		return false
	}
	return m.applyLocked(change)
}

// heldChange is a change event with the pending write state seen on arrival
type heldChange struct {
	event        domain.ChangeEvent
	pendingWrite bool
}

func (m *Manager) applyLocked(change heldChange) bool {
	ev := change.event
	switch ev.Type {
	case domain.ChangeInsert:
		return m.insertLocked(ev.Record)
	case domain.ChangeUpdate:
		return m.updateLocked(ev.Record, change.pendingWrite)
	case domain.ChangeDelete:
		return m.deleteLocked(ev.DeedID())
	default:
		logger.Warn("unknown change type", zap.String("type", string(ev.Type)))
		return false
	}
}

func (m *Manager) insertLocked(record *domain.Deed) bool {
	if record == nil || !m.cfg.TableType.Matches(record.TableType) {
		return false
	}

	if m.copying {
		logger.Debug("skipping insert during copy", zap.String("deed_id", record.ID))
		return false
	}
	if _, ok := m.inserted[record.ID]; ok {
		logger.Debug("skipping insert of a positioned deed", zap.String("deed_id", record.ID))
		return false
	}
	if m.indexLocked(record.ID) >= 0 {
		return false
	}

	m.deeds = append(m.deeds, record.Clone())
	return true
}

func (m *Manager) updateLocked(record *domain.Deed, pendingWrite bool) bool {
	if record == nil {
		return false
	}

	if pendingWrite {
		logger.Debug("skipping update with pending writes", zap.String("deed_id", record.ID))
		return false
	}
	if _, ok := m.editing[record.ID]; ok {
		logger.Debug("skipping update of an edited deed", zap.String("deed_id", record.ID))
		return false
	}

	idx := m.indexLocked(record.ID)
	if idx < 0 {
		return false
	}

	m.deeds[idx] = record.Clone()
	m.deeds = slices.DeleteFunc(m.deeds, func(d domain.Deed) bool {
		return !m.cfg.TableType.Matches(d.TableType)
	})
	return true
}

func (m *Manager) deleteLocked(id string) bool {
	if id == "" {
		return false
	}

	before := len(m.deeds)
	m.deeds = slices.DeleteFunc(m.deeds, func(d domain.Deed) bool { return d.ID == id })
	return len(m.deeds) != before
}

// replayLocked applies the changes held back during a load
func (m *Manager) replayLocked() {
	held := m.held
	m.held = nil
	m.loading = false
	for _, change := range held {
		m.applyLocked(change)
	}
}
