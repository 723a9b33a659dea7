// Package deeds keeps one deed table of a drafting session consistent between local
// optimistic edits, the record store and the change feed.
package deeds

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/title-scrutiny/internal/adapter"
	"github.com/feral-file/title-scrutiny/internal/debounce"
	"github.com/feral-file/title-scrutiny/internal/domain"
	"github.com/feral-file/title-scrutiny/internal/logger"
	"github.com/feral-file/title-scrutiny/internal/notify"
	"github.com/feral-file/title-scrutiny/internal/store"
)

// Store is the part of the record store a table manager uses
type Store interface {
	QueryDeeds(ctx context.Context, filter store.DeedFilter) ([]domain.Deed, error)
	InsertDeed(ctx context.Context, deed domain.Deed) (*domain.Deed, error)
	UpdateDeed(ctx context.Context, id string, patch domain.DeedPatch) error
	DeleteDeed(ctx context.Context, id string) error
}

// Catalog resolves the custom field keys of a deed type
type Catalog interface {
	// CustomPlaceholderKeys returns the keys of the type's custom placeholders, or nil when unknown
	CustomPlaceholderKeys(ctx context.Context, deedType string) []string
}

// Config holds the table and the timings of a manager
type Config struct {
	TableType     domain.TableType
	DebounceDelay time.Duration
	EditingGrace  time.Duration
	InsertGrace   time.Duration
	CopyGrace     time.Duration
}

func (c Config) withDefaults() Config {
	if c.TableType == "" {
		c.TableType = domain.TablePrimary
	}
	if c.DebounceDelay <= 0 {
		c.DebounceDelay = 500 * time.Millisecond
	}
	if c.EditingGrace <= 0 {
		c.EditingGrace = 300 * time.Millisecond
	}
	if c.InsertGrace <= 0 {
		c.InsertGrace = 2 * time.Second
	}
	if c.CopyGrace <= 0 {
		c.CopyGrace = 3 * time.Second
	}
	return c
}

// writeKey identifies a debounced write
type writeKey struct {
	id    string
	field domain.DeedField
}

// Manager owns the ordered deed list of one table
type Manager struct {
	cfg      Config
	store    Store
	catalog  Catalog
	notifier notify.Notifier
	clock    adapter.Clock
	writes   *debounce.Scheduler[writeKey]

	mu    sync.Mutex
	deeds []domain.Deed
	// marks hold the generation that set them; a grace timer only clears its own generation
	editing  map[string]uint64
	inserted map[string]uint64
	markGen  uint64
	copying  bool
	// changes received while a load is in flight
	loading bool
	held    []heldChange
}

// NewManager creates a manager for one deed table
func NewManager(cfg Config, st Store, catalog Catalog, notifier notify.Notifier, clock adapter.Clock) *Manager {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Manager{
		cfg:      cfg.withDefaults(),
		store:    st,
		catalog:  catalog,
		notifier: notifier,
		clock:    clock,
		writes:   debounce.NewScheduler[writeKey](clock),
		editing:  make(map[string]uint64),
		inserted: make(map[string]uint64),
	}
}

// TableType returns the table the manager owns
func (m *Manager) TableType() domain.TableType {
	return m.cfg.TableType
}

func (m *Manager) logCtx(ctx context.Context) context.Context {
	return logger.WithFields(ctx, zap.String("table_type", string(m.cfg.TableType)))
}

// Load replaces the list with the table's deeds from the store. Changes committed
// after the query are applied once the new list is in place.
func (m *Manager) Load(ctx context.Context) error {
	ctx = m.logCtx(ctx)

	m.mu.Lock()
	m.loading = true
	m.mu.Unlock()

	deeds, err := m.store.QueryDeeds(ctx, store.ForTable(m.cfg.TableType))
	if err != nil {
		m.mu.Lock()
		m.replayLocked()
		m.mu.Unlock()
		m.report(ctx, "Failed to load deeds", fmt.Errorf("failed to load deeds: %w", err))
		return fmt.Errorf("failed to load deeds: %w", err)
	}

	deeds = slices.DeleteFunc(deeds, func(d domain.Deed) bool {
		return !m.cfg.TableType.Matches(d.TableType)
	})
	sort.SliceStable(deeds, func(i, j int) bool {
		return deeds[i].CreatedAt.Before(deeds[j].CreatedAt)
	})

	m.mu.Lock()
	m.deeds = deeds
	m.replayLocked()
	m.mu.Unlock()

	logger.DebugCtx(ctx, "deeds loaded", zap.Int("count", len(deeds)))
	return nil
}

// Deeds returns a snapshot of the ordered list
func (m *Manager) Deeds() []domain.Deed {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Deed, len(m.deeds))
	for i, d := range m.deeds {
		out[i] = d.Clone()
	}
	return out
}

// Deed returns a copy of one listed deed
func (m *Manager) Deed(id string) (domain.Deed, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexLocked(id)
	if idx < 0 {
		return domain.Deed{}, false
	}
	return m.deeds[idx].Clone(), true
}

// blank returns an empty deed tagged with the table
func (m *Manager) blank() domain.Deed {
	return domain.Deed{
		CustomFields: map[string]string{},
		TableType:    m.cfg.TableType.Tag(),
	}
}

// AddRecord inserts a blank deed. The change feed appends it to the list.
func (m *Manager) AddRecord(ctx context.Context) (*domain.Deed, error) {
	return m.addRecord(m.logCtx(ctx))
}

func (m *Manager) addRecord(ctx context.Context) (*domain.Deed, error) {
	inserted, err := m.store.InsertDeed(ctx, m.blank())
	if err != nil {
		err = fmt.Errorf("failed to add deed: %w", err)
		m.report(ctx, "Failed to add deed", err)
		return nil, err
	}

	m.notifier.Notify(ctx, notify.Toast(notify.LevelSuccess, m.cfg.TableType, "Deed added"))
	return inserted, nil
}

// InsertAfter inserts a blank deed right after the deed at index and splices it into
// the list without waiting for the change feed. An index outside the list appends.
func (m *Manager) InsertAfter(ctx context.Context, index int) (*domain.Deed, error) {
	ctx = m.logCtx(ctx)

	m.mu.Lock()
	if index < 0 || index >= len(m.deeds) {
		m.mu.Unlock()
		return m.addRecord(ctx)
	}
	left := m.deeds[index].CreatedAt
	var right time.Time
	if index+1 < len(m.deeds) {
		right = m.deeds[index+1].CreatedAt
	}
	m.mu.Unlock()

	orderKey := OrderKeyBetween(left, right, m.clock.Now())

	inserted, err := m.store.InsertDeed(ctx, m.blank())
	if err != nil {
		err = fmt.Errorf("failed to insert deed: %w", err)
		m.report(ctx, "Failed to insert deed", err)
		return nil, err
	}

	// the insert path may ignore a client supplied created_at
	if err := m.store.UpdateDeed(ctx, inserted.ID, domain.DeedPatch{CreatedAt: &orderKey}); err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to update deed order key: %w", err), zap.String("deed_id", inserted.ID))
	}
	inserted.CreatedAt = orderKey

	m.mu.Lock()
	gen := m.markLocked(m.inserted, inserted.ID)
	m.deeds = slices.DeleteFunc(m.deeds, func(d domain.Deed) bool { return d.ID == inserted.ID })
	at := min(index+1, len(m.deeds))
	m.deeds = slices.Insert(m.deeds, at, inserted.Clone())
	m.mu.Unlock()

	m.clearAfter(m.inserted, inserted.ID, gen, m.cfg.InsertGrace)

	m.notifier.Notify(ctx, notify.Toast(notify.LevelSuccess, m.cfg.TableType, "Deed inserted"))
	m.notifier.Notify(ctx, notify.TableChanged(m.cfg.TableType))
	return inserted, nil
}

// OrderKeyBetween returns a created_at value ordering a deed between left and right.
// A zero time means the neighbour or its timestamp is unknown.
func OrderKeyBetween(left, right, now time.Time) time.Time {
	switch {
	case !left.IsZero() && !right.IsZero():
		mid := time.UnixMilli((left.UnixMilli() + right.UnixMilli()) / 2).UTC()
		if mid.After(left) && mid.Before(right) {
			return mid
		}
		// neighbours less than 2ms apart
		mid = time.UnixMicro((left.UnixMicro() + right.UnixMicro()) / 2).UTC()
		if mid.After(left) {
			return mid
		}
		// tied or adjacent at the store's microsecond precision
		return left.Truncate(time.Microsecond).Add(time.Microsecond).UTC()
	case !left.IsZero():
		return left.Add(time.Second).UTC()
	default:
		return now.UTC()
	}
}

// UpdateField changes a flat field locally and schedules the store write.
// A deed type change also resets the custom fields to the new type's keys.
// A malformed date is ignored and the previous value kept.
func (m *Manager) UpdateField(ctx context.Context, id string, field domain.DeedField, value string) error {
	ctx = m.logCtx(ctx)

	if _, err := domain.ParseDeedField(string(field)); err != nil {
		return err
	}

	patch, err := domain.SetField(field, value)
	if errors.Is(err, domain.ErrInvalidDate) {
		logger.DebugCtx(ctx, "ignoring malformed date", zap.String("deed_id", id), zap.String("value", value))
		return nil
	}
	if err != nil {
		return err
	}

	if field == domain.FieldDeedType {
		fields := map[string]string{}
		for _, key := range m.catalog.CustomPlaceholderKeys(ctx, value) {
			fields[key] = ""
		}
		patch.CustomFields = fields
	}

	m.mu.Lock()
	idx := m.indexLocked(id)
	if idx < 0 {
		m.mu.Unlock()
		return fmt.Errorf("%w: deed %s", domain.ErrNotFound, id)
	}
	patch.Apply(&m.deeds[idx])
	m.markLocked(m.editing, id)
	m.mu.Unlock()

	m.scheduleWrite(ctx, writeKey{id: id, field: field})
	return nil
}

// UpdateCustomField merges one custom field locally and schedules the store write
func (m *Manager) UpdateCustomField(ctx context.Context, id, key, value string) error {
	ctx = m.logCtx(ctx)

	m.mu.Lock()
	idx := m.indexLocked(id)
	if idx < 0 {
		m.mu.Unlock()
		return fmt.Errorf("%w: deed %s", domain.ErrNotFound, id)
	}
	if m.deeds[idx].CustomFields == nil {
		m.deeds[idx].CustomFields = map[string]string{}
	}
	m.deeds[idx].CustomFields[key] = value
	m.markLocked(m.editing, id)
	m.mu.Unlock()

	m.scheduleWrite(ctx, writeKey{id: id, field: domain.FieldCustomFields})
	return nil
}

// scheduleWrite debounces the store write of one field. The write outlives the caller's request.
func (m *Manager) scheduleWrite(ctx context.Context, key writeKey) {
	writeCtx := context.WithoutCancel(ctx)
	m.writes.Schedule(key, m.cfg.DebounceDelay, func() {
		m.flush(writeCtx, key)
	})
}

// flush writes the current local value of a field
func (m *Manager) flush(ctx context.Context, key writeKey) {
	m.mu.Lock()
	idx := m.indexLocked(key.id)
	if idx < 0 {
		// removed by the feed; nothing left to guard
		delete(m.editing, key.id)
		m.mu.Unlock()
		return
	}
	patch := patchFor(m.deeds[idx], key.field)
	gen := m.editing[key.id]
	m.mu.Unlock()

	if err := m.store.UpdateDeed(ctx, key.id, patch); err != nil {
		m.report(ctx, "Failed to update deed", fmt.Errorf("failed to update deed: %w", err),
			zap.String("deed_id", key.id), zap.String("field", string(key.field)))
	}

	m.clearAfter(m.editing, key.id, gen, m.cfg.EditingGrace)
}

// patchFor builds the write of one field from the local deed
func patchFor(d domain.Deed, field domain.DeedField) domain.DeedPatch {
	fields := maps.Clone(d.CustomFields)
	if fields == nil {
		fields = map[string]string{}
	}

	switch field {
	case domain.FieldDeedType:
		deedType := d.DeedType
		return domain.DeedPatch{DeedType: &deedType, CustomFields: fields}
	case domain.FieldDate:
		date := d.Date
		return domain.DeedPatch{Date: &date}
	case domain.FieldCustomFields:
		return domain.DeedPatch{CustomFields: fields}
	default:
		patch, _ := domain.SetField(field, d.Field(field))
		return patch
	}
}

// RemoveRecord deletes a deed in the store. The change feed removes it from the list.
func (m *Manager) RemoveRecord(ctx context.Context, id string) error {
	ctx = m.logCtx(ctx)

	if err := m.store.DeleteDeed(ctx, id); err != nil {
		err = fmt.Errorf("failed to remove deed: %w", err)
		m.report(ctx, "Failed to remove deed", err, zap.String("deed_id", id))
		return err
	}
	return nil
}

// IsEditing reports whether the deed is marked as actively edited
func (m *Manager) IsEditing(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.editing[id]
	return ok
}

// HasPendingWrite reports whether any debounced write of the deed is pending
func (m *Manager) HasPendingWrite(id string) bool {
	return m.writes.Pending(func(k writeKey) bool { return k.id == id })
}

// Close runs the pending writes and stops scheduling new ones
func (m *Manager) Close() {
	m.writes.Flush()
	m.writes.Stop()
}

func (m *Manager) indexLocked(id string) int {
	return slices.IndexFunc(m.deeds, func(d domain.Deed) bool { return d.ID == id })
}

// markLocked sets a mark on id and returns its generation
func (m *Manager) markLocked(marks map[string]uint64, id string) uint64 {
	m.markGen++
	marks[id] = m.markGen
	return m.markGen
}

// clearAfter drops the mark on id after d unless it was set again meanwhile
func (m *Manager) clearAfter(marks map[string]uint64, id string, gen uint64, d time.Duration) {
	m.clock.AfterFunc(d, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if marks[id] == gen {
			delete(marks, id)
		}
	})
}

// report logs a store failure and tells the user
func (m *Manager) report(ctx context.Context, message string, err error, fields ...zap.Field) {
	logger.ErrorCtx(ctx, err, fields...)
	m.notifier.Notify(ctx, notify.Toast(notify.LevelError, m.cfg.TableType, message))
}
