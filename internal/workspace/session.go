// Package workspace holds the drafting sessions of connected users: their deed tables,
// custom columns, property documents, placeholder values and template
package workspace

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/feral-file/title-scrutiny/internal/adapter"
	"github.com/feral-file/title-scrutiny/internal/columns"
	"github.com/feral-file/title-scrutiny/internal/deeds"
	"github.com/feral-file/title-scrutiny/internal/domain"
	"github.com/feral-file/title-scrutiny/internal/logger"
	"github.com/feral-file/title-scrutiny/internal/merge"
	"github.com/feral-file/title-scrutiny/internal/messaging"
	"github.com/feral-file/title-scrutiny/internal/notify"
	"github.com/feral-file/title-scrutiny/internal/placeholder"
	"github.com/feral-file/title-scrutiny/internal/property"
	"github.com/feral-file/title-scrutiny/internal/store"
)

// copySources maps each secondary table to the table it copies from
var copySources = map[domain.TableType]domain.TableType{
	domain.Table2: domain.TablePrimary,
	domain.Table3: domain.Table2,
	domain.Table4: domain.Table3,
}

// CopySource returns the table that t copies from
func CopySource(t domain.TableType) (domain.TableType, bool) {
	src, ok := copySources[t]
	return src, ok
}

// Session is one user's drafting workspace
type Session struct {
	id       string
	clientID string

	store      store.Store
	engine     *merge.Engine
	subscriber messaging.Subscriber
	clock      adapter.Clock

	hub      *notify.Hub
	notifier notify.Notifier
	tables   map[domain.TableType]*deeds.Manager
	overlays map[domain.TableType]*columns.Overlay
	property *property.Manager

	mu           sync.RWMutex
	draftID      string
	name         string
	templateID   *string
	template     string
	placeholders map[string]string
	lastUsed     time.Time

	cancel context.CancelFunc
	feeds  sync.WaitGroup
	closed bool
}

func newSession(id, clientID string, deps Dependencies, cfg Config) *Session {
	hub := notify.NewHub(cfg.HubBuffer)
	s := &Session{
		id:           id,
		clientID:     clientID,
		store:        deps.Store,
		engine:       deps.Engine,
		subscriber:   deps.Subscriber,
		clock:        deps.Clock,
		hub:          hub,
		notifier:     notify.Multi{hub, deps.Notifier},
		tables:       make(map[domain.TableType]*deeds.Manager, len(domain.TableTypes)),
		overlays:     make(map[domain.TableType]*columns.Overlay, len(domain.TableTypes)),
		property:     property.NewManager(nil),
		placeholders: map[string]string{},
		lastUsed:     deps.Clock.Now(),
	}

	storage := deps.ColumnStorage(clientID)
	for _, t := range domain.TableTypes {
		tableCfg := cfg.Deeds
		tableCfg.TableType = t
		s.tables[t] = deeds.NewManager(tableCfg, deps.Store, deps.Catalog, s.notifier, deps.Clock)
		s.overlays[t] = columns.NewOverlay(storage, t, deps.JSON)
	}
	return s
}

// start follows the change feed with every table and loads the tables and column overlays
// through the pool. Subscriptions are opened first so no committed change is missed.
func (s *Session) start(ctx context.Context, pool pond.Pool) error {
	feedCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	feedCtx = logger.WithFields(feedCtx, zap.String("session_id", s.id))
	s.cancel = cancel

	for _, t := range domain.TableTypes {
		events, unsubscribe, err := s.subscriber.Subscribe(feedCtx)
		if err != nil {
			s.Close()
			return fmt.Errorf("failed to subscribe to changes: %w", err)
		}

		m := s.tables[t]
		s.feeds.Add(1)
		go func() {
			defer s.feeds.Done()
			defer unsubscribe()
			if err := m.Run(feedCtx, events); err != nil && !errors.Is(err, context.Canceled) {
				logger.ErrorCtx(feedCtx, fmt.Errorf("change feed stopped: %w", err),
					zap.String("table_type", string(m.TableType())))
			}
		}()
	}

	group := pool.NewGroup()
	for _, t := range domain.TableTypes {
		m, overlay := s.tables[t], s.overlays[t]
		group.SubmitErr(
			func() error { return m.Load(ctx) },
			func() error { return overlay.Load(ctx) },
		)
	}
	if err := group.Wait(); err != nil {
		s.Close()
		return fmt.Errorf("failed to load session: %w", err)
	}
	return nil
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// ClientID returns the client owning the session's custom columns
func (s *Session) ClientID() string {
	return s.clientID
}

// Notices subscribes to the session's notices. The returned func unsubscribes.
func (s *Session) Notices() (<-chan notify.Notice, func()) {
	return s.hub.Subscribe()
}

// Table returns the manager of a table
func (s *Session) Table(t domain.TableType) (*deeds.Manager, error) {
	m, ok := s.tables[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidTableType, t)
	}
	return m, nil
}

// Columns returns the custom column overlay of a table
func (s *Session) Columns(t domain.TableType) (*columns.Overlay, error) {
	o, ok := s.overlays[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidTableType, t)
	}
	return o, nil
}

// CopyPrevious copies the deeds of the preceding table into t
func (s *Session) CopyPrevious(ctx context.Context, t domain.TableType) (int, error) {
	src, ok := CopySource(t)
	if !ok {
		return 0, fmt.Errorf("%w: table %q has no source table", domain.ErrInvalidInput, t)
	}
	return s.tables[t].CopyFromTable(ctx, src)
}

// Placeholders returns a copy of the placeholder values
func (s *Session) Placeholders() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.placeholders)
}

// SetPlaceholders merges values into the placeholder map
func (s *Session) SetPlaceholders(values map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	maps.Copy(s.placeholders, values)
}

// UseTemplate switches the session to a stored template. Placeholders of the new template
// that have no value yet are added empty.
func (s *Session) UseTemplate(ctx context.Context, templateID string) error {
	tmpl, err := s.store.GetDocumentTemplate(ctx, templateID)
	if err != nil {
		return fmt.Errorf("failed to get template: %w", err)
	}
	if tmpl == nil {
		return fmt.Errorf("%w: template %s", domain.ErrNotFound, templateID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.templateID = &tmpl.ID
	s.template = tmpl.Content
	for _, name := range placeholder.FormFields(tmpl.Content) {
		if _, ok := s.placeholders[name]; !ok {
			s.placeholders[name] = ""
		}
	}
	return nil
}

// Template returns the template text
func (s *Session) Template() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.template
}

// AddDocument adds a property document from the form
func (s *Session) AddDocument(ctx context.Context, form property.Form) (domain.PropertyDocument, error) {
	doc, err := s.property.Add(form)
	if err != nil {
		s.notifier.Notify(ctx, notify.Toast(notify.LevelError, "", err.Error()))
		return domain.PropertyDocument{}, err
	}
	s.notifier.Notify(ctx, notify.Toast(notify.LevelSuccess, "", "Document added successfully"))
	return doc, nil
}

// RemoveDocument removes a property document
func (s *Session) RemoveDocument(ctx context.Context, id string) error {
	if !s.property.Remove(id) {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	s.notifier.Notify(ctx, notify.Toast(notify.LevelInfo, "", "Document removed"))
	return nil
}

// EditDocument takes a property document back into a form
func (s *Session) EditDocument(id string) (property.Form, error) {
	return s.property.Edit(id)
}

// Documents returns the property documents
func (s *Session) Documents() []domain.PropertyDocument {
	return s.property.Documents()
}

// Preview merges the session state into a preview document
func (s *Session) Preview(ctx context.Context) *merge.Document {
	s.mu.RLock()
	in := merge.Input{
		Template:     s.template,
		Placeholders: maps.Clone(s.placeholders),
	}
	s.mu.RUnlock()

	in.Deeds = s.tables[domain.TablePrimary].Deeds()
	in.Table2 = s.tables[domain.Table2].Deeds()
	in.Table3 = s.tables[domain.Table3].Deeds()
	in.Table4 = s.tables[domain.Table4].Deeds()
	in.Documents = s.property.Documents()

	return s.engine.Render(ctx, in)
}

// SaveDraft stores the placeholders, template and property documents under name. Saving
// again updates the same draft.
func (s *Session) SaveDraft(ctx context.Context, name string) (*domain.Draft, error) {
	s.mu.RLock()
	draft := domain.Draft{
		ID:           s.draftID,
		Name:         name,
		TemplateID:   s.templateID,
		Placeholders: maps.Clone(s.placeholders),
	}
	s.mu.RUnlock()
	draft.Documents = s.property.Documents()

	saved, err := s.store.SaveDraft(ctx, draft)
	if err != nil {
		s.notifier.Notify(ctx, notify.Toast(notify.LevelError, "", "Failed to save draft"))
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}

	s.mu.Lock()
	s.draftID = saved.ID
	s.name = saved.Name
	s.mu.Unlock()

	s.notifier.Notify(ctx, notify.Toast(notify.LevelSuccess, "", "Draft saved successfully"))
	return saved, nil
}

// loadDraft restores a saved draft into the session
func (s *Session) loadDraft(ctx context.Context, draftID string) error {
	draft, err := s.store.GetDraft(ctx, draftID)
	if err != nil {
		return fmt.Errorf("failed to get draft: %w", err)
	}
	if draft == nil {
		return fmt.Errorf("%w: draft %s", domain.ErrNotFound, draftID)
	}

	s.mu.Lock()
	s.draftID = draft.ID
	s.name = draft.Name
	s.placeholders = maps.Clone(draft.Placeholders)
	if s.placeholders == nil {
		s.placeholders = map[string]string{}
	}
	s.mu.Unlock()
	s.property.Replace(draft.Documents)

	if draft.TemplateID != nil {
		return s.UseTemplate(ctx, *draft.TemplateID)
	}
	return nil
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastUsed = s.clock.Now()
	s.mu.Unlock()
}

// idleSince reports how long the session has not been used
func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return now.Sub(s.lastUsed)
}

// Close stops following the change feed, writes pending edits and disconnects notice
// subscribers. It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.feeds.Wait()

	for _, m := range s.tables {
		m.Close()
	}
	s.hub.Close()
}
