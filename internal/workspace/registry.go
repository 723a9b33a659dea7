package workspace

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/feral-file/title-scrutiny/internal/adapter"
	"github.com/feral-file/title-scrutiny/internal/columns"
	"github.com/feral-file/title-scrutiny/internal/deeds"
	"github.com/feral-file/title-scrutiny/internal/domain"
	"github.com/feral-file/title-scrutiny/internal/logger"
	"github.com/feral-file/title-scrutiny/internal/merge"
	"github.com/feral-file/title-scrutiny/internal/messaging"
	"github.com/feral-file/title-scrutiny/internal/notify"
	"github.com/feral-file/title-scrutiny/internal/store"
)

const (
	DEFAULT_IDLE_TIMEOUT     = 2 * time.Hour
	DEFAULT_WORKER_POOL_SIZE = 8
)

// Config holds the session settings
type Config struct {
	// Deeds is applied to every table; its TableType is ignored
	Deeds          deeds.Config
	IdleTimeout    time.Duration
	WorkerPoolSize int
	HubBuffer      int
}

// Dependencies are the shared services sessions are built from
type Dependencies struct {
	Store      store.Store
	Catalog    deeds.Catalog
	Engine     *merge.Engine
	Subscriber messaging.Subscriber
	// ColumnStorage returns the custom column storage of a client
	ColumnStorage func(clientID string) columns.Storage
	JSON          adapter.JSON
	Clock         adapter.Clock
	// Notifier receives every notice besides the session's own subscribers
	Notifier notify.Notifier
}

// Options selects what a new session starts from
type Options struct {
	ClientID   string
	TemplateID string
	DraftID    string
}

// Registry owns the open sessions
type Registry struct {
	cfg  Config
	deps Dependencies
	pool pond.Pool

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates a session registry
func NewRegistry(cfg Config, deps Dependencies) *Registry {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DEFAULT_IDLE_TIMEOUT
	}
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = DEFAULT_WORKER_POOL_SIZE
	}
	if deps.Clock == nil {
		deps.Clock = adapter.NewClock()
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.Discard{}
	}

	return &Registry{
		cfg:      cfg,
		deps:     deps,
		pool:     pond.NewPool(cfg.WorkerPoolSize),
		sessions: make(map[string]*Session),
	}
}

// Create opens a session for a client, restoring a draft or starting from a template
func (r *Registry) Create(ctx context.Context, opts Options) (*Session, error) {
	if opts.ClientID == "" {
		opts.ClientID = "anonymous"
	}

	s := newSession(uuid.NewString(), opts.ClientID, r.deps, r.cfg)
	ctx = logger.WithFields(ctx, zap.String("session_id", s.id), zap.String("client_id", s.clientID))

	switch {
	case opts.DraftID != "":
		if err := s.loadDraft(ctx, opts.DraftID); err != nil {
			return nil, err
		}
	case opts.TemplateID != "":
		if err := s.UseTemplate(ctx, opts.TemplateID); err != nil {
			return nil, err
		}
	}

	if err := s.start(ctx, r.pool); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()

	logger.InfoCtx(ctx, "Session opened", zap.Int("sessions", r.Len()))
	return s, nil
}

// Get returns an open session and marks it used
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	s.touch()
	return s, nil
}

// CloseSession closes and forgets a session
func (r *Registry) CloseSession(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	s.Close()
	logger.Info("Session closed", zap.String("session_id", id))
	return nil
}

// Len returns the number of open sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep closes the sessions idle for longer than the idle timeout and returns how many it closed
func (r *Registry) Sweep() int {
	now := r.deps.Clock.Now()

	var expired []*Session
	r.mu.Lock()
	for id, s := range r.sessions {
		if s.idleSince(now) > r.cfg.IdleTimeout {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.Close()
		logger.Info("Session expired", zap.String("session_id", s.id))
	}
	return len(expired)
}

// Run sweeps idle sessions every interval until ctx is done
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.deps.Clock.After(interval):
			r.Sweep()
		}
	}
}

// Close closes every session and stops the load pool
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}

	logger.Info("Stopping session load pool",
		zap.Uint64("submitted", r.pool.SubmittedTasks()),
		zap.Uint64("failed", r.pool.FailedTasks()))
	r.pool.StopAndWait()
}
