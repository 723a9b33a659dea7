// Package catalog serves the deed-type template catalog with a short-lived cache.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/feral-file/title-scrutiny/internal/domain"
	"github.com/feral-file/title-scrutiny/internal/logger"
	"github.com/feral-file/title-scrutiny/internal/placeholder"
	"github.com/feral-file/title-scrutiny/internal/store"
)

const snapshotKey = "catalog"

// DeedType is the catalog view of one deed type
type DeedType struct {
	DeedType            string            `json:"deed_type"`
	PreviewTemplate     string            `json:"preview_template"`
	HistoryTemplate     string            `json:"history_template"`
	CustomPlaceholders  map[string]string `json:"custom_placeholders"`
	DynamicPlaceholders []string          `json:"dynamic_placeholders"`
}

type snapshot struct {
	deeds   map[string]domain.DeedTypeTemplate
	history map[string]domain.HistoryTemplate
	types   []string
}

// Catalog resolves deed types case-insensitively against the stored templates
type Catalog struct {
	store store.CatalogStore
	cache *cache.Cache
	// loadMu keeps concurrent misses from loading twice
	loadMu sync.Mutex
}

// New creates a catalog whose snapshot is reloaded from the store after ttl
func New(st store.CatalogStore, ttl time.Duration) *Catalog {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Catalog{
		store: st,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Reload replaces the cached snapshot with the stored catalog
func (c *Catalog) Reload(ctx context.Context) error {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	_, err := c.load(ctx)
	return err
}

// Invalidate drops the cached snapshot
func (c *Catalog) Invalidate() {
	c.cache.Delete(snapshotKey)
}

func (c *Catalog) snapshot(ctx context.Context) (*snapshot, error) {
	if cached, found := c.cache.Get(snapshotKey); found {
		return cached.(*snapshot), nil
	}

	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	if cached, found := c.cache.Get(snapshotKey); found {
		return cached.(*snapshot), nil
	}
	return c.load(ctx)
}

func (c *Catalog) load(ctx context.Context) (*snapshot, error) {
	deedTemplates, err := c.store.ListDeedTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load deed templates: %w", err)
	}
	historyTemplates, err := c.store.ListHistoryTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load history templates: %w", err)
	}

	snap := &snapshot{
		deeds:   make(map[string]domain.DeedTypeTemplate, len(deedTemplates)),
		history: make(map[string]domain.HistoryTemplate, len(historyTemplates)),
	}
	names := make(map[string]string)
	for _, tmpl := range deedTemplates {
		key := domain.NormalizeDeedType(tmpl.DeedType)
		snap.deeds[key] = tmpl
		names[key] = strings.TrimSpace(tmpl.DeedType)
	}
	for _, tmpl := range historyTemplates {
		key := domain.NormalizeDeedType(tmpl.DeedType)
		snap.history[key] = tmpl
		if _, ok := names[key]; !ok {
			names[key] = strings.TrimSpace(tmpl.DeedType)
		}
	}
	for _, name := range names {
		snap.types = append(snap.types, name)
	}
	sort.Strings(snap.types)

	c.cache.SetDefault(snapshotKey, snap)
	return snap, nil
}

// lookup returns the snapshot, logging a load failure as an empty catalog
func (c *Catalog) lookup(ctx context.Context) *snapshot {
	snap, err := c.snapshot(ctx)
	if err != nil {
		logger.ErrorCtx(ctx, err, zap.String("component", "catalog"))
		return &snapshot{}
	}
	return snap
}

// PreviewTemplate returns the particulars template of a deed type
func (c *Catalog) PreviewTemplate(ctx context.Context, deedType string) (string, bool) {
	tmpl, ok := c.lookup(ctx).deeds[domain.NormalizeDeedType(deedType)]
	if !ok {
		return "", false
	}
	return tmpl.PreviewTemplate, true
}

// HistoryTemplate returns the history narrative of a deed type. An empty template counts as missing.
func (c *Catalog) HistoryTemplate(ctx context.Context, deedType string) (string, bool) {
	tmpl, ok := c.lookup(ctx).history[domain.NormalizeDeedType(deedType)]
	if !ok || strings.TrimSpace(tmpl.TemplateContent) == "" {
		return "", false
	}
	return tmpl.TemplateContent, true
}

// CustomPlaceholderKeys returns the sorted custom field names of a deed type; none when unknown
func (c *Catalog) CustomPlaceholderKeys(ctx context.Context, deedType string) []string {
	tmpl, ok := c.lookup(ctx).deeds[domain.NormalizeDeedType(deedType)]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(tmpl.CustomPlaceholders))
	for key := range tmpl.CustomPlaceholders {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// DynamicPlaceholders returns the tokens of both templates of a deed type that are not standard fields
func (c *Catalog) DynamicPlaceholders(ctx context.Context, deedType string) []string {
	snap := c.lookup(ctx)
	key := domain.NormalizeDeedType(deedType)
	return placeholder.Dynamic(snap.deeds[key].PreviewTemplate, snap.history[key].TemplateContent)
}

// DeedTypes lists the catalog, sorted by deed type
func (c *Catalog) DeedTypes(ctx context.Context) ([]DeedType, error) {
	snap, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	types := make([]DeedType, 0, len(snap.types))
	for _, name := range snap.types {
		key := domain.NormalizeDeedType(name)
		tmpl := snap.deeds[key]
		history := snap.history[key]
		placeholders := tmpl.CustomPlaceholders
		if placeholders == nil {
			placeholders = map[string]string{}
		}
		types = append(types, DeedType{
			DeedType:            name,
			PreviewTemplate:     tmpl.PreviewTemplate,
			HistoryTemplate:     history.TemplateContent,
			CustomPlaceholders:  placeholders,
			DynamicPlaceholders: placeholder.Dynamic(tmpl.PreviewTemplate, history.TemplateContent),
		})
	}
	return types, nil
}

// UpsertDeedTemplate writes a particulars template and drops the cached snapshot
func (c *Catalog) UpsertDeedTemplate(ctx context.Context, tmpl domain.DeedTypeTemplate) error {
	tmpl.DeedType = strings.TrimSpace(tmpl.DeedType)
	if tmpl.DeedType == "" {
		return fmt.Errorf("%w: deed type is required", domain.ErrInvalidInput)
	}
	if err := c.store.UpsertDeedTemplate(ctx, tmpl); err != nil {
		return err
	}
	c.Invalidate()
	return nil
}

// UpsertHistoryTemplate writes a history template and drops the cached snapshot
func (c *Catalog) UpsertHistoryTemplate(ctx context.Context, tmpl domain.HistoryTemplate) error {
	tmpl.DeedType = strings.TrimSpace(tmpl.DeedType)
	if tmpl.DeedType == "" {
		return fmt.Errorf("%w: deed type is required", domain.ErrInvalidInput)
	}
	if err := c.store.UpsertHistoryTemplate(ctx, tmpl); err != nil {
		return err
	}
	c.Invalidate()
	return nil
}
