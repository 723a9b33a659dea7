package store

import (
	"context"

	"github.com/feral-file/title-scrutiny/internal/domain"
)

// DeedFilter selects deeds by table. A nil TableType selects every deed.
type DeedFilter struct {
	TableType *domain.TableType
}

// ForTable returns a filter for one logical table
func ForTable(t domain.TableType) DeedFilter {
	return DeedFilter{TableType: &t}
}

// DeedStore defines the record operations on deeds
type DeedStore interface {
	// QueryDeeds returns the deeds matching the filter ordered by created_at then id
	QueryDeeds(ctx context.Context, filter DeedFilter) ([]domain.Deed, error)
	// GetDeed returns a deed by id, or nil when it does not exist
	GetDeed(ctx context.Context, id string) (*domain.Deed, error)
	// InsertDeed stores a new deed, assigning its id and created_at when unset
	InsertDeed(ctx context.Context, deed domain.Deed) (*domain.Deed, error)
	// UpdateDeed writes the non-nil fields of the patch
	UpdateDeed(ctx context.Context, id string, patch domain.DeedPatch) error
	// DeleteDeed removes a deed; removing a missing deed is not an error
	DeleteDeed(ctx context.Context, id string) error
}

// CatalogStore defines the operations on the deed-type template catalogs
type CatalogStore interface {
	ListDeedTemplates(ctx context.Context) ([]domain.DeedTypeTemplate, error)
	ListHistoryTemplates(ctx context.Context) ([]domain.HistoryTemplate, error)
	UpsertDeedTemplate(ctx context.Context, tmpl domain.DeedTypeTemplate) error
	UpsertHistoryTemplate(ctx context.Context, tmpl domain.HistoryTemplate) error
}

// TemplateStore defines the operations on uploaded document templates
type TemplateStore interface {
	CreateDocumentTemplate(ctx context.Context, tmpl domain.DocumentTemplate) (*domain.DocumentTemplate, error)
	// ListDocumentTemplates returns templates newest first, without file data
	ListDocumentTemplates(ctx context.Context) ([]domain.DocumentTemplate, error)
	// GetDocumentTemplate returns a template by id, or nil when it does not exist
	GetDocumentTemplate(ctx context.Context, id string) (*domain.DocumentTemplate, error)
}

// DraftStore defines the operations on saved drafts
type DraftStore interface {
	// GetDraft returns a draft by id, or nil when it does not exist
	GetDraft(ctx context.Context, id string) (*domain.Draft, error)
	// SaveDraft creates or replaces a draft, assigning its id when unset
	SaveDraft(ctx context.Context, draft domain.Draft) (*domain.Draft, error)
}

// Store defines the interface for database operations
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	DeedStore
	CatalogStore
	TemplateStore
	DraftStore
}
