package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/title-scrutiny/internal/domain"
	"github.com/feral-file/title-scrutiny/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new store over a gorm connection.
// Both the postgres and the sqlite dialects are supported.
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// It accesses the underlying *sql.DB and sets the pool configuration.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// AutoMigrate creates or updates the tables of the schema
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(schema.All()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// now returns the current time at the precision kept by postgres timestamptz
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// QueryDeeds returns the deeds matching the filter ordered by created_at then id
func (s *pgStore) QueryDeeds(ctx context.Context, filter DeedFilter) ([]domain.Deed, error) {
	query := s.db.WithContext(ctx).Model(&schema.Deed{})
	if filter.TableType != nil {
		tag := string(*filter.TableType)
		if filter.TableType.IsLegacy() {
			query = query.Where("table_type = ? OR table_type = '' OR table_type IS NULL", tag)
		} else {
			query = query.Where("table_type = ?", tag)
		}
	}

	var rows []schema.Deed
	if err := query.Order("created_at ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query deeds: %w", err)
	}

	deeds := make([]domain.Deed, 0, len(rows))
	for _, row := range rows {
		deed, err := toDomainDeed(row)
		if err != nil {
			return nil, err
		}
		deeds = append(deeds, deed)
	}
	return deeds, nil
}

// GetDeed returns a deed by id
func (s *pgStore) GetDeed(ctx context.Context, id string) (*domain.Deed, error) {
	var row schema.Deed
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get deed: %w", err)
	}

	deed, err := toDomainDeed(row)
	if err != nil {
		return nil, err
	}
	return &deed, nil
}

// InsertDeed stores a new deed
func (s *pgStore) InsertDeed(ctx context.Context, deed domain.Deed) (*domain.Deed, error) {
	if deed.ID == "" {
		deed.ID = uuid.NewString()
	}
	if deed.CreatedAt.IsZero() {
		deed.CreatedAt = now()
	}
	if deed.CustomFields == nil {
		deed.CustomFields = map[string]string{}
	}

	row, err := toSchemaDeed(deed)
	if err != nil {
		return nil, err
	}
	row.CreatedAt = row.CreatedAt.UTC()
	row.UpdatedAt = now()

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to insert deed: %w", err)
	}

	inserted, err := toDomainDeed(row)
	if err != nil {
		return nil, err
	}
	return &inserted, nil
}

// UpdateDeed writes the non-nil fields of the patch
func (s *pgStore) UpdateDeed(ctx context.Context, id string, patch domain.DeedPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	columns, err := patchColumns(patch)
	if err != nil {
		return err
	}
	columns["updated_at"] = now()

	if err := s.db.WithContext(ctx).Model(&schema.Deed{}).Where("id = ?", id).Updates(columns).Error; err != nil {
		return fmt.Errorf("failed to update deed: %w", err)
	}
	return nil
}

// DeleteDeed removes a deed
func (s *pgStore) DeleteDeed(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&schema.Deed{}).Error; err != nil {
		return fmt.Errorf("failed to delete deed: %w", err)
	}
	return nil
}

// ListDeedTemplates returns the particulars catalog
func (s *pgStore) ListDeedTemplates(ctx context.Context) ([]domain.DeedTypeTemplate, error) {
	var rows []schema.DeedTemplate
	if err := s.db.WithContext(ctx).Order("deed_type ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list deed templates: %w", err)
	}

	templates := make([]domain.DeedTypeTemplate, 0, len(rows))
	for _, row := range rows {
		tmpl, err := toDomainDeedTemplate(row)
		if err != nil {
			return nil, err
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}

// ListHistoryTemplates returns the history of title catalog
func (s *pgStore) ListHistoryTemplates(ctx context.Context) ([]domain.HistoryTemplate, error) {
	var rows []schema.HistoryOfTitleTemplate
	if err := s.db.WithContext(ctx).Order("deed_type ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list history templates: %w", err)
	}

	templates := make([]domain.HistoryTemplate, 0, len(rows))
	for _, row := range rows {
		tmpl := domain.HistoryTemplate{DeedType: row.DeedType, UpdatedAt: row.UpdatedAt}
		if row.TemplateContent != nil {
			tmpl.TemplateContent = *row.TemplateContent
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}

// UpsertDeedTemplate creates or replaces the catalog entry of a deed type
func (s *pgStore) UpsertDeedTemplate(ctx context.Context, tmpl domain.DeedTypeTemplate) error {
	placeholders, err := marshalStringMap(tmpl.CustomPlaceholders)
	if err != nil {
		return err
	}

	preview := tmpl.PreviewTemplate
	row := schema.DeedTemplate{
		DeedType:           tmpl.DeedType,
		PreviewTemplate:    &preview,
		CustomPlaceholders: placeholders,
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "deed_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"preview_template", "custom_placeholders", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert deed template: %w", err)
	}
	return nil
}

// UpsertHistoryTemplate creates or replaces the history template of a deed type
func (s *pgStore) UpsertHistoryTemplate(ctx context.Context, tmpl domain.HistoryTemplate) error {
	content := tmpl.TemplateContent
	row := schema.HistoryOfTitleTemplate{
		DeedType:        tmpl.DeedType,
		TemplateContent: &content,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "deed_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"template_content", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert history template: %w", err)
	}
	return nil
}

// CreateDocumentTemplate stores an uploaded template
func (s *pgStore) CreateDocumentTemplate(ctx context.Context, tmpl domain.DocumentTemplate) (*domain.DocumentTemplate, error) {
	if tmpl.ID == "" {
		tmpl.ID = uuid.NewString()
	}

	row := schema.DocumentTemplate{
		ID:           tmpl.ID,
		TemplateName: tmpl.Name,
		FileName:     tmpl.FileName,
		Content:      tmpl.Content,
		FileData:     tmpl.Data,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to create document template: %w", err)
	}

	created := toDomainDocumentTemplate(row)
	return &created, nil
}

// ListDocumentTemplates returns templates newest first, without file data
func (s *pgStore) ListDocumentTemplates(ctx context.Context) ([]domain.DocumentTemplate, error) {
	var rows []schema.DocumentTemplate
	err := s.db.WithContext(ctx).
		Select("id", "template_name", "file_name", "content", "created_at", "updated_at").
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list document templates: %w", err)
	}

	templates := make([]domain.DocumentTemplate, 0, len(rows))
	for _, row := range rows {
		templates = append(templates, toDomainDocumentTemplate(row))
	}
	return templates, nil
}

// GetDocumentTemplate returns a template by id
func (s *pgStore) GetDocumentTemplate(ctx context.Context, id string) (*domain.DocumentTemplate, error) {
	var row schema.DocumentTemplate
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document template: %w", err)
	}

	tmpl := toDomainDocumentTemplate(row)
	return &tmpl, nil
}

// GetDraft returns a draft by id
func (s *pgStore) GetDraft(ctx context.Context, id string) (*domain.Draft, error) {
	var row schema.Draft
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}

	draft, err := toDomainDraft(row)
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

// SaveDraft creates or replaces a draft
func (s *pgStore) SaveDraft(ctx context.Context, draft domain.Draft) (*domain.Draft, error) {
	if draft.ID == "" {
		draft.ID = uuid.NewString()
	}

	row, err := toSchemaDraft(draft)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"draft_name", "template_id", "placeholders", "documents", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}

	return s.GetDraft(ctx, draft.ID)
}
