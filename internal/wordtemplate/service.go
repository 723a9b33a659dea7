package wordtemplate

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/feral-file/title-scrutiny/internal/domain"
	"github.com/feral-file/title-scrutiny/internal/logger"
	"github.com/feral-file/title-scrutiny/internal/placeholder"
	"github.com/feral-file/title-scrutiny/internal/store"
)

// Service stores uploaded templates together with their extracted text
type Service struct {
	store store.TemplateStore
}

// NewService creates a template service backed by st
func NewService(st store.TemplateStore) *Service {
	return &Service{store: st}
}

// Upload validates a .docx upload, extracts its text and stores it. A blank name falls back
// to the file name without its extension.
func (s *Service) Upload(ctx context.Context, name, fileName string, data []byte) (*domain.DocumentTemplate, error) {
	if !strings.EqualFold(filepath.Ext(fileName), ".docx") {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedTemplate, fileName)
	}

	content, err := ExtractText(data)
	if err != nil {
		if errors.Is(err, ErrNotDocx) {
			logger.WarnCtx(ctx, "Rejected template upload",
				zap.String("fileName", fileName),
				zap.String("mimeType", DetectType(data)),
				zap.Error(err))
			return nil, fmt.Errorf("%w: %v", domain.ErrUnsupportedTemplate, err)
		}
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	}

	tmpl, err := s.store.CreateDocumentTemplate(ctx, domain.DocumentTemplate{
		Name:     name,
		FileName: filepath.Base(fileName),
		Content:  content,
		Data:     data,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store template: %w", err)
	}

	logger.InfoCtx(ctx, "Stored document template",
		zap.String("templateID", tmpl.ID),
		zap.String("name", tmpl.Name),
		zap.Int("placeholders", len(placeholder.FormFields(content))))

	return tmpl, nil
}

// List returns the stored templates, newest first
func (s *Service) List(ctx context.Context) ([]domain.DocumentTemplate, error) {
	templates, err := s.store.ListDocumentTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

// Get returns a template by id
func (s *Service) Get(ctx context.Context, id string) (*domain.DocumentTemplate, error) {
	tmpl, err := s.store.GetDocumentTemplate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	if tmpl == nil {
		return nil, fmt.Errorf("%w: template %s", domain.ErrNotFound, id)
	}
	return tmpl, nil
}

// Placeholders returns the form fields of a template with their labels
func Placeholders(tmpl *domain.DocumentTemplate) []Field {
	names := placeholder.FormFields(tmpl.Content)
	fields := make([]Field, len(names))
	for i, n := range names {
		fields[i] = Field{Name: n, Label: placeholder.Label(n)}
	}
	return fields
}

// Field is a placeholder input of a template
type Field struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}
