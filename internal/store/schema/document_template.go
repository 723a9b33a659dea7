package schema

import "time"

// DocumentTemplate represents the document_templates table - uploaded Word templates
type DocumentTemplate struct {
	ID           string `gorm:"column:id;primaryKey;type:varchar(36)"`
	TemplateName string `gorm:"column:template_name;not null;type:text"`
	FileName     string `gorm:"column:file_name;not null;type:text"`
	// Content is the raw text extracted from the document body
	Content   string    `gorm:"column:content;not null;type:text"`
	FileData  []byte    `gorm:"column:file_data"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for the DocumentTemplate model
func (DocumentTemplate) TableName() string {
	return "document_templates"
}
