package schema

import (
	"time"

	"gorm.io/datatypes"
)

// DeedTemplate represents the deed_templates table - particulars template per deed type
type DeedTemplate struct {
	DeedType        string  `gorm:"column:deed_type;primaryKey;type:text"`
	PreviewTemplate *string `gorm:"column:preview_template;type:text"`
	// CustomPlaceholders is a JSON object of dynamic field name to default label
	CustomPlaceholders datatypes.JSON `gorm:"column:custom_placeholders"`
	CreatedAt          time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for the DeedTemplate model
func (DeedTemplate) TableName() string {
	return "deed_templates"
}

// HistoryOfTitleTemplate represents the history_of_title_templates table
type HistoryOfTitleTemplate struct {
	DeedType        string    `gorm:"column:deed_type;primaryKey;type:text"`
	TemplateContent *string   `gorm:"column:template_content;type:text"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for the HistoryOfTitleTemplate model
func (HistoryOfTitleTemplate) TableName() string {
	return "history_of_title_templates"
}
