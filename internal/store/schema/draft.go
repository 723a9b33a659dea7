package schema

import (
	"time"

	"gorm.io/datatypes"
)

// Draft represents the drafts table - saved drafting sessions
type Draft struct {
	ID         string  `gorm:"column:id;primaryKey;type:varchar(36)"`
	DraftName  string  `gorm:"column:draft_name;not null;type:text"`
	TemplateID *string `gorm:"column:template_id;type:varchar(36)"`
	// Placeholders is a JSON object of placeholder name to value
	Placeholders datatypes.JSON `gorm:"column:placeholders"`
	// Documents is a JSON array of property documents
	Documents datatypes.JSON `gorm:"column:documents"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for the Draft model
func (Draft) TableName() string {
	return "drafts"
}

// All returns every model of the schema, in migration order
func All() []interface{} {
	return []interface{}{
		&Deed{},
		&DeedTemplate{},
		&HistoryOfTitleTemplate{},
		&DocumentTemplate{},
		&Draft{},
	}
}
