package schema

import (
	"time"

	"gorm.io/datatypes"
)

// Deed represents the deeds table - rows of every deed table of every draft
type Deed struct {
	// ID is the deed identifier (UUID)
	ID string `gorm:"column:id;primaryKey;type:varchar(36)"`
	// DeedType is the key into deed_templates; empty means unset
	DeedType string `gorm:"column:deed_type;not null;type:text"`
	// ExecutedBy and InFavourOf are legacy flat fields kept for older rows
	ExecutedBy string `gorm:"column:executed_by;not null;type:text"`
	InFavourOf string `gorm:"column:in_favour_of;not null;type:text"`
	// Date is the deed date; NULL is shown as "Nil"
	Date *datatypes.Date `gorm:"column:date;type:date"`
	// DocumentNumber is the registration document number
	DocumentNumber string `gorm:"column:document_number;not null;type:text"`
	// NatureOfDoc is the nature of the scrutinised document (original, certified copy...)
	NatureOfDoc string `gorm:"column:nature_of_doc;not null;type:text"`
	// CustomFields is a JSON object of dynamic placeholder values
	CustomFields datatypes.JSON `gorm:"column:custom_fields"`
	// TableType tags the logical table; NULL rows belong to the legacy "table"
	TableType *string `gorm:"column:table_type;type:varchar(32);index"`
	// CreatedAt is the ordering key within a table
	CreatedAt time.Time `gorm:"column:created_at;not null;index"`
	// UpdatedAt is the timestamp of the last write
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName specifies the table name for the Deed model
func (Deed) TableName() string {
	return "deeds"
}
