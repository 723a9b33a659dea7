package domain

import (
	"fmt"
	"maps"
	"strings"
	"time"
)

// TableType tags the logical deed table a record belongs to
type TableType string

const (
	// TablePrimary is the legacy tag; it also matches records stored without a tag
	TablePrimary TableType = "table"
	Table2       TableType = "table2"
	Table3       TableType = "table3"
	Table4       TableType = "table4"
)

// TableTypes lists the deed tables of a draft in display order
var TableTypes = []TableType{TablePrimary, Table2, Table3, Table4}

// ParseTableType validates a table type tag
func ParseTableType(s string) (TableType, error) {
	for _, t := range TableTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTableType, s)
}

// IsLegacy reports whether the tag also matches untagged records
func (t TableType) IsLegacy() bool {
	return t == TablePrimary
}

// Matches reports whether a stored tag belongs to this table
func (t TableType) Matches(tag *string) bool {
	if tag == nil || *tag == "" {
		return t.IsLegacy()
	}
	return *tag == string(t)
}

// Tag returns the value stored in a record's table_type column
func (t TableType) Tag() *string {
	s := string(t)
	return &s
}

// DeedField names one of the flat editable deed fields
type DeedField string

const (
	FieldDeedType       DeedField = "deed_type"
	FieldExecutedBy     DeedField = "executed_by"
	FieldInFavourOf     DeedField = "in_favour_of"
	FieldDate           DeedField = "date"
	FieldDocumentNumber DeedField = "document_number"
	FieldNatureOfDoc    DeedField = "nature_of_doc"
	// FieldCustomFields keys the debounced write of the custom field map
	FieldCustomFields DeedField = "custom_fields"
)

// ParseDeedField validates a flat field name
func ParseDeedField(s string) (DeedField, error) {
	switch f := DeedField(s); f {
	case FieldDeedType, FieldExecutedBy, FieldInFavourOf, FieldDate, FieldDocumentNumber, FieldNatureOfDoc:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
	}
}

// Deed is a title-transfer instrument row of a deed table
type Deed struct {
	ID             string            `json:"id"`
	DeedType       string            `json:"deed_type"`
	ExecutedBy     string            `json:"executed_by"`
	InFavourOf     string            `json:"in_favour_of"`
	Date           DeedDate          `json:"date"`
	DocumentNumber string            `json:"document_number"`
	NatureOfDoc    string            `json:"nature_of_doc"`
	CustomFields   map[string]string `json:"custom_fields"`
	TableType      *string           `json:"table_type"`
	// CreatedAt is the ordering key of the table, not an audit timestamp
	CreatedAt time.Time `json:"created_at"`
}

// Clone returns a deep copy of the deed
func (d Deed) Clone() Deed {
	c := d
	if d.CustomFields != nil {
		c.CustomFields = maps.Clone(d.CustomFields)
	}
	if d.TableType != nil {
		tag := *d.TableType
		c.TableType = &tag
	}
	return c
}

// DeedKey is the identity used to detect already copied deeds.
// It ignores custom fields and nature of document.
type DeedKey struct {
	DeedType       string
	ExecutedBy     string
	InFavourOf     string
	Date           string
	HasDate        bool
	DocumentNumber string
}

// Key returns the copy identity of the deed
func (d Deed) Key() DeedKey {
	return DeedKey{
		DeedType:       d.DeedType,
		ExecutedBy:     d.ExecutedBy,
		InFavourOf:     d.InFavourOf,
		Date:           d.Date.String(),
		HasDate:        !d.Date.IsNull(),
		DocumentNumber: d.DocumentNumber,
	}
}

// Field returns the string value of a flat field
func (d Deed) Field(f DeedField) string {
	switch f {
	case FieldDeedType:
		return d.DeedType
	case FieldExecutedBy:
		return d.ExecutedBy
	case FieldInFavourOf:
		return d.InFavourOf
	case FieldDate:
		return d.Date.String()
	case FieldDocumentNumber:
		return d.DocumentNumber
	case FieldNatureOfDoc:
		return d.NatureOfDoc
	default:
		return ""
	}
}

// DeedPatch is a partial update of a deed. Nil fields are left unchanged.
type DeedPatch struct {
	DeedType       *string
	ExecutedBy     *string
	InFavourOf     *string
	Date           *DeedDate // points to a null DeedDate to clear the date
	DocumentNumber *string
	NatureOfDoc    *string
	CustomFields   map[string]string // replaces the whole map when non-nil
	TableType      *string
	CreatedAt      *time.Time
}

// SetField returns a patch of one flat field. Date values must already be validated.
func SetField(f DeedField, value string) (DeedPatch, error) {
	var p DeedPatch
	switch f {
	case FieldDeedType:
		p.DeedType = &value
	case FieldExecutedBy:
		p.ExecutedBy = &value
	case FieldInFavourOf:
		p.InFavourOf = &value
	case FieldDate:
		date, err := ParseDeedDate(value)
		if err != nil {
			return DeedPatch{}, err
		}
		p.Date = &date
	case FieldDocumentNumber:
		p.DocumentNumber = &value
	case FieldNatureOfDoc:
		p.NatureOfDoc = &value
	default:
		return DeedPatch{}, fmt.Errorf("%w: %q", ErrUnknownField, f)
	}
	return p, nil
}

// IsEmpty reports whether the patch changes nothing
func (p DeedPatch) IsEmpty() bool {
	return p.DeedType == nil && p.ExecutedBy == nil && p.InFavourOf == nil && p.Date == nil &&
		p.DocumentNumber == nil && p.NatureOfDoc == nil && p.CustomFields == nil &&
		p.TableType == nil && p.CreatedAt == nil
}

// Apply writes the patch onto d
func (p DeedPatch) Apply(d *Deed) {
	if p.DeedType != nil {
		d.DeedType = *p.DeedType
	}
	if p.ExecutedBy != nil {
		d.ExecutedBy = *p.ExecutedBy
	}
	if p.InFavourOf != nil {
		d.InFavourOf = *p.InFavourOf
	}
	if p.Date != nil {
		d.Date = *p.Date
	}
	if p.DocumentNumber != nil {
		d.DocumentNumber = *p.DocumentNumber
	}
	if p.NatureOfDoc != nil {
		d.NatureOfDoc = *p.NatureOfDoc
	}
	if p.CustomFields != nil {
		d.CustomFields = maps.Clone(p.CustomFields)
	}
	if p.TableType != nil {
		tag := *p.TableType
		d.TableType = &tag
	}
	if p.CreatedAt != nil {
		d.CreatedAt = *p.CreatedAt
	}
}

// NormalizeDeedType returns the catalog lookup key of a deed type
func NormalizeDeedType(deedType string) string {
	return strings.ToLower(strings.TrimSpace(deedType))
}

// DeedTypeTemplate is the catalog entry of a deed type used for the particulars column
type DeedTypeTemplate struct {
	DeedType        string `json:"deed_type"`
	PreviewTemplate string `json:"preview_template"`
	// CustomPlaceholders maps a dynamic field name to its default label
	CustomPlaceholders map[string]string `json:"custom_placeholders"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// HistoryTemplate is the narrative template of a deed type used for the history of title
type HistoryTemplate struct {
	DeedType        string    `json:"deed_type"`
	TemplateContent string    `json:"template_content"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ChangeType is the kind of a committed record change
type ChangeType string

const (
	ChangeInsert ChangeType = "insert"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// ChangeEvent is a committed change of a deed published on the change feed
type ChangeEvent struct {
	ID          string     `json:"id"`
	Type        ChangeType `json:"type"`
	Table       string     `json:"table"`
	Record      *Deed      `json:"record,omitempty"`     // new row for insert and update
	OldRecord   *Deed      `json:"old_record,omitempty"` // removed row for delete
	CommittedAt time.Time  `json:"committed_at"`
}

// DeedID returns the id of the changed deed
func (e ChangeEvent) DeedID() string {
	if e.Record != nil {
		return e.Record.ID
	}
	if e.OldRecord != nil {
		return e.OldRecord.ID
	}
	return ""
}

// DocumentTemplate is an uploaded Word template and its extracted text
type DocumentTemplate struct {
	ID        string    `json:"id"`
	Name      string    `json:"template_name"`
	FileName  string    `json:"file_name"`
	Content   string    `json:"content"`
	Data      []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Draft is the saved state of a drafting session
type Draft struct {
	ID           string             `json:"id"`
	Name         string             `json:"draft_name"`
	TemplateID   *string            `json:"template_id"`
	Placeholders map[string]string  `json:"placeholders"`
	Documents    []PropertyDocument `json:"documents"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}
