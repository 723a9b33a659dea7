package store

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/feral-file/title-scrutiny/internal/domain"
	"github.com/feral-file/title-scrutiny/internal/store/schema"
)

func toSchemaDate(d domain.DeedDate) *datatypes.Date {
	t, ok := d.Time()
	if !ok {
		return nil
	}
	date := datatypes.Date(t)
	return &date
}

func toDomainDate(d *datatypes.Date) domain.DeedDate {
	if d == nil {
		return domain.DeedDate{}
	}
	return domain.DateOf(time.Time(*d))
}

func marshalStringMap(m map[string]string) (datatypes.JSON, error) {
	if m == nil {
		m = map[string]string{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal custom fields: %w", err)
	}
	return datatypes.JSON(data), nil
}

// unmarshalStringMap decodes a JSON object. Non-string values are kept in their JSON form.
func unmarshalStringMap(data datatypes.JSON) (map[string]string, error) {
	result := map[string]string{}
	if len(data) == 0 || string(data) == "null" {
		return result, nil
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal custom fields: %w", err)
	}
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			result[k] = val
		case nil:
			result[k] = ""
		default:
			encoded, _ := json.Marshal(val)
			result[k] = string(encoded)
		}
	}
	return result, nil
}

func toSchemaDeed(d domain.Deed) (schema.Deed, error) {
	customFields, err := marshalStringMap(d.CustomFields)
	if err != nil {
		return schema.Deed{}, err
	}

	return schema.Deed{
		ID:             d.ID,
		DeedType:       d.DeedType,
		ExecutedBy:     d.ExecutedBy,
		InFavourOf:     d.InFavourOf,
		Date:           toSchemaDate(d.Date),
		DocumentNumber: d.DocumentNumber,
		NatureOfDoc:    d.NatureOfDoc,
		CustomFields:   customFields,
		TableType:      d.TableType,
		CreatedAt:      d.CreatedAt,
	}, nil
}

func toDomainDeed(row schema.Deed) (domain.Deed, error) {
	customFields, err := unmarshalStringMap(row.CustomFields)
	if err != nil {
		return domain.Deed{}, fmt.Errorf("deed %s: %w", row.ID, err)
	}

	return domain.Deed{
		ID:             row.ID,
		DeedType:       row.DeedType,
		ExecutedBy:     row.ExecutedBy,
		InFavourOf:     row.InFavourOf,
		Date:           toDomainDate(row.Date),
		DocumentNumber: row.DocumentNumber,
		NatureOfDoc:    row.NatureOfDoc,
		CustomFields:   customFields,
		TableType:      row.TableType,
		CreatedAt:      row.CreatedAt.UTC(),
	}, nil
}

// patchColumns converts a patch into a gorm column map
func patchColumns(patch domain.DeedPatch) (map[string]interface{}, error) {
	columns := make(map[string]interface{})
	if patch.DeedType != nil {
		columns["deed_type"] = *patch.DeedType
	}
	if patch.ExecutedBy != nil {
		columns["executed_by"] = *patch.ExecutedBy
	}
	if patch.InFavourOf != nil {
		columns["in_favour_of"] = *patch.InFavourOf
	}
	if patch.Date != nil {
		if date := toSchemaDate(*patch.Date); date != nil {
			columns["date"] = *date
		} else {
			columns["date"] = nil
		}
	}
	if patch.DocumentNumber != nil {
		columns["document_number"] = *patch.DocumentNumber
	}
	if patch.NatureOfDoc != nil {
		columns["nature_of_doc"] = *patch.NatureOfDoc
	}
	if patch.CustomFields != nil {
		customFields, err := marshalStringMap(patch.CustomFields)
		if err != nil {
			return nil, err
		}
		columns["custom_fields"] = customFields
	}
	if patch.TableType != nil {
		columns["table_type"] = *patch.TableType
	}
	if patch.CreatedAt != nil {
		columns["created_at"] = patch.CreatedAt.UTC()
	}
	return columns, nil
}

func toDomainDeedTemplate(row schema.DeedTemplate) (domain.DeedTypeTemplate, error) {
	placeholders, err := unmarshalStringMap(row.CustomPlaceholders)
	if err != nil {
		return domain.DeedTypeTemplate{}, fmt.Errorf("deed template %s: %w", row.DeedType, err)
	}

	tmpl := domain.DeedTypeTemplate{
		DeedType:           row.DeedType,
		CustomPlaceholders: placeholders,
		UpdatedAt:          row.UpdatedAt,
	}
	if row.PreviewTemplate != nil {
		tmpl.PreviewTemplate = *row.PreviewTemplate
	}
	return tmpl, nil
}

func toDomainDocumentTemplate(row schema.DocumentTemplate) domain.DocumentTemplate {
	return domain.DocumentTemplate{
		ID:        row.ID,
		Name:      row.TemplateName,
		FileName:  row.FileName,
		Content:   row.Content,
		Data:      row.FileData,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func toSchemaDraft(d domain.Draft) (schema.Draft, error) {
	placeholders, err := marshalStringMap(d.Placeholders)
	if err != nil {
		return schema.Draft{}, err
	}

	documents := d.Documents
	if documents == nil {
		documents = []domain.PropertyDocument{}
	}
	docData, err := json.Marshal(documents)
	if err != nil {
		return schema.Draft{}, fmt.Errorf("failed to marshal documents: %w", err)
	}

	return schema.Draft{
		ID:           d.ID,
		DraftName:    d.Name,
		TemplateID:   d.TemplateID,
		Placeholders: placeholders,
		Documents:    datatypes.JSON(docData),
		CreatedAt:    d.CreatedAt,
	}, nil
}

func toDomainDraft(row schema.Draft) (domain.Draft, error) {
	placeholders, err := unmarshalStringMap(row.Placeholders)
	if err != nil {
		return domain.Draft{}, fmt.Errorf("draft %s: %w", row.ID, err)
	}

	documents := []domain.PropertyDocument{}
	if len(row.Documents) > 0 && string(row.Documents) != "null" {
		if err := json.Unmarshal(row.Documents, &documents); err != nil {
			return domain.Draft{}, fmt.Errorf("draft %s: failed to unmarshal documents: %w", row.ID, err)
		}
	}

	return domain.Draft{
		ID:           row.ID,
		Name:         row.DraftName,
		TemplateID:   row.TemplateID,
		Placeholders: placeholders,
		Documents:    documents,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}, nil
}
