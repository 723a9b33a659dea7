package workspace

import (
	"maps"

	"github.com/feral-file/title-scrutiny/internal/domain"
)

// TableSnapshot is the state of one table as shown to the client
type TableSnapshot struct {
	Type       domain.TableType             `json:"type"`
	CopySource *domain.TableType            `json:"copy_source,omitempty"`
	Copying    bool                         `json:"copying"`
	Deeds      []domain.Deed                `json:"deeds"`
	Columns    []domain.CustomColumn        `json:"columns"`
	Values     map[string]map[string]string `json:"values"`
}

// Snapshot is the state of a session as shown to the client
type Snapshot struct {
	ID           string                    `json:"id"`
	DraftID      string                    `json:"draft_id,omitempty"`
	Name         string                    `json:"draft_name,omitempty"`
	TemplateID   *string                   `json:"template_id"`
	Placeholders map[string]string         `json:"placeholders"`
	Tables       []TableSnapshot           `json:"tables"`
	Documents    []domain.PropertyDocument `json:"documents"`
}

// TableSnapshot returns the state of one table
func (s *Session) TableSnapshot(t domain.TableType) (TableSnapshot, error) {
	m, err := s.Table(t)
	if err != nil {
		return TableSnapshot{}, err
	}
	overlay := s.overlays[t]

	snap := TableSnapshot{
		Type:    t,
		Copying: m.Copying(),
		Deeds:   m.Deeds(),
		Columns: overlay.Columns(),
		Values:  overlay.Values(),
	}
	if src, ok := CopySource(t); ok {
		snap.CopySource = &src
	}
	return snap, nil
}

// Snapshot returns the state of the whole session
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	snap := Snapshot{
		ID:           s.id,
		DraftID:      s.draftID,
		Name:         s.name,
		TemplateID:   s.templateID,
		Placeholders: maps.Clone(s.placeholders),
	}
	s.mu.RUnlock()

	for _, t := range domain.TableTypes {
		table, _ := s.TableSnapshot(t)
		snap.Tables = append(snap.Tables, table)
	}
	snap.Documents = s.property.Documents()
	return snap
}
