// Package columns keeps the ad-hoc custom columns a client adds to a deed table.
// Columns and their values belong to one client and never go through the record store.
package columns

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/feral-file/title-scrutiny/internal/adapter"
	"github.com/feral-file/title-scrutiny/internal/domain"
)

// ColumnsKey returns the storage key of a table's column definitions
func ColumnsKey(table domain.TableType) string {
	return "customColumns_" + string(table)
}

// DataKey returns the storage key of a table's column values
func DataKey(table domain.TableType) string {
	return "customColumnData_" + string(table)
}

// Overlay holds the custom columns of one table and their values per deed
type Overlay struct {
	storage Storage
	table   domain.TableType
	json    adapter.JSON

	mu      sync.RWMutex
	columns []domain.CustomColumn
	// data maps a deed id to its values by column name
	data map[string]map[string]string
}

// NewOverlay creates an empty overlay; call Load to read the saved state
func NewOverlay(storage Storage, table domain.TableType, json adapter.JSON) *Overlay {
	return &Overlay{
		storage: storage,
		table:   table,
		json:    json,
		data:    make(map[string]map[string]string),
	}
}

// Load reads the saved columns and values
func (o *Overlay) Load(ctx context.Context) error {
	var columns []domain.CustomColumn
	if err := o.read(ctx, ColumnsKey(o.table), &columns); err != nil {
		return err
	}

	data := make(map[string]map[string]string)
	if err := o.read(ctx, DataKey(o.table), &data); err != nil {
		return err
	}
	if data == nil {
		data = make(map[string]map[string]string)
	}

	o.mu.Lock()
	o.columns = columns
	o.data = data
	o.mu.Unlock()
	return nil
}

func (o *Overlay) read(ctx context.Context, key string, v interface{}) error {
	raw, err := o.storage.Load(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to load custom columns: %w", err)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := o.json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func (o *Overlay) write(ctx context.Context, key string, v interface{}) error {
	raw, err := o.json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := o.storage.Save(ctx, key, raw); err != nil {
		return fmt.Errorf("failed to save custom columns: %w", err)
	}
	return nil
}

// Columns returns the columns in the order they were added
func (o *Overlay) Columns() []domain.CustomColumn {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return slices.Clone(o.columns)
}

// ColumnsAfter returns the columns anchored after a fixed column
func (o *Overlay) ColumnsAfter(anchor domain.ColumnAnchor) []domain.CustomColumn {
	o.mu.RLock()
	defer o.mu.RUnlock()

	var out []domain.CustomColumn
	for _, c := range o.columns {
		if c.Position == anchor {
			out = append(out, c)
		}
	}
	return out
}

// AddColumn adds a column after the anchor. Names are trimmed and unique within the table.
func (o *Overlay) AddColumn(ctx context.Context, name string, position domain.ColumnAnchor) (domain.CustomColumn, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.CustomColumn{}, domain.ErrColumnNameRequired
	}
	if _, err := domain.ParseColumnAnchor(string(position)); err != nil {
		return domain.CustomColumn{}, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.indexLocked(name) >= 0 {
		return domain.CustomColumn{}, domain.ErrColumnExists
	}

	column := domain.CustomColumn{Name: name, Position: position}
	updated := append(slices.Clone(o.columns), column)
	if err := o.write(ctx, ColumnsKey(o.table), updated); err != nil {
		return domain.CustomColumn{}, err
	}
	o.columns = updated
	return column, nil
}

// RemoveColumn drops a column and its values. Removing an unknown column does nothing.
func (o *Overlay) RemoveColumn(ctx context.Context, name string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	idx := o.indexLocked(name)
	if idx < 0 {
		return nil
	}

	columns := slices.Delete(slices.Clone(o.columns), idx, idx+1)
	data := make(map[string]map[string]string, len(o.data))
	for deedID, values := range o.data {
		values = maps.Clone(values)
		delete(values, name)
		data[deedID] = values
	}

	if err := o.write(ctx, ColumnsKey(o.table), columns); err != nil {
		return err
	}
	o.columns = columns

	if err := o.write(ctx, DataKey(o.table), data); err != nil {
		return err
	}
	o.data = data
	return nil
}

// SetValue stores the value of a column for one deed
func (o *Overlay) SetValue(ctx context.Context, deedID, column, value string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.indexLocked(column) < 0 {
		return fmt.Errorf("%w: column %q", domain.ErrNotFound, column)
	}

	data := maps.Clone(o.data)
	values := maps.Clone(data[deedID])
	if values == nil {
		values = make(map[string]string)
	}
	values[column] = value
	data[deedID] = values

	if err := o.write(ctx, DataKey(o.table), data); err != nil {
		return err
	}
	o.data = data
	return nil
}

// Value returns the value of a column for one deed, or an empty string
func (o *Overlay) Value(deedID, column string) string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.data[deedID][column]
}

// Values returns a copy of every value keyed by deed id then column name
func (o *Overlay) Values() map[string]map[string]string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make(map[string]map[string]string, len(o.data))
	for deedID, values := range o.data {
		out[deedID] = maps.Clone(values)
	}
	return out
}

func (o *Overlay) indexLocked(name string) int {
	return slices.IndexFunc(o.columns, func(c domain.CustomColumn) bool { return c.Name == name })
}
