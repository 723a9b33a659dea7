// Package property manages the property documents described in a draft
package property

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/feral-file/title-scrutiny/internal/domain"
)

var leadingNumber = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)`)

// Form is a property document being entered, with its custom measurement rows
type Form struct {
	domain.PropertyDocument
	CustomRows []domain.Measurement `json:"customRows"`
}

// Manager holds the property documents of a draft in entry order
type Manager struct {
	mu        sync.RWMutex
	documents []domain.PropertyDocument
}

// NewManager creates a manager holding docs
func NewManager(docs []domain.PropertyDocument) *Manager {
	m := &Manager{}
	m.Replace(docs)
	return m
}

// Add validates the form and appends it as a new document
func (m *Manager) Add(form Form) (domain.PropertyDocument, error) {
	doc := form.PropertyDocument
	if strings.TrimSpace(doc.SurveyNo) == "" {
		return domain.PropertyDocument{}, domain.ErrSurveyNoRequired
	}

	doc.ID = uuid.NewString()
	doc.CustomMeasurements = nil
	for _, row := range form.CustomRows {
		label, value := strings.TrimSpace(row.Label), strings.TrimSpace(row.Value)
		if label != "" && value != "" {
			doc.CustomMeasurements = append(doc.CustomMeasurements, domain.Measurement{Label: label, Value: value})
		}
	}

	if strings.TrimSpace(doc.TotalExtentSqFt) == "" {
		if area, ok := SquareFeet(doc); ok {
			doc.TotalExtentSqFt = area
		}
	}

	m.mu.Lock()
	m.documents = append(m.documents, doc)
	m.mu.Unlock()

	return doc, nil
}

// Remove drops a document. It reports whether the document existed.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := len(m.documents)
	m.documents = slices.DeleteFunc(m.documents, func(d domain.PropertyDocument) bool { return d.ID == id })
	return len(m.documents) != before
}

// Edit takes a document out of the list and returns it as a form
func (m *Manager) Edit(id string) (Form, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := slices.IndexFunc(m.documents, func(d domain.PropertyDocument) bool { return d.ID == id })
	if idx < 0 {
		return Form{}, fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}

	doc := m.documents[idx]
	m.documents = slices.Delete(m.documents, idx, idx+1)

	form := Form{PropertyDocument: doc, CustomRows: slices.Clone(doc.CustomMeasurements)}
	form.ID = ""
	return form, nil
}

// Documents returns the documents in entry order
func (m *Manager) Documents() []domain.PropertyDocument {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.PropertyDocument, len(m.documents))
	for i, d := range m.documents {
		d.CustomMeasurements = slices.Clone(d.CustomMeasurements)
		out[i] = d
	}
	return out
}

// Replace swaps the whole list, e.g. when a draft is opened
func (m *Manager) Replace(docs []domain.PropertyDocument) {
	list := make([]domain.PropertyDocument, len(docs))
	for i, d := range docs {
		d.CustomMeasurements = slices.Clone(d.CustomMeasurements)
		list[i] = d
	}

	m.mu.Lock()
	m.documents = list
	m.mu.Unlock()
}

// SquareFeet computes the extent from the four side measurements as the mean of
// north and south times the mean of east and west
func SquareFeet(doc domain.PropertyDocument) (string, bool) {
	var sides [4]float64
	for i, raw := range []string{doc.NorthMeasurement, doc.SouthMeasurement, doc.EastMeasurement, doc.WestMeasurement} {
		v, ok := parseLength(raw)
		if !ok {
			return "", false
		}
		sides[i] = v
	}

	area := (sides[0] + sides[1]) / 2 * ((sides[2] + sides[3]) / 2)
	return strconv.FormatFloat(area, 'f', -1, 64) + " Sq.Ft", true
}

// parseLength reads the leading number of a measurement such as "30 ft"
func parseLength(s string) (float64, bool) {
	m := leadingNumber.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
