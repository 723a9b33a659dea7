package merge

import (
	"strings"

	"github.com/feral-file/title-scrutiny/internal/domain"
)

const (
	// PropertyTitle is the title of the {table1} section
	PropertyTitle = "Description of Property"
	// ScrutinizedTitle prefixes the titles of the single document sections
	ScrutinizedTitle = "Description of Documents Scrutinized"

	emptyDocuments = "Document details will appear here when you add them using the form above"
	defaultDocNo2  = "(As per Doc.No)"
)

// propertyField is a fixed row of a property description
type propertyField struct {
	label string
	def   string
	value func(d domain.PropertyDocument) string
}

var propertyFields = []propertyField{
	{"Survey No", "(Survey No)", func(d domain.PropertyDocument) string { return d.SurveyNo }},
	{"As per Revenue Record", "(As per Revenue Record)", func(d domain.PropertyDocument) string { return d.AsPerRevenueRecord }},
	{"Total Extent", "(Total Extent)", func(d domain.PropertyDocument) string { return d.TotalExtent }},
	{"Plot No", "(Plot No)", func(d domain.PropertyDocument) string { return d.PlotNo }},
	{
		"Location like name of the place, village, city, registration, sub-district etc.",
		"(Location like name of the place, village, city registration, sub-district etc.)",
		func(d domain.PropertyDocument) string { return d.Location },
	},
	{"North By", "(North By)", func(d domain.PropertyDocument) string { return d.NorthBy }},
	{"South By", "(South By)", func(d domain.PropertyDocument) string { return d.SouthBy }},
	{"East By", "(East By)", func(d domain.PropertyDocument) string { return d.EastBy }},
	{"West By", "(West By)", func(d domain.PropertyDocument) string { return d.WestBy }},
	{"North - East West", "30 ft", func(d domain.PropertyDocument) string { return d.NorthMeasurement }},
	{"South - East West", "30 ft", func(d domain.PropertyDocument) string { return d.SouthMeasurement }},
	{"East - South North", "40 ft", func(d domain.PropertyDocument) string { return d.EastMeasurement }},
	{"West - South North", "40 ft", func(d domain.PropertyDocument) string { return d.WestMeasurement }},
	{"Total", "1200 Sq.Ft", func(d domain.PropertyDocument) string { return d.TotalExtentSqFt }},
}

// propertySection describes docs under title
func propertySection(title string, docs []domain.PropertyDocument) *PropertySection {
	section := &PropertySection{Title: title, Documents: []PropertyTable{}}
	if len(docs) == 0 {
		section.Empty = emptyDocuments
		return section
	}

	for _, doc := range docs {
		section.Documents = append(section.Documents, propertyTable(doc))
	}
	return section
}

func propertyTable(doc domain.PropertyDocument) PropertyTable {
	table := PropertyTable{
		Heading: "As per Doc No : " + orDefault(doc.DocNo, defaultDocNo2),
		Rows:    make([]PropertyRow, 0, len(propertyFields)+len(doc.CustomMeasurements)),
	}

	for i, f := range propertyFields {
		table.Rows = append(table.Rows, PropertyRow{
			Numeral: Roman(i + 1),
			Label:   f.label,
			Value:   orDefault(f.value(doc), f.def),
		})
	}

	for i, m := range doc.CustomMeasurements {
		table.Rows = append(table.Rows, PropertyRow{
			Numeral: Roman(len(propertyFields) + 1 + i),
			Label:   m.Label,
			Value:   m.Value,
		})
	}
	return table
}

var romanNumerals = []struct {
	value   int
	numeral string
}{
	{1000, "m"}, {900, "cm"}, {500, "d"}, {400, "cd"},
	{100, "c"}, {90, "xc"}, {50, "l"}, {40, "xl"},
	{10, "x"}, {9, "ix"}, {5, "v"}, {4, "iv"}, {1, "i"},
}

// Roman returns n in lower-case roman numerals
func Roman(n int) string {
	var b strings.Builder
	for _, r := range romanNumerals {
		for n >= r.value {
			b.WriteString(r.numeral)
			n -= r.value
		}
	}
	return b.String()
}
