package domain

import "fmt"

// ColumnAnchor is the fixed column a custom column is inserted after
type ColumnAnchor string

const (
	AnchorSerial      ColumnAnchor = "sno"
	AnchorDate        ColumnAnchor = "date"
	AnchorDocNo       ColumnAnchor = "dno"
	AnchorParticulars ColumnAnchor = "particulars"
	AnchorNature      ColumnAnchor = "nature"
)

// ColumnAnchors lists the anchors in table order
var ColumnAnchors = []ColumnAnchor{AnchorSerial, AnchorDate, AnchorDocNo, AnchorParticulars, AnchorNature}

// ParseColumnAnchor validates an anchor name
func ParseColumnAnchor(s string) (ColumnAnchor, error) {
	for _, a := range ColumnAnchors {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidColumnPosition, s)
}

// CustomColumn is an ad-hoc column kept by one client for one table
type CustomColumn struct {
	Name     string       `json:"name"`
	Position ColumnAnchor `json:"position"`
}
