package merge

import (
	"fmt"
	"regexp"
	"strings"
)

// BlockKind is the presentation class of a preview block
type BlockKind string

const (
	BlockBlank     BlockKind = "blank"
	BlockHeading   BlockKind = "heading"
	BlockParagraph BlockKind = "paragraph"
	BlockDeeds     BlockKind = "deed_table"
	BlockProperty  BlockKind = "property"
)

var headingPattern = regexp.MustCompile(`^(\d+\.?\s*)?[A-Z\s]+:`)

// DeedTableHeaders are the columns of a rendered deed table
var DeedTableHeaders = []string{"Sno", "Date", "D.No", "Particulars of Deed", "Nature of Doc"}

// Document is a merged preview
type Document struct {
	Blocks  []Block `json:"blocks"`
	History string  `json:"history"`
}

// Block is one line of the template or a generated table
type Block struct {
	Kind     BlockKind        `json:"kind"`
	Text     string           `json:"text,omitempty"`
	Deeds    *DeedTable       `json:"deeds,omitempty"`
	Property *PropertySection `json:"property,omitempty"`
}

// DeedTable is the scrutiny table of one deed collection
type DeedTable struct {
	Headers []string  `json:"headers"`
	Rows    []DeedRow `json:"rows"`
}

// DeedRow is one deed of a deed table
type DeedRow struct {
	Sno         int    `json:"sno"`
	Date        string `json:"date"`
	DocNo       string `json:"doc_no"`
	Particulars string `json:"particulars"`
	Nature      string `json:"nature"`
}

// PropertySection describes a list of property documents under a title
type PropertySection struct {
	Title     string          `json:"title"`
	Empty     string          `json:"empty,omitempty"`
	Documents []PropertyTable `json:"documents"`
}

// PropertyTable is the numbered description of one property document
type PropertyTable struct {
	Heading string        `json:"heading"`
	Rows    []PropertyRow `json:"rows"`
}

// PropertyRow is one numbered line of a property description
type PropertyRow struct {
	Numeral string `json:"numeral"`
	Label   string `json:"label"`
	Value   string `json:"value"`
}

// classify returns the block of a plain template line
func classify(line string) Block {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return Block{Kind: BlockBlank}
	case headingPattern.MatchString(trimmed):
		return Block{Kind: BlockHeading, Text: line}
	default:
		return Block{Kind: BlockParagraph, Text: line}
	}
}

// Text returns the preview as plain text with tables as pipe separated rows
func (d *Document) Text() string {
	var lines []string
	for _, b := range d.Blocks {
		switch b.Kind {
		case BlockBlank:
			lines = append(lines, "")
		case BlockHeading, BlockParagraph:
			lines = append(lines, b.Text)
		case BlockDeeds:
			lines = append(lines, pipeRow(b.Deeds.Headers...))
			for _, r := range b.Deeds.Rows {
				lines = append(lines, pipeRow(fmt.Sprint(r.Sno), r.Date, r.DocNo, r.Particulars, r.Nature))
			}
		case BlockProperty:
			lines = append(lines, b.Property.Title)
			if b.Property.Empty != "" {
				lines = append(lines, b.Property.Empty)
			}
			for _, doc := range b.Property.Documents {
				lines = append(lines, doc.Heading)
				for _, r := range doc.Rows {
					lines = append(lines, pipeRow(r.Numeral, r.Label, r.Value))
				}
			}
		}
	}
	return strings.Join(lines, "\n")
}

func pipeRow(cells ...string) string {
	return "| " + strings.Join(cells, " | ") + " |"
}
