// Package merge renders the scrutiny report preview from a template, placeholder values,
// deed collections and property documents
package merge

import (
	"context"
	"fmt"
	"strings"

	"github.com/feral-file/title-scrutiny/internal/domain"
)

const (
	emptyTemplate = "Upload a Word template to see the preview here..."
	emptyHistory  = "(History of Title will appear here when deeds are added)"
)

// Catalog resolves the narrative templates of a deed type
//
//go:generate mockgen -source=engine.go -destination=../mocks/merge_catalog.go -package=mocks -mock_names=Catalog=MockMergeCatalog
type Catalog interface {
	PreviewTemplate(ctx context.Context, deedType string) (string, bool)
	HistoryTemplate(ctx context.Context, deedType string) (string, bool)
}

// Input is everything a preview is built from
type Input struct {
	Template     string
	Placeholders map[string]string
	Deeds        []domain.Deed
	Table2       []domain.Deed
	Table3       []domain.Deed
	Table4       []domain.Deed
	Documents    []domain.PropertyDocument
}

// Engine merges inputs into preview documents
type Engine struct {
	catalog Catalog
}

// NewEngine creates an engine resolving deed narratives through catalog
func NewEngine(catalog Catalog) *Engine {
	return &Engine{catalog: catalog}
}

// Particulars renders the particulars narrative of a deed. It reports false when the
// deed type has no preview template.
func (e *Engine) Particulars(ctx context.Context, d domain.Deed) (string, bool) {
	if d.DeedType == "" {
		return "", false
	}
	tmpl, ok := e.catalog.PreviewTemplate(ctx, d.DeedType)
	if !ok || strings.TrimSpace(tmpl) == "" {
		return "", false
	}
	return substituteDeed(tmpl, d), true
}

// History renders the history narrative of the deeds that carry a deed type
func (e *Engine) History(ctx context.Context, deeds []domain.Deed) string {
	var parts []string
	for _, d := range deeds {
		if d.DeedType == "" {
			continue
		}
		tmpl, ok := e.catalog.HistoryTemplate(ctx, d.DeedType)
		if !ok {
			parts = append(parts, fallbackHistory(d))
			continue
		}
		parts = append(parts, strings.TrimSpace(substituteDeed(tmpl, d)))
	}
	return strings.Join(parts, "\n\n")
}

// Render builds the preview document of in
func (e *Engine) Render(ctx context.Context, in Input) *Document {
	history := e.History(ctx, in.Deeds)
	doc := &Document{History: history, Blocks: []Block{}}

	if strings.TrimSpace(in.Template) == "" {
		doc.Blocks = append(doc.Blocks, Block{Kind: BlockParagraph, Text: emptyTemplate})
		return doc
	}

	text := substitutePlaceholders(in.Template, in.Placeholders)
	text = historyToken.ReplaceAllLiteralString(text, orDefault(history, emptyHistory))

	for _, line := range strings.Split(text, "\n") {
		if block, ok := e.tableBlock(ctx, line, in); ok {
			if block != nil {
				doc.Blocks = append(doc.Blocks, *block)
			}
			continue
		}
		doc.Blocks = append(doc.Blocks, classify(line))
	}
	return doc
}

// tableBlock replaces a line carrying a table token. It reports false for plain lines and
// returns a nil block for a token whose table is empty.
func (e *Engine) tableBlock(ctx context.Context, line string, in Input) (*Block, bool) {
	switch {
	case strings.Contains(line, "{table}"):
		return e.deedBlock(ctx, in.Deeds), true
	case strings.Contains(line, "{table1}"):
		return &Block{Kind: BlockProperty, Property: propertySection(PropertyTitle, in.Documents)}, true
	}

	secondary := [][]domain.Deed{in.Table2, in.Table3, in.Table4}
	for i, deeds := range secondary {
		if !strings.Contains(line, fmt.Sprintf("{table%d}", i+2)) {
			continue
		}
		if len(deeds) > 0 {
			return e.deedBlock(ctx, deeds), true
		}
		var docs []domain.PropertyDocument
		if i < len(in.Documents) {
			docs = in.Documents[i : i+1]
		}
		title := fmt.Sprintf("%s %d", ScrutinizedTitle, i+1)
		return &Block{Kind: BlockProperty, Property: propertySection(title, docs)}, true
	}
	return nil, false
}

func (e *Engine) deedBlock(ctx context.Context, deeds []domain.Deed) *Block {
	table := &DeedTable{Headers: DeedTableHeaders}
	for _, d := range deeds {
		particulars, ok := e.Particulars(ctx, d)
		if !ok {
			continue
		}
		table.Rows = append(table.Rows, DeedRow{
			Sno:         len(table.Rows) + 1,
			Date:        d.Date.Display(),
			DocNo:       orDefault(d.DocumentNumber, "-"),
			Particulars: particulars,
			Nature:      orDefault(d.NatureOfDoc, "-"),
		})
	}
	if len(table.Rows) == 0 {
		return nil
	}
	return &Block{Kind: BlockDeeds, Deeds: table}
}
