package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/title-scrutiny/internal/domain"
)

// =============================================================================
// Test Data Builders
// =============================================================================

func strPtr(s string) *string { return &s }

// buildTestDeed creates a deed input for a table at a fixed created_at
func buildTestDeed(table domain.TableType, deedType string, createdAt time.Time) domain.Deed {
	return domain.Deed{
		DeedType:       deedType,
		ExecutedBy:     "Ravi",
		InFavourOf:     "Meena",
		Date:           domain.NewDeedDate(2001, time.May, 4),
		DocumentNumber: "1234/2001",
		NatureOfDoc:    "Original",
		CustomFields:   map[string]string{"village": "Anna Nagar"},
		TableType:      table.Tag(),
		CreatedAt:      createdAt,
	}
}

var baseTime = time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)

// =============================================================================
// Test: Deeds
// =============================================================================

func testInsertAndGetDeed(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("insert assigns id and created_at", func(t *testing.T) {
		deed := buildTestDeed(domain.Table2, "Sale", time.Time{})
		inserted, err := store.InsertDeed(ctx, deed)
		require.NoError(t, err)
		require.NotNil(t, inserted)
		assert.NotEmpty(t, inserted.ID)
		assert.False(t, inserted.CreatedAt.IsZero())

		got, err := store.GetDeed(ctx, inserted.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Sale", got.DeedType)
		assert.Equal(t, "Ravi", got.ExecutedBy)
		assert.Equal(t, "Meena", got.InFavourOf)
		assert.Equal(t, "2001-05-04", got.Date.String())
		assert.Equal(t, "1234/2001", got.DocumentNumber)
		assert.Equal(t, "Original", got.NatureOfDoc)
		assert.Equal(t, map[string]string{"village": "Anna Nagar"}, got.CustomFields)
		require.NotNil(t, got.TableType)
		assert.Equal(t, "table2", *got.TableType)
		assert.True(t, inserted.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("null date and empty custom fields", func(t *testing.T) {
		deed := domain.Deed{TableType: domain.TablePrimary.Tag(), CreatedAt: baseTime}
		inserted, err := store.InsertDeed(ctx, deed)
		require.NoError(t, err)

		got, err := store.GetDeed(ctx, inserted.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.Date.IsNull())
		assert.Equal(t, "Nil", got.Date.Display())
		assert.Empty(t, got.CustomFields)
		assert.NotNil(t, got.CustomFields)
	})

	t.Run("caller supplied id is kept", func(t *testing.T) {
		deed := buildTestDeed(domain.Table3, "Gift", baseTime)
		deed.ID = "7c0b4c8e-4f2a-4d55-9d6e-0f3f2a9e1a10"
		inserted, err := store.InsertDeed(ctx, deed)
		require.NoError(t, err)
		assert.Equal(t, deed.ID, inserted.ID)
	})

	t.Run("missing deed returns nil", func(t *testing.T) {
		got, err := store.GetDeed(ctx, "00000000-0000-0000-0000-000000000000")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func testQueryDeeds(t *testing.T, store Store) {
	ctx := context.Background()

	legacy := domain.Deed{DeedType: "Legacy", CreatedAt: baseTime.Add(1 * time.Second)}
	emptyTag := domain.Deed{DeedType: "Empty", TableType: strPtr(""), CreatedAt: baseTime.Add(2 * time.Second)}
	primary := buildTestDeed(domain.TablePrimary, "Primary", baseTime.Add(3*time.Second))
	second := buildTestDeed(domain.Table2, "Second", baseTime.Add(500*time.Millisecond))
	third := buildTestDeed(domain.Table3, "Third", baseTime)

	// inserted out of display order
	for _, deed := range []domain.Deed{primary, third, second, emptyTag, legacy} {
		_, err := store.InsertDeed(ctx, deed)
		require.NoError(t, err)
	}

	t.Run("legacy table includes untagged rows in created_at order", func(t *testing.T) {
		deeds, err := store.QueryDeeds(ctx, ForTable(domain.TablePrimary))
		require.NoError(t, err)
		require.Len(t, deeds, 3)
		assert.Equal(t, "Legacy", deeds[0].DeedType)
		assert.Equal(t, "Empty", deeds[1].DeedType)
		assert.Equal(t, "Primary", deeds[2].DeedType)
	})

	t.Run("tagged table is exact", func(t *testing.T) {
		deeds, err := store.QueryDeeds(ctx, ForTable(domain.Table2))
		require.NoError(t, err)
		require.Len(t, deeds, 1)
		assert.Equal(t, "Second", deeds[0].DeedType)

		deeds, err = store.QueryDeeds(ctx, ForTable(domain.Table4))
		require.NoError(t, err)
		assert.Empty(t, deeds)
	})

	t.Run("no filter returns every deed", func(t *testing.T) {
		deeds, err := store.QueryDeeds(ctx, DeedFilter{})
		require.NoError(t, err)
		require.Len(t, deeds, 5)
		assert.Equal(t, "Third", deeds[0].DeedType)
		assert.Equal(t, "Second", deeds[1].DeedType)
	})

	t.Run("equal created_at is ordered by id", func(t *testing.T) {
		a := buildTestDeed(domain.Table4, "A", baseTime)
		a.ID = "bbbbbbbb-0000-0000-0000-000000000000"
		b := buildTestDeed(domain.Table4, "B", baseTime)
		b.ID = "aaaaaaaa-0000-0000-0000-000000000000"
		_, err := store.InsertDeed(ctx, a)
		require.NoError(t, err)
		_, err = store.InsertDeed(ctx, b)
		require.NoError(t, err)

		deeds, err := store.QueryDeeds(ctx, ForTable(domain.Table4))
		require.NoError(t, err)
		require.Len(t, deeds, 2)
		assert.Equal(t, "B", deeds[0].DeedType)
		assert.Equal(t, "A", deeds[1].DeedType)
	})
}

func testUpdateDeed(t *testing.T, store Store) {
	ctx := context.Background()

	inserted, err := store.InsertDeed(ctx, buildTestDeed(domain.Table2, "Sale", baseTime))
	require.NoError(t, err)

	t.Run("updates only patched columns", func(t *testing.T) {
		patch, err := domain.SetField(domain.FieldExecutedBy, "Kumar")
		require.NoError(t, err)
		require.NoError(t, store.UpdateDeed(ctx, inserted.ID, patch))

		got, err := store.GetDeed(ctx, inserted.ID)
		require.NoError(t, err)
		assert.Equal(t, "Kumar", got.ExecutedBy)
		assert.Equal(t, "Meena", got.InFavourOf)
		assert.Equal(t, "Sale", got.DeedType)
	})

	t.Run("clears the date", func(t *testing.T) {
		patch, err := domain.SetField(domain.FieldDate, "")
		require.NoError(t, err)
		require.NoError(t, store.UpdateDeed(ctx, inserted.ID, patch))

		got, err := store.GetDeed(ctx, inserted.ID)
		require.NoError(t, err)
		assert.True(t, got.Date.IsNull())
	})

	t.Run("sets a day first date", func(t *testing.T) {
		patch, err := domain.SetField(domain.FieldDate, "15-08-1998")
		require.NoError(t, err)
		require.NoError(t, store.UpdateDeed(ctx, inserted.ID, patch))

		got, err := store.GetDeed(ctx, inserted.ID)
		require.NoError(t, err)
		assert.Equal(t, "1998-08-15", got.Date.String())
	})

	t.Run("replaces custom fields and moves created_at", func(t *testing.T) {
		createdAt := baseTime.Add(-time.Hour)
		patch := domain.DeedPatch{
			CustomFields: map[string]string{"extent": "2 acres"},
			CreatedAt:    &createdAt,
		}
		require.NoError(t, store.UpdateDeed(ctx, inserted.ID, patch))

		got, err := store.GetDeed(ctx, inserted.ID)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"extent": "2 acres"}, got.CustomFields)
		assert.True(t, createdAt.Equal(got.CreatedAt))
	})

	t.Run("missing deed and empty patch are no-ops", func(t *testing.T) {
		deedType := "Gift"
		assert.NoError(t, store.UpdateDeed(ctx, "00000000-0000-0000-0000-000000000000", domain.DeedPatch{DeedType: &deedType}))
		assert.NoError(t, store.UpdateDeed(ctx, inserted.ID, domain.DeedPatch{}))
	})
}

func testDeleteDeed(t *testing.T, store Store) {
	ctx := context.Background()

	inserted, err := store.InsertDeed(ctx, buildTestDeed(domain.TablePrimary, "Sale", baseTime))
	require.NoError(t, err)

	require.NoError(t, store.DeleteDeed(ctx, inserted.ID))

	got, err := store.GetDeed(ctx, inserted.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// deleting again is not an error
	assert.NoError(t, store.DeleteDeed(ctx, inserted.ID))
}

// =============================================================================
// Test: Catalog
// =============================================================================

func testCatalog(t *testing.T, store Store) {
	ctx := context.Background()

	require.NoError(t, store.UpsertDeedTemplate(ctx, domain.DeedTypeTemplate{
		DeedType:           "sale deed",
		PreviewTemplate:    "Sale deed by {executedBy} to {inFavourOf} for {extent}",
		CustomPlaceholders: map[string]string{"extent": "Extent"},
	}))
	require.NoError(t, store.UpsertDeedTemplate(ctx, domain.DeedTypeTemplate{
		DeedType:        "gift deed",
		PreviewTemplate: "Gift deed",
	}))

	templates, err := store.ListDeedTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, templates, 2)
	assert.Equal(t, "gift deed", templates[0].DeedType)
	assert.Empty(t, templates[0].CustomPlaceholders)
	assert.Equal(t, "sale deed", templates[1].DeedType)
	assert.Equal(t, map[string]string{"extent": "Extent"}, templates[1].CustomPlaceholders)

	t.Run("upsert replaces the entry", func(t *testing.T) {
		require.NoError(t, store.UpsertDeedTemplate(ctx, domain.DeedTypeTemplate{
			DeedType:           "sale deed",
			PreviewTemplate:    "Sale of {surveyNo}",
			CustomPlaceholders: map[string]string{"surveyNo": "Survey No"},
		}))

		templates, err := store.ListDeedTemplates(ctx)
		require.NoError(t, err)
		require.Len(t, templates, 2)
		assert.Equal(t, "Sale of {surveyNo}", templates[1].PreviewTemplate)
		assert.Equal(t, map[string]string{"surveyNo": "Survey No"}, templates[1].CustomPlaceholders)
	})

	t.Run("history templates", func(t *testing.T) {
		require.NoError(t, store.UpsertHistoryTemplate(ctx, domain.HistoryTemplate{
			DeedType:        "sale deed",
			TemplateContent: "By sale deed dated {date}",
		}))
		require.NoError(t, store.UpsertHistoryTemplate(ctx, domain.HistoryTemplate{
			DeedType:        "sale deed",
			TemplateContent: "By a registered sale deed dated {date}",
		}))

		history, err := store.ListHistoryTemplates(ctx)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, "By a registered sale deed dated {date}", history[0].TemplateContent)
	})
}

// =============================================================================
// Test: Document templates and drafts
// =============================================================================

func testDocumentTemplates(t *testing.T, store Store) {
	ctx := context.Background()

	first, err := store.CreateDocumentTemplate(ctx, domain.DocumentTemplate{
		Name:     "Bank A",
		FileName: "bank-a.docx",
		Content:  "TITLE:\n{table}",
		Data:     []byte("docx-a"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	time.Sleep(10 * time.Millisecond)
	second, err := store.CreateDocumentTemplate(ctx, domain.DocumentTemplate{
		Name:     "Bank B",
		FileName: "bank-b.docx",
		Content:  "{history}",
		Data:     []byte("docx-b"),
	})
	require.NoError(t, err)

	templates, err := store.ListDocumentTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, templates, 2)
	assert.Equal(t, second.ID, templates[0].ID)
	assert.Equal(t, first.ID, templates[1].ID)
	assert.Nil(t, templates[0].Data)

	got, err := store.GetDocumentTemplate(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Bank A", got.Name)
	assert.Equal(t, "TITLE:\n{table}", got.Content)
	assert.Equal(t, []byte("docx-a"), got.Data)

	missing, err := store.GetDocumentTemplate(ctx, "00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testDrafts(t *testing.T, store Store) {
	ctx := context.Background()

	tmpl, err := store.CreateDocumentTemplate(ctx, domain.DocumentTemplate{
		Name:     "Bank A",
		FileName: "bank-a.docx",
	})
	require.NoError(t, err)

	saved, err := store.SaveDraft(ctx, domain.Draft{
		Name:         "Plot 42",
		TemplateID:   &tmpl.ID,
		Placeholders: map[string]string{"bankName": "Canara Bank"},
		Documents: []domain.PropertyDocument{
			{ID: "doc-1", DocNo: "1234/2001", SurveyNo: "45/2"},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "Plot 42", saved.Name)
	require.NotNil(t, saved.TemplateID)
	assert.Equal(t, tmpl.ID, *saved.TemplateID)
	assert.Equal(t, "Canara Bank", saved.Placeholders["bankName"])
	require.Len(t, saved.Documents, 1)
	assert.Equal(t, "45/2", saved.Documents[0].SurveyNo)

	t.Run("save replaces an existing draft", func(t *testing.T) {
		saved.Name = "Plot 42 (revised)"
		saved.Documents = nil
		updated, err := store.SaveDraft(ctx, *saved)
		require.NoError(t, err)
		assert.Equal(t, saved.ID, updated.ID)
		assert.Equal(t, "Plot 42 (revised)", updated.Name)
		assert.Empty(t, updated.Documents)
	})

	t.Run("missing draft returns nil", func(t *testing.T) {
		got, err := store.GetDraft(ctx, "00000000-0000-0000-0000-000000000000")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

// RunStoreTests runs all store tests against the given implementation
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store, cleanupDB func(t *testing.T)) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store)
	}{
		{"InsertAndGetDeed", testInsertAndGetDeed},
		{"QueryDeeds", testQueryDeeds},
		{"UpdateDeed", testUpdateDeed},
		{"DeleteDeed", testDeleteDeed},
		{"Catalog", testCatalog},
		{"DocumentTemplates", testDocumentTemplates},
		{"Drafts", testDrafts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := initDB(t)
			defer cleanupDB(t)
			tt.fn(t, store)
		})
	}
}
