package rest

// CreateSessionRequest opens a session from a template, a draft, or nothing
type CreateSessionRequest struct {
	ClientID   string `json:"client_id"`
	TemplateID string `json:"template_id"`
	DraftID    string `json:"draft_id"`
}

// UseTemplateRequest switches the template of a session
type UseTemplateRequest struct {
	TemplateID string `json:"template_id" binding:"required"`
}

// SetPlaceholdersRequest merges placeholder values
type SetPlaceholdersRequest struct {
	Values map[string]string `json:"values" binding:"required"`
}

// InsertDeedRequest inserts a blank deed after the row at Index
type InsertDeedRequest struct {
	Index *int `json:"index" binding:"required"`
}

// UpdateFieldRequest edits one flat field of a deed
type UpdateFieldRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

// UpdateCustomFieldRequest edits one custom field of a deed
type UpdateCustomFieldRequest struct {
	Key   string `json:"key" binding:"required"`
	Value string `json:"value"`
}

// AddColumnRequest adds a custom column after a fixed column
type AddColumnRequest struct {
	Name     string `json:"name"`
	Position string `json:"position" binding:"required"`
}

// SetColumnValueRequest sets the value of a custom column for a deed
type SetColumnValueRequest struct {
	Value string `json:"value"`
}

// SaveDraftRequest saves the session under a name
type SaveDraftRequest struct {
	Name string `json:"draft_name" binding:"required"`
}

// UpsertDeedTypeRequest writes the templates of a deed type. A nil history template
// leaves the stored one unchanged.
type UpsertDeedTypeRequest struct {
	PreviewTemplate    string            `json:"preview_template"`
	CustomPlaceholders map[string]string `json:"custom_placeholders"`
	HistoryTemplate    *string           `json:"history_template"`
}

// CopyResponse reports how many deeds a copy inserted
type CopyResponse struct {
	Copied int `json:"copied"`
}
