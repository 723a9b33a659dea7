package rest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feral-file/title-scrutiny/internal/api/middleware"
	"github.com/feral-file/title-scrutiny/internal/catalog"
	"github.com/feral-file/title-scrutiny/internal/columns"
	"github.com/feral-file/title-scrutiny/internal/deeds"
	"github.com/feral-file/title-scrutiny/internal/domain"
	"github.com/feral-file/title-scrutiny/internal/logger"
	"github.com/feral-file/title-scrutiny/internal/merge"
	"github.com/feral-file/title-scrutiny/internal/property"
	"github.com/feral-file/title-scrutiny/internal/workspace"
	"github.com/feral-file/title-scrutiny/internal/wordtemplate"
)

const defaultMaxTemplateSize = 10 << 20

// Handler defines the REST API handlers
type Handler interface {
	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)

	// UploadTemplate stores a Word template from a multipart "file" field and optional "name"
	// POST /api/v1/templates
	UploadTemplate(c *gin.Context)
	// ListTemplates GET /api/v1/templates
	ListTemplates(c *gin.Context)
	// GetTemplate GET /api/v1/templates/:template_id
	GetTemplate(c *gin.Context)
	// GetTemplatePlaceholders GET /api/v1/templates/:template_id/placeholders
	GetTemplatePlaceholders(c *gin.Context)

	// ListDeedTypes returns the catalog with the dynamic fields of every deed type
	// GET /api/v1/deed-types
	ListDeedTypes(c *gin.Context)
	// UpsertDeedType writes the templates of a deed type (requires authentication)
	// PUT /api/v1/deed-types/:deed_type
	UpsertDeedType(c *gin.Context)

	// CreateSession POST /api/v1/sessions
	CreateSession(c *gin.Context)
	// GetSession GET /api/v1/sessions/:session_id
	GetSession(c *gin.Context)
	// CloseSession DELETE /api/v1/sessions/:session_id
	CloseSession(c *gin.Context)
	// UseTemplate PUT /api/v1/sessions/:session_id/template
	UseTemplate(c *gin.Context)
	// SetPlaceholders PATCH /api/v1/sessions/:session_id/placeholders
	SetPlaceholders(c *gin.Context)

	// GetTable GET /api/v1/sessions/:session_id/tables/:table
	GetTable(c *gin.Context)
	// AddDeed POST /api/v1/sessions/:session_id/tables/:table/deeds
	AddDeed(c *gin.Context)
	// InsertDeed POST /api/v1/sessions/:session_id/tables/:table/deeds/insert
	InsertDeed(c *gin.Context)
	// UpdateDeedField PATCH /api/v1/sessions/:session_id/tables/:table/deeds/:deed_id
	UpdateDeedField(c *gin.Context)
	// UpdateDeedCustomField PATCH /api/v1/sessions/:session_id/tables/:table/deeds/:deed_id/custom-fields
	UpdateDeedCustomField(c *gin.Context)
	// RemoveDeed DELETE /api/v1/sessions/:session_id/tables/:table/deeds/:deed_id
	RemoveDeed(c *gin.Context)
	// CopyPrevious copies the preceding table into this one
	// POST /api/v1/sessions/:session_id/tables/:table/copy
	CopyPrevious(c *gin.Context)

	// AddColumn POST /api/v1/sessions/:session_id/tables/:table/columns
	AddColumn(c *gin.Context)
	// RemoveColumn DELETE /api/v1/sessions/:session_id/tables/:table/columns/:column
	RemoveColumn(c *gin.Context)
	// SetColumnValue PUT /api/v1/sessions/:session_id/tables/:table/columns/:column/values/:deed_id
	SetColumnValue(c *gin.Context)

	// AddDocument POST /api/v1/sessions/:session_id/documents
	AddDocument(c *gin.Context)
	// RemoveDocument DELETE /api/v1/sessions/:session_id/documents/:document_id
	RemoveDocument(c *gin.Context)
	// EditDocument POST /api/v1/sessions/:session_id/documents/:document_id/edit
	EditDocument(c *gin.Context)

	// Preview renders the merged report as json, text or html
	// GET /api/v1/sessions/:session_id/preview?format=<json|text|html>
	Preview(c *gin.Context)
	// SaveDraft POST /api/v1/sessions/:session_id/drafts
	SaveDraft(c *gin.Context)

	// Stream upgrades to a websocket carrying the session snapshot, notices and table updates
	// GET /api/v1/sessions/:session_id/stream
	Stream(c *gin.Context)
}

// Catalog is the deed-type catalog as used by the API
type Catalog interface {
	DeedTypes(ctx context.Context) ([]catalog.DeedType, error)
	UpsertDeedTemplate(ctx context.Context, tmpl domain.DeedTypeTemplate) error
	UpsertHistoryTemplate(ctx context.Context, tmpl domain.HistoryTemplate) error
}

// Config holds the handler settings
type Config struct {
	Debug           bool
	MaxTemplateSize int64
	PingInterval    time.Duration
}

// handler implements the Handler interface
type handler struct {
	cfg       Config
	sessions  *workspace.Registry
	templates *wordtemplate.Service
	catalog   Catalog
}

// NewHandler creates a new REST API handler
func NewHandler(cfg Config, sessions *workspace.Registry, templates *wordtemplate.Service, catalog Catalog) Handler {
	if cfg.MaxTemplateSize <= 0 {
		cfg.MaxTemplateSize = defaultMaxTemplateSize
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaultPingInterval
	}
	return &handler{
		cfg:       cfg,
		sessions:  sessions,
		templates: templates,
		catalog:   catalog,
	}
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"sessions": h.sessions.Len(),
	})
}

func (h *handler) UploadTemplate(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respondBadRequest(c, "Template file is required", err.Error())
		return
	}
	if file.Size > h.cfg.MaxTemplateSize {
		respondValidationError(c, fmt.Sprintf("template exceeds %d bytes", h.cfg.MaxTemplateSize))
		return
	}

	f, err := file.Open()
	if err != nil {
		respondBadRequest(c, "Failed to read template file", err.Error())
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.cfg.MaxTemplateSize))
	if err != nil {
		respondBadRequest(c, "Failed to read template file", err.Error())
		return
	}

	tmpl, err := h.templates.Upload(c.Request.Context(), c.PostForm("name"), file.Filename, data)
	if err != nil {
		respondError(c, err, "Failed to upload template", zap.String("fileName", file.Filename))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"template":     tmpl,
		"placeholders": wordtemplate.Placeholders(tmpl),
	})
}

func (h *handler) ListTemplates(c *gin.Context) {
	templates, err := h.templates.List(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list templates")
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

func (h *handler) GetTemplate(c *gin.Context) {
	tmpl, err := h.templates.Get(c.Request.Context(), c.Param("template_id"))
	if err != nil {
		respondError(c, err, "Failed to get template")
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

func (h *handler) GetTemplatePlaceholders(c *gin.Context) {
	tmpl, err := h.templates.Get(c.Request.Context(), c.Param("template_id"))
	if err != nil {
		respondError(c, err, "Failed to get template")
		return
	}
	c.JSON(http.StatusOK, gin.H{"placeholders": wordtemplate.Placeholders(tmpl)})
}

func (h *handler) ListDeedTypes(c *gin.Context) {
	types, err := h.catalog.DeedTypes(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list deed types")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deed_types": types})
}

func (h *handler) UpsertDeedType(c *gin.Context) {
	var req UpsertDeedTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	deedType := c.Param("deed_type")
	err := h.catalog.UpsertDeedTemplate(ctx, domain.DeedTypeTemplate{
		DeedType:           deedType,
		PreviewTemplate:    req.PreviewTemplate,
		CustomPlaceholders: req.CustomPlaceholders,
	})
	if err == nil && req.HistoryTemplate != nil {
		err = h.catalog.UpsertHistoryTemplate(ctx, domain.HistoryTemplate{
			DeedType:        deedType,
			TemplateContent: *req.HistoryTemplate,
		})
	}
	if err != nil {
		respondError(c, err, "Failed to save deed type", zap.String("deed_type", deedType))
		return
	}

	logger.InfoCtx(ctx, "Deed type saved",
		zap.String("deed_type", deedType),
		zap.String("by", middleware.AuthSubject(c)))
	c.Status(http.StatusNoContent)
}

func (h *handler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err.Error())
			return
		}
	}
	if req.ClientID == "" {
		req.ClientID = c.GetHeader(middleware.ClientIDHeader)
	}

	s, err := h.sessions.Create(c.Request.Context(), workspace.Options{
		ClientID:   req.ClientID,
		TemplateID: req.TemplateID,
		DraftID:    req.DraftID,
	})
	if err != nil {
		respondError(c, err, "Failed to open session")
		return
	}
	c.JSON(http.StatusCreated, s.Snapshot())
}

// session resolves the :session_id parameter, responding when it is unknown
func (h *handler) session(c *gin.Context) (*workspace.Session, bool) {
	s, err := h.sessions.Get(c.Param("session_id"))
	if err != nil {
		respondError(c, err, "Session not found")
		return nil, false
	}
	return s, true
}

// table resolves the :session_id and :table parameters
func (h *handler) table(c *gin.Context) (*workspace.Session, *deeds.Manager, bool) {
	s, ok := h.session(c)
	if !ok {
		return nil, nil, false
	}
	t, err := domain.ParseTableType(c.Param("table"))
	if err != nil {
		respondError(c, err, "Invalid table")
		return nil, nil, false
	}
	m, err := s.Table(t)
	if err != nil {
		respondError(c, err, "Invalid table")
		return nil, nil, false
	}
	return s, m, true
}

// overlay resolves the custom columns of the :table parameter
func (h *handler) overlay(c *gin.Context) (*columns.Overlay, bool) {
	s, m, ok := h.table(c)
	if !ok {
		return nil, false
	}
	o, err := s.Columns(m.TableType())
	if err != nil {
		respondError(c, err, "Invalid table")
		return nil, false
	}
	return o, true
}

func (h *handler) GetSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *handler) CloseSession(c *gin.Context) {
	if err := h.sessions.CloseSession(c.Param("session_id")); err != nil {
		respondError(c, err, "Failed to close session")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) UseTemplate(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req UseTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}
	if err := s.UseTemplate(c.Request.Context(), req.TemplateID); err != nil {
		respondError(c, err, "Failed to use template")
		return
	}
	c.JSON(http.StatusOK, gin.H{"placeholders": s.Placeholders()})
}

func (h *handler) SetPlaceholders(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req SetPlaceholdersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}
	s.SetPlaceholders(req.Values)
	c.JSON(http.StatusOK, gin.H{"placeholders": s.Placeholders()})
}

func (h *handler) GetTable(c *gin.Context) {
	s, m, ok := h.table(c)
	if !ok {
		return
	}
	snap, err := s.TableSnapshot(m.TableType())
	if err != nil {
		respondError(c, err, "Failed to get table")
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *handler) AddDeed(c *gin.Context) {
	_, m, ok := h.table(c)
	if !ok {
		return
	}
	deed, err := m.AddRecord(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to add deed")
		return
	}
	c.JSON(http.StatusCreated, deed)
}

func (h *handler) InsertDeed(c *gin.Context) {
	_, m, ok := h.table(c)
	if !ok {
		return
	}
	var req InsertDeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}
	deed, err := m.InsertAfter(c.Request.Context(), *req.Index)
	if err != nil {
		respondError(c, err, "Failed to insert deed")
		return
	}
	c.JSON(http.StatusCreated, deed)
}

func (h *handler) UpdateDeedField(c *gin.Context) {
	_, m, ok := h.table(c)
	if !ok {
		return
	}
	var req UpdateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	id := c.Param("deed_id")
	if err := m.UpdateField(c.Request.Context(), id, domain.DeedField(req.Field), req.Value); err != nil {
		respondError(c, err, "Failed to update deed")
		return
	}
	deed, _ := m.Deed(id)
	c.JSON(http.StatusOK, deed)
}

func (h *handler) UpdateDeedCustomField(c *gin.Context) {
	_, m, ok := h.table(c)
	if !ok {
		return
	}
	var req UpdateCustomFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	id := c.Param("deed_id")
	if err := m.UpdateCustomField(c.Request.Context(), id, req.Key, req.Value); err != nil {
		respondError(c, err, "Failed to update deed")
		return
	}
	deed, _ := m.Deed(id)
	c.JSON(http.StatusOK, deed)
}

func (h *handler) RemoveDeed(c *gin.Context) {
	_, m, ok := h.table(c)
	if !ok {
		return
	}
	if err := m.RemoveRecord(c.Request.Context(), c.Param("deed_id")); err != nil {
		respondError(c, err, "Failed to remove deed")
		return
	}
	c.Status(http.StatusAccepted)
}

func (h *handler) CopyPrevious(c *gin.Context) {
	s, m, ok := h.table(c)
	if !ok {
		return
	}
	copied, err := s.CopyPrevious(c.Request.Context(), m.TableType())
	if err != nil {
		respondError(c, err, "Failed to copy deeds")
		return
	}
	c.JSON(http.StatusOK, CopyResponse{Copied: copied})
}

func (h *handler) AddColumn(c *gin.Context) {
	o, ok := h.overlay(c)
	if !ok {
		return
	}
	var req AddColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}
	column, err := o.AddColumn(c.Request.Context(), req.Name, domain.ColumnAnchor(req.Position))
	if err != nil {
		respondError(c, err, "Failed to add column")
		return
	}
	c.JSON(http.StatusCreated, column)
}

func (h *handler) RemoveColumn(c *gin.Context) {
	o, ok := h.overlay(c)
	if !ok {
		return
	}
	if err := o.RemoveColumn(c.Request.Context(), c.Param("column")); err != nil {
		respondError(c, err, "Failed to remove column")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) SetColumnValue(c *gin.Context) {
	o, ok := h.overlay(c)
	if !ok {
		return
	}
	var req SetColumnValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}
	if err := o.SetValue(c.Request.Context(), c.Param("deed_id"), c.Param("column"), req.Value); err != nil {
		respondError(c, err, "Failed to set column value")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) AddDocument(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var form property.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		respondValidationError(c, err.Error())
		return
	}
	doc, err := s.AddDocument(c.Request.Context(), form)
	if err != nil {
		respondError(c, err, "Failed to add document")
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (h *handler) RemoveDocument(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.RemoveDocument(c.Request.Context(), c.Param("document_id")); err != nil {
		respondError(c, err, "Failed to remove document")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) EditDocument(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	form, err := s.EditDocument(c.Param("document_id"))
	if err != nil {
		respondError(c, err, "Failed to edit document")
		return
	}
	c.JSON(http.StatusOK, form)
}

func (h *handler) Preview(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	doc := s.Preview(c.Request.Context())
	switch strings.ToLower(c.DefaultQuery("format", "json")) {
	case "json":
		c.JSON(http.StatusOK, doc)
	case "text":
		c.String(http.StatusOK, doc.Text())
	case "html":
		page, err := merge.RenderHTML(doc)
		if err != nil {
			respondError(c, err, "Failed to render preview")
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
	default:
		respondValidationError(c, "format must be one of json, text, html")
	}
}

func (h *handler) SaveDraft(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req SaveDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}
	draft, err := s.SaveDraft(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err, "Failed to save draft")
		return
	}
	c.JSON(http.StatusOK, draft)
}
