package rest

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/feral-file/title-scrutiny/internal/adapter"
	"github.com/feral-file/title-scrutiny/internal/api/middleware"
	"github.com/feral-file/title-scrutiny/internal/catalog"
	"github.com/feral-file/title-scrutiny/internal/columns"
	"github.com/feral-file/title-scrutiny/internal/domain"
	"github.com/feral-file/title-scrutiny/internal/logger"
	"github.com/feral-file/title-scrutiny/internal/merge"
	"github.com/feral-file/title-scrutiny/internal/messaging/memory"
	"github.com/feral-file/title-scrutiny/internal/store"
	"github.com/feral-file/title-scrutiny/internal/workspace"
	"github.com/feral-file/title-scrutiny/internal/wordtemplate"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

const (
	waitFor = 2 * time.Second
	tick    = 10 * time.Millisecond
)

type apiFixture struct {
	router   *gin.Engine
	registry *workspace.Registry
	store    store.Store
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, store.AutoMigrate(db))

	clock := adapter.NewFakeClock(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	broker := memory.NewBroker(64)
	st := store.NewNotifyingStore(store.NewPGStore(db), broker, clock)
	cat := catalog.New(st, time.Minute)
	columnDir := t.TempDir()

	registry := workspace.NewRegistry(workspace.Config{WorkerPoolSize: 2}, workspace.Dependencies{
		Store:      st,
		Catalog:    cat,
		Engine:     merge.NewEngine(cat),
		Subscriber: broker,
		ColumnStorage: func(clientID string) columns.Storage {
			return columns.NewFileStorage(adapter.NewFileSystem(), columns.ClientDir(columnDir, clientID))
		},
		JSON:  adapter.NewJSON(),
		Clock: clock,
	})
	t.Cleanup(func() {
		registry.Close()
		broker.Close()
		_ = sqlDB.Close()
	})

	h := NewHandler(Config{MaxTemplateSize: 1 << 20}, registry, wordtemplate.NewService(st), cat)
	router := gin.New()
	SetupRoutes(router, h, middleware.AuthConfig{APIKeys: []string{"secret"}})

	return &apiFixture{router: router, registry: registry, store: st}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (f *apiFixture) openSession(t *testing.T, body any) workspace.Snapshot {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/v1/sessions", body, middleware.ClientIDHeader, "client-1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[workspace.Snapshot](t, w)
}

func sampleDocx(t *testing.T) []byte {
	t.Helper()

	parts := []struct{ name, body string }{
		{"[Content_Types].xml", `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`},
		{"_rels/.rels", `<?xml version="1.0"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"/>`},
		{"word/document.xml", `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:t>Owner {ownerName} of {village}</w:t></w:r></w:p>
<w:p><w:r><w:t>{table}</w:t></w:r></w:p>
</w:body></w:document>`},
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range parts {
		w, err := zw.Create(p.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(p.body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func multipartUpload(t *testing.T, fileName string, data []byte, name string) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	if name != "" {
		require.NoError(t, mw.WriteField("name", name))
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestHealthCheck(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","sessions":0}`, w.Body.String())
}

func TestTemplates(t *testing.T) {
	f := newAPIFixture(t)

	body, contentType := multipartUpload(t, "scrutiny.docx", sampleDocx(t), "")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/templates", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decode[struct {
		Template     domain.DocumentTemplate `json:"template"`
		Placeholders []wordtemplate.Field    `json:"placeholders"`
	}](t, w)
	assert.Equal(t, "scrutiny", created.Template.Name)
	assert.Equal(t, "Owner {ownerName} of {village}\n{table}", created.Template.Content)
	require.Len(t, created.Placeholders, 2)
	assert.Equal(t, "ownerName", created.Placeholders[0].Name)

	w = f.do(t, http.MethodGet, "/api/v1/templates", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), created.Template.ID)

	w = f.do(t, http.MethodGet, "/api/v1/templates/"+created.Template.ID+"/placeholders", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "village")

	w = f.do(t, http.MethodGet, "/api/v1/templates/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadTemplate_Rejects(t *testing.T) {
	f := newAPIFixture(t)

	tests := []struct {
		name     string
		fileName string
		data     []byte
		status   int
	}{
		{name: "wrong extension", fileName: "scrutiny.pdf", data: sampleDocx(t), status: http.StatusBadRequest},
		{name: "not a word document", fileName: "scrutiny.docx", data: []byte("plain text"), status: http.StatusBadRequest},
		{name: "too large", fileName: "big.docx", data: bytes.Repeat([]byte("a"), 2<<20), status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartUpload(t, tt.fileName, tt.data, "named")
			req := httptest.NewRequest(http.MethodPost, "/api/v1/templates", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			f.router.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	w := f.do(t, http.MethodPost, "/api/v1/templates", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeedTypes(t *testing.T) {
	f := newAPIFixture(t)
	history := "{executedBy} sold to {inFavourOf} on {date}"
	req := UpsertDeedTypeRequest{
		PreviewTemplate:    "{deedType} deed of {surveyNo}",
		CustomPlaceholders: map[string]string{"surveyNo": "Survey No"},
		HistoryTemplate:    &history,
	}

	w := f.do(t, http.MethodPut, "/api/v1/deed-types/Sale", req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodPut, "/api/v1/deed-types/Sale", req, "Authorization", "ApiKey secret")
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = f.do(t, http.MethodGet, "/api/v1/deed-types", nil)
	require.Equal(t, http.StatusOK, w.Code)
	listed := decode[struct {
		DeedTypes []catalog.DeedType `json:"deed_types"`
	}](t, w)
	require.Len(t, listed.DeedTypes, 1)
	assert.Equal(t, "Sale", listed.DeedTypes[0].DeedType)
	assert.Equal(t, history, listed.DeedTypes[0].HistoryTemplate)
	assert.Equal(t, []string{"surveyNo"}, listed.DeedTypes[0].DynamicPlaceholders)
}

func TestSessions(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	tmpl, err := f.store.CreateDocumentTemplate(ctx, domain.DocumentTemplate{
		Name:    "report",
		Content: "Owner {ownerName}\n{table}",
	})
	require.NoError(t, err)

	snap := f.openSession(t, CreateSessionRequest{TemplateID: tmpl.ID})
	assert.Equal(t, map[string]string{"ownerName": ""}, snap.Placeholders)
	require.Len(t, snap.Tables, 4)

	s, err := f.registry.Get(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, "client-1", s.ClientID())

	base := "/api/v1/sessions/" + snap.ID
	w := f.do(t, http.MethodPatch, base+"/placeholders", SetPlaceholdersRequest{Values: map[string]string{"ownerName": "Ravi"}})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, base+"/preview?format=text", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "Owner Ravi"), w.Body.String())

	w = f.do(t, http.MethodGet, base+"/preview?format=html", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Owner Ravi")

	w = f.do(t, http.MethodGet, base+"/preview?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, base+"/drafts", SaveDraftRequest{Name: "Plot 45"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	draft := decode[domain.Draft](t, w)
	assert.Equal(t, "Plot 45", draft.Name)
	assert.Equal(t, "Ravi", draft.Placeholders["ownerName"])

	w = f.do(t, http.MethodPost, base+"/drafts", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = f.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	restored := f.openSession(t, CreateSessionRequest{DraftID: draft.ID})
	assert.Equal(t, "Plot 45", restored.Name)
	assert.Equal(t, "Ravi", restored.Placeholders["ownerName"])
}

func TestTables(t *testing.T) {
	f := newAPIFixture(t)
	snap := f.openSession(t, nil)
	base := "/api/v1/sessions/" + snap.ID + "/tables/table"

	s, err := f.registry.Get(snap.ID)
	require.NoError(t, err)
	m, err := s.Table(domain.TablePrimary)
	require.NoError(t, err)

	w := f.do(t, http.MethodPost, base+"/deeds", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	deed := decode[domain.Deed](t, w)
	require.Eventually(t, func() bool { _, ok := m.Deed(deed.ID); return ok }, waitFor, tick)

	w = f.do(t, http.MethodPatch, base+"/deeds/"+deed.ID, UpdateFieldRequest{Field: "executed_by", Value: "A"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "A", decode[domain.Deed](t, w).ExecutedBy)

	w = f.do(t, http.MethodPatch, base+"/deeds/"+deed.ID, UpdateFieldRequest{Field: "colour", Value: "red"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPatch, base+"/deeds/"+uuid.NewString(), UpdateFieldRequest{Field: "executed_by", Value: "A"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodPatch, base+"/deeds/"+deed.ID+"/custom-fields", UpdateCustomFieldRequest{Key: "surveyNo", Value: "45"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "45", decode[domain.Deed](t, w).CustomFields["surveyNo"])

	w = f.do(t, http.MethodPost, base+"/deeds/insert", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/sessions/"+snap.ID+"/tables/table9", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, base+"/copy", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/sessions/"+uuid.NewString()+"/tables/table", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodDelete, base+"/deeds/"+deed.ID, nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	require.Eventually(t, func() bool { return len(m.Deeds()) == 0 }, waitFor, tick)
}

func TestColumns(t *testing.T) {
	f := newAPIFixture(t)
	snap := f.openSession(t, nil)
	base := "/api/v1/sessions/" + snap.ID + "/tables/table2/columns"

	w := f.do(t, http.MethodPost, base, AddColumnRequest{Name: "Remarks", Position: "date"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.do(t, http.MethodPost, base, AddColumnRequest{Name: " Remarks ", Position: "date"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodPost, base, AddColumnRequest{Name: "Page", Position: "nowhere"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPut, base+"/Remarks/values/deed-1", SetColumnValueRequest{Value: "verified"})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = f.do(t, http.MethodGet, "/api/v1/sessions/"+snap.ID+"/tables/table2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	table := decode[workspace.TableSnapshot](t, w)
	require.Len(t, table.Columns, 1)
	assert.Equal(t, "verified", table.Values["deed-1"]["Remarks"])
	require.NotNil(t, table.CopySource)
	assert.Equal(t, domain.TablePrimary, *table.CopySource)

	w = f.do(t, http.MethodDelete, base+"/Remarks", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestDocuments(t *testing.T) {
	f := newAPIFixture(t)
	snap := f.openSession(t, nil)
	base := "/api/v1/sessions/" + snap.ID + "/documents"

	w := f.do(t, http.MethodPost, base, map[string]any{"docNo": "12/2001"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, base, map[string]any{
		"surveyNo":   "45/2B",
		"docNo":      "12/2001",
		"customRows": []map[string]string{{"label": "Frontage", "value": "30 ft"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	doc := decode[domain.PropertyDocument](t, w)
	assert.NotEmpty(t, doc.ID)

	w = f.do(t, http.MethodPost, base+"/"+doc.ID+"/edit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	form := decode[map[string]any](t, w)
	assert.Equal(t, "45/2B", form["surveyNo"])

	w = f.do(t, http.MethodDelete, base+"/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStream(t *testing.T) {
	f := newAPIFixture(t)
	snap := f.openSession(t, nil)

	srv := httptest.NewServer(f.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/sessions/" + snap.ID + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(waitFor)))

	var first StreamMessage
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, StreamSnapshot, first.Type)
	require.NotNil(t, first.Snapshot)
	assert.Equal(t, snap.ID, first.Snapshot.ID)

	w := f.do(t, http.MethodPost, "/api/v1/sessions/"+snap.ID+"/documents", map[string]any{"surveyNo": "45"})
	require.Equal(t, http.StatusCreated, w.Code)

	for {
		var msg StreamMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type != StreamNotice {
			continue
		}
		require.NotNil(t, msg.Notice)
		assert.Equal(t, "Document added successfully", msg.Notice.Message)
		break
	}

	w = f.do(t, http.MethodDelete, "/api/v1/sessions/"+snap.ID, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	for {
		var msg StreamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), err.Error())
			break
		}
	}
}
