package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"

	"productmap/internal/matching"
	"productmap/internal/reconcile"
	"productmap/internal/services"
	"productmap/pkg/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// newTestContext builds a tenant-scoped context with the validator installed.
func newTestContext(method, target string, body io.Reader, contentType string, tenantID uuid.UUID) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("tenant_id", tenantID)
	return c, rec
}

// multipartBody encodes a file upload plus extra form fields.
func multipartBody(fileName, content string, fields map[string]string) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if fileName != "" {
		part, _ := w.CreateFormFile("file", fileName)
		_, _ = part.Write([]byte(content))
	}
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	_ = w.Close()
	return body, w.FormDataContentType()
}

func jsonContext(method, target, body string, tenantID uuid.UUID) (echo.Context, *httptest.ResponseRecorder) {
	return newTestContext(method, target, bytes.NewBufferString(body), echo.MIMEApplicationJSON, tenantID)
}

type stubCatalog struct {
	candidates []matching.Candidate
}

func (s *stubCatalog) FindCandidates(ctx context.Context, tenantID uuid.UUID, method matching.Method, values []string) ([]matching.Candidate, error) {
	want := make(map[string]bool, len(values))
	for _, v := range values {
		want[v] = true
	}
	var out []matching.Candidate
	for _, c := range s.candidates {
		if method == matching.MethodEAN && c.EAN != "" && want[c.EAN] {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubCatalog) UpsertBatch(ctx context.Context, products []models.Product) (int, error) {
	return len(products), nil
}

type stubSuppliers struct{}

func (stubSuppliers) EnsureByNames(ctx context.Context, tenantID uuid.UUID, names []string) (map[string]uuid.UUID, int, error) {
	out := make(map[string]uuid.UUID, len(names))
	for _, n := range names {
		out[n] = uuid.NewSHA1(uuid.NameSpaceOID, []byte(n))
	}
	return out, len(names), nil
}

type stubLinks struct {
	mu   sync.Mutex
	rows []reconcile.Upsert
}

func (s *stubLinks) UpsertBatch(ctx context.Context, tenantID uuid.UUID, batch []reconcile.Upsert) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, batch...)
	return len(batch), nil
}

type stubHistory struct {
	mu     sync.Mutex
	rows   []models.ImportHistory
	filter models.ImportHistoryFilter
}

func (s *stubHistory) Create(ctx context.Context, h *models.ImportHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	s.rows = append(s.rows, *h)
	return nil
}

func (s *stubHistory) Update(ctx context.Context, h *models.ImportHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ID == h.ID {
			s.rows[i] = *h
		}
	}
	return nil
}

func (s *stubHistory) List(ctx context.Context, filter models.ImportHistoryFilter) (*models.PaginationResult[models.ImportHistory], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = filter
	var out []models.ImportHistory
	for _, h := range s.rows {
		if filter.Type == "" || h.Type == filter.Type {
			out = append(out, h)
		}
	}
	return models.NewPaginationResult(out, int64(len(out)), filter.Page, filter.Limit), nil
}

type stubAttributes struct {
	mu      sync.Mutex
	attrs   []models.CustomAttribute
	created []models.CustomAttribute
}

func (s *stubAttributes) List(ctx context.Context, tenantID uuid.UUID, forType string) ([]models.CustomAttribute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CustomAttribute
	for _, a := range s.attrs {
		if a.TenantID == tenantID && (forType == "" || a.ForType == forType) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *stubAttributes) Create(ctx context.Context, attr *models.CustomAttribute) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.attrs {
		if a.TenantID == attr.TenantID && a.ForType == attr.ForType && a.Name == attr.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	attr.ID = uuid.New()
	s.attrs = append(s.attrs, *attr)
	s.created = append(s.created, *attr)
	return nil
}

func (s *stubAttributes) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.attrs {
		if a.TenantID == tenantID && a.ID == id {
			s.attrs = append(s.attrs[:i], s.attrs[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type stubSettings struct {
	current services.MatchSettings
	update  *services.MatchSettings
	err     error
}

func newStubSettings() *stubSettings {
	return &stubSettings{current: services.MatchSettings{Options: matching.DefaultOptions(), BatchSize: 100}}
}

func (s *stubSettings) GetMatchSettings(ctx context.Context, tenantID uuid.UUID) (*services.MatchSettings, error) {
	out := s.current
	return &out, nil
}

func (s *stubSettings) UpdateMatchSettings(ctx context.Context, tenantID uuid.UUID, update services.MatchSettings) (*services.MatchSettings, error) {
	s.update = &update
	if s.err != nil {
		return nil, s.err
	}
	s.current = update
	out := s.current
	return &out, nil
}

type stubArchive struct {
	keys []string
}

func (s *stubArchive) ArchiveImport(ctx context.Context, tenantID uuid.UUID, importType models.ImportType, fileName string, content []byte) (string, error) {
	key := tenantID.String() + "/imports/" + fileName
	s.keys = append(s.keys, key)
	return key, nil
}

// importFixture wires a local-only ImportHandler over in-memory stores.
type importFixture struct {
	handler  *ImportHandler
	history  *stubHistory
	links    *stubLinks
	settings *stubSettings
	archive  *stubArchive
	product  uuid.UUID
}

func newImportFixture() *importFixture {
	f := &importFixture{
		history:  &stubHistory{},
		links:    &stubLinks{},
		settings: newStubSettings(),
		archive:  &stubArchive{},
		product:  uuid.New(),
	}
	catalog := &stubCatalog{candidates: []matching.Candidate{
		{ID: f.product, EAN: "5012345678901", Title: "Widget"},
	}}
	mappingService := services.NewMappingService(&stubAttributes{})
	f.handler = NewImportHandler(ImportDeps{
		Mapping:   mappingService,
		Suppliers: services.NewSupplierImportService(mappingService, catalog, stubSuppliers{}, f.links, f.history, nil),
		Products:  services.NewProductImportService(mappingService, catalog, f.history, nil),
		Settings:  f.settings,
		History:   f.history,
		Archive:   f.archive,
	})
	return f
}

func (f *importFixture) upload(handler echo.HandlerFunc, fileName, content string, fields map[string]string) (*httptest.ResponseRecorder, error) {
	body, contentType := multipartBody(fileName, content, fields)
	c, rec := newTestContext(http.MethodPost, "/", body, contentType, uuid.New())
	return rec, handler(c)
}
