package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"productmap/internal/http/middleware"
	"productmap/internal/mapping"
	"productmap/internal/matching"
	"productmap/internal/normalize"
	"productmap/internal/services"
	"productmap/internal/utils"
	"productmap/pkg/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	maxUploadSize = 50 << 20
	maxBatchSize  = 10000
)

// MatchSettingsStore reads and writes per-tenant match settings
type MatchSettingsStore interface {
	GetMatchSettings(ctx context.Context, tenantID uuid.UUID) (*services.MatchSettings, error)
	UpdateMatchSettings(ctx context.Context, tenantID uuid.UUID, update services.MatchSettings) (*services.MatchSettings, error)
}

// ImportHistoryLister lists import history rows
type ImportHistoryLister interface {
	List(ctx context.Context, filter models.ImportHistoryFilter) (*models.PaginationResult[models.ImportHistory], error)
}

// ImportDeps are the collaborators of ImportHandler. Jobs and Archive may be
// nil: without Jobs every supplier import runs locally.
type ImportDeps struct {
	Mapping   *services.MappingService
	Suppliers *services.SupplierImportService
	Products  *services.ProductImportService
	Jobs      *services.ImportJobService
	Settings  MatchSettingsStore
	History   ImportHistoryLister
	Archive   services.Archiver
}

type ImportHandler struct {
	deps ImportDeps
}

func NewImportHandler(deps ImportDeps) *ImportHandler {
	return &ImportHandler{deps: deps}
}

// PreviewMapping godoc
// @Summary Preview column mapping
// @Description Auto-map a header row onto the supplier (or product) fields
// @Tags imports
// @Accept json
// @Produce json
// @Param request body models.MappingPreviewRequest true "Header row"
// @Success 200 {object} models.MappingPreviewResponse
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /imports/supplier/mapping [post]
func (h *ImportHandler) PreviewMapping(c echo.Context) error {
	tenantID := middleware.GetTenantID(c)

	var req models.MappingPreviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": validationMessage(err)})
	}

	res, err := h.deps.Mapping.Preview(c.Request().Context(), tenantID, req.Headers, req.ForType)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to build mapping"})
	}
	return c.JSON(http.StatusOK, res)
}

// UploadSupplierFile godoc
// @Summary Import a supplier file
// @Description Map, normalize and match a supplier cost file against the catalog. Local imports answer with the summary; remote imports answer 202 with the job id.
// @Tags imports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX file"
// @Param field_mapping formData string false "JSON object of field name to column header"
// @Param match_options formData string false "JSON match options {useEan,useMpn,useName,priority}"
// @Param batch_size formData int false "Rows per write batch"
// @Param mode formData string false "local or remote"
// @Success 200 {object} models.SupplierImportResult
// @Success 202 {object} models.ImportJobAccepted
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]interface{}
// @Failure 500 {object} map[string]string
// @Router /imports/supplier [post]
func (h *ImportHandler) UploadSupplierFile(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := middleware.GetTenantID(c)

	upload, err := readUpload(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	settings, err := h.deps.Settings.GetMatchSettings(ctx, tenantID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load match settings"})
	}

	fieldMapping, err := parseFieldMapping(c.FormValue("field_mapping"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	options, err := parseMatchOptions(c.FormValue("match_options"), settings.Options)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	batchSize, err := parseBatchSize(c.FormValue("batch_size"), settings.BatchSize)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	mode, err := h.importMode(c.FormValue("mode"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	zerolog.Ctx(ctx).Info().
		Str("tenant_id", tenantID.String()).
		Str("file_name", upload.name).
		Int("rows", len(upload.table.Rows)).
		Str("mode", mode).
		Msg("Supplier file received")

	if mode == services.ModeRemote {
		out, err := h.deps.Jobs.StartSupplierImport(ctx, services.RemoteImportInput{
			TenantID:  tenantID,
			FileName:  upload.name,
			Content:   upload.content,
			Table:     upload.table,
			Mapping:   fieldMapping,
			Options:   options,
			BatchSize: batchSize,
		})
		if err != nil {
			var local *models.SupplierImportResult
			if out != nil {
				local = out.Local
			}
			return importError(c, err, local)
		}
		if out.Accepted != nil {
			return c.JSON(http.StatusAccepted, out.Accepted)
		}
		return c.JSON(http.StatusOK, out.Local)
	}

	result, err := h.deps.Suppliers.Import(ctx, services.SupplierImportInput{
		TenantID:   tenantID,
		FileName:   upload.name,
		FileSize:   int64(len(upload.content)),
		Table:      upload.table,
		Mapping:    fieldMapping,
		Options:    options,
		BatchSize:  batchSize,
		Mode:       services.ModeLocal,
		ArchiveKey: h.archive(ctx, tenantID, models.ImportTypeSupplier, upload),
	})
	if err != nil {
		return importError(c, err, result)
	}
	return c.JSON(http.StatusOK, result)
}

// UploadProductFile godoc
// @Summary Import a catalog file
// @Description Upsert Amazon product rows into the catalog on (tenant, EAN)
// @Tags imports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX file"
// @Param field_mapping formData string false "JSON object of field name to column header"
// @Success 200 {object} models.ProductImportResult
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /imports/products [post]
func (h *ImportHandler) UploadProductFile(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := middleware.GetTenantID(c)

	upload, err := readUpload(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	fieldMapping, err := parseFieldMapping(c.FormValue("field_mapping"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	result, err := h.deps.Products.Import(ctx, services.ProductImportInput{
		TenantID:   tenantID,
		FileName:   upload.name,
		FileSize:   int64(len(upload.content)),
		Table:      upload.table,
		Mapping:    fieldMapping,
		ArchiveKey: h.archive(ctx, tenantID, models.ImportTypeProduct, upload),
	})
	if err != nil {
		if result != nil {
			return c.JSON(http.StatusInternalServerError, map[string]interface{}{"error": err.Error(), "result": result})
		}
		return c.JSON(errorStatus(err), map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, result)
}

// GetJob godoc
// @Summary Get import job progress
// @Description Last known state of the tenant's tracked remote import
// @Tags imports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} models.ImportJobProgress
// @Failure 404 {object} map[string]string
// @Router /imports/jobs/{id} [get]
func (h *ImportHandler) GetJob(c echo.Context) error {
	if h.deps.Jobs == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "import job not found"})
	}

	progress, err := h.deps.Jobs.Progress(middleware.GetTenantID(c), c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "import job not found"})
	}
	return c.JSON(http.StatusOK, progress)
}

// CancelJob godoc
// @Summary Cancel import job
// @Description Ask the job service to cancel and stop tracking the job
// @Tags imports
// @Produce json
// @Param id path string true "Job ID"
// @Success 202 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /imports/jobs/{id}/cancel [post]
func (h *ImportHandler) CancelJob(c echo.Context) error {
	if h.deps.Jobs == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "import job not found"})
	}

	jobID := c.Param("id")
	if err := h.deps.Jobs.Cancel(c.Request().Context(), middleware.GetTenantID(c), jobID); err != nil {
		return c.JSON(errorStatus(err), map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusAccepted, map[string]string{"job_id": jobID, "status": "cancelling"})
}

// ListHistory godoc
// @Summary List import history
// @Description Imports of the tenant, newest first
// @Tags imports
// @Produce json
// @Param type query string false "supplier or product"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} models.PaginationResult[models.ImportHistory]
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /imports/history [get]
func (h *ImportHandler) ListHistory(c echo.Context) error {
	filter := models.ImportHistoryFilter{
		TenantID: middleware.GetTenantID(c),
		Page:     queryInt(c, "page", 1),
		Limit:    queryInt(c, "limit", 20),
	}

	switch strings.ToLower(c.QueryParam("type")) {
	case "":
	case "supplier", strings.ToLower(string(models.ImportTypeSupplier)):
		filter.Type = models.ImportTypeSupplier
	case "product", "products", strings.ToLower(string(models.ImportTypeProduct)):
		filter.Type = models.ImportTypeProduct
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "type must be supplier or product"})
	}

	page, err := h.deps.History.List(c.Request().Context(), filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch import history"})
	}
	return c.JSON(http.StatusOK, page)
}

func (h *ImportHandler) importMode(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		if h.deps.Jobs != nil {
			return services.ModeRemote, nil
		}
		return services.ModeLocal, nil
	case services.ModeLocal:
		return services.ModeLocal, nil
	case services.ModeRemote:
		if h.deps.Jobs == nil {
			return "", errors.New("remote imports are not configured")
		}
		return services.ModeRemote, nil
	}
	return "", fmt.Errorf("unknown mode %q", raw)
}

// archive stores the upload when archiving is configured. Failures only cost
// the archive copy.
func (h *ImportHandler) archive(ctx context.Context, tenantID uuid.UUID, importType models.ImportType, u *upload) string {
	if h.deps.Archive == nil {
		return ""
	}
	key, err := h.deps.Archive.ArchiveImport(ctx, tenantID, importType, u.name, u.content)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("file_name", u.name).Msg("Failed to archive import file")
		return ""
	}
	return key
}

type upload struct {
	name    string
	content []byte
	table   *utils.Table
}

func readUpload(c echo.Context) (*upload, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, errors.New("file is required")
	}
	if !utils.IsSupportedFile(header.Filename) {
		return nil, errors.New("only CSV and XLSX files are accepted")
	}
	if header.Size > maxUploadSize {
		return nil, fmt.Errorf("file exceeds %d MB", maxUploadSize>>20)
	}

	file, err := header.Open()
	if err != nil {
		return nil, errors.New("failed to open file")
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		return nil, errors.New("failed to read file")
	}
	if len(content) > maxUploadSize {
		return nil, fmt.Errorf("file exceeds %d MB", maxUploadSize>>20)
	}

	table, err := utils.ReadTable(header.Filename, bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}
	return &upload{name: header.Filename, content: content, table: table}, nil
}

func parseFieldMapping(raw string) (mapping.FieldMapping, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var m mapping.FieldMapping
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, errors.New("field_mapping must be a JSON object of field name to column header")
	}
	return m, nil
}

func parseMatchOptions(raw string, def matching.Options) (matching.Options, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	var opts matching.Options
	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		return matching.Options{}, errors.New("match_options must be a JSON object")
	}
	if err := opts.Validate(); err != nil {
		return matching.Options{}, err
	}
	return opts, nil
}

func parseBatchSize(raw string, def int) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 || n > maxBatchSize {
		return 0, fmt.Errorf("batch_size must be between 1 and %d", maxBatchSize)
	}
	return n, nil
}

func queryInt(c echo.Context, name string, def int) int {
	if v, err := strconv.Atoi(c.QueryParam(name)); err == nil && v > 0 {
		return v
	}
	return def
}

// importError answers a failed supplier import, including the partial
// result when there is one.
func importError(c echo.Context, err error, result *models.SupplierImportResult) error {
	status := errorStatus(err)
	if result == nil {
		return c.JSON(status, map[string]string{"error": err.Error()})
	}
	body := map[string]interface{}{"error": err.Error(), "result": result}
	if result.CurrencyWarning {
		body["currency_warning"] = true
		body["message"] = result.CurrencyMessage
	}
	return c.JSON(status, body)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, normalize.ErrCurrencyAmbiguous):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrImportInProgress):
		return http.StatusConflict
	case errors.Is(err, services.ErrShuttingDown):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrNoActiveImport), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrMissingRequiredFields),
		errors.Is(err, services.ErrInvalidMapping),
		errors.Is(err, services.ErrEmptyFile),
		errors.Is(err, matching.ErrNoMethodEnabled):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func validationMessage(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return fmt.Sprint(he.Message)
	}
	return err.Error()
}
