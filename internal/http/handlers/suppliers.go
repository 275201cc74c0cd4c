package handlers

import (
	"context"
	"errors"
	"net/http"

	"productmap/internal/http/middleware"
	"productmap/pkg/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// SupplierLookup resolves a supplier of the tenant
type SupplierLookup interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Supplier, error)
}

// SupplierProductQueries reads and repairs supplier-product relationships
type SupplierProductQueries interface {
	CostRange(ctx context.Context, tenantID, supplierID uuid.UUID) (*models.CostRange, error)
	MatchMethods(ctx context.Context, tenantID, supplierID uuid.UUID) ([]string, error)
	ListBySupplier(ctx context.Context, tenantID, supplierID uuid.UUID, limit, offset int) (*models.PaginationResult[models.SupplierProduct], error)
	FixDuplicates(ctx context.Context, tenantID uuid.UUID) (*models.DuplicateReport, error)
}

type SupplierHandler struct {
	suppliers SupplierLookup
	links     SupplierProductQueries
}

func NewSupplierHandler(suppliers SupplierLookup, links SupplierProductQueries) *SupplierHandler {
	return &SupplierHandler{suppliers: suppliers, links: links}
}

// supplierFromPath parses :id and checks the supplier belongs to the tenant.
// On failure the response has already been written and ok is false.
func (h *SupplierHandler) supplierFromPath(c echo.Context) (uuid.UUID, bool, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, false, c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid supplier ID"})
	}
	if _, err := h.suppliers.GetByID(c.Request().Context(), middleware.GetTenantID(c), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, false, c.JSON(http.StatusNotFound, map[string]string{"error": "supplier not found"})
		}
		return uuid.Nil, false, c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load supplier"})
	}
	return id, true, nil
}

// GetStats godoc
// @Summary Supplier cost range
// @Tags suppliers
// @Produce json
// @Param id path string true "Supplier ID"
// @Success 200 {object} models.CostRange
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /suppliers/{id}/products/stats [get]
func (h *SupplierHandler) GetStats(c echo.Context) error {
	id, ok, err := h.supplierFromPath(c)
	if !ok {
		return err
	}
	stats, err := h.links.CostRange(c.Request().Context(), middleware.GetTenantID(c), id)
	if err != nil {
		zerolog.Ctx(c.Request().Context()).Error().Err(err).Str("supplier_id", id.String()).Msg("Failed to load supplier stats")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load supplier stats"})
	}
	return c.JSON(http.StatusOK, stats)
}

// GetMatchMethods godoc
// @Summary Match methods used for a supplier
// @Tags suppliers
// @Produce json
// @Param id path string true "Supplier ID"
// @Success 200 {object} map[string][]string
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /suppliers/{id}/products/methods [get]
func (h *SupplierHandler) GetMatchMethods(c echo.Context) error {
	id, ok, err := h.supplierFromPath(c)
	if !ok {
		return err
	}
	methods, err := h.links.MatchMethods(c.Request().Context(), middleware.GetTenantID(c), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load match methods"})
	}
	if methods == nil {
		methods = []string{}
	}
	return c.JSON(http.StatusOK, map[string][]string{"match_methods": methods})
}

// ListProducts godoc
// @Summary Products offered by a supplier
// @Tags suppliers
// @Produce json
// @Param id path string true "Supplier ID"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} models.PaginationResult[models.SupplierProduct]
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /suppliers/{id}/products [get]
func (h *SupplierHandler) ListProducts(c echo.Context) error {
	id, ok, err := h.supplierFromPath(c)
	if !ok {
		return err
	}
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 20)
	if limit > 100 {
		limit = 100
	}

	result, err := h.links.ListBySupplier(c.Request().Context(), middleware.GetTenantID(c), id, limit, (page-1)*limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list supplier products"})
	}
	return c.JSON(http.StatusOK, result)
}

// FixDuplicates godoc
// @Summary Remove duplicate supplier products
// @Description Keeps the most recently updated row per supplier and product, and per supplier and EAN
// @Tags admin
// @Produce json
// @Success 200 {object} models.DuplicateReport
// @Failure 500 {object} map[string]string
// @Router /admin/fix-duplicates [post]
func (h *SupplierHandler) FixDuplicates(c echo.Context) error {
	tenantID := middleware.GetTenantID(c)
	report, err := h.links.FixDuplicates(c.Request().Context(), tenantID)
	if err != nil {
		zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("Duplicate repair failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fix duplicates"})
	}
	zerolog.Ctx(c.Request().Context()).Info().
		Int64("product_pairs", report.ProductPairsRemoved).
		Int64("ean_pairs", report.EANPairsRemoved).
		Msg("Duplicate supplier products removed")
	return c.JSON(http.StatusOK, report)
}
