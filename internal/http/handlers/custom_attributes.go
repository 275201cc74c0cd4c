package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"productmap/internal/http/middleware"
	"productmap/pkg/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// CustomAttributeStore persists attribute definitions
type CustomAttributeStore interface {
	List(ctx context.Context, tenantID uuid.UUID, forType string) ([]models.CustomAttribute, error)
	Create(ctx context.Context, attr *models.CustomAttribute) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

type CustomAttributeHandler struct {
	store CustomAttributeStore
}

func NewCustomAttributeHandler(store CustomAttributeStore) *CustomAttributeHandler {
	return &CustomAttributeHandler{store: store}
}

// List godoc
// @Summary List custom attributes
// @Description Tenant-defined fields collected during imports
// @Tags custom-attributes
// @Produce json
// @Param for_type query string false "supplier or product"
// @Success 200 {array} models.CustomAttribute
// @Failure 500 {object} map[string]string
// @Router /custom-attributes [get]
func (h *CustomAttributeHandler) List(c echo.Context) error {
	attrs, err := h.store.List(c.Request().Context(), middleware.GetTenantID(c), c.QueryParam("for_type"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch custom attributes"})
	}
	if attrs == nil {
		attrs = []models.CustomAttribute{}
	}
	return c.JSON(http.StatusOK, attrs)
}

// Create godoc
// @Summary Create custom attribute
// @Tags custom-attributes
// @Accept json
// @Produce json
// @Param attribute body models.CustomAttribute true "Attribute definition"
// @Success 201 {object} models.CustomAttribute
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /custom-attributes [post]
func (h *CustomAttributeHandler) Create(c echo.Context) error {
	var attr models.CustomAttribute
	if err := c.Bind(&attr); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	attr.Name = strings.TrimSpace(attr.Name)
	if attr.ForType == "" {
		attr.ForType = "supplier"
	}
	if err := c.Validate(&attr); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": validationMessage(err)})
	}

	attr.ID = uuid.Nil
	attr.TenantID = middleware.GetTenantID(c)
	if err := h.store.Create(c.Request().Context(), &attr); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.JSON(http.StatusConflict, map[string]string{"error": "an attribute with this name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create custom attribute"})
	}
	return c.JSON(http.StatusCreated, attr)
}

// Delete godoc
// @Summary Delete custom attribute
// @Tags custom-attributes
// @Param id path string true "Attribute ID"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /custom-attributes/{id} [delete]
func (h *CustomAttributeHandler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid attribute ID"})
	}

	if err := h.store.Delete(c.Request().Context(), middleware.GetTenantID(c), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "custom attribute not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to delete custom attribute"})
	}
	return c.NoContent(http.StatusNoContent)
}
