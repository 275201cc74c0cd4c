package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// TenantHeader carries the tenant of every API request.
const TenantHeader = "X-Tenant-ID"

// TenantResolver reads the tenant from the X-Tenant-ID header, falling back to
// the tenant_id query parameter (browsers cannot set headers on websockets).
func TenantResolver() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get(TenantHeader)
			if raw == "" {
				raw = c.QueryParam("tenant_id")
			}
			if raw != "" {
				tenantID, err := uuid.Parse(raw)
				if err != nil {
					return echo.NewHTTPError(http.StatusBadRequest, "Invalid tenant ID format")
				}
				c.Set("tenant_id", tenantID)
			}
			return next(c)
		}
	}
}

// RequireTenant middleware ensures a tenant is present
func RequireTenant() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tenantID, ok := c.Get("tenant_id").(uuid.UUID)
			if !ok {
				return echo.NewHTTPError(http.StatusBadRequest, "Tenant ID is required")
			}
			if tenantID == uuid.Nil {
				return echo.NewHTTPError(http.StatusBadRequest, "Valid tenant ID is required")
			}
			return next(c)
		}
	}
}

// GetTenantID returns the tenant resolved for the request.
func GetTenantID(c echo.Context) uuid.UUID {
	tenantID, _ := c.Get("tenant_id").(uuid.UUID)
	return tenantID
}
