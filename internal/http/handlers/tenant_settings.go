package handlers

import (
	"errors"
	"net/http"

	"productmap/internal/http/middleware"
	"productmap/internal/matching"
	"productmap/internal/services"

	"github.com/labstack/echo/v4"
)

type TenantSettingsHandler struct {
	settings MatchSettingsStore
}

func NewTenantSettingsHandler(settings MatchSettingsStore) *TenantSettingsHandler {
	return &TenantSettingsHandler{settings: settings}
}

// GetMatchSettings godoc
// @Summary Get match settings
// @Description Match methods, their priority and the write batch size used by supplier imports
// @Tags settings
// @Produce json
// @Success 200 {object} services.MatchSettings
// @Failure 500 {object} map[string]string
// @Router /settings/matching [get]
func (h *TenantSettingsHandler) GetMatchSettings(c echo.Context) error {
	settings, err := h.settings.GetMatchSettings(c.Request().Context(), middleware.GetTenantID(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load match settings")
	}
	return c.JSON(http.StatusOK, settings)
}

// UpdateMatchSettings godoc
// @Summary Update match settings
// @Description Switching off the last enabled method leaves it enabled
// @Tags settings
// @Accept json
// @Produce json
// @Param settings body services.MatchSettings true "Match settings"
// @Success 200 {object} services.MatchSettings
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /settings/matching [put]
func (h *TenantSettingsHandler) UpdateMatchSettings(c echo.Context) error {
	var req services.MatchSettings
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	for _, m := range req.Options.Priority {
		if !m.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown match method "+string(m))
		}
	}

	settings, err := h.settings.UpdateMatchSettings(c.Request().Context(), middleware.GetTenantID(c), req)
	if err != nil {
		if errors.Is(err, matching.ErrNoMethodEnabled) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		var ve *services.SettingsValidationError
		if errors.As(err, &ve) {
			return echo.NewHTTPError(http.StatusBadRequest, ve.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save match settings")
	}
	return c.JSON(http.StatusOK, settings)
}
