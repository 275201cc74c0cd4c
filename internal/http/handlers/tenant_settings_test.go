package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"productmap/internal/matching"
	"productmap/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMatchSettings(t *testing.T) {
	h := NewTenantSettingsHandler(newStubSettings())

	c, rec := newTestContext(http.MethodGet, "/", nil, "", uuid.New())
	require.NoError(t, h.GetMatchSettings(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(100), body["batch_size"])
	opts := body["match_options"].(map[string]interface{})
	assert.Equal(t, true, opts["useEan"])
	assert.Equal(t, []interface{}{"ean", "mpn", "name"}, opts["priority"])
}

func TestUpdateMatchSettings(t *testing.T) {
	store := newStubSettings()
	h := NewTenantSettingsHandler(store)

	c, rec := jsonContext(http.MethodPut, "/", `{"match_options":{"useEan":true,"useMpn":false,"useName":true,"priority":["name","ean"]},"batch_size":250}`, uuid.New())
	require.NoError(t, h.UpdateMatchSettings(c))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, store.update)
	assert.Equal(t, 250, store.update.BatchSize)
	assert.False(t, store.update.Options.UseMPN)
	assert.Equal(t, []matching.Method{matching.MethodName, matching.MethodEAN}, store.update.Options.Priority)
}

func TestUpdateMatchSettings_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		storeErr error
	}{
		{"malformed body", `{"batch_size":"many"`, nil},
		{"unknown method", `{"match_options":{"useEan":true,"priority":["sku"]}}`, nil},
		{"validation", `{"batch_size":50000}`, &services.SettingsValidationError{Err: errors.New("batch size must be between 1 and 10000")}},
		{"nothing enabled", `{"match_options":{}}`, matching.ErrNoMethodEnabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStubSettings()
			store.err = tt.storeErr
			h := NewTenantSettingsHandler(store)

			c, _ := jsonContext(http.MethodPut, "/", tt.body, uuid.New())
			err := h.UpdateMatchSettings(c)

			var he *echo.HTTPError
			require.ErrorAs(t, err, &he)
			assert.Equal(t, http.StatusBadRequest, he.Code)
		})
	}
}

func TestUpdateMatchSettings_StoreFailure(t *testing.T) {
	store := newStubSettings()
	store.err = errors.New("connection refused")
	h := NewTenantSettingsHandler(store)

	c, _ := jsonContext(http.MethodPut, "/", `{"batch_size":10}`, uuid.New())
	err := h.UpdateMatchSettings(c)

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusInternalServerError, he.Code)
}
