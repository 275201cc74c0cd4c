package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "JOB_API_URL", "POLL_BASE_INTERVAL", "IMPORT_BATCH_SIZE", "S3_ENDPOINT", "ENABLE_TELEMETRY", "OTEL_SERVICE_NAME"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.PollBaseInterval)
	assert.Equal(t, 30*time.Second, cfg.PollMaxInterval)
	assert.Equal(t, 15*time.Second, cfg.PollStallTimeout)
	assert.Equal(t, 100, cfg.ImportBatchSize)
	assert.Equal(t, 100, cfg.LocalFallbackMaxRows)
	assert.False(t, cfg.RemoteEnabled())
	assert.False(t, cfg.StorageEnabled())
	assert.False(t, cfg.TelemetryEnabled)
	assert.Equal(t, "productmap-api", cfg.ServiceName)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JOB_API_URL", "http://jobs.local/api")
	t.Setenv("POLL_BASE_INTERVAL", "500ms")
	t.Setenv("IMPORT_BATCH_SIZE", "2500")
	t.Setenv("JOB_API_RPS", "not-a-number")
	t.Setenv("ENABLE_TELEMETRY", "TRUE")

	cfg, err := Load()

	require.NoError(t, err)
	assert.True(t, cfg.RemoteEnabled())
	assert.Equal(t, 500*time.Millisecond, cfg.PollBaseInterval)
	assert.Equal(t, 2500, cfg.ImportBatchSize)
	assert.Equal(t, 5.0, cfg.JobAPIRPS)
	assert.True(t, cfg.TelemetryEnabled)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Setenv("IMPORT_BATCH_SIZE", "-1")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("IMPORT_BATCH_SIZE", "100")
	t.Setenv("POLL_BASE_INTERVAL", "1m")
	t.Setenv("POLL_MAX_INTERVAL", "10s")
	_, err = Load()
	assert.Error(t, err)
}
