package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the process configuration read from the environment
type Config struct {
	Port string
	Env  string

	// External job API. Remote imports are disabled when JobAPIURL is empty.
	JobAPIURL     string
	JobAPIToken   string
	JobAPITimeout time.Duration
	JobAPIRPS     float64

	PollBaseInterval time.Duration
	PollMaxInterval  time.Duration
	PollStallTimeout time.Duration
	PollGiveUpAfter  time.Duration

	ImportBatchSize      int
	LocalFallbackMaxRows int

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Region    string

	TelemetryEnabled bool
	OTLPEndpoint     string
	ServiceName      string
	ServiceVersion   string
}

// Load reads the configuration. godotenv must already have run.
func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "production"),

		JobAPIURL:     os.Getenv("JOB_API_URL"),
		JobAPIToken:   os.Getenv("JOB_API_TOKEN"),
		JobAPITimeout: getEnvAsDuration("JOB_API_TIMEOUT", 30*time.Second),
		JobAPIRPS:     getEnvAsFloat("JOB_API_RPS", 5),

		PollBaseInterval: getEnvAsDuration("POLL_BASE_INTERVAL", 2*time.Second),
		PollMaxInterval:  getEnvAsDuration("POLL_MAX_INTERVAL", 30*time.Second),
		PollStallTimeout: getEnvAsDuration("POLL_STALL_TIMEOUT", 15*time.Second),
		PollGiveUpAfter:  getEnvAsDuration("POLL_GIVE_UP_AFTER", 10*time.Minute),

		ImportBatchSize:      getEnvAsInt("IMPORT_BATCH_SIZE", 100),
		LocalFallbackMaxRows: getEnvAsInt("LOCAL_FALLBACK_MAX_ROWS", 100),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3Region:    getEnv("S3_REGION", "us-east-1"),

		TelemetryEnabled: getEnvAsBool("ENABLE_TELEMETRY"),
		OTLPEndpoint:     os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName:      getEnv("OTEL_SERVICE_NAME", "productmap-api"),
		ServiceVersion:   getEnv("OTEL_SERVICE_VERSION", "dev"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.ImportBatchSize <= 0 {
		return errors.New("IMPORT_BATCH_SIZE must be positive")
	}
	if c.LocalFallbackMaxRows < 0 {
		return errors.New("LOCAL_FALLBACK_MAX_ROWS cannot be negative")
	}
	if c.PollBaseInterval <= 0 || c.PollMaxInterval < c.PollBaseInterval {
		return errors.New("POLL_MAX_INTERVAL must be at least POLL_BASE_INTERVAL")
	}
	if c.JobAPIRPS <= 0 {
		return errors.New("JOB_API_RPS must be positive")
	}
	return nil
}

// IsDevelopment reports whether ENV=development
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// RemoteEnabled reports whether the external job API is configured
func (c *Config) RemoteEnabled() bool {
	return c.JobAPIURL != ""
}

// StorageEnabled reports whether all S3 settings are present
func (c *Config) StorageEnabled() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != "" && c.S3Bucket != ""
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string) bool {
	switch strings.ToLower(getEnv(key, "")) {
	case "true", "1":
		return true
	}
	return false
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}
