package db

import (
	"fmt"
	"os"

	"productmap/pkg/models"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase creates a new database connection
func NewDatabase() (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		getEnv("DB_SSLMODE", "disable"),
		getEnv("DB_TIMEZONE", "UTC"),
	)

	gormLogger := logger.Default.LogMode(logger.Error)
	if os.Getenv("ENV") == "development" {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}

	config := &gorm.Config{
		Logger:                                   gormLogger,
		DisableForeignKeyConstraintWhenMigrating: false,
		TranslateError:                           true,
	}

	db, err := gorm.Open(postgres.Open(dsn), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// AutoMigrate runs database migrations using GORM
func AutoMigrate(db *gorm.DB) error {
	log.Info().Msg("Running GORM AutoMigrate...")

	if err := db.AutoMigrate(models.GetAllModels()...); err != nil {
		return fmt.Errorf("failed to run GORM AutoMigrate: %w", err)
	}

	if err := createCustomIndexes(db); err != nil {
		log.Warn().Err(err).Msg("Failed to create some custom indexes")
	}

	log.Info().Msg("GORM AutoMigrate completed successfully")
	return nil
}

// customIndexes are the uniqueness keys the import upserts rely on.
// ON CONFLICT targets must match them exactly.
var customIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_suppliers_tenant_name ON suppliers(tenant_id, name)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_products_tenant_ean ON products(tenant_id, ean)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_supplier_products_pair ON supplier_products(supplier_id, product_id)`,

	`CREATE INDEX IF NOT EXISTS idx_supplier_products_supplier_ean ON supplier_products(supplier_id, ean)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_custom_attributes_tenant_name ON custom_attributes(tenant_id, for_type, name) WHERE deleted_at IS NULL`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_tenant_settings_key ON tenant_settings(tenant_id, setting_key)`,

	`CREATE INDEX IF NOT EXISTS idx_import_history_tenant_created ON import_history(tenant_id, created_at DESC)`,
}

// createCustomIndexes creates the indexes GORM tags cannot express
func createCustomIndexes(db *gorm.DB) error {
	var failed int
	for _, idx := range customIndexes {
		if err := db.Exec(idx).Error; err != nil {
			failed++
			log.Warn().Err(err).Str("statement", idx).Msg("Failed to create index")
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d custom indexes failed", failed, len(customIndexes))
	}
	return nil
}

// RunMigrations is the main migration function called from main.go
func RunMigrations(db *gorm.DB) error {
	log.Info().Msg("Starting database migrations...")

	if err := AutoMigrate(db); err != nil {
		return fmt.Errorf("AutoMigrate failed: %w", err)
	}

	log.Info().Msg("All migrations completed successfully")
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
