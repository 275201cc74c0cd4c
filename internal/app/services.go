package app

import (
	"fmt"

	"productmap/internal/config"
	"productmap/internal/http/ws"
	"productmap/internal/jobapi"
	"productmap/internal/jobpoller"
	"productmap/internal/metrics"
	"productmap/internal/repo"
	"productmap/internal/services"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Services holds all application services
type Services struct {
	Config  *config.Config
	DB      *gorm.DB
	Metrics *metrics.Metrics
	Hub     *ws.WebSocketHub

	ProductRepo         *repo.ProductRepository
	SupplierRepo        *repo.SupplierRepository
	SupplierProductRepo *repo.SupplierProductRepository
	ImportHistoryRepo   *repo.ImportHistoryRepository
	CustomAttributeRepo *repo.CustomAttributeRepository

	MappingService        *services.MappingService
	SupplierImportService *services.SupplierImportService
	ProductImportService  *services.ProductImportService
	TenantSettingsService *services.TenantSettingsService
	// StorageService is nil when S3 is not configured
	StorageService *services.StorageService
	// ImportJobService is nil when JOB_API_URL is not set
	ImportJobService *services.ImportJobService
}

// NewServices creates a new services container
func NewServices(cfg *config.Config, db *gorm.DB) (*Services, error) {
	m, err := metrics.New()
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	// Initialize repositories
	productRepo := repo.NewProductRepository(db)
	supplierRepo := repo.NewSupplierRepository(db)
	supplierProductRepo := repo.NewSupplierProductRepository(db)
	historyRepo := repo.NewImportHistoryRepository(db)
	attributeRepo := repo.NewCustomAttributeRepository(db)

	// Initialize services
	mappingService := services.NewMappingService(attributeRepo)
	supplierImport := services.NewSupplierImportService(mappingService, productRepo, supplierRepo, supplierProductRepo, historyRepo, m)
	productImport := services.NewProductImportService(mappingService, productRepo, historyRepo, m)
	settingsService := services.NewTenantSettingsService(db, cfg.ImportBatchSize)
	hub := ws.NewWebSocketHub()

	var storageService *services.StorageService
	var archive services.Archiver
	if cfg.StorageEnabled() {
		storageService, err = services.NewStorageService(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize storage service, uploads will not be archived")
		} else {
			archive = storageService
		}
	} else {
		log.Info().Msg("S3 not configured, uploads will not be archived")
	}

	var importJobs *services.ImportJobService
	if cfg.RemoteEnabled() {
		client := jobapi.NewClient(cfg.JobAPIURL, cfg.JobAPIToken, cfg.JobAPITimeout, cfg.JobAPIRPS)
		pollConfig := jobpoller.DefaultConfig()
		pollConfig.BaseInterval = cfg.PollBaseInterval
		pollConfig.MaxInterval = cfg.PollMaxInterval
		pollConfig.StallTimeout = cfg.PollStallTimeout
		pollConfig.GiveUpAfter = cfg.PollGiveUpAfter

		importJobs = services.NewImportJobService(client, supplierImport, historyRepo, archive, hub, m, services.ImportJobConfig{
			Poll:            pollConfig,
			FallbackMaxRows: cfg.LocalFallbackMaxRows,
		})
		log.Info().Str("url", cfg.JobAPIURL).Msg("Remote import jobs enabled")
	} else {
		log.Info().Msg("JOB_API_URL not set, supplier imports run locally")
	}

	return &Services{
		Config:                cfg,
		DB:                    db,
		Metrics:               m,
		Hub:                   hub,
		ProductRepo:           productRepo,
		SupplierRepo:          supplierRepo,
		SupplierProductRepo:   supplierProductRepo,
		ImportHistoryRepo:     historyRepo,
		CustomAttributeRepo:   attributeRepo,
		MappingService:        mappingService,
		SupplierImportService: supplierImport,
		ProductImportService:  productImport,
		TenantSettingsService: settingsService,
		StorageService:        storageService,
		ImportJobService:      importJobs,
	}, nil
}

// Archiver returns the upload archive, or nil when storage is disabled
func (s *Services) Archiver() services.Archiver {
	if s.StorageService == nil {
		return nil
	}
	return s.StorageService
}
