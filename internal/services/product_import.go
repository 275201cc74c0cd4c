package services

import (
	"context"
	"fmt"
	"time"

	"productmap/internal/mapping"
	"productmap/internal/metrics"
	"productmap/internal/normalize"
	"productmap/internal/reconcile"
	"productmap/internal/utils"
	"productmap/pkg/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ProductImportService loads Amazon product files into the catalog the
// supplier matcher queries.
type ProductImportService struct {
	mapping   *MappingService
	products  ProductWriter
	history   HistoryStore
	metrics   *metrics.Metrics
	batchSize int
}

// NewProductImportService creates a new product import service
func NewProductImportService(mappingService *MappingService, products ProductWriter, history HistoryStore, m *metrics.Metrics) *ProductImportService {
	return &ProductImportService{
		mapping:   mappingService,
		products:  products,
		history:   history,
		metrics:   m,
		batchSize: reconcile.DefaultBatchSize,
	}
}

// ProductImportInput describes one catalog file import.
type ProductImportInput struct {
	TenantID   uuid.UUID
	FileName   string
	FileSize   int64
	Table      *utils.Table
	Mapping    mapping.FieldMapping
	ArchiveKey string
}

// Import upserts every valid row on (tenant, ean). Rows missing title, EAN,
// brand or sale price are rejected; a failed batch fails only its rows.
func (s *ProductImportService) Import(ctx context.Context, in ProductImportInput) (*models.ProductImportResult, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "product_import")
	defer span.End()

	if in.Table == nil || len(in.Table.Rows) == 0 {
		return nil, ErrEmptyFile
	}

	defs, err := s.mapping.Definitions(ctx, in.TenantID, forTypeProduct)
	if err != nil {
		return nil, err
	}
	m, warnings, err := s.mapping.Resolve(in.Table.Headers, in.Mapping, forTypeProduct, defs)
	if err != nil {
		return nil, err
	}
	if err := requireMapped(m, mapping.ProductTable); err != nil {
		return nil, err
	}

	h := &models.ImportHistory{
		Type:       models.ImportTypeProduct,
		FileName:   in.FileName,
		FileSize:   in.FileSize,
		Status:     models.ImportStatusInProgress,
		Mode:       ModeLocal,
		ArchiveKey: in.ArchiveKey,
	}
	h.TenantID = in.TenantID
	if err := s.history.Create(ctx, h); err != nil {
		return nil, fmt.Errorf("failed to create import history: %w", err)
	}

	norm := normalize.NormalizeProducts(toRawRows(in.Table.Rows), m, defs)
	result := &models.ProductImportResult{
		ImportID:   h.ID,
		Total:      len(in.Table.Rows),
		Duplicates: norm.Duplicates,
		Warnings:   warnings,
		Rejected:   toRejections(norm.Rejected),
		Failed:     len(norm.Rejected),
		Skipped:    norm.Duplicates,
	}

	var firstErr error
	products := toProducts(in.TenantID, norm.Records)
	for _, batch := range utils.Chunk(products, s.batchSize) {
		if err := ctx.Err(); err != nil {
			firstErr = err
			result.Failed += len(batch)
			continue
		}
		n, err := s.products.UpsertBatch(ctx, batch)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			result.Failed += len(batch)
			log.Warn().Err(err).Str("tenant_id", in.TenantID.String()).Int("rows", len(batch)).Msg("Product batch failed")
			continue
		}
		result.Successful += n
		result.Failed += len(batch) - n
	}

	status, msg := models.ImportStatusCompleted, ""
	if firstErr != nil && result.Successful == 0 && len(products) > 0 {
		status, msg = models.ImportStatusFailed, firstErr.Error()
	}
	h.Finish(status, result.Total, result.Successful, result.Failed, result.Skipped, msg)
	h.Results = models.JSONMap{"duplicates": result.Duplicates}
	if err := s.history.Update(context.WithoutCancel(ctx), h); err != nil {
		log.Error().Err(err).Str("import_id", h.ID.String()).Msg("Failed to update import history")
	}
	s.metrics.ImportFinished(string(models.ImportTypeProduct), ModeLocal, string(status), result.Successful, result.Failed, result.Skipped)

	log.Info().
		Str("tenant_id", in.TenantID.String()).
		Str("file_name", in.FileName).
		Int("total", result.Total).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("duplicates", result.Duplicates).
		Dur("duration", time.Since(start)).
		Msg("Product import finished")

	if status == models.ImportStatusFailed {
		return result, fmt.Errorf("product import failed: %w", firstErr)
	}
	return result, nil
}

func toProducts(tenantID uuid.UUID, records []normalize.ProductRecord) []models.Product {
	products := make([]models.Product, 0, len(records))
	for _, r := range records {
		p := models.Product{
			Title:            r.Title,
			EAN:              r.EAN,
			MPN:              r.MPN,
			ASIN:             r.ASIN,
			UPC:              r.UPC,
			Brand:            r.Brand,
			Category:         r.Category,
			SalePrice:        r.SalePrice,
			BuyBoxPrice:      optionalDecimal(r.BuyBoxPrice),
			AmazonFee:        optionalDecimal(r.AmazonFee),
			FBAFees:          optionalDecimal(r.FBAFees),
			ReferralFee:      optionalDecimal(r.ReferralFee),
			UnitsSold:        r.UnitsSold,
			Rating:           r.Rating,
			ReviewCount:      r.ReviewCount,
			CustomAttributes: models.JSONMap(r.Attributes.Plain()),
		}
		p.TenantID = tenantID
		products = append(products, p)
	}
	return products
}

func optionalDecimal(d decimal.Decimal) decimal.NullDecimal {
	if d.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}
