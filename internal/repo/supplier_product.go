package repo

import (
	"context"
	"fmt"

	"productmap/internal/reconcile"
	"productmap/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SupplierProductRepository handles supplier/product relationship data access
type SupplierProductRepository struct {
	db *gorm.DB
}

// NewSupplierProductRepository creates a new supplier product repository
func NewSupplierProductRepository(db *gorm.DB) *SupplierProductRepository {
	return &SupplierProductRepository{db: db}
}

// upsertColumns are overwritten when (supplier_id, product_id) already exists.
var upsertColumns = []string{
	"ean", "mpn", "product_name", "brand", "cost", "moq", "lead_time",
	"payment_terms", "supplier_stock", "match_method", "custom_attributes", "updated_at",
}

// UpsertBatch writes one batch keyed by (supplier_id, product_id). A key that
// appears twice in the batch keeps its last value. Large batches are split
// into several INSERT statements within the batch size. It returns len(batch).
func (r *SupplierProductRepository) UpsertBatch(ctx context.Context, tenantID uuid.UUID, batch []reconcile.Upsert) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	rows := toSupplierProducts(tenantID, collapseLastWins(batch))
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "supplier_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns(upsertColumns),
	}).CreateInBatches(&rows, rowsPerStatement(r.db, &models.SupplierProduct{})).Error
	if err != nil {
		return 0, fmt.Errorf("failed to upsert supplier products: %w", err)
	}
	return len(batch), nil
}

// collapseLastWins drops earlier occurrences of a repeated key. Postgres
// rejects ON CONFLICT DO UPDATE touching the same row twice in one statement.
func collapseLastWins(batch []reconcile.Upsert) []reconcile.Upsert {
	last := make(map[reconcile.Key]int, len(batch))
	for i, u := range batch {
		last[u.Key()] = i
	}
	if len(last) == len(batch) {
		return batch
	}
	out := make([]reconcile.Upsert, 0, len(last))
	for i, u := range batch {
		if last[u.Key()] == i {
			out = append(out, u)
		}
	}
	return out
}

func toSupplierProducts(tenantID uuid.UUID, batch []reconcile.Upsert) []models.SupplierProduct {
	rows := make([]models.SupplierProduct, 0, len(batch))
	for _, u := range batch {
		row := models.SupplierProduct{
			SupplierID:       u.SupplierID,
			ProductID:        u.ProductID,
			EAN:              u.EAN,
			MPN:              u.MPN,
			ProductName:      u.ProductName,
			Brand:            u.Brand,
			Cost:             u.Cost,
			MOQ:              models.DefaultMOQ,
			LeadTime:         models.DefaultLeadTime,
			PaymentTerms:     models.DefaultPaymentTerms,
			SupplierStock:    u.SupplierStock,
			MatchMethod:      string(u.MatchMethod),
			CustomAttributes: models.JSONMap(u.Attributes.Plain()),
		}
		row.TenantID = tenantID
		row.UpdatedAt = u.UpdatedAt
		if u.MOQ != nil {
			row.MOQ = *u.MOQ
		}
		if u.LeadTime != "" {
			row.LeadTime = u.LeadTime
		}
		if u.PaymentTerms != "" {
			row.PaymentTerms = u.PaymentTerms
		}
		rows = append(rows, row)
	}
	return rows
}

// CostRange returns the min and max cost offered by a supplier
func (r *SupplierProductRepository) CostRange(ctx context.Context, tenantID, supplierID uuid.UUID) (*models.CostRange, error) {
	var result models.CostRange
	err := r.db.WithContext(ctx).
		Model(&models.SupplierProduct{}).
		Select("COALESCE(MIN(cost), 0) AS min_cost, COALESCE(MAX(cost), 0) AS max_cost, COUNT(*) AS count").
		Where("tenant_id = ? AND supplier_id = ?", tenantID, supplierID).
		Scan(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load cost range: %w", err)
	}
	return &result, nil
}

// MatchMethods returns the distinct match methods used for a supplier
func (r *SupplierProductRepository) MatchMethods(ctx context.Context, tenantID, supplierID uuid.UUID) ([]string, error) {
	var methods []string
	err := r.db.WithContext(ctx).
		Model(&models.SupplierProduct{}).
		Distinct("match_method").
		Where("tenant_id = ? AND supplier_id = ? AND match_method <> ''", tenantID, supplierID).
		Order("match_method").
		Pluck("match_method", &methods).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load match methods: %w", err)
	}
	return methods, nil
}

// duplicatePairSQL deletes every row that has a newer twin with the same key.
const duplicatePairSQL = `
DELETE FROM supplier_products a
USING supplier_products b
WHERE a.tenant_id = ?
  AND b.tenant_id = a.tenant_id
  AND a.supplier_id = b.supplier_id
  AND %s
  AND a.deleted_at IS NULL AND b.deleted_at IS NULL
  AND (a.updated_at < b.updated_at OR (a.updated_at = b.updated_at AND a.id < b.id))`

// FixDuplicates keeps the most recently updated row per (supplier, product)
// and per (supplier, ean).
func (r *SupplierProductRepository) FixDuplicates(ctx context.Context, tenantID uuid.UUID) (*models.DuplicateReport, error) {
	report := &models.DuplicateReport{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(fmt.Sprintf(duplicatePairSQL, "a.product_id = b.product_id"), tenantID)
		if res.Error != nil {
			return res.Error
		}
		report.ProductPairsRemoved = res.RowsAffected

		res = tx.Exec(fmt.Sprintf(duplicatePairSQL, "a.ean = b.ean AND a.ean <> ''"), tenantID)
		if res.Error != nil {
			return res.Error
		}
		report.EANPairsRemoved = res.RowsAffected
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fix duplicates: %w", err)
	}
	return report, nil
}

// ListBySupplier lists the products offered by a supplier with pagination
func (r *SupplierProductRepository) ListBySupplier(ctx context.Context, tenantID, supplierID uuid.UUID, limit, offset int) (*models.PaginationResult[models.SupplierProduct], error) {
	var rows []models.SupplierProduct
	var total int64

	query := r.db.WithContext(ctx).Model(&models.SupplierProduct{}).
		Where("tenant_id = ? AND supplier_id = ?", tenantID, supplierID)
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}
	if err := query.Order("cost ASC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, err
	}

	page := 1
	if limit > 0 {
		page = (offset / limit) + 1
	}
	return models.NewPaginationResult(rows, total, page, limit), nil
}
