package repo

import (
	"context"
	"fmt"

	"productmap/internal/matching"
	"productmap/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository handles catalog product data access
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// methodColumns maps a match method to the catalog column it looks up.
var methodColumns = map[matching.Method]string{
	matching.MethodEAN:  "ean",
	matching.MethodMPN:  "mpn",
	matching.MethodName: "title",
}

// FindCandidates returns the id/ean/mpn/title projection of products whose
// column for method is one of values.
func (r *ProductRepository) FindCandidates(ctx context.Context, tenantID uuid.UUID, method matching.Method, values []string) ([]matching.Candidate, error) {
	column, ok := methodColumns[method]
	if !ok {
		return nil, fmt.Errorf("unknown match method %q", method)
	}
	if len(values) == 0 {
		return nil, nil
	}

	var rows []struct {
		ID    uuid.UUID
		EAN   string `gorm:"column:ean"`
		MPN   string `gorm:"column:mpn"`
		Title string
	}
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Select("id, ean, mpn, title").
		Where("tenant_id = ?", tenantID).
		Where(clause.IN{Column: clause.Column{Name: column}, Values: toInterfaces(values)}).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load %s candidates: %w", method, err)
	}

	candidates := make([]matching.Candidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, matching.Candidate{ID: row.ID, EAN: row.EAN, MPN: row.MPN, Title: row.Title})
	}
	return candidates, nil
}

// UpsertBatch inserts products or updates them by (tenant_id, ean).
func (r *ProductRepository) UpsertBatch(ctx context.Context, products []models.Product) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tenant_id"}, {Name: "ean"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "mpn", "asin", "upc", "brand", "category",
			"sale_price", "buy_box_price", "amazon_fee", "fba_fees", "referral_fee",
			"units_sold", "rating", "review_count", "custom_attributes", "updated_at",
		}),
	}).CreateInBatches(&products, rowsPerStatement(r.db, &models.Product{})).Error
	if err != nil {
		return 0, fmt.Errorf("failed to upsert products: %w", err)
	}
	return len(products), nil
}

// Count returns the number of products of a tenant
func (r *ProductRepository) Count(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	return count, err
}

// maxBindParams is the Postgres limit on placeholders in one statement.
const maxBindParams = 65535

// rowsPerStatement is how many rows of model fit in one multi-row INSERT.
func rowsPerStatement(db *gorm.DB, model interface{}) int {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil || len(stmt.Schema.DBNames) == 0 {
		return 1000
	}
	return maxBindParams / len(stmt.Schema.DBNames)
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
