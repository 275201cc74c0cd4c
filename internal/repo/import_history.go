package repo

import (
	"context"

	"productmap/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ImportHistoryRepository handles the import log
type ImportHistoryRepository struct {
	db *gorm.DB
}

// NewImportHistoryRepository creates a new import history repository
func NewImportHistoryRepository(db *gorm.DB) *ImportHistoryRepository {
	return &ImportHistoryRepository{db: db}
}

// Create inserts a new history row
func (r *ImportHistoryRepository) Create(ctx context.Context, h *models.ImportHistory) error {
	return r.db.WithContext(ctx).Create(h).Error
}

// Update saves all fields of a history row
func (r *ImportHistoryRepository) Update(ctx context.Context, h *models.ImportHistory) error {
	return r.db.WithContext(ctx).Save(h).Error
}

// GetByID gets a history row by ID
func (r *ImportHistoryRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.ImportHistory, error) {
	var h models.ImportHistory
	if err := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&h).Error; err != nil {
		return nil, err
	}
	return &h, nil
}

// List lists history rows newest first, optionally filtered by type
func (r *ImportHistoryRepository) List(ctx context.Context, filter models.ImportHistoryFilter) (*models.PaginationResult[models.ImportHistory], error) {
	var rows []models.ImportHistory
	var total int64

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	query := r.db.WithContext(ctx).Model(&models.ImportHistory{}).Where("tenant_id = ?", filter.TenantID)
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}
	if err := query.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	return models.NewPaginationResult(rows, total, page, limit), nil
}
