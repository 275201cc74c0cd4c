package repo

import (
	"context"

	"productmap/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CustomAttributeRepository handles tenant attribute definitions
type CustomAttributeRepository struct {
	db *gorm.DB
}

// NewCustomAttributeRepository creates a new custom attribute repository
func NewCustomAttributeRepository(db *gorm.DB) *CustomAttributeRepository {
	return &CustomAttributeRepository{db: db}
}

// List gets the definitions of a tenant. An empty forType returns all.
func (r *CustomAttributeRepository) List(ctx context.Context, tenantID uuid.UUID, forType string) ([]models.CustomAttribute, error) {
	var attrs []models.CustomAttribute
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if forType != "" {
		query = query.Where("for_type = ?", forType)
	}
	if err := query.Order("name ASC").Find(&attrs).Error; err != nil {
		return nil, err
	}
	return attrs, nil
}

// Create creates a new definition
func (r *CustomAttributeRepository) Create(ctx context.Context, attr *models.CustomAttribute) error {
	return r.db.WithContext(ctx).Create(attr).Error
}

// Delete soft deletes a definition
func (r *CustomAttributeRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).Delete(&models.CustomAttribute{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
