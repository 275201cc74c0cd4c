package repo

import (
	"context"
	"fmt"

	"productmap/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SupplierRepository handles supplier data access
type SupplierRepository struct {
	db *gorm.DB
}

// NewSupplierRepository creates a new supplier repository
func NewSupplierRepository(db *gorm.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

// GetByID gets a supplier by ID
func (r *SupplierRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

// EnsureByNames creates the suppliers that do not exist yet and returns the
// id of every name. added is the number of suppliers created.
func (r *SupplierRepository) EnsureByNames(ctx context.Context, tenantID uuid.UUID, names []string) (map[string]uuid.UUID, int, error) {
	ids := make(map[string]uuid.UUID, len(names))
	if len(names) == 0 {
		return ids, 0, nil
	}

	suppliers := make([]models.Supplier, 0, len(names))
	for _, name := range names {
		s := models.Supplier{Name: name}
		s.TenantID = tenantID
		suppliers = append(suppliers, s)
	}

	added := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "name"}},
			DoNothing: true,
		}).Create(&suppliers)
		if res.Error != nil {
			return res.Error
		}
		added = int(res.RowsAffected)

		var existing []models.Supplier
		if err := tx.Unscoped().Select("id, name").
			Where("tenant_id = ? AND name IN ?", tenantID, names).
			Find(&existing).Error; err != nil {
			return err
		}
		for _, s := range existing {
			ids[s.Name] = s.ID
		}
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to upsert suppliers: %w", err)
	}
	return ids, added, nil
}
