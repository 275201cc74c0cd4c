package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseTenantModel is the base model for all tenant-scoped entities
type BaseTenantModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID  uuid.UUID       `gorm:"type:uuid;index;not null" json:"tenant_id"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt *gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty" swaggerignore:"true"`
}

// BaseModel is the base model for system-wide entities
type BaseModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt *gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty" swaggerignore:"true"`
}

// BeforeCreate hook to generate UUID if not set
func (b *BaseTenantModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook to generate UUID if not set
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// PaginationResult represents paginated results
type PaginationResult[T any] struct {
	Data       []T   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginationResult fills in TotalPages from total and perPage.
func NewPaginationResult[T any](data []T, total int64, page, perPage int) *PaginationResult[T] {
	totalPages := 0
	if perPage > 0 {
		totalPages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	if data == nil {
		data = []T{}
	}
	return &PaginationResult[T]{
		Data:       data,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
	}
}

// JSONMap is a free-form jsonb column.
type JSONMap map[string]interface{}

// Implement driver.Valuer interface for JSONB
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, m)
}

// TenantSetting represents configuration settings for a tenant
type TenantSetting struct {
	BaseModel
	TenantID     uuid.UUID `gorm:"type:uuid;index;not null" json:"tenant_id"`
	SettingKey   string    `gorm:"size:100;not null" json:"setting_key"`
	SettingValue *string   `gorm:"type:text" json:"setting_value"`
	SettingType  string    `gorm:"size:50;default:'string'" json:"setting_type"`
	Description  string    `gorm:"type:text" json:"description"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
}

// GetAllModels returns all models for GORM AutoMigrate
func GetAllModels() []interface{} {
	return []interface{}{
		// Catalog models
		&Supplier{},
		&Product{},
		&SupplierProduct{},

		// Import models
		&ImportHistory{},

		// Configuration models
		&CustomAttribute{},
		&TenantSetting{},
	}
}
