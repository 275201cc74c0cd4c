package models

import (
	"time"

	"github.com/google/uuid"
)

type ImportType string

const (
	ImportTypeSupplier ImportType = "Supplier Data"
	ImportTypeProduct  ImportType = "Amazon Data"
)

type ImportStatus string

const (
	ImportStatusInProgress ImportStatus = "In Progress"
	ImportStatusCompleted  ImportStatus = "Completed"
	ImportStatusFailed     ImportStatus = "Failed"
	ImportStatusCancelled  ImportStatus = "Cancelled"
)

// ImportHistory is one row of the import log
type ImportHistory struct {
	BaseTenantModel
	Type              ImportType   `gorm:"size:32;not null;index" json:"type"`
	FileName          string       `gorm:"not null" json:"file_name"`
	FileSize          int64        `gorm:"default:0" json:"file_size"`
	Status            ImportStatus `gorm:"size:32;not null;default:'In Progress'" json:"status"`
	Mode              string       `gorm:"size:16" json:"mode"`
	JobID             string       `gorm:"size:64;index" json:"job_id,omitempty"`
	ArchiveKey        string       `json:"archive_key,omitempty"`
	TotalRecords      int          `gorm:"default:0" json:"total_records"`
	SuccessfulRecords int          `gorm:"default:0" json:"successful_records"`
	FailedRecords     int          `gorm:"default:0" json:"failed_records"`
	SkippedRecords    int          `gorm:"default:0" json:"skipped_records"`
	ErrorMessage      *string      `gorm:"type:text" json:"error_message,omitempty"`
	Results           JSONMap      `gorm:"type:jsonb;default:'{}'" json:"results,omitempty"`
	CompletedAt       *time.Time   `json:"completed_at"`
}

// TableName keeps the singular table name used by the import log
func (ImportHistory) TableName() string {
	return "import_history"
}

// Finish marks the row terminal with the given counters.
func (h *ImportHistory) Finish(status ImportStatus, total, successful, failed, skipped int, errMsg string) {
	now := time.Now()
	h.Status = status
	h.TotalRecords = total
	h.SuccessfulRecords = successful
	h.FailedRecords = failed
	h.SkippedRecords = skipped
	h.CompletedAt = &now
	if errMsg != "" {
		h.ErrorMessage = &errMsg
	}
}

// ImportHistoryFilter narrows an import history listing
type ImportHistoryFilter struct {
	TenantID uuid.UUID
	Type     ImportType
	Page     int
	Limit    int
}

// MappingPreviewRequest asks for an auto-mapping of a header row
type MappingPreviewRequest struct {
	Headers []string `json:"headers" validate:"required,min=1,dive,required"`
	ForType string   `json:"for_type" validate:"omitempty,oneof=supplier product"`
}

// MappingPreviewResponse is the auto-mapping of a header row
type MappingPreviewResponse struct {
	Mapping         map[string]string `json:"mapping"`
	UnmappedHeaders []string          `json:"unmapped_headers"`
	Warnings        []string          `json:"warnings"`
}

// RowRejection explains why a row was not imported
type RowRejection struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// SupplierImportResult is the summary of a supplier import run in-process
type SupplierImportResult struct {
	ImportID        uuid.UUID      `json:"import_id"`
	Total           int            `json:"total"`
	Successful      int            `json:"successful"`
	Failed          int            `json:"failed"`
	Skipped         int            `json:"skipped"`
	SuppliersAdded  int            `json:"suppliers_added"`
	FallbackNames   int            `json:"fallback_names"`
	DuplicateCount  int            `json:"duplicate_count"`
	MatchStats      MatchSummary   `json:"match_stats"`
	Warnings        []string       `json:"warnings,omitempty"`
	Rejected        []RowRejection `json:"rejected,omitempty"`
	CurrencyWarning bool           `json:"currency_warning"`
	CurrencyMessage string         `json:"currency_message,omitempty"`
	DurationMillis  int64          `json:"duration_ms"`
	FieldMapping    FieldMap       `json:"field_mapping"`
}

// MatchSummary counts matches by method
type MatchSummary struct {
	TotalMatched   int            `json:"total_matched"`
	ByMethod       map[string]int `json:"by_method"`
	UnmatchedCount int            `json:"unmatched_count"`
}

// FieldMap is a canonical field to header mapping
type FieldMap map[string]string

// ProductImportResult is the summary of a catalog import
type ProductImportResult struct {
	ImportID   uuid.UUID      `json:"import_id"`
	Total      int            `json:"total"`
	Successful int            `json:"successful"`
	Failed     int            `json:"failed"`
	Skipped    int            `json:"skipped"`
	Duplicates int            `json:"duplicates"`
	Warnings   []string       `json:"warnings,omitempty"`
	Rejected   []RowRejection `json:"rejected,omitempty"`
}
