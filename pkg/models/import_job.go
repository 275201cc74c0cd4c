package models

import (
	"time"

	"github.com/google/uuid"
)

type ImportJobStatus string

const (
	ImportJobStatusQueued     ImportJobStatus = "queued"
	ImportJobStatusProcessing ImportJobStatus = "processing"
	ImportJobStatusCompleted  ImportJobStatus = "completed"
	ImportJobStatusFailed     ImportJobStatus = "failed"
	ImportJobStatusCancelled  ImportJobStatus = "cancelled"
)

// Terminal reports whether the job has stopped
func (s ImportJobStatus) Terminal() bool {
	switch s {
	case ImportJobStatusCompleted, ImportJobStatusFailed, ImportJobStatusCancelled:
		return true
	}
	return false
}

// ImportJobProgress is the last known state of the tracked remote job
type ImportJobProgress struct {
	JobID          string          `json:"job_id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	HistoryID      uuid.UUID       `json:"history_id"`
	FileName       string          `json:"file_name"`
	Status         ImportJobStatus `json:"status"`
	Progress       float64         `json:"progress"` // 0-100
	Message        string          `json:"message"`
	Retrying       bool            `json:"retrying"`
	Total          int             `json:"total"`
	Successful     int             `json:"successful"`
	Failed         int             `json:"failed"`
	Skipped        int             `json:"skipped"`
	SuppliersAdded int             `json:"suppliers_added"`
	MatchStats     *MatchSummary   `json:"match_stats,omitempty"`
	Forced         bool            `json:"forced,omitempty"`
	StartedAt      time.Time       `json:"started_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ImportJobAccepted is returned when a file was handed to the job API
type ImportJobAccepted struct {
	JobID     string    `json:"job_id"`
	HistoryID uuid.UUID `json:"history_id"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
}
