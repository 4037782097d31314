package models

import (
	"math"
	"time"
)

// ImportStatus represents the status of an import job
type ImportStatus string

const (
	ImportStatusPending    ImportStatus = "PENDING"
	ImportStatusProcessing ImportStatus = "PROCESSING"
	ImportStatusCompleted  ImportStatus = "COMPLETED"
	ImportStatusFailed     ImportStatus = "FAILED"
)

// Terminal reports whether no further status transition can occur
func (s ImportStatus) Terminal() bool {
	return s == ImportStatusCompleted || s == ImportStatusFailed
}

// ImportJob tracks one CSV import attempt.
// Counters are monotonically non-decreasing and advance only at batch
// boundaries; once a terminal status is written the row is immutable.
type ImportJob struct {
	ID            string       `json:"id" gorm:"type:varchar(100);primary_key"` // token generated at submission
	Filename      string       `json:"filename" gorm:"type:varchar(500);not null"`
	TotalRows     int          `json:"totalRows" gorm:"not null;default:0"`
	ProcessedRows int          `json:"processedRows" gorm:"not null;default:0"`
	SuccessCount  int          `json:"successCount" gorm:"not null;default:0"`
	ErrorCount    int          `json:"errorCount" gorm:"not null;default:0"`
	Status        ImportStatus `json:"status" gorm:"type:varchar(50);not null;default:'PENDING';index"`
	ErrorMessage  *string      `json:"errorMessage,omitempty" gorm:"type:text"`
	StartedAt     time.Time    `json:"startedAt"`
	CompletedAt   *time.Time   `json:"completedAt,omitempty"`
}

// TableName returns the table name for the ImportJob model
func (ImportJob) TableName() string {
	return "import_jobs"
}

// Progress returns the completion percentage rounded to two decimals,
// or 0.0 while the total is still unknown.
func (j *ImportJob) Progress() float64 {
	if j.TotalRows <= 0 {
		return 0.0
	}
	pct := float64(j.ProcessedRows) / float64(j.TotalRows) * 100
	return math.Round(pct*100) / 100
}

// CandidateRecord is one normalized CSV row ready for upsert.
// Not persisted; consumed by the batch engine.
type CandidateRecord struct {
	SKU         string
	Name        string
	Description *string
	Price       *string
	Active      bool
}

// ImportJobStatus is the snapshot returned to polling and streaming clients
type ImportJobStatus struct {
	JobID         string       `json:"jobId"`
	Filename      string       `json:"filename"`
	Status        ImportStatus `json:"status"`
	TotalRows     int          `json:"totalRows"`
	ProcessedRows int          `json:"processedRows"`
	SuccessCount  int          `json:"successCount"`
	ErrorCount    int          `json:"errorCount"`
	Progress      float64      `json:"progress"`
	ErrorMessage  *string      `json:"errorMessage,omitempty"`
	StartedAt     time.Time    `json:"startedAt"`
	CompletedAt   *time.Time   `json:"completedAt,omitempty"`
}

// Snapshot builds the client-facing view of a job
func (j *ImportJob) Snapshot() ImportJobStatus {
	return ImportJobStatus{
		JobID:         j.ID,
		Filename:      j.Filename,
		Status:        j.Status,
		TotalRows:     j.TotalRows,
		ProcessedRows: j.ProcessedRows,
		SuccessCount:  j.SuccessCount,
		ErrorCount:    j.ErrorCount,
		Progress:      j.Progress(),
		ErrorMessage:  j.ErrorMessage,
		StartedAt:     j.StartedAt,
		CompletedAt:   j.CompletedAt,
	}
}

// ImportJobResponse wraps a job snapshot
type ImportJobResponse struct {
	Success bool            `json:"success"`
	Data    ImportJobStatus `json:"data"`
}

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"`
	Example     string `json:"example"`
}

// ImportTemplate defines the structure of an import template
type ImportTemplate struct {
	Entity  string                 `json:"entity"`
	Version string                 `json:"version"`
	Columns []ImportTemplateColumn `json:"columns"`
}

// ProductImportColumns returns the column definitions for product import
func ProductImportColumns() []ImportTemplateColumn {
	return []ImportTemplateColumn{
		{Name: "sku", Description: "Unique product SKU (case-insensitive)", Required: true, Type: "string", Example: "TSH-BLU-001"},
		{Name: "name", Description: "Product name", Required: true, Type: "string", Example: "Blue Cotton T-Shirt"},
		{Name: "description", Description: "Product description", Required: false, Type: "string", Example: ""},
		{Name: "price", Description: "Product price (stored as text)", Required: false, Type: "string", Example: "29.99"},
	}
}

// ProductImportTemplate returns the template definition for products
func ProductImportTemplate() ImportTemplate {
	return ImportTemplate{
		Entity:  "products",
		Version: "1.0",
		Columns: ProductImportColumns(),
	}
}
