package domain

import (
	"time"
)

// BatchStatus tracks the lifecycle of one import run.
type BatchStatus string

const (
	BatchStatusPending   BatchStatus = "pending"
	BatchStatusRunning   BatchStatus = "running"
	BatchStatusCompleted BatchStatus = "completed"
	BatchStatusPartial   BatchStatus = "partial" // finished with row-level failures
	BatchStatusFailed    BatchStatus = "failed"
)

// ImportBatch summarises one import of a marketplace export file.
type ImportBatch struct {
	ID          string      `json:"id"`
	FileName    string      `json:"file_name"`
	FileType    string      `json:"file_type"` // "xlsx" or "csv"
	Status      BatchStatus `json:"status"`
	TotalRows   int         `json:"total_rows"`
	Imported    int         `json:"imported"`
	Skipped     int         `json:"skipped"`
	Failed      int         `json:"failed"`
	Issues      []RowIssue  `json:"issues,omitempty"`
	StartedAt   time.Time   `json:"started_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// RowIssue records why a single row was skipped or rejected.
type RowIssue struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
}

// Finish stamps the batch with its terminal status based on counters.
func (b *ImportBatch) Finish(at time.Time) {
	b.CompletedAt = &at
	switch {
	case b.Imported == 0 && b.Failed > 0:
		b.Status = BatchStatusFailed
	case b.Failed > 0:
		b.Status = BatchStatusPartial
	default:
		b.Status = BatchStatusCompleted
	}
}
