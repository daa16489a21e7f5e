package services

import "errors"

// Service layer errors
var (
	ErrInvalidDateRange = errors.New("invalid date range")

	// Export errors
	ErrNoExportData = errors.New("no data to export")

	// General errors
	ErrOperationTimeout = errors.New("operation timed out")
)
