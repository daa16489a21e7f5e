// Package validation checks uploaded sales exports before they reach
// the import pipeline, so obviously bad uploads are rejected without
// being written to disk.
package validation

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	apierrors "dbusana/internal/errors"
)

// acceptedExtensions are the marketplace export formats the import
// pipeline can parse.
var acceptedExtensions = map[string]bool{
	".xlsx": true,
	".csv":  true,
}

// UploadValidator validates sales export uploads.
type UploadValidator struct {
	maxBytes int64
	logger   *slog.Logger
}

// NewUploadValidator creates a new upload validator. maxBytes bounds
// the accepted file size; zero disables the size check.
func NewUploadValidator(maxBytes int64, logger *slog.Logger) *UploadValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadValidator{
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// ValidateUpload checks the file name and declared size of an upload.
// Failures map onto the import error sentinels so callers can render
// them as problem documents.
func (v *UploadValidator) ValidateUpload(fileName string, size int64) error {
	ext := strings.ToLower(filepath.Ext(fileName))
	if !acceptedExtensions[ext] {
		v.logger.Warn("Rejecting upload with unsupported extension",
			slog.String("file_name", fileName),
			slog.String("extension", ext))
		return fmt.Errorf("%w: %s", apierrors.ErrUnsupportedFormat, ext)
	}

	if size == 0 {
		v.logger.Warn("Rejecting empty upload",
			slog.String("file_name", fileName))
		return apierrors.ErrEmptyFile
	}

	if v.maxBytes > 0 && size > v.maxBytes {
		return fmt.Errorf("upload of %d bytes exceeds the %d byte limit", size, v.maxBytes)
	}

	return nil
}
