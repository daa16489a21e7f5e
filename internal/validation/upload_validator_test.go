package validation

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	apierrors "dbusana/internal/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		size     int64
		maxBytes int64
		wantErr  error
	}{
		{name: "xlsx accepted", fileName: "sales_march.xlsx", size: 2048},
		{name: "csv accepted", fileName: "sales.csv", size: 128},
		{name: "extension case insensitive", fileName: "SALES.XLSX", size: 2048},
		{name: "pdf rejected", fileName: "sales.pdf", size: 2048, wantErr: apierrors.ErrUnsupportedFormat},
		{name: "no extension rejected", fileName: "sales", size: 2048, wantErr: apierrors.ErrUnsupportedFormat},
		{name: "empty file rejected", fileName: "sales.csv", size: 0, wantErr: apierrors.ErrEmptyFile},
		{name: "size limit enforced", fileName: "sales.csv", size: 1 << 20, maxBytes: 1024},
		{name: "size limit disabled", fileName: "sales.csv", size: 1 << 30, maxBytes: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewUploadValidator(tt.maxBytes, testLogger())
			err := v.ValidateUpload(tt.fileName, tt.size)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.name == "size limit enforced":
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}
		})
	}
}
