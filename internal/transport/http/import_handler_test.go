package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "dbusana/internal/errors"

	"dbusana/pkg/contracts/domain"
)

// MockImportService is a mock implementation of ImportServiceInterface
type MockImportService struct {
	mock.Mock
}

func (m *MockImportService) Import(ctx context.Context, fileName, filePath string) (domain.ImportBatch, error) {
	args := m.Called(fileName, filePath)
	return args.Get(0).(domain.ImportBatch), args.Error(1)
}

func (m *MockImportService) GetBatch(ctx context.Context, id string) (domain.ImportBatch, error) {
	args := m.Called(id)
	return args.Get(0).(domain.ImportBatch), args.Error(1)
}

func (m *MockImportService) ListBatches(ctx context.Context, status string) []domain.ImportBatch {
	args := m.Called(status)
	return args.Get(0).([]domain.ImportBatch)
}

func (m *MockImportService) Running() bool {
	args := m.Called()
	return args.Bool(0)
}

func newTestImportHandler(t *testing.T, service ImportServiceInterface) *ImportHandler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewImportHandler(service, t.TempDir(), 32<<20, logger, apierrors.NewErrorHandler(logger, false))
}

func multipartUpload(t *testing.T, fieldName, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(fieldName, fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestImportHandler_Upload(t *testing.T) {
	tests := []struct {
		name           string
		fieldName      string
		fileName       string
		setupMock      func(*MockImportService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:      "successful upload",
			fieldName: "file",
			fileName:  "sales_march.csv",
			setupMock: func(m *MockImportService) {
				batch := domain.ImportBatch{
					ID:       "batch-1",
					FileName: "sales_march.csv",
					Status:   domain.BatchStatusCompleted,
					Imported: 42,
				}
				m.On("Import", "sales_march.csv", mock.Anything).Return(batch, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"imported":42`,
		},
		{
			name:      "wrong multipart field",
			fieldName: "upload",
			fileName:  "sales.csv",
			setupMock: func(m *MockImportService) {
				// Handler rejects before calling the service.
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"file"`,
		},
		{
			name:      "import already running",
			fieldName: "file",
			fileName:  "sales.csv",
			setupMock: func(m *MockImportService) {
				m.On("Import", "sales.csv", mock.Anything).
					Return(domain.ImportBatch{}, apierrors.ErrImportInProgress)
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `"IMPORT_IN_PROGRESS"`,
		},
		{
			name:      "unsupported format",
			fieldName: "file",
			fileName:  "sales.pdf",
			setupMock: func(m *MockImportService) {
				// Upload validator rejects before the service runs.
			},
			expectedStatus: http.StatusUnsupportedMediaType,
			expectedBody:   `"UNSUPPORTED_FORMAT"`,
		},
		{
			name:      "empty file",
			fieldName: "file",
			fileName:  "empty.csv",
			setupMock: func(m *MockImportService) {
				m.On("Import", "empty.csv", mock.Anything).
					Return(domain.ImportBatch{}, fmt.Errorf("stage parse: %w", apierrors.ErrEmptyFile))
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"EMPTY_FILE"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockImportService)
			tt.setupMock(mockService)
			handler := newTestImportHandler(t, mockService)

			body, contentType := multipartUpload(t, tt.fieldName, tt.fileName, "Order Number,Date\n")
			req := httptest.NewRequest("POST", "/api/import", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()

			handler.Upload(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}

func TestImportHandler_Upload_TooLarge(t *testing.T) {
	mockService := new(MockImportService)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewImportHandler(mockService, t.TempDir(), 64, logger, apierrors.NewErrorHandler(logger, false))

	body, contentType := multipartUpload(t, "file", "big.csv", string(bytes.Repeat([]byte("x"), 1024)))
	req := httptest.NewRequest("POST", "/api/import", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Upload(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "UPLOAD_TOO_LARGE")
	mockService.AssertNotCalled(t, "Import")
}

func TestImportHandler_GetBatch(t *testing.T) {
	tests := []struct {
		name           string
		batchID        string
		setupMock      func(*MockImportService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:    "batch found",
			batchID: "batch-1",
			setupMock: func(m *MockImportService) {
				started := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
				batch := domain.ImportBatch{
					ID:        "batch-1",
					FileName:  "sales.xlsx",
					Status:    domain.BatchStatusCompleted,
					StartedAt: started,
				}
				m.On("GetBatch", "batch-1").Return(batch, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"sales.xlsx"`,
		},
		{
			name:    "batch not found",
			batchID: "ghost",
			setupMock: func(m *MockImportService) {
				m.On("GetBatch", "ghost").
					Return(domain.ImportBatch{}, apierrors.ErrImportBatchMissing)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"BATCH_NOT_FOUND"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockImportService)
			tt.setupMock(mockService)
			handler := newTestImportHandler(t, mockService)

			server := httptest.NewServer(handler.Routes())
			defer server.Close()

			resp, err := http.Get(server.URL + "/batches/" + tt.batchID)
			require.NoError(t, err)
			defer resp.Body.Close()

			raw, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			assert.Contains(t, string(raw), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}

func TestImportHandler_ListBatches(t *testing.T) {
	batches := make([]domain.ImportBatch, 0, 5)
	for i := 5; i >= 1; i-- {
		batches = append(batches, domain.ImportBatch{
			ID:     fmt.Sprintf("batch-%d", i),
			Status: domain.BatchStatusCompleted,
		})
	}

	mockService := new(MockImportService)
	mockService.On("ListBatches", "").Return(batches)
	handler := newTestImportHandler(t, mockService)

	req := httptest.NewRequest("GET", "/api/import/batches?page=2&page_size=2", nil)
	rec := httptest.NewRecorder()

	handler.ListBatches(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"total":5`)
	assert.Contains(t, body, `"page":2`)
	assert.Contains(t, body, `"batch-3"`)
	assert.NotContains(t, body, `"batch-5"`)
	mockService.AssertExpectations(t)
}

func TestImportHandler_ListBatches_InvalidStatus(t *testing.T) {
	mockService := new(MockImportService)
	handler := newTestImportHandler(t, mockService)

	req := httptest.NewRequest("GET", "/api/import/batches?status=archived", nil)
	rec := httptest.NewRecorder()

	handler.ListBatches(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	mockService.AssertNotCalled(t, "ListBatches")
}

func TestImportHandler_ListBatches_StatusFilter(t *testing.T) {
	mockService := new(MockImportService)
	mockService.On("ListBatches", "failed").Return([]domain.ImportBatch{
		{ID: "batch-9", Status: domain.BatchStatusFailed},
	})
	handler := newTestImportHandler(t, mockService)

	req := httptest.NewRequest("GET", "/api/import/batches?status=failed", nil)
	rec := httptest.NewRecorder()

	handler.ListBatches(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"batch-9"`)
	mockService.AssertExpectations(t)
}
