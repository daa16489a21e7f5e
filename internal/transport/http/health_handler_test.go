package http

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbusana/internal/config"
	"dbusana/internal/importer"
	"dbusana/internal/services"

	"dbusana/pkg/contracts/domain"
)

type staticSalesReader struct {
	records []domain.SaleRecord
}

func (s *staticSalesReader) All() []domain.SaleRecord { return s.records }
func (s *staticSalesReader) Between(from, to time.Time) []domain.SaleRecord {
	return s.records
}
func (s *staticSalesReader) Count() int { return len(s.records) }

func newTestHealthHandler(t *testing.T, dataDir string) *HealthHandler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := services.NewHealthService(
		"1.0.0-test", "2024-03-01",
		config.PathsConfig{DataDir: dataDir},
		&staticSalesReader{},
		importer.NewBatchStore(),
		nil,
		logger,
	)
	return NewHealthHandler(service, logger)
}

func TestHealthHandler_HealthCheck(t *testing.T) {
	handler := newTestHealthHandler(t, t.TempDir())

	req := httptest.NewRequest("GET", "/api/health", nil)
	rec := httptest.NewRecorder()

	handler.HealthCheck(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy"`)
	assert.Contains(t, rec.Body.String(), `"1.0.0-test"`)
}

func TestHealthHandler_HealthCheck_Degraded(t *testing.T) {
	handler := newTestHealthHandler(t, "/nonexistent/dbusana-data")

	req := httptest.NewRequest("GET", "/api/health", nil)
	rec := httptest.NewRecorder()

	handler.HealthCheck(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"degraded"`)
}

func TestHealthHandler_Stats(t *testing.T) {
	handler := newTestHealthHandler(t, t.TempDir())

	server := httptest.NewServer(handler.Routes())
	defer server.Close()

	resp, err := http.Get(server.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `"sales_records":0`)
	assert.Contains(t, string(raw), `"import_running":false`)
}
