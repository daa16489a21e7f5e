package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbusana/internal/config"
	"dbusana/internal/infrastructure"
)

// setupTestEnvironment points every configured path at a temp
// directory and silences logging.
func setupTestEnvironment(t *testing.T) {
	t.Helper()
	tempDir := t.TempDir()

	t.Setenv("DBUSANA_SERVER_PORT", "8081")
	t.Setenv("DBUSANA_LOGGING_LEVEL", "error")
	t.Setenv("DBUSANA_LOGGING_OUTPUT", "stdout")
	t.Setenv("DBUSANA_PATHS_DATA_DIR", tempDir)
	t.Setenv("DBUSANA_PATHS_IMPORT_DIR", filepath.Join(tempDir, "imports"))
	t.Setenv("DBUSANA_PATHS_EXPORT_DIR", filepath.Join(tempDir, "exports"))
	t.Setenv("DBUSANA_PATHS_LOGS_DIR", filepath.Join(tempDir, "logs"))
	t.Setenv("DBUSANA_CACHE_ENABLED", "false")
}

func createTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func TestNewApplication(t *testing.T) {
	tests := []struct {
		name          string
		setupEnv      func(t *testing.T)
		wantErr       bool
		errorContains string
	}{
		{
			name:     "successful initialization",
			setupEnv: func(t *testing.T) {},
			wantErr:  false,
		},
		{
			name: "initialization with invalid config",
			setupEnv: func(t *testing.T) {
				t.Setenv("DBUSANA_SERVER_PORT", "-1")
			},
			wantErr:       true,
			errorContains: "config validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestEnvironment(t)
			tt.setupEnv(t)

			app, err := NewApplication()

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errorContains != "" {
					assert.Contains(t, err.Error(), tt.errorContains)
				}
				assert.Nil(t, app)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, app)
			assert.NotNil(t, app.Config)
			assert.NotNil(t, app.Logger)
			assert.NotNil(t, app.Router)
			assert.NotNil(t, app.Server)
			assert.NotNil(t, app.WebSocketHub)
			assert.NotNil(t, app.SalesStore)
			assert.NotNil(t, app.BatchStore)
			assert.NotNil(t, app.SummaryCache)
			assert.NotNil(t, app.DataService)
			assert.NotNil(t, app.ImportService)
			assert.NotNil(t, app.ForecastService)
			assert.NotNil(t, app.HealthService)
		})
	}
}

func TestApplication_initializeServices(t *testing.T) {
	setupTestEnvironment(t)

	cfg, err := config.Load()
	require.NoError(t, err)
	logger := createTestLogger()
	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	require.NoError(t, err)

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	require.NoError(t, app.initializeServices())
	assert.NotNil(t, app.WebSocketHub)
	assert.NotNil(t, app.SalesStore)
	assert.NotNil(t, app.DataService)
	assert.NotNil(t, app.ImportService)
	assert.NotNil(t, app.ForecastService)
	assert.NotNil(t, app.HealthService)
	assert.Equal(t, 0, app.SalesStore.Count())
}

func TestApplication_Routes(t *testing.T) {
	setupTestEnvironment(t)

	app, err := NewApplication()
	require.NoError(t, err)
	app.WebSocketHub.Start()
	defer app.WebSocketHub.Stop()

	server := httptest.NewServer(app.Router)
	defer server.Close()

	t.Run("health endpoint", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"healthy"`)
	})

	t.Run("dashboard summary without data", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/data/summary")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(raw), "NO_SALES_DATA")
	})

	t.Run("forecast without data", func(t *testing.T) {
		resp, err := http.Post(server.URL+"/api/forecast", "application/json",
			strings.NewReader(`{"horizon":30}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("import batches empty list", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/import/batches")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"total":0`)
	})

	t.Run("unknown route returns problem document", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/nope")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("websocket endpoint requires upgrade", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/ws")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("metrics endpoint", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestApplication_ImportThenSummary(t *testing.T) {
	setupTestEnvironment(t)

	app, err := NewApplication()
	require.NoError(t, err)
	app.WebSocketHub.Start()
	defer app.WebSocketHub.Stop()

	csvPath := filepath.Join(t.TempDir(), "sales.csv")
	csv := "Order Number,Date,Product Name,Quantity,Revenue,HPP,Settlement Amount,Marketplace\n" +
		"INV-001,2024-03-01,Gamis Aurora,2,300000,160000,280000,Shopee\n" +
		"INV-002,2024-03-02,Hijab Voal,1,45000,20000,42000,TikTok Shop\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(csv), 0o644))

	batch, err := app.ImportService.Import(context.Background(), "sales.csv", csvPath)
	require.NoError(t, err)
	assert.Equal(t, 2, batch.Imported)

	summary, err := app.DataService.GetDashboardSummary(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Orders)
	assert.Equal(t, "345000", summary.Revenue)
}

func TestApplication_StartAndStop(t *testing.T) {
	setupTestEnvironment(t)
	t.Setenv("DBUSANA_SERVER_PORT", "18082")

	app, err := NewApplication()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, app.Start(ctx, cancel))

	assert.Eventually(t, func() bool {
		resp, err := http.Get("http://localhost:18082/api/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 100*time.Millisecond)

	require.NoError(t, app.Stop(context.Background()))
}
