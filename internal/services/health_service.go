package services

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"dbusana/internal/config"
	"dbusana/internal/importer"
	ws "dbusana/internal/websocket"
)

// HealthService provides health check functionality
type HealthService struct {
	version      string
	buildTime    string
	paths        config.PathsConfig
	salesStore   SalesReader
	batches      *importer.BatchStore
	webSocketHub *ws.Hub
	startTime    time.Time
	logger       *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// SystemStats represents system statistics
type SystemStats struct {
	UptimeSeconds    float64 `json:"uptime_seconds"`
	SalesRecords     int     `json:"sales_records"`
	WebSocketClients int     `json:"websocket_clients"`
	ImportRunning    bool    `json:"import_running"`
	GoVersion        string  `json:"go_version"`
	OS               string  `json:"os"`
	Arch             string  `json:"arch"`
}

// NewHealthService creates a new health service with injected dependencies
func NewHealthService(version, buildTime string, paths config.PathsConfig, salesStore SalesReader, batches *importer.BatchStore, webSocketHub *ws.Hub, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("build_time", buildTime))

	return &HealthService{
		version:      version,
		buildTime:    buildTime,
		paths:        paths,
		salesStore:   salesStore,
		batches:      batches,
		webSocketHub: webSocketHub,
		startTime:    time.Now(),
		logger:       logger,
	}
}

// CheckHealth returns the overall health of the application. The data
// directory must be writable; everything else is informational.
func (hs *HealthService) CheckHealth(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"go_version":     runtime.Version(),
			"goroutines":     runtime.NumGoroutine(),
			"uptime_seconds": time.Since(hs.startTime).Seconds(),
		},
		Services: map[string]interface{}{},
	}

	status.Services["storage"] = hs.checkStorage(ctx)

	if hs.webSocketHub != nil {
		status.Services["websocket"] = map[string]interface{}{
			"status":  "healthy",
			"clients": hs.webSocketHub.ClientCount(),
		}
	}

	if hs.batches != nil {
		status.Services["importer"] = map[string]interface{}{
			"status":  "healthy",
			"running": hs.batches.Running(),
		}
	}

	for _, svc := range status.Services {
		if m, ok := svc.(map[string]interface{}); ok && m["status"] != "healthy" {
			status.Status = "degraded"
		}
	}

	return status
}

// GetStats returns runtime statistics for the dashboard status panel.
func (hs *HealthService) GetStats(ctx context.Context) *SystemStats {
	stats := &SystemStats{
		UptimeSeconds: time.Since(hs.startTime).Seconds(),
		GoVersion:     runtime.Version(),
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
	}

	if hs.salesStore != nil {
		stats.SalesRecords = hs.salesStore.Count()
	}
	if hs.webSocketHub != nil {
		stats.WebSocketClients = hs.webSocketHub.ClientCount()
	}
	if hs.batches != nil {
		stats.ImportRunning = hs.batches.Running()
	}

	return stats
}

// checkStorage verifies the data directory exists and is writable.
func (hs *HealthService) checkStorage(ctx context.Context) map[string]interface{} {
	result := map[string]interface{}{"status": "healthy"}

	info, err := os.Stat(hs.paths.DataDir)
	if err != nil || !info.IsDir() {
		hs.logger.WarnContext(ctx, "data directory unavailable",
			slog.String("data_dir", hs.paths.DataDir))
		result["status"] = "unhealthy"
		result["message"] = "data directory unavailable"
		return result
	}

	tmp, err := os.CreateTemp(hs.paths.DataDir, ".healthcheck-*")
	if err != nil {
		result["status"] = "unhealthy"
		result["message"] = "data directory not writable"
		return result
	}
	tmp.Close()
	os.Remove(tmp.Name())

	result["data_dir"] = hs.paths.DataDir
	return result
}
