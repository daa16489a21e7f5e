package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"dbusana/internal/config"
	"dbusana/internal/exporter"
	"dbusana/internal/forecast"
	"dbusana/internal/infrastructure"
	"dbusana/internal/sales"
	"dbusana/internal/services"

	api "dbusana/pkg/contracts/api/v1"
)

func main() {
	horizon := flag.Int("horizon", 0, "forecast horizon in days (defaults to configuration)")
	model := flag.String("model", "", "pin a model instead of the automatic fallback chain")
	export := flag.Bool("export", true, "write the forecast workbook to the export directory")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", slog.String("error", err.Error()))
		os.Exit(1)
	}

	store, err := sales.NewStore(cfg.SalesFilePath(), logger)
	if err != nil {
		logger.Error("Failed to open sales store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var fcExporter *exporter.ForecastExporter
	if *export {
		fcExporter = exporter.NewForecastExporter(cfg.Paths.ExportDir)
	}

	engine := forecast.NewEngine(logger)
	service := services.NewForecastService(engine, store, fcExporter, nil, nil, cfg.Forecast, logger)

	start := time.Now()
	outcome, err := service.Forecast(context.Background(), api.ForecastRequest{
		Horizon: *horizon,
		Model:   *model,
	})
	if err != nil {
		logger.Error("Forecast failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Forecast finished",
		slog.String("model", string(outcome.Forecast.Model)),
		slog.Int("results", len(outcome.Forecast.Results)),
		slog.Int("data_days", outcome.DataDays),
		slog.Float64("mape", outcome.Forecast.Metrics.MAPE),
		slog.Duration("duration", time.Since(start)))

	fmt.Printf("model %s over %d history days:\n", outcome.Forecast.Model, outcome.DataDays)
	for _, r := range outcome.Forecast.Results {
		fmt.Printf("  %s  %12.0f  [%0.f, %0.f]\n",
			r.Date.Format("2006-01-02"), r.Predicted, r.LowerBound, r.UpperBound)
	}
	if outcome.ExportFile != "" {
		fmt.Printf("workbook written to %s\n", outcome.ExportFile)
	}
}
