package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"dbusana/internal/analytics"
	"dbusana/internal/config"
	"dbusana/internal/exporter"
	"dbusana/internal/infrastructure"
	"dbusana/internal/sales"
	"dbusana/internal/services"
)

func main() {
	from := flag.String("from", "", "start date (2006-01-02), defaults to the full history")
	to := flag.String("to", "", "end date (2006-01-02), defaults to today")
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

	rangeFrom, rangeTo, err := services.ResolveDateRange(*from, *to)
	if err != nil {
		logger.Error("Invalid date range", slog.String("error", err.Error()))
		os.Exit(1)
	}

	store, err := sales.NewStore(cfg.SalesFilePath(), logger)
	if err != nil {
		logger.Error("Failed to open sales store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if store.Count() == 0 {
		logger.Error("No sales records on disk, import a sales file first")
		os.Exit(1)
	}

	records := store.Between(rangeFrom, rangeTo)
	if len(records) == 0 {
		logger.Error("Nothing to export", slog.String("error", services.ErrNoExportData.Error()),
			slog.String("from", *from), slog.String("to", *to))
		os.Exit(1)
	}
	summarizer := analytics.NewSummarizer(logger, analytics.SummarizerConfig{})

	series, err := summarizer.DailySeries(context.Background(), records)
	if err != nil {
		logger.Error("Failed to build daily series", slog.String("error", err.Error()))
		os.Exit(1)
	}

	stamp := time.Now().Format("2006-01-02_150405")
	reports := exporter.NewReportExporter(cfg.Paths.ExportDir)

	dailyFile := fmt.Sprintf("daily_revenue_%s.csv", stamp)
	if err := reports.ExportDailyRevenue(series, dailyFile); err != nil {
		logger.Error("Failed to export daily revenue", slog.String("error", err.Error()))
		os.Exit(1)
	}

	marketplaceFile := fmt.Sprintf("marketplace_totals_%s.csv", stamp)
	totals := store.MarketplaceTotals(rangeFrom, rangeTo)
	if err := reports.ExportMarketplaceTotals(totals, marketplaceFile); err != nil {
		logger.Error("Failed to export marketplace totals", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Reports written",
		slog.Int("records", len(records)),
		slog.Int("days", len(series)),
		slog.Int("marketplaces", len(totals)))

	fmt.Printf("%d records over %d days\n", len(records), len(series))
	fmt.Printf("daily revenue:       %s\n", dailyFile)
	fmt.Printf("marketplace totals:  %s\n", marketplaceFile)
}
