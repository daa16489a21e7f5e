package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dbusana/internal/config"
	"dbusana/internal/importer"
	"dbusana/internal/infrastructure"
	"dbusana/internal/sales"
)

func main() {
	file := flag.String("file", "", "sales export to import (.xlsx or .csv)")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: importer -file <sales export>")
		os.Exit(2)
	}

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

	pipeline := importer.NewPipeline(store, importer.NewBatchStore(), nil, nil, logger)
	batch := pipeline.NewBatch(filepath.Base(*file))

	ctx := infrastructure.ContextWithTraceID(context.Background())
	result, err := pipeline.Run(ctx, batch, *file)
	if err != nil {
		logger.Error("Import failed",
			slog.String("file", *file),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Import finished",
		slog.String("batch_id", result.ID),
		slog.String("status", string(result.Status)),
		slog.Int("total_rows", result.TotalRows),
		slog.Int("imported", result.Imported),
		slog.Int("skipped", result.Skipped),
		slog.Int("failed", result.Failed))

	fmt.Printf("imported %d rows (%d skipped, %d failed) into %s\n",
		result.Imported, result.Skipped, result.Failed, cfg.SalesFilePath())
}
