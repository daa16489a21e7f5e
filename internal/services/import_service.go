package services

import (
	"context"
	"log/slog"

	"dbusana/internal/cache"
	"dbusana/internal/importer"
	"dbusana/pkg/contracts/domain"
)

// ImportService runs uploaded marketplace export files through the
// import pipeline and tracks batch state.
type ImportService struct {
	pipeline *importer.Pipeline
	batches  *importer.BatchStore
	cache    cache.DashboardSummaryCache
	logger   *slog.Logger
}

// NewImportService creates a new import service with injected dependencies
func NewImportService(pipeline *importer.Pipeline, batches *importer.BatchStore, summaryCache cache.DashboardSummaryCache, logger *slog.Logger) *ImportService {
	if logger == nil {
		logger = slog.Default()
	}
	if summaryCache == nil {
		summaryCache = cache.NewNoopDashboardCache()
	}

	return &ImportService{
		pipeline: pipeline,
		batches:  batches,
		cache:    summaryCache,
		logger:   logger,
	}
}

// Import runs one uploaded file through the pipeline. Only one batch
// may run at a time; a second upload is rejected with a conflict.
func (is *ImportService) Import(ctx context.Context, fileName, filePath string) (domain.ImportBatch, error) {
	batch := is.pipeline.NewBatch(fileName)
	if err := is.batches.Begin(batch); err != nil {
		return domain.ImportBatch{}, err
	}

	is.logger.InfoContext(ctx, "import started",
		slog.String("batch_id", batch.ID),
		slog.String("file_name", fileName))

	result, err := is.pipeline.Run(ctx, batch, filePath)
	if err != nil {
		is.logger.ErrorContext(ctx, "import failed",
			slog.String("batch_id", batch.ID),
			slog.String("error", err.Error()))
		return result, err
	}

	// The dashboard summary is stale once new records land
	if result.Imported > 0 {
		if cerr := is.cache.InvalidateAll(ctx); cerr != nil {
			is.logger.WarnContext(ctx, "summary cache invalidation failed",
				slog.String("error", cerr.Error()))
		}
	}

	is.logger.InfoContext(ctx, "import finished",
		slog.String("batch_id", result.ID),
		slog.String("status", string(result.Status)),
		slog.Int("imported", result.Imported),
		slog.Int("skipped", result.Skipped),
		slog.Int("failed", result.Failed))

	return result, nil
}

// GetBatch returns one import batch by identifier.
func (is *ImportService) GetBatch(ctx context.Context, id string) (domain.ImportBatch, error) {
	return is.batches.Get(id)
}

// ListBatches returns batches newest first, optionally filtered by
// status. An empty status matches everything.
func (is *ImportService) ListBatches(ctx context.Context, status string) []domain.ImportBatch {
	all := is.batches.List()
	if status == "" {
		return all
	}

	filtered := make([]domain.ImportBatch, 0, len(all))
	for _, b := range all {
		if string(b.Status) == status {
			filtered = append(filtered, b)
		}
	}
	return filtered
}

// Running reports whether an import batch is currently in flight.
func (is *ImportService) Running() bool {
	return is.batches.Running()
}
