package http

import (
	"context"
	"time"

	"dbusana/internal/services"

	"dbusana/pkg/contracts/domain"

	api "dbusana/pkg/contracts/api/v1"
)

// DataServiceInterface is what the data handler needs from the
// dashboard analytics service.
type DataServiceInterface interface {
	GetDashboardSummary(ctx context.Context, from, to time.Time) (*domain.DashboardSummary, error)
	GetDailyRevenue(ctx context.Context, from, to time.Time, marketplace string) ([]domain.DailyRevenuePoint, error)
	GetMarketplaceBreakdown(ctx context.Context, from, to time.Time) ([]domain.MarketplaceBreakdown, error)
	GetProductBreakdown(ctx context.Context, from, to time.Time) ([]domain.ProductBreakdown, error)
	RecordCount() int
}

// ImportServiceInterface is what the import handler needs from the
// import service.
type ImportServiceInterface interface {
	Import(ctx context.Context, fileName, filePath string) (domain.ImportBatch, error)
	GetBatch(ctx context.Context, id string) (domain.ImportBatch, error)
	ListBatches(ctx context.Context, status string) []domain.ImportBatch
	Running() bool
}

// ForecastServiceInterface is what the forecast handler needs from
// the forecasting service.
type ForecastServiceInterface interface {
	Forecast(ctx context.Context, req api.ForecastRequest) (*services.ForecastOutcome, error)
}
