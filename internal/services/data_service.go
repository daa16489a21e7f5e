package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dbusana/internal/analytics"
	"dbusana/internal/cache"
	"dbusana/pkg/contracts/domain"
)

// SalesReader is the slice of the sales store the data service needs.
type SalesReader interface {
	All() []domain.SaleRecord
	Between(from, to time.Time) []domain.SaleRecord
	Count() int
}

// DataService provides dashboard data access functionality
type DataService struct {
	store      SalesReader
	summarizer *analytics.Summarizer
	cache      cache.DashboardSummaryCache
	logger     *slog.Logger
}

// NewDataService creates a new data service with injected dependencies
func NewDataService(store SalesReader, summarizer *analytics.Summarizer, summaryCache cache.DashboardSummaryCache, logger *slog.Logger) *DataService {
	if logger == nil {
		logger = slog.Default()
	}
	if summaryCache == nil {
		summaryCache = cache.NewNoopDashboardCache()
	}

	logger.Info("DataService initialized",
		slog.Int("records", store.Count()))

	return &DataService{
		store:      store,
		summarizer: summarizer,
		cache:      summaryCache,
		logger:     logger,
	}
}

// GetDashboardSummary returns the KPI card values for the requested
// date range. Results are served from the summary cache when present.
func (ds *DataService) GetDashboardSummary(ctx context.Context, from, to time.Time) (*domain.DashboardSummary, error) {
	filter := cache.SummaryFilter{From: from, To: to}

	if cached, ok, err := ds.cache.GetSummary(ctx, filter); err != nil {
		// Cache failures must never fail the request
		ds.logger.WarnContext(ctx, "summary cache read failed",
			slog.String("error", err.Error()))
	} else if ok {
		ds.logger.DebugContext(ctx, "dashboard summary served from cache")
		return cached, nil
	}

	records := ds.selectRecords(from, to)
	summary, err := ds.summarizer.Summarize(ctx, records, from, to)
	if err != nil {
		return nil, fmt.Errorf("summarize sales: %w", err)
	}

	if series, serr := ds.summarizer.DailySeries(ctx, records); serr == nil {
		if change, ok := ds.summarizer.RecentChange(series); ok {
			summary.RevenueChangePercent = &change
		}
	}

	if err := ds.cache.SetSummary(ctx, filter, summary); err != nil {
		ds.logger.WarnContext(ctx, "summary cache write failed",
			slog.String("error", err.Error()))
	}

	return summary, nil
}

// GetDailyRevenue returns the aggregated daily revenue series. A
// non-empty marketplace restricts the series to that channel.
func (ds *DataService) GetDailyRevenue(ctx context.Context, from, to time.Time, marketplace string) ([]domain.DailyRevenuePoint, error) {
	records := ds.selectRecords(from, to)
	if marketplace != "" {
		channel := domain.Marketplace(marketplace)
		filtered := records[:0:0]
		for _, r := range records {
			if r.Marketplace == channel {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}

	series, err := ds.summarizer.DailySeries(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("daily series: %w", err)
	}
	return series, nil
}

// GetMarketplaceBreakdown returns per-channel KPI aggregates sorted by
// revenue.
func (ds *DataService) GetMarketplaceBreakdown(ctx context.Context, from, to time.Time) ([]domain.MarketplaceBreakdown, error) {
	breakdown, err := ds.summarizer.MarketplaceBreakdown(ctx, ds.selectRecords(from, to))
	if err != nil {
		return nil, fmt.Errorf("marketplace breakdown: %w", err)
	}
	return breakdown, nil
}

// GetProductBreakdown returns the top products by revenue.
func (ds *DataService) GetProductBreakdown(ctx context.Context, from, to time.Time) ([]domain.ProductBreakdown, error) {
	breakdown, err := ds.summarizer.ProductBreakdown(ctx, ds.selectRecords(from, to))
	if err != nil {
		return nil, fmt.Errorf("product breakdown: %w", err)
	}
	return breakdown, nil
}

// RecordCount returns the number of stored sale records.
func (ds *DataService) RecordCount() int {
	return ds.store.Count()
}

func (ds *DataService) selectRecords(from, to time.Time) []domain.SaleRecord {
	if from.IsZero() && to.IsZero() {
		return ds.store.All()
	}
	return ds.store.Between(from, to)
}

// dateLayout is the wire format for date range query parameters.
const dateLayout = "2006-01-02"

// ResolveDateRange parses the from/to query parameters. Empty strings
// yield zero times, which select the full history. The to date is
// extended to the end of its day so the range is inclusive.
func ResolveDateRange(fromStr, toStr string) (time.Time, time.Time, error) {
	var from, to time.Time

	if fromStr != "" {
		parsed, err := time.Parse(dateLayout, fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: from %q", ErrInvalidDateRange, fromStr)
		}
		from = parsed
	}

	if toStr != "" {
		parsed, err := time.Parse(dateLayout, toStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: to %q", ErrInvalidDateRange, toStr)
		}
		to = parsed.Add(24*time.Hour - time.Nanosecond)
	}

	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: to before from", ErrInvalidDateRange)
	}

	return from, to, nil
}
