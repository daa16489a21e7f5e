// Package analytics computes the dashboard KPI aggregates from the
// sales dataset. All money math goes through shopspring/decimal so the
// KPI cards never show float artifacts; amounts cross the wire as
// decimal strings.
package analytics

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	apierrors "dbusana/internal/errors"
	"dbusana/pkg/contracts/domain"
)

// Summarizer is the single source of truth for KPI computation. The
// HTTP layer and the exporters both go through it so the numbers on
// the dashboard and in exported reports always agree.
type Summarizer struct {
	logger *slog.Logger
	topN   int
}

// SummarizerConfig holds the knobs for summary generation.
type SummarizerConfig struct {
	TopProducts int // product breakdown size, default 10
}

// NewSummarizer creates a summarizer.
func NewSummarizer(logger *slog.Logger, cfg SummarizerConfig) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TopProducts <= 0 {
		cfg.TopProducts = 10
	}
	return &Summarizer{logger: logger, topN: cfg.TopProducts}
}

// Summarize computes the KPI cards over the given records.
func (s *Summarizer) Summarize(ctx context.Context, records []domain.SaleRecord, from, to time.Time) (*domain.DashboardSummary, error) {
	if len(records) == 0 {
		return nil, apierrors.ErrNoSalesData
	}

	revenue := decimal.Zero
	settlement := decimal.Zero
	hpp := decimal.Zero
	units := 0
	orders := make(map[string]struct{})
	products := make(map[string]struct{})
	marketplaces := make(map[domain.Marketplace]struct{})

	for _, r := range records {
		revenue = revenue.Add(decimal.NewFromFloat(r.Revenue))
		settlement = settlement.Add(decimal.NewFromFloat(r.SettlementAmount))
		hpp = hpp.Add(decimal.NewFromFloat(r.HPP))
		units += r.Quantity
		orders[r.OrderNumber] = struct{}{}
		products[r.ProductName] = struct{}{}
		marketplaces[r.Marketplace] = struct{}{}
	}

	grossProfit := settlement.Sub(hpp)

	margin := 0.0
	if settlement.IsPositive() {
		margin, _ = grossProfit.Div(settlement).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	}

	aov := decimal.Zero
	if len(orders) > 0 {
		aov = revenue.DivRound(decimal.NewFromInt(int64(len(orders))), 2)
	}

	summary := &domain.DashboardSummary{
		From:              from,
		To:                to,
		Revenue:           revenue.Round(2).String(),
		Settlement:        settlement.Round(2).String(),
		HPP:               hpp.Round(2).String(),
		GrossProfit:       grossProfit.Round(2).String(),
		MarginPercent:     margin,
		Orders:            len(orders),
		Units:             units,
		AverageOrderValue: aov.String(),
		Products:          len(products),
		Marketplaces:      len(marketplaces),
	}

	s.logger.DebugContext(ctx, "dashboard summary computed",
		slog.Int("records", len(records)),
		slog.Int("orders", summary.Orders),
		slog.String("revenue", summary.Revenue))

	return summary, nil
}

// MarketplaceBreakdown aggregates KPI values per channel, sorted by
// revenue descending, with each channel's share of total revenue.
func (s *Summarizer) MarketplaceBreakdown(ctx context.Context, records []domain.SaleRecord) ([]domain.MarketplaceBreakdown, error) {
	if len(records) == 0 {
		return nil, apierrors.ErrNoSalesData
	}

	type acc struct {
		revenue     decimal.Decimal
		settlement  decimal.Decimal
		grossProfit decimal.Decimal
		units       int
		orders      map[string]struct{}
	}

	total := decimal.Zero
	byMarketplace := make(map[domain.Marketplace]*acc)
	for _, r := range records {
		a, ok := byMarketplace[r.Marketplace]
		if !ok {
			a = &acc{
				revenue:     decimal.Zero,
				settlement:  decimal.Zero,
				grossProfit: decimal.Zero,
				orders:      make(map[string]struct{}),
			}
			byMarketplace[r.Marketplace] = a
		}
		rev := decimal.NewFromFloat(r.Revenue)
		a.revenue = a.revenue.Add(rev)
		a.settlement = a.settlement.Add(decimal.NewFromFloat(r.SettlementAmount))
		a.grossProfit = a.grossProfit.Add(decimal.NewFromFloat(r.GrossProfit()))
		a.units += r.Quantity
		a.orders[r.OrderNumber] = struct{}{}
		total = total.Add(rev)
	}

	out := make([]domain.MarketplaceBreakdown, 0, len(byMarketplace))
	for mp, a := range byMarketplace {
		share := 0.0
		if total.IsPositive() {
			share, _ = a.revenue.Div(total).Round(4).Float64()
		}
		out = append(out, domain.MarketplaceBreakdown{
			Marketplace:  mp,
			Revenue:      a.revenue.Round(2).String(),
			Settlement:   a.settlement.Round(2).String(),
			GrossProfit:  a.grossProfit.Round(2).String(),
			Orders:       len(a.orders),
			Units:        a.units,
			RevenueShare: share,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RevenueShare > out[j].RevenueShare
	})
	return out, nil
}

// ProductBreakdown returns the top products by revenue.
func (s *Summarizer) ProductBreakdown(ctx context.Context, records []domain.SaleRecord) ([]domain.ProductBreakdown, error) {
	if len(records) == 0 {
		return nil, apierrors.ErrNoSalesData
	}

	type acc struct {
		revenue     decimal.Decimal
		grossProfit decimal.Decimal
		units       int
		orders      map[string]struct{}
	}

	byProduct := make(map[string]*acc)
	for _, r := range records {
		a, ok := byProduct[r.ProductName]
		if !ok {
			a = &acc{
				revenue:     decimal.Zero,
				grossProfit: decimal.Zero,
				orders:      make(map[string]struct{}),
			}
			byProduct[r.ProductName] = a
		}
		a.revenue = a.revenue.Add(decimal.NewFromFloat(r.Revenue))
		a.grossProfit = a.grossProfit.Add(decimal.NewFromFloat(r.GrossProfit()))
		a.units += r.Quantity
		a.orders[r.OrderNumber] = struct{}{}
	}

	names := make([]string, 0, len(byProduct))
	for name := range byProduct {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return byProduct[names[i]].revenue.GreaterThan(byProduct[names[j]].revenue)
	})
	if len(names) > s.topN {
		names = names[:s.topN]
	}

	out := make([]domain.ProductBreakdown, 0, len(names))
	for _, name := range names {
		a := byProduct[name]
		out = append(out, domain.ProductBreakdown{
			ProductName: name,
			Revenue:     a.revenue.Round(2).String(),
			GrossProfit: a.grossProfit.Round(2).String(),
			Units:       a.units,
			Orders:      len(a.orders),
		})
	}
	return out, nil
}

// DailySeries folds records into per-day revenue points with order and
// unit counts, ascending by date.
func (s *Summarizer) DailySeries(ctx context.Context, records []domain.SaleRecord) ([]domain.DailyRevenuePoint, error) {
	if len(records) == 0 {
		return nil, apierrors.ErrNoSalesData
	}

	type acc struct {
		revenue    float64
		settlement float64
		units      int
		orders     map[string]struct{}
	}

	byDay := make(map[time.Time]*acc)
	for _, r := range records {
		day := r.Date.Truncate(24 * time.Hour)
		a, ok := byDay[day]
		if !ok {
			a = &acc{orders: make(map[string]struct{})}
			byDay[day] = a
		}
		a.revenue += r.Revenue
		a.settlement += r.SettlementAmount
		a.units += r.Quantity
		a.orders[r.OrderNumber] = struct{}{}
	}

	out := make([]domain.DailyRevenuePoint, 0, len(byDay))
	for day, a := range byDay {
		out = append(out, domain.DailyRevenuePoint{
			Date:       day,
			Revenue:    a.revenue,
			Settlement: a.settlement,
			Orders:     len(a.orders),
			Units:      a.units,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

// RecentChange reports the percentage change of the latest day's
// revenue against the day before it. Returns 0 with ok=false when the
// series has fewer than two days or the previous day is zero.
func (s *Summarizer) RecentChange(series []domain.DailyRevenuePoint) (float64, bool) {
	if len(series) < 2 {
		return 0, false
	}
	prev := series[len(series)-2].Revenue
	last := series[len(series)-1].Revenue
	if prev == 0 {
		return 0, false
	}
	return (last - prev) / prev * 100, true
}
