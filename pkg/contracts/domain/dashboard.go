package domain

import (
	"time"
)

// DashboardSummary carries the KPI card values for the dashboard.
// Money amounts are IDR, serialised as strings to keep decimal
// precision across the wire.
type DashboardSummary struct {
	From              time.Time `json:"from"`
	To                time.Time `json:"to"`
	Revenue           string    `json:"revenue"`
	Settlement        string    `json:"settlement"`
	HPP               string    `json:"hpp"`
	GrossProfit       string    `json:"gross_profit"`
	MarginPercent     float64   `json:"margin_percent"`
	Orders            int       `json:"orders"`
	Units             int       `json:"units"`
	AverageOrderValue string    `json:"average_order_value"`
	Products          int       `json:"products"`
	Marketplaces      int       `json:"marketplaces"`

	// RevenueChangePercent compares the latest day's revenue with the
	// day before it. Nil when the range has fewer than two days.
	RevenueChangePercent *float64 `json:"revenue_change_percent,omitempty"`
}

// MarketplaceBreakdown aggregates KPI values for one channel.
type MarketplaceBreakdown struct {
	Marketplace  Marketplace `json:"marketplace"`
	Revenue      string      `json:"revenue"`
	Settlement   string      `json:"settlement"`
	GrossProfit  string      `json:"gross_profit"`
	Orders       int         `json:"orders"`
	Units        int         `json:"units"`
	RevenueShare float64     `json:"revenue_share"` // 0-1 of total revenue
}

// ProductBreakdown aggregates KPI values for one product.
type ProductBreakdown struct {
	ProductName string `json:"product_name"`
	Revenue     string `json:"revenue"`
	GrossProfit string `json:"gross_profit"`
	Units       int    `json:"units"`
	Orders      int    `json:"orders"`
}

// DailyRevenuePoint is one day of the aggregated revenue series.
type DailyRevenuePoint struct {
	Date       time.Time `json:"date"`
	Revenue    float64   `json:"revenue"`
	Settlement float64   `json:"settlement"`
	Orders     int       `json:"orders"`
	Units      int       `json:"units"`
}
