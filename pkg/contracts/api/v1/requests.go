// Package api contains API contract definitions for the D'Busana
// sales dashboard. Version v1 represents the current stable API
// version.
package api

// Common request parameters

// PaginationRequest represents common pagination parameters
type PaginationRequest struct {
	Page     int `json:"page" query:"page" validate:"min=1"`
	PageSize int `json:"page_size" query:"page_size" validate:"min=1,max=100"`
}

// DateRangeRequest represents a date range in requests
type DateRangeRequest struct {
	From string `json:"from" query:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `json:"to" query:"to" validate:"omitempty,datetime=2006-01-02"`
}

// Forecast API Requests

// ForecastRequest asks for a revenue forecast over the stored series.
type ForecastRequest struct {
	Horizon int    `json:"horizon" validate:"required,min=1,max=365"`
	Model   string `json:"model,omitempty" validate:"omitempty,oneof=hybrid volatility seasonal_trend linear_trend moving_average flat"`
	DateRangeRequest
}

// Import API Requests

// ImportListRequest lists import batches.
type ImportListRequest struct {
	PaginationRequest
	Status string `json:"status" query:"status" validate:"omitempty,oneof=pending running completed partial failed"`
}

// Sales API Requests

// DailySalesRequest requests the aggregated daily revenue series.
type DailySalesRequest struct {
	DateRangeRequest
	Marketplace string `json:"marketplace" query:"marketplace" validate:"omitempty,oneof=tiktok_shop shopee tokopedia lazada offline"`
}
