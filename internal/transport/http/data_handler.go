package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "dbusana/internal/errors"
	customMiddleware "dbusana/internal/middleware"
	"dbusana/internal/services"

	api "dbusana/pkg/contracts/api/v1"
)

// DataHandler serves the dashboard summary and sales breakdown
// endpoints with RFC 7807 compliant errors.
type DataHandler struct {
	service      DataServiceInterface
	validator    *customMiddleware.ValidationMiddleware
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDataHandler creates a new data handler with RFC 7807 error handling
func NewDataHandler(service DataServiceInterface, validator *customMiddleware.ValidationMiddleware, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	return &DataHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "data_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the data routes with proper Chi patterns
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()

	// Use render for consistent JSON responses
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/summary", h.GetDashboardSummary)

	r.Route("/sales", func(r chi.Router) {
		r.Use(h.DateRangeCtx) // Validate from/to query parameters
		r.Get("/daily", h.GetDailyRevenue)
		r.Get("/marketplaces", h.GetMarketplaceBreakdown)
		r.Get("/products", h.GetProductBreakdown)
	})

	return r
}

// DateRangeCtx middleware validates the from/to query parameters
func (h *DataHandler) DateRangeCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		from := r.URL.Query().Get("from")
		to := r.URL.Query().Get("to")

		if _, _, err := services.ResolveDateRange(from, to); err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("date_range", err.Error()))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetDashboardSummary handles GET /api/data/summary
func (h *DataHandler) GetDashboardSummary(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	from, to, err := services.ResolveDateRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("date_range", err.Error()))
		return
	}

	h.logger.InfoContext(r.Context(), "fetching dashboard summary",
		slog.String("request_id", reqID),
		slog.String("path", r.URL.Path),
	)

	summary, err := h.service.GetDashboardSummary(r.Context(), from, to)
	if err != nil {
		h.handleSalesError(w, r, err, reqID, "dashboard summary")
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   summary,
	})
}

// GetDailyRevenue handles GET /api/data/sales/daily
func (h *DataHandler) GetDailyRevenue(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	req := api.DailySalesRequest{
		DateRangeRequest: api.DateRangeRequest{
			From: r.URL.Query().Get("from"),
			To:   r.URL.Query().Get("to"),
		},
		Marketplace: r.URL.Query().Get("marketplace"),
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	from, to, _ := services.ResolveDateRange(req.From, req.To)

	points, err := h.service.GetDailyRevenue(r.Context(), from, to, req.Marketplace)
	if err != nil {
		h.handleSalesError(w, r, err, reqID, "daily revenue")
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   points,
		"count":  len(points),
	})
}

// GetMarketplaceBreakdown handles GET /api/data/sales/marketplaces
func (h *DataHandler) GetMarketplaceBreakdown(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	from, to, _ := services.ResolveDateRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))

	breakdown, err := h.service.GetMarketplaceBreakdown(r.Context(), from, to)
	if err != nil {
		h.handleSalesError(w, r, err, reqID, "marketplace breakdown")
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   breakdown,
		"count":  len(breakdown),
	})
}

// GetProductBreakdown handles GET /api/data/sales/products
func (h *DataHandler) GetProductBreakdown(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	from, to, _ := services.ResolveDateRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))

	breakdown, err := h.service.GetProductBreakdown(r.Context(), from, to)
	if err != nil {
		h.handleSalesError(w, r, err, reqID, "product breakdown")
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   breakdown,
		"count":  len(breakdown),
	})
}

// handleSalesError maps service errors to API errors
func (h *DataHandler) handleSalesError(w http.ResponseWriter, r *http.Request, err error, reqID, what string) {
	h.logger.ErrorContext(r.Context(), "failed to get "+what,
		slog.String("error", err.Error()),
		slog.String("request_id", reqID),
	)

	switch {
	case errors.Is(err, apierrors.ErrNoSalesData):
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusNotFound,
			"NO_SALES_DATA",
			"No sales data available for the requested period",
		))
	case errors.Is(err, services.ErrInvalidDateRange):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("date_range", err.Error()))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}
