package http

import (
	"encoding/json"
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

// ForecastHandler runs revenue forecasts over the stored sales
// series and reports failures as RFC 7807 problem documents.
type ForecastHandler struct {
	service      ForecastServiceInterface
	validator    *customMiddleware.ValidationMiddleware
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewForecastHandler creates a new forecast handler
func NewForecastHandler(service ForecastServiceInterface, validator *customMiddleware.ValidationMiddleware, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ForecastHandler {
	return &ForecastHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "forecast_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the forecast routes with proper Chi patterns
func (h *ForecastHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/", h.RunForecast)

	return r
}

// RunForecast handles POST /api/forecast
func (h *ForecastHandler) RunForecast(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	var req api.ForecastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("body", "Request body must be valid JSON"))
		return
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "forecast requested",
		slog.Int("horizon", req.Horizon),
		slog.String("model", req.Model),
		slog.String("request_id", reqID),
	)

	outcome, err := h.service.Forecast(r.Context(), req)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "forecast failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		if errors.Is(err, services.ErrOperationTimeout) {
			h.errorHandler.HandleError(w, r, apierrors.New(
				http.StatusGatewayTimeout,
				"FORECAST_TIMEOUT",
				"The forecast did not finish in time",
			))
			return
		}
		render.Render(w, r, apierrors.MapForecastError(err, reqID))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"model":       string(outcome.Forecast.Model),
			"results":     outcome.Forecast.Results,
			"metrics":     outcome.Forecast.Metrics,
			"data_days":   outcome.DataDays,
			"export_file": outcome.ExportFile,
		},
	})
}
