package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// Domain sentinel errors used across the import and forecast surfaces
var (
	ErrNoSalesData        = errors.New("no sales data")
	ErrInsufficientData   = errors.New("insufficient data for forecast")
	ErrHorizonOutOfRange  = errors.New("forecast horizon out of range")
	ErrUnknownModel       = errors.New("unknown forecast model")
	ErrUnsupportedFormat  = errors.New("unsupported file format")
	ErrEmptyFile          = errors.New("file contains no data rows")
	ErrMissingColumns     = errors.New("required columns missing")
	ErrImportInProgress   = errors.New("import already in progress")
	ErrImportBatchMissing = errors.New("import batch not found")
)

// ProblemDetails implements RFC 7807 Problem Details for HTTP APIs
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// Additional fields for extensibility
	Extensions map[string]interface{} `json:"-"`
}

// Render implements the render.Renderer interface
func (pd *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, pd.Status)
	return nil
}

// MarshalJSON custom marshaler to include extensions
func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	data := make(map[string]interface{})

	// Add standard fields
	data["type"] = pd.Type
	data["title"] = pd.Title
	data["status"] = pd.Status

	if pd.Detail != "" {
		data["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		data["instance"] = pd.Instance
	}

	// Add extensions
	for k, v := range pd.Extensions {
		data[k] = v
	}

	return json.Marshal(data)
}

// NewProblemDetails creates a new RFC 7807 compliant error
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:       problemType,
		Title:      title,
		Status:     status,
		Detail:     detail,
		Instance:   instance,
		Extensions: make(map[string]interface{}),
	}
}

// WithExtension adds an extension field to the problem details
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	pd.Extensions[key] = value
	return pd
}

// MapImportError maps import pipeline errors to HTTP problem details
func MapImportError(err error, traceID string) render.Renderer {
	instance := fmt.Sprintf("/api/import#trace-%s", traceID)

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.ErrorCode == "BATCH_NOT_FOUND" {
			return NewProblemDetails(
				http.StatusNotFound,
				TypeBatchNotFound,
				"Import Batch Not Found",
				"No import batch exists with the given identifier.",
				instance,
			).WithExtension("trace_id", traceID).
				WithExtension("error_code", "BATCH_NOT_FOUND")
		}
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Type == ErrTypeParsing {
		return NewProblemDetails(
			http.StatusUnprocessableEntity,
			TypeDataCorrupted,
			"Unreadable Import File",
			appErr.Message,
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "PARSING_ERROR")
	}

	switch {
	case errors.Is(err, ErrImportBatchMissing):
		return NewProblemDetails(
			http.StatusNotFound,
			TypeBatchNotFound,
			"Import Batch Not Found",
			"No import batch exists with the given identifier.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "BATCH_NOT_FOUND")

	case errors.Is(err, ErrUnsupportedFormat):
		return NewProblemDetails(
			http.StatusUnsupportedMediaType,
			TypeUnsupportedFormat,
			"Unsupported File Format",
			"Only .xlsx and .csv files can be imported.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "UNSUPPORTED_FORMAT").
			WithExtension("accepted_formats", []string{".xlsx", ".csv"})

	case errors.Is(err, ErrEmptyFile):
		return NewProblemDetails(
			http.StatusUnprocessableEntity,
			TypeEmptyFile,
			"Empty Import File",
			"The uploaded file contains no data rows.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "EMPTY_FILE")

	case errors.Is(err, ErrMissingColumns):
		return NewProblemDetails(
			http.StatusUnprocessableEntity,
			TypeMissingColumns,
			"Required Columns Missing",
			err.Error(),
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "MISSING_COLUMNS")

	case errors.Is(err, ErrImportInProgress):
		return NewProblemDetails(
			http.StatusConflict,
			TypeImportRunning,
			"Import Already Running",
			"Another import batch is currently running. Please wait for it to finish.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "IMPORT_IN_PROGRESS")

	default:
		return NewProblemDetails(
			http.StatusInternalServerError,
			TypeInternal,
			"Internal Server Error",
			"An unexpected error occurred while processing your request.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "INTERNAL_ERROR")
	}
}

// MapForecastError maps forecast engine errors to HTTP problem details
func MapForecastError(err error, traceID string) render.Renderer {
	instance := fmt.Sprintf("/api/forecast#trace-%s", traceID)

	switch {
	case errors.Is(err, ErrNoSalesData):
		return NewProblemDetails(
			http.StatusUnprocessableEntity,
			TypeNoSalesData,
			"No Sales Data",
			"There is no sales history to forecast from. Import sales data first.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "NO_SALES_DATA")

	case errors.Is(err, ErrInsufficientData):
		return NewProblemDetails(
			http.StatusUnprocessableEntity,
			TypeInsufficientData,
			"Insufficient History",
			"The sales history is too short for the requested model.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "INSUFFICIENT_DATA")

	case errors.Is(err, ErrHorizonOutOfRange):
		return NewProblemDetails(
			http.StatusBadRequest,
			TypeValidation,
			"Invalid Forecast Horizon",
			"The forecast horizon must be between 1 and 365 days.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "HORIZON_OUT_OF_RANGE")

	case errors.Is(err, ErrUnknownModel):
		return NewProblemDetails(
			http.StatusBadRequest,
			TypeValidation,
			"Unknown Forecast Model",
			err.Error(),
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "UNKNOWN_MODEL")

	default:
		return NewProblemDetails(
			http.StatusInternalServerError,
			TypeInternal,
			"Internal Server Error",
			"An unexpected error occurred while running the forecast.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "INTERNAL_ERROR")
	}
}
